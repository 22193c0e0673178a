package main

import (
	"fieldops-platform/internal/httpapi"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", h.Health)

	v1 := r.Group("/v1")

	// AUTH routes. send/verify/refresh are public; logout needs a live token.
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/send-otp", h.SendOTP)
		authGroup.POST("/verify-otp", h.VerifyOTP)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/logout", authMW, h.Logout)
	}

	// USER routes
	userGroup := v1.Group("/users")
	userGroup.Use(authMW)
	{
		userGroup.GET("", h.ListOfficeUsers)
		userGroup.GET("/me", h.Me)
		userGroup.GET("/role", h.MyRoles)
		userGroup.PUT("", h.UpdateUser)
		userGroup.DELETE("/:id", h.DeleteUser)
		userGroup.POST("/upload-profile", h.UploadProfileImage)
	}

	// EXPENSE routes
	expenseGroup := v1.Group("/expenses")
	expenseGroup.Use(authMW)
	{
		expenseGroup.GET("", h.ListExpenses)
		expenseGroup.POST("", h.CreateExpense)
		expenseGroup.PUT("/:id", h.UpdateExpense)
		expenseGroup.DELETE("/:id", h.DeleteExpense)
		expenseGroup.POST("/upload-images", h.UploadExpenseImages)
	}
}
