package httpapi

import (
	"net/http"

	"fieldops-platform/internal/users"

	"github.com/gin-gonic/gin"
)

// ListOfficeUsers returns all users holding an office role.
func (h Handlers) ListOfficeUsers(c *gin.Context) {
	if _, ok := actor(c); !ok {
		return
	}
	out, err := h.Users.ListOfficeUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// Me returns the authenticated user's own record.
func (h Handlers) Me(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	u, err := h.Users.Get(c.Request.Context(), act.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// MyRoles lists the roles assigned to the authenticated user.
func (h Handlers) MyRoles(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	roles, err := h.Users.RolesOf(c.Request.Context(), act.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

type updateUserRequest struct {
	UserID string `json:"user_id"`
	users.UpdatePatch
}

// UpdateUser applies a partial profile update. Without a user_id the caller
// updates their own record.
func (h Handlers) UpdateUser(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	target := req.UserID
	if target == "" {
		target = act.UserID
	}
	u, out, err := h.Users.Update(c.Request.Context(), target, req.UpdatePatch, act)
	if err != nil {
		respondError(c, err)
		return
	}
	markDegraded(c, out)
	c.JSON(http.StatusOK, u)
}

// DeleteUser removes a user record.
func (h Handlers) DeleteUser(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	id := c.Param("id")
	u, out, err := h.Users.Delete(c.Request.Context(), id, act)
	if err != nil {
		respondError(c, err)
		return
	}
	markDegraded(c, out)
	c.JSON(http.StatusOK, gin.H{"message": "user deleted", "user": u})
}

// UploadProfileImage stores a profile picture and points the user record at it.
func (h Handlers) UploadProfileImage(c *gin.Context) {
	act, ok := actor(c)
	if !ok {
		return
	}
	paths, err := h.saveUploads(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}
	u, out, err := h.Users.SetProfileImage(c.Request.Context(), act.UserID, paths[0], act)
	if err != nil {
		respondError(c, err)
		return
	}
	markDegraded(c, out)
	c.JSON(http.StatusOK, u)
}
