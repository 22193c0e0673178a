package httpapi

import (
	"errors"
	"net/http"

	"fieldops-platform/internal/auth"
	"fieldops-platform/internal/expense"
	"fieldops-platform/internal/mutate"
	"fieldops-platform/internal/otp"
	"fieldops-platform/internal/users"
	"fieldops-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Users    *users.Service
	Expenses *expense.Service
	OTP      *otp.Service
	Auth     *auth.Manager
	Revoked  *auth.RevocationList

	// UploadDir is where multipart uploads land on disk.
	UploadDir string
}

// degradedHeader flags responses whose store write committed but whose
// audit append failed. Clients treat the mutation as successful.
const degradedHeader = "X-Audit-Degraded"

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, mutate.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, mutate.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, otp.ErrInvalidCode):
		status = http.StatusUnauthorized
	case errors.Is(err, otp.ErrInactiveUser):
		status = http.StatusForbidden
	case errors.Is(err, otp.ErrTooManySends):
		status = http.StatusTooManyRequests
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// markDegraded records a best-effort audit failure on the response.
func markDegraded(c *gin.Context, out mutate.Outcome) {
	if !out.Degraded() {
		return
	}
	c.Header(degradedHeader, "true")
	logger.FromGin(c).Warn("mutation committed without audit record", "err", out.AuditErr)
}

// actor resolves the acting identity from the request context. Handlers
// behind the auth middleware call this; a missing identity aborts with 401.
func actor(c *gin.Context) (mutate.Actor, bool) {
	userID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return mutate.Actor{}, false
	}
	return mutate.Actor{UserID: userID, IPAddress: c.ClientIP()}, true
}

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
