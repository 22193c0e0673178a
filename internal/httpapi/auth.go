package httpapi

import (
	"net/http"
	"strings"
	"time"

	"fieldops-platform/internal/auth"
	"fieldops-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

type sendOTPRequest struct {
	Phone string `json:"phone"`
}

// SendOTP dispatches a login code to the given phone via the SMS vendor.
func (h Handlers) SendOTP(c *gin.Context) {
	var req sendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := h.OTP.SendLoginCode(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": res.Message})
}

type verifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// VerifyOTP exchanges a correct code for a token pair.
func (h Handlers) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := h.OTP.VerifyLogin(c.Request.Context(), req.Phone, req.OTP, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates a token pair. The presented refresh token is revoked for
// the remainder of its lifetime so it cannot be replayed.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}

	now := time.Now()
	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, now)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	if h.Revoked != nil {
		revoked, err := h.Revoked.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "revocation check failed"})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}
	}

	// Role comes from the current user record, not the old token.
	u, err := h.Users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !u.IsActive {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user is inactive"})
		return
	}

	pair, err := h.Auth.IssuePair(now, u.UserID, u.Phone, u.RoleID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	if h.Revoked != nil && claims.ExpiresAt != nil {
		if err := h.Revoked.Revoke(c.Request.Context(), claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			logger.FromGin(c).Warn("refresh token revocation failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout revokes the presented access token and, when supplied, the
// matching refresh token. Runs behind the auth middleware.
func (h Handlers) Logout(c *gin.Context) {
	if _, ok := actor(c); !ok {
		return
	}
	now := time.Now()

	raw := strings.TrimPrefix(strings.TrimSpace(c.GetHeader("Authorization")), "Bearer ")
	if claims, err := h.Auth.Verify(raw, auth.TokenTypeAccess, now); err == nil {
		h.revokeUntilExpiry(c, claims, now)
	}

	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, now)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid refresh token"})
			return
		}
		h.revokeUntilExpiry(c, claims, now)
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h Handlers) revokeUntilExpiry(c *gin.Context, claims auth.Claims, now time.Time) {
	if h.Revoked == nil || claims.ExpiresAt == nil {
		return
	}
	if err := h.Revoked.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time.Sub(now)); err != nil {
		logger.FromGin(c).Warn("token revocation failed", "jti", claims.ID, "err", err)
	}
}
