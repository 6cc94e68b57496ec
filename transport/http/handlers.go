package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/layer-3/flowkey/core"
	"github.com/layer-3/flowkey/service"
)

const (
	ctxAddress = "userAddress"
	ctxToken   = "bearerToken"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService    *service.AuthService
	profileService *service.ProfileService
	logger         *zap.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, profileService *service.ProfileService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService:    authService,
		profileService: profileService,
		logger:         logger,
	}
}

type layoutsRequest struct {
	Layouts []json.RawMessage `json:"layouts" binding:"required"`
}

// Token issues a challenge nonce for publicAddress
func (h *AuthHandlers) Token(c *gin.Context) {
	address := c.Query("publicAddress")
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing address"})
		return
	}

	nonce, err := h.authService.Challenge(c.Request.Context(), address)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": nonce.Value})
}

// Verify exchanges a signed nonce for a session token
func (h *AuthHandlers) Verify(c *gin.Context) {
	address := c.Query("publicAddress")
	signature := c.Query("signature")
	if address == "" || signature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing address or signature"})
		return
	}

	token, err := h.authService.Verify(c.Request.Context(), address, signature)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Me returns the profile of the authenticated wallet
func (h *AuthHandlers) Me(c *gin.Context) {
	c.JSON(http.StatusOK, h.profileService.Profile(c.GetString(ctxAddress)))
}

// Layouts accepts layout updates from the authenticated wallet
func (h *AuthHandlers) Layouts(c *gin.Context) {
	var req layoutsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	if err := h.profileService.SaveLayouts(c.Request.Context(), c.GetString(ctxAddress), req.Layouts); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Access reports whether the client may use the service
func (h *AuthHandlers) Access(c *gin.Context) {
	c.JSON(http.StatusOK, h.profileService.Access())
}

// Logout revokes the bearer token
func (h *AuthHandlers) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), c.GetString(ctxToken)); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Health answers the root liveness check
func (h *AuthHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "Flowkey backend is running.")
}

// writeError maps domain errors to status codes
func (h *AuthHandlers) writeError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrBadRequest):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, core.ErrInvalidAddress):
		return http.StatusBadRequest, "Invalid address"
	case errors.Is(err, core.ErrNoChallengePending):
		return http.StatusBadRequest, "No challenge found"
	case errors.Is(err, core.ErrInvalidSignature):
		return http.StatusUnauthorized, "Invalid signature"
	case errors.Is(err, core.ErrTokenExpired):
		return http.StatusUnauthorized, "Token expired"
	case errors.Is(err, core.ErrTokenRevoked):
		return http.StatusUnauthorized, "Token revoked"
	case errors.Is(err, core.ErrUnauthorized), errors.Is(err, core.ErrInvalidToken):
		return http.StatusUnauthorized, "Unauthorized"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}
