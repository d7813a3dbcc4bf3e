package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/virtuos/siddata-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type loginRequest struct {
	Endpoint  string `json:"endpoint" binding:"required"`
	APIKey    string `json:"api_key" binding:"required"`
	OriginUID string `json:"origin_uid" binding:"required"`
}

// Login authenticates an origin (a campus system) and issues a token acting
// for one of its students.
func (ah *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	token, err := ah.authService.Login(c.Request.Context(), req.Endpoint, req.APIKey, req.OriginUID)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "login_failed", err)
		return
	}
	RespondOK(c, gin.H{"token": token})
}
