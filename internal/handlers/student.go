package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/virtuos/siddata-backend/internal/middleware"
	"github.com/virtuos/siddata-backend/internal/repos"
	"github.com/virtuos/siddata-backend/internal/services"
	"github.com/virtuos/siddata-backend/internal/types"
)

type StudentHandler struct {
	originRepo  repos.OriginRepo
	userService services.UserService
}

func NewStudentHandler(originRepo repos.OriginRepo, userService services.UserService) *StudentHandler {
	return &StudentHandler{originRepo: originRepo, userService: userService}
}

// currentUser resolves the authenticated identity to a user row, creating
// and initializing the user on first contact.
func (sh *StudentHandler) currentUser(c *gin.Context) (*types.User, bool) {
	identity := middleware.GetIdentity(c)
	if identity == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return nil, false
	}
	origin, err := sh.originRepo.GetByID(c.Request.Context(), nil, identity.OriginID)
	if err != nil {
		RespondServiceError(c, err)
		return nil, false
	}
	user, err := sh.userService.EnsureUser(c.Request.Context(), origin, identity.OriginUID)
	if err != nil {
		RespondServiceError(c, err)
		return nil, false
	}
	return user, true
}

func (sh *StudentHandler) GetMe(c *gin.Context) {
	user, ok := sh.currentUser(c)
	if !ok {
		return
	}
	RespondOK(c, gin.H{"me": user})
}

// GetOverview returns the full student view: enabled recommenders, their
// visible goals and the resolved activities inside, in display order.
func (sh *StudentHandler) GetOverview(c *gin.Context) {
	user, ok := sh.currentUser(c)
	if !ok {
		return
	}
	views, err := sh.userService.Overview(c.Request.Context(), user.ID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"recommenders": views})
}

type consentRequest struct {
	DataDonation    *bool `json:"data_donation" binding:"required"`
	DataRegulations *bool `json:"data_regulations" binding:"required"`
}

func (sh *StudentHandler) UpdateConsent(c *gin.Context) {
	user, ok := sh.currentUser(c)
	if !ok {
		return
	}
	var req consentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	updated, err := sh.userService.UpdateConsent(c.Request.Context(), user.ID, *req.DataDonation, *req.DataRegulations)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"me": updated})
}

func (sh *StudentHandler) DeleteMe(c *gin.Context) {
	user, ok := sh.currentUser(c)
	if !ok {
		return
	}
	if err := sh.userService.Delete(c.Request.Context(), user.ID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
