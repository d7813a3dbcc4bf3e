package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/virtuos/siddata-backend/internal/services"
)

type ActivityHandler struct {
	student         *StudentHandler
	dispatchService services.DispatchService
}

func NewActivityHandler(student *StudentHandler, dispatchService services.DispatchService) *ActivityHandler {
	return &ActivityHandler{student: student, dispatchService: dispatchService}
}

type activityChangeRequest struct {
	Answers       datatypes.JSON `json:"answers"`
	Status        *string        `json:"status" binding:"omitempty,oneof=new active snoozed done discarded"`
	FeedbackValue *int           `json:"feedback_value" binding:"omitempty,min=0,max=5"`
	FeedbackText  *string        `json:"feedback_text"`
	Notes         *string        `json:"notes"`
}

// Update applies a student-submitted change to one of their activities and
// returns the activity as persisted after plugin processing.
func (ah *ActivityHandler) Update(c *gin.Context) {
	user, ok := ah.student.currentUser(c)
	if !ok {
		return
	}
	activityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_activity_id", err)
		return
	}
	var req activityChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	activity, err := ah.dispatchService.HandleActivityChange(c.Request.Context(), services.ActivityChange{
		ActivityID:    activityID,
		Answers:       req.Answers,
		Status:        req.Status,
		FeedbackValue: req.FeedbackValue,
		FeedbackText:  req.FeedbackText,
		Notes:         req.Notes,
		Actor:         &user.ID,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"activity": activity})
}
