package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/virtuos/siddata-backend/internal/repos"
	"github.com/virtuos/siddata-backend/internal/siddata"
)

type RecommenderHandler struct {
	student      *StudentHandler
	registry     siddata.Registry
	recommenders repos.RecommenderRepo
	enrollments  repos.EnrollmentRepo
}

func NewRecommenderHandler(student *StudentHandler, registry siddata.Registry, recommenders repos.RecommenderRepo, enrollments repos.EnrollmentRepo) *RecommenderHandler {
	return &RecommenderHandler{student: student, registry: registry, recommenders: recommenders, enrollments: enrollments}
}

// List returns the active recommender catalogue together with the calling
// student's enrollment state per entry.
func (rh *RecommenderHandler) List(c *gin.Context) {
	user, ok := rh.student.currentUser(c)
	if !ok {
		return
	}
	active, err := rh.recommenders.ListActive(c.Request.Context(), nil)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	enrollments, err := rh.enrollments.ListByUser(c.Request.Context(), nil, user.ID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	enabledByRec := make(map[uuid.UUID]bool, len(enrollments))
	for _, e := range enrollments {
		enabledByRec[e.RecommenderID] = e.Enabled
	}

	type entry struct {
		ID          uuid.UUID `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Image       string    `json:"image,omitempty"`
		DataInfo    string    `json:"data_info"`
		Order       int       `json:"order"`
		Enabled     bool      `json:"enabled"`
	}
	out := make([]entry, 0, len(active))
	for _, rec := range active {
		out = append(out, entry{
			ID:          rec.ID,
			Name:        rec.Name,
			Description: rec.Description,
			Image:       rec.Image,
			DataInfo:    rec.DataInfo,
			Order:       rec.Order,
			Enabled:     enabledByRec[rec.ID],
		})
	}
	RespondOK(c, gin.H{"recommenders": out})
}

type enrollmentRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// SetEnrollment toggles the student's enrollment in one recommender.
func (rh *RecommenderHandler) SetEnrollment(c *gin.Context) {
	user, ok := rh.student.currentUser(c)
	if !ok {
		return
	}
	recommenderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_recommender_id", err)
		return
	}
	var req enrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	enrollment, err := rh.enrollments.FindOrCreate(c.Request.Context(), nil, user.ID, recommenderID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if err := rh.enrollments.SetEnabled(c.Request.Context(), nil, enrollment.ID, *req.Enabled); err != nil {
		RespondServiceError(c, err)
		return
	}
	if *req.Enabled {
		rec, err := rh.recommenders.GetByID(c.Request.Context(), nil, recommenderID)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		// First enable seeds the plugin's goals and activities.
		if plugin, ok := rh.registry.Get(rec.ClassName); ok {
			if err := plugin.Initialize(c.Request.Context(), user); err != nil {
				RespondServiceError(c, err)
				return
			}
		}
	}
	RespondOK(c, gin.H{"enabled": *req.Enabled})
}
