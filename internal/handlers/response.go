package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/virtuos/siddata-backend/internal/siddata"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the error taxonomy onto HTTP statuses: missing
// rows are 404, constraint collisions 409, plugin failures 502, the rest
// 400.
func RespondServiceError(c *gin.Context, err error) {
	var pluginErr *siddata.PluginError
	switch {
	case errors.Is(err, siddata.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, siddata.ErrConstraintViolation):
		RespondError(c, http.StatusConflict, "conflict", err)
	case errors.As(err, &pluginErr):
		RespondError(c, http.StatusBadGateway, "plugin_failed", err)
	default:
		RespondError(c, http.StatusBadRequest, "bad_request", err)
	}
}
