package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haojie06/visualgen-http/internal/backend"
	"github.com/haojie06/visualgen-http/internal/model"
	"github.com/haojie06/visualgen-http/internal/store"
	"github.com/haojie06/visualgen-http/internal/tracker"
	"gorm.io/gorm"
)

func GinFailedWithMessage(c *gin.Context, status int, message string) {
	c.JSON(status, model.TaskHTTPResponse{
		Status:  "failed",
		Message: message,
	})
}

func GinFailedWithMessageAndGenerationId(c *gin.Context, status int, generationId string, message string) {
	c.JSON(status, model.TaskHTTPResponse{
		GenerationId: generationId,
		Status:       "failed",
		Message:      message,
	})
}

// GinUnauthorized tells the client to go through sign in again.
func GinUnauthorized(c *gin.Context, signInPath string, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, model.TaskHTTPResponse{
		Status:   "failed",
		Message:  message,
		Redirect: signInPath,
	})
}

// StatusForError maps service and backend errors to an HTTP status.
func StatusForError(err error) int {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrUnauthorized), errors.Is(err, store.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, backend.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, tracker.ErrGenerationInProgress),
		errors.Is(err, tracker.ErrMergeInProgress),
		errors.Is(err, tracker.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, tracker.ErrNoProduct),
		errors.Is(err, tracker.ErrNoGeneration),
		errors.Is(err, tracker.ErrNoPrompts),
		errors.Is(err, tracker.ErrSameCollection),
		errors.Is(err, tracker.ErrNothingToRegenerate):
		return http.StatusBadRequest
	case errors.Is(err, tracker.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
