package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"medichat/completion"
	"medichat/models"
)

// Stable machine-readable error codes carried next to the human message.
const (
	codeInvalidInput         = "invalid_input"
	codeConflict             = "conflict"
	codeUnauthorized         = "unauthorized"
	codeNotFound             = "not_found"
	codeServiceError         = "service_error"
	codeTemporaryUnavailable = "temporary_unavailable"
	codeStorageError         = "storage_error"
	codeInternalError        = "internal_error"
)

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
}

// failErr translates a service error into the HTTP taxonomy. Raw
// provider or storage text never drives the status choice; only the
// classification does.
func failErr(c *gin.Context, err error) {
	var ue *completion.UpstreamError
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		fail(c, http.StatusBadRequest, codeInvalidInput, err.Error())
	case errors.Is(err, models.ErrConflict):
		fail(c, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, models.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, codeUnauthorized, err.Error())
	case errors.Is(err, models.ErrNotFound):
		fail(c, http.StatusNotFound, codeNotFound, err.Error())
	case errors.As(err, &ue):
		log.Printf("[handlers] upstream failure (%s, retryable=%t): %v", ue.Category, ue.Retryable, ue.Err)
		if ue.Retryable {
			fail(c, http.StatusServiceUnavailable, codeTemporaryUnavailable,
				"The assistant is temporarily unavailable. Please try again later.")
			return
		}
		fail(c, http.StatusBadGateway, codeServiceError,
			"The assistant service is misconfigured or unavailable.")
	default:
		log.Printf("[handlers] internal error: %v", err)
		fail(c, http.StatusInternalServerError, codeInternalError,
			"An internal server error occurred. Please try again later.")
	}
}
