package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery turns any unhandled panic into a generic JSON 500. Stack
// detail stays in the log, never in the response.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("[handlers] panic recovered: %v", recovered)
		c.Abort()
		fail(c, http.StatusInternalServerError, codeInternalError,
			"An internal server error occurred. Please try again later.")
	})
}
