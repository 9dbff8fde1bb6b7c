package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"medichat/auth"
	"medichat/chat"
)

// RegisterChatRoutes wires the exchange, history and delete endpoints.
// POST /message permits anonymous callers; the rest require a session.
func RegisterChatRoutes(rg *gin.RouterGroup, exchanges *chat.Service, users *auth.Service) {
	rg.POST("/message", func(c *gin.Context) { postMessage(c, exchanges, users) })
	rg.GET("/history", func(c *gin.Context) { getHistory(c, exchanges, users) })
	rg.DELETE("/message/:id", func(c *gin.Context) { deleteMessage(c, exchanges, users) })
}

type messageRequest struct {
	Message string `json:"message" binding:"required"`
}

func postMessage(c *gin.Context, exchanges *chat.Service, users *auth.Service) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, codeInvalidInput, "Message is required")
		return
	}

	var userID *uint
	if user := currentUser(c, users); user != nil {
		userID = &user.ID
	}

	res, err := exchanges.Exchange(c.Request.Context(), userID, req.Message)
	if err != nil {
		failErr(c, err)
		return
	}

	body := gin.H{
		"message":    res.Reply,
		"message_id": res.MessageID,
		"persisted":  res.Persisted,
	}
	if res.StorageFailed {
		body["warning"] = "The reply was generated but could not be saved to your history."
		body["warning_code"] = codeStorageError
	}
	c.JSON(http.StatusOK, body)
}

func getHistory(c *gin.Context, exchanges *chat.Service, users *auth.Service) {
	user := currentUser(c, users)
	if user == nil {
		fail(c, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
		return
	}

	messages, err := exchanges.History(user.ID)
	if err != nil {
		failErr(c, err)
		return
	}

	history := make([]gin.H, 0, len(messages))
	for _, m := range messages {
		history = append(history, gin.H{
			"id":        m.ID,
			"content":   m.Content,
			"is_bot":    m.IsBot,
			"timestamp": m.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func deleteMessage(c *gin.Context, exchanges *chat.Service, users *auth.Service) {
	user := currentUser(c, users)
	if user == nil {
		fail(c, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, codeInvalidInput, "Invalid message id")
		return
	}

	if err := exchanges.Delete(user.ID, uint(id)); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}
