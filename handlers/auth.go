package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"medichat/auth"
	"medichat/models"
)

const sessionUserKey = "user_id"

// RegisterAuthRoutes wires registration, login and identity endpoints.
func RegisterAuthRoutes(rg *gin.RouterGroup, users *auth.Service) {
	rg.POST("/register", func(c *gin.Context) { register(c, users) })
	rg.POST("/login", func(c *gin.Context) { login(c, users) })
	rg.POST("/logout", logout)
	rg.GET("/user", func(c *gin.Context) { getUser(c, users) })
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func register(c *gin.Context, users *auth.Service) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, codeInvalidInput, "Missing required fields")
		return
	}

	user, err := users.Register(req.Username, req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user.Public(),
	})
}

func login(c *gin.Context, users *auth.Service) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, codeInvalidInput, "Missing username or password")
		return
	}

	user, err := users.Authenticate(req.Username, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}

	sess := sessions.Default(c)
	sess.Set(sessionUserKey, user.ID)
	if err := sess.Save(); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user.Public(),
	})
}

// logout is idempotent at the session level: the first call clears the
// session, a second call has no session and is unauthorized.
func logout(c *gin.Context) {
	sess := sessions.Default(c)
	if sess.Get(sessionUserKey) == nil {
		fail(c, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
		return
	}
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := sess.Save(); err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func getUser(c *gin.Context, users *auth.Service) {
	user := currentUser(c, users)
	if user == nil {
		fail(c, http.StatusUnauthorized, codeUnauthorized, "Authentication required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.Public()})
}

// currentUser resolves the session to an identity, or nil when no valid
// session is bound. Absence is not an error here; endpoints that permit
// anonymous access rely on that.
func currentUser(c *gin.Context, users *auth.Service) *models.User {
	sess := sessions.Default(c)
	v := sess.Get(sessionUserKey)
	if v == nil {
		return nil
	}
	id, ok := v.(uint)
	if !ok {
		return nil
	}
	user, err := users.ByID(id)
	if err != nil {
		// Stale session pointing at a removed account.
		return nil
	}
	return user
}
