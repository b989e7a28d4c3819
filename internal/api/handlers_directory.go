package api

import (
	"errors"
	"net/http"
	"strings"

	"roombook/internal/auth"
	"roombook/internal/database"
	"roombook/internal/models"

	"github.com/gin-gonic/gin"
)

// GET /users/:username
// admin and auditor may look up anyone; other roles only themselves.
func (s *HTTPServer) getUser(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	username := c.Param("username")
	if caller.Role != models.RoleAdmin && caller.Role != models.RoleAuditor && caller.Username != username {
		writeError(c, http.StatusForbidden, "forbidden: you can only view your own user profile")
		return
	}

	user, err := s.deps.Users.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		s.lookupFailed(c, err, "user not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

// GET /rooms/:room_id
func (s *HTTPServer) getRoom(c *gin.Context) {
	roomID, ok := paramID(c, "room_id")
	if !ok {
		writeError(c, http.StatusNotFound, "room not found")
		return
	}
	room, err := s.deps.Rooms.GetRoomByID(c.Request.Context(), roomID)
	if err != nil {
		s.lookupFailed(c, err, "room not found")
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *HTTPServer) lookupFailed(c *gin.Context, err error, notFound string) {
	if errors.Is(err, database.ErrNotFound) {
		writeError(c, http.StatusNotFound, notFound)
		return
	}
	_ = c.Error(err)
	writeError(c, http.StatusInternalServerError, "internal server error")
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /auth/token
func (s *HTTPServer) issueToken(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(c, http.StatusBadRequest, "username and password are required")
		return
	}

	session, err := s.deps.Login.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(c, http.StatusUnauthorized, "invalid username or password")
			return
		}
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "login ok",
		"token":      session.Token,
		"token_type": "Bearer",
		"expires_at": session.ExpiresAt,
		"user":       session.User,
	})
}

// GET /healthz
func (s *HTTPServer) healthz(c *gin.Context) {
	if err := s.deps.Health.PingContext(c.Request.Context()); err != nil {
		s.log.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
