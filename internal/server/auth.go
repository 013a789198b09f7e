package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/bytebills/internal/auth/domain"
)

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	user, err := s.authsvc.Register(c.Request.Context(), strings.TrimSpace(req.Email), strings.TrimSpace(req.DisplayName), req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": user})
}

func (s *Server) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	sess, err := s.authsvc.SignIn(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, sess.Token, sess.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"user": authdomain.CurrentUser{
			ID:          sess.UserID,
			Email:       sess.Email,
			DisplayName: sess.DisplayName,
		},
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt,
	}})
}

// SignOut always clears the cookie, even when revocation fails.
func (s *Server) SignOut(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	s.sessions.Clear(c)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	if err := s.authsvc.SignOut(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		AbortWithError(c, authdomain.ErrInvalidSession)
		return
	}

	user, err := s.authsvc.CurrentUser(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if user == nil {
		AbortWithError(c, authdomain.ErrInvalidSession)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": user})
}
