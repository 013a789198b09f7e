package session

import (
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/bytebills/internal/auth/domain"
)

const contextKey = "session"

// Required resolves the request token into a session and stores it on
// both the gin context and the request context. Requests without a live
// session are aborted with the resolution error.
func Required(m *Manager, auth domain.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := m.ReadToken(c)
		if !ok {
			_ = c.Error(domain.ErrInvalidSession)
			c.Abort()
			return
		}

		s, err := auth.Session(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(contextKey, s)
		c.Request = c.Request.WithContext(domain.WithSession(c.Request.Context(), s))
		c.Next()
	}
}

// FromGin returns the session stored by Required.
func FromGin(c *gin.Context) (domain.Session, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return domain.Session{}, false
	}
	s, ok := v.(domain.Session)
	return s, ok && s.Valid()
}
