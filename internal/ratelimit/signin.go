package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
	"go.uber.org/zap"
)

const (
	keySignInEmail = "bytebills:signin:email:%s"
	keySignInIP    = "bytebills:signin:ip:%s"
)

var ErrTooManyAttempts = ierr.NewError("too_many_sign_in_attempts").
	WithHint("Too many sign-in attempts. Wait a minute and try again.").
	Mark(ierr.ErrRateLimited)

// SignInLimiter throttles sign-in per email and per client IP.
type SignInLimiter struct {
	bucket Bucket
	log    *zap.Logger
	rate   float64
	burst  int
}

// NewSignInLimiter allows burst attempts, refilled at perMinute a minute.
// A nil limiter allows everything.
func NewSignInLimiter(bucket Bucket, perMinute float64, burst int, log *zap.Logger) *SignInLimiter {
	if bucket == nil || perMinute <= 0 || burst <= 0 {
		return nil
	}
	return &SignInLimiter{
		bucket: bucket,
		log:    log.Named("ratelimit.signin"),
		rate:   perMinute / 60,
		burst:  burst,
	}
}

// Allow fails with ErrTooManyAttempts once either key runs dry. Backend
// errors fail open so an unavailable redis never locks users out.
func (l *SignInLimiter) Allow(ctx context.Context, email, ip string) error {
	if l == nil {
		return nil
	}
	keys := []string{fmt.Sprintf(keySignInIP, strings.TrimSpace(ip))}
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		keys = append(keys, fmt.Sprintf(keySignInEmail, email))
	}

	for _, key := range keys {
		res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
		if err != nil {
			l.log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			continue
		}
		if !res.Allowed {
			return ierr.WithError(ErrTooManyAttempts).
				WithMessagef("retry after %s", res.RetryAfter.Round(time.Second)).
				Mark(ierr.ErrRateLimited)
		}
	}
	return nil
}

// Middleware guards a JSON handler whose body carries an "email" field.
// The body is re-bound by the handler, so it is read with ShouldBindBodyWith.
func (l *SignInLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		var body struct {
			Email string `json:"email"`
		}
		_ = c.ShouldBindBodyWithJSON(&body)
		if err := l.Allow(c.Request.Context(), body.Email, c.ClientIP()); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
