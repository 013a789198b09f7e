package service

import (
	"context"
	"crypto/rand"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bytebills/internal/auth/domain"
	"github.com/smallbiznis/bytebills/internal/auth/password"
	"github.com/smallbiznis/bytebills/internal/auth/repository"
	"github.com/smallbiznis/bytebills/internal/clock"
	"github.com/smallbiznis/bytebills/internal/config"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Clock   clock.Clock
	GenID   *snowflake.Node
	Repo    repository.Repository
	Revoker Revoker
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	repo    repository.Repository
	revoker Revoker
	secret  []byte
	ttl     time.Duration
	timeout time.Duration
}

func New(p Params) (domain.Service, error) {
	log := p.Log.Named("auth.service")

	secret := []byte(p.Config.AuthJWTSecret)
	if len(secret) == 0 {
		if p.Config.IsProduction() {
			return nil, ierr.NewError("AUTH_JWT_SECRET is required in production").Mark(ierr.ErrValidation)
		}
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
		log.Warn("AUTH_JWT_SECRET not set, using an ephemeral signing key")
	}

	ttl := p.Config.AuthTokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	timeout := p.Config.CollaboratorTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Service{
		log:     log,
		clock:   p.Clock,
		genID:   p.GenID,
		repo:    p.Repo,
		revoker: p.Revoker,
		secret:  secret,
		ttl:     ttl,
		timeout: timeout,
	}, nil
}

func (s *Service) Register(ctx context.Context, email, displayName, pw string) (*domain.CurrentUser, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ierr.Validation("Enter a valid email address.")
	}
	if len(strings.TrimSpace(pw)) < password.MinLength {
		return nil, domain.ErrWeakPassword
	}

	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, ierr.Collaborator(err, "auth.find_user")
	}
	if existing != nil {
		return nil, domain.ErrUserExists
	}

	hashed, err := password.Hash(pw)
	if err != nil {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = defaultDisplayName(email)
	}
	now := s.clock.Now()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.withTimeout(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, user)
	})
	if err != nil {
		if ierr.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, ierr.Collaborator(err, "auth.create_user")
	}

	return &domain.CurrentUser{ID: user.ID.String(), Email: user.Email, DisplayName: user.DisplayName}, nil
}

// SignIn checks the password and issues a signed session token. Unknown
// emails and wrong passwords fail the same way.
func (s *Service) SignIn(ctx context.Context, email, pw string) (domain.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil || strings.TrimSpace(pw) == "" {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return domain.Session{}, ierr.Collaborator(err, "auth.find_user")
	}
	if user == nil || !password.Verify(pw, user.PasswordHash) {
		return domain.Session{}, domain.ErrInvalidCredentials
	}

	userID := user.ID.String()
	token, expiresAt, err := s.issue(userID, user.Email, user.DisplayName, s.clock.Now())
	if err != nil {
		return domain.Session{}, err
	}

	s.log.Info("signed in", zap.String("user_id", userID))
	return domain.Session{
		UserID:      userID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Token:       token,
		ExpiresAt:   expiresAt,
	}, nil
}

// SignOut revokes token until it would have expired. Tokens that no longer
// verify are already unusable and are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return nil
	}
	ttl := c.ExpiresAt.Time.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}
	err = s.withTimeout(ctx, func(ctx context.Context) error {
		return s.revoker.Revoke(ctx, c.ID, ttl)
	})
	if err != nil {
		return ierr.Collaborator(err, "auth.revoke")
	}
	return nil
}

func (s *Service) Session(ctx context.Context, token string) (domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Session{}, domain.ErrInvalidSession
	}
	c, err := s.parse(token)
	if err != nil {
		return domain.Session{}, domain.ErrInvalidSession
	}

	var revoked bool
	err = s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		revoked, err = s.revoker.IsRevoked(ctx, c.ID)
		return err
	})
	if err != nil {
		return domain.Session{}, ierr.Collaborator(err, "auth.is_revoked")
	}
	if revoked {
		return domain.Session{}, domain.ErrSessionRevoked
	}

	return domain.Session{
		UserID:      c.Subject,
		Email:       c.Email,
		DisplayName: c.Name,
		Token:       token,
		ExpiresAt:   c.ExpiresAt.Time,
	}, nil
}

func (s *Service) CurrentUser(ctx context.Context, token string) (*domain.CurrentUser, error) {
	session, err := s.Session(ctx, token)
	if err != nil {
		if ierr.Is(err, ierr.ErrUnauthenticated) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.CurrentUser{ID: session.UserID, Email: session.Email, DisplayName: session.DisplayName}, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.repo.FindByEmail(ctx, email)
		return err
	})
	return user, err
}

func (s *Service) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func defaultDisplayName(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) > 0 && strings.TrimSpace(parts[0]) != "" {
		return strings.TrimSpace(parts[0])
	}
	return email
}
