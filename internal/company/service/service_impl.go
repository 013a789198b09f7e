package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/oklog/ulid/v2"
	authdomain "github.com/smallbiznis/bytebills/internal/auth/domain"
	"github.com/smallbiznis/bytebills/internal/clock"
	"github.com/smallbiznis/bytebills/internal/company/domain"
	"github.com/smallbiznis/bytebills/internal/config"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
	"github.com/smallbiznis/bytebills/internal/validator"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// sniffLen is the number of leading bytes filetype needs to match.
const sniffLen = 262

const defaultTimeout = 10 * time.Second

// ObjectStore holds uploaded logos.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string, progress func(int64)) (string, error)
	Delete(ctx context.Context, url string) error
}

type Params struct {
	fx.In

	Log    *zap.Logger
	Clock  clock.Clock
	GenID  *snowflake.Node
	Config config.Config
	Repo   domain.Repository
	Store  ObjectStore
}

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	genID   *snowflake.Node
	timeout time.Duration
	repo    domain.Repository
	store   ObjectStore
}

func New(p Params) domain.Service {
	timeout := p.Config.CollaboratorTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		log:     p.Log.Named("company.service"),
		clock:   p.Clock,
		genID:   p.GenID,
		timeout: timeout,
		repo:    p.Repo,
		store:   p.Store,
	}
}

func (s *Service) Create(ctx context.Context, session authdomain.Session, req domain.CreateRequest) (*domain.Company, error) {
	if !session.Valid() {
		return nil, authdomain.ErrInvalidSession
	}
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	company := &domain.Company{
		ID:        s.genID.Generate(),
		OwnerID:   session.UserID,
		Name:      strings.TrimSpace(req.Name),
		Address:   strings.TrimSpace(req.Address),
		City:      strings.TrimSpace(req.City),
		Country:   strings.TrimSpace(req.Country),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     strings.TrimSpace(req.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if company.Name == "" {
		return nil, ierr.Validation("Company name is required.")
	}

	err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, company)
	})
	if err != nil {
		s.log.Error("failed to create company", zap.String("owner_id", session.UserID), zap.Error(err))
		return nil, ierr.Collaborator(err, "create company")
	}
	return company, nil
}

func (s *Service) Update(ctx context.Context, session authdomain.Session, req domain.UpdateRequest) (*domain.Company, error) {
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}

	company, err := s.owned(ctx, session, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ierr.Validation("Company name is required.")
		}
		company.Name = name
	}
	assign(&company.Address, req.Address)
	assign(&company.City, req.City)
	assign(&company.Country, req.Country)
	assign(&company.Phone, req.Phone)
	assign(&company.Email, req.Email)
	company.UpdatedAt = s.clock.Now().UTC()

	err = s.withTimeout(ctx, func(ctx context.Context) error {
		return s.repo.Save(ctx, company)
	})
	if err != nil {
		s.log.Error("failed to update company", zap.String("company_id", company.ID.String()), zap.Error(err))
		return nil, ierr.Collaborator(err, "update company")
	}
	return company, nil
}

func (s *Service) Get(ctx context.Context, session authdomain.Session, id string) (*domain.Company, error) {
	return s.owned(ctx, session, id)
}

func (s *Service) List(ctx context.Context, session authdomain.Session) ([]domain.Company, error) {
	if !session.Valid() {
		return nil, authdomain.ErrInvalidSession
	}
	var companies []domain.Company
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		companies, err = s.repo.ListByOwner(ctx, session.UserID)
		return err
	})
	if err != nil {
		s.log.Error("failed to list companies", zap.String("owner_id", session.UserID), zap.Error(err))
		return nil, ierr.Collaborator(err, "list companies")
	}
	return companies, nil
}

// Delete removes the company. Documents already issued keep their copy of
// its details; the logo object is removed best-effort.
func (s *Service) Delete(ctx context.Context, session authdomain.Session, id string) error {
	company, err := s.owned(ctx, session, id)
	if err != nil {
		return err
	}

	err = s.withTimeout(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, company.ID)
	})
	if err != nil {
		s.log.Error("failed to delete company", zap.String("company_id", company.ID.String()), zap.Error(err))
		return ierr.Collaborator(err, "delete company")
	}
	s.removeLogo(ctx, company.LogoURL)
	return nil
}

// UploadLogo stores a PNG or JPEG logo and points the company at it. The
// previous logo, if any, is removed after the company is saved.
func (s *Service) UploadLogo(ctx context.Context, session authdomain.Session, id string, logo domain.Logo) (*domain.Company, error) {
	company, err := s.owned(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if logo.Body == nil {
		return nil, domain.ErrUnsupportedLogo
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(logo.Body, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return nil, domain.ErrUnsupportedLogo
		}
		return nil, ierr.Collaborator(err, "read logo")
	}
	head = head[:n]

	kind, _ := filetype.Match(head)
	if kind != matchers.TypePng && kind != matchers.TypeJpeg {
		return nil, domain.ErrUnsupportedLogo
	}

	key := fmt.Sprintf("logos/%s/%s-%s.%s", session.UserID, ulid.Make().String(), slug.Make(company.Name), kind.Extension)
	var url string
	err = s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		url, err = s.store.Put(ctx, key, io.MultiReader(bytes.NewReader(head), logo.Body), logo.Size, kind.MIME.Value, logo.Progress)
		return err
	})
	if err != nil {
		s.log.Error("failed to upload logo", zap.String("company_id", company.ID.String()), zap.String("key", key), zap.Error(err))
		return nil, ierr.Collaborator(err, "upload logo")
	}

	previous := company.LogoURL
	company.LogoURL = url
	company.UpdatedAt = s.clock.Now().UTC()
	err = s.withTimeout(ctx, func(ctx context.Context) error {
		return s.repo.Save(ctx, company)
	})
	if err != nil {
		s.log.Error("failed to save logo url", zap.String("company_id", company.ID.String()), zap.Error(err))
		s.removeLogo(ctx, url)
		return nil, ierr.Collaborator(err, "save company logo")
	}

	s.removeLogo(ctx, previous)
	return company, nil
}

func (s *Service) owned(ctx context.Context, session authdomain.Session, rawID string) (*domain.Company, error) {
	if !session.Valid() {
		return nil, authdomain.ErrInvalidSession
	}
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}

	var company *domain.Company
	err = s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		company, err = s.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		s.log.Error("failed to load company", zap.String("company_id", rawID), zap.Error(err))
		return nil, ierr.Collaborator(err, "load company")
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	if company.OwnerID != session.UserID {
		return nil, domain.ErrAccessDenied
	}
	return company, nil
}

func (s *Service) removeLogo(ctx context.Context, url string) {
	if url == "" {
		return
	}
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		return s.store.Delete(ctx, url)
	})
	if err != nil {
		s.log.Warn("failed to remove logo", zap.String("url", url), zap.Error(err))
	}
}

func (s *Service) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}

func assign(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
