package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/bytebills/internal/auth/domain"
	"github.com/smallbiznis/bytebills/internal/clock"
	companydomain "github.com/smallbiznis/bytebills/internal/company/domain"
	"github.com/smallbiznis/bytebills/internal/config"
	"github.com/smallbiznis/bytebills/internal/document/builder"
	"github.com/smallbiznis/bytebills/internal/document/domain"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
	"github.com/smallbiznis/bytebills/internal/export"
	"github.com/smallbiznis/bytebills/internal/layout"
	"github.com/smallbiznis/bytebills/internal/money"
	obslogger "github.com/smallbiznis/bytebills/internal/observability/logger"
	"github.com/smallbiznis/bytebills/internal/observability/metrics"
	"github.com/smallbiznis/bytebills/internal/validator"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50

	collaboratorStore   = "store"
	collaboratorStorage = "storage"
)

// AssetFetcher downloads stored objects such as company logos.
type AssetFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Params struct {
	fx.In

	Log            *zap.Logger
	Clock          clock.Clock
	GenID          *snowflake.Node
	Config         config.Config
	DocumentConfig *config.DocumentConfigHolder
	Repo           domain.Repository
	Companies      companydomain.Repository
	Assets         AssetFetcher
	Exporter       *export.Exporter
	Measurer       layout.Measurer  `optional:"true"`
	Metrics        *metrics.Metrics `optional:"true"`
	// SuffixSource overrides the random document-number suffix.
	SuffixSource func() int `optional:"true"`
}

type Service struct {
	log            *zap.Logger
	clock          clock.Clock
	genID          *snowflake.Node
	timeout        time.Duration
	documentConfig *config.DocumentConfigHolder
	repo           domain.Repository
	companies      companydomain.Repository
	assets         AssetFetcher
	exporter       *export.Exporter
	measurer       layout.Measurer
	metrics        *metrics.Metrics
	suffix         func() int
}

func New(p Params) domain.Service {
	timeout := p.Config.CollaboratorTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	measurer := p.Measurer
	if measurer == nil {
		measurer = layout.NewPDFMeasurer()
	}
	return &Service{
		log:            p.Log.Named("document.service"),
		clock:          p.Clock,
		genID:          p.GenID,
		timeout:        timeout,
		documentConfig: p.DocumentConfig,
		repo:           p.Repo,
		companies:      p.Companies,
		assets:         p.Assets,
		exporter:       p.Exporter,
		measurer:       measurer,
		metrics:        p.Metrics,
		suffix:         p.SuffixSource,
	}
}

func (s *Service) Create(ctx context.Context, session authdomain.Session, kind domain.Kind, form domain.FormValues, companyID string) (id snowflake.ID, err error) {
	defer s.observe("create", kind, time.Now(), &err)

	if !session.Valid() {
		return 0, authdomain.ErrInvalidSession
	}
	if !kind.Valid() {
		return 0, domain.ErrInvalidKind
	}
	if err := validator.ValidateRequest(form); err != nil {
		return 0, err
	}

	company, err := s.ownedCompany(ctx, session, companyID)
	if err != nil {
		return 0, err
	}

	cfg := s.documentConfig.Get()
	b := s.builder(cfg)
	doc, err := b.Build(kind, form, company, nil)
	if err != nil {
		return 0, err
	}
	doc.ID = s.genID.Generate()
	doc.OwnerID = session.UserID

	attempts := max(cfg.NumberAttempts, 1)
	for attempt := 1; ; attempt++ {
		err = s.withTimeout(ctx, func(ctx context.Context) error {
			return s.repo.Insert(ctx, &doc)
		})
		if err == nil {
			break
		}
		if ierr.Is(err, domain.ErrDuplicateNumber) && attempt < attempts {
			s.metrics.RecordNumberCollision(string(kind))
			s.log.Info("document number taken, retrying",
				zap.String("kind", string(kind)),
				zap.String("document_number", doc.DocumentNumber),
				zap.Int("attempt", attempt),
			)
			b.Renumber(&doc)
			continue
		}
		return 0, s.collaboratorErr(ctx, collaboratorStore, "insert document", err)
	}

	s.log.Info("document created",
		zap.String("kind", string(kind)),
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
	)
	return doc.ID, nil
}

// Update rebuilds the document from form. When previous is given, its
// version is the one the caller edited and the replace fails if the
// stored document has moved on since.
func (s *Service) Update(ctx context.Context, session authdomain.Session, kind domain.Kind, id string, form domain.FormValues, companyID string, previous *domain.Document) (_ *domain.Document, err error) {
	defer s.observe("update", kind, time.Now(), &err)

	stored, err := s.owned(ctx, session, kind, id)
	if err != nil {
		return nil, err
	}
	expected := stored.Version
	if previous != nil {
		if previous.ID != stored.ID || previous.OwnerID != session.UserID {
			return nil, domain.ErrAccessDenied
		}
		expected = previous.Version
	}

	if err := validator.ValidateRequest(form); err != nil {
		return nil, err
	}

	company, err := s.ownedCompany(ctx, session, companyID)
	if err != nil {
		return nil, err
	}

	doc, err := s.builder(s.documentConfig.Get()).Build(kind, form, company, stored)
	if err != nil {
		return nil, err
	}

	err = s.withTimeout(ctx, func(ctx context.Context) error {
		return s.repo.Replace(ctx, &doc, expected)
	})
	if err != nil {
		return nil, s.collaboratorErr(ctx, collaboratorStore, "replace document", err)
	}
	return &doc, nil
}

func (s *Service) Remove(ctx context.Context, session authdomain.Session, kind domain.Kind, id string) (err error) {
	defer s.observe("remove", kind, time.Now(), &err)

	doc, err := s.owned(ctx, session, kind, id)
	if err != nil {
		return err
	}

	err = s.withTimeout(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, kind, doc.ID)
	})
	if err != nil {
		return s.collaboratorErr(ctx, collaboratorStore, "delete document", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, session authdomain.Session, kind domain.Kind, id string) (_ *domain.Document, err error) {
	defer s.observe("get", kind, time.Now(), &err)
	return s.owned(ctx, session, kind, id)
}

func (s *Service) List(ctx context.Context, session authdomain.Session, req domain.ListRequest) (_ []domain.Document, err error) {
	defer s.observe("list", req.Kind, time.Now(), &err)

	if !session.Valid() {
		return nil, authdomain.ErrInvalidSession
	}
	if !req.Kind.Valid() {
		return nil, domain.ErrInvalidKind
	}
	if err := validator.ValidateRequest(req); err != nil {
		return nil, err
	}
	if req.Status != nil {
		if req.Kind != domain.KindInvoice {
			return nil, domain.ErrStatusNotSupported
		}
		if !req.Status.Valid() {
			return nil, domain.ErrInvalidStatus
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var docs []domain.Document
	err = s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		docs, err = s.repo.Query(ctx, domain.Query{
			Kind:       req.Kind,
			OwnerID:    session.UserID,
			Status:     req.Status,
			IssuedFrom: req.IssuedFrom,
			IssuedTo:   req.IssuedTo,
			SortBy:     strings.TrimSpace(req.SortBy),
			Desc:       req.Desc,
			Limit:      limit,
		})
		return err
	})
	if err != nil {
		return nil, s.collaboratorErr(ctx, collaboratorStore, "query documents", err)
	}
	return docs, nil
}

// ChangeStatus updates only the payment status of an invoice. Totals are
// left as stored.
func (s *Service) ChangeStatus(ctx context.Context, session authdomain.Session, id string, status domain.Status) (err error) {
	defer s.observe("change_status", domain.KindInvoice, time.Now(), &err)

	if !status.Valid() {
		return domain.ErrInvalidStatus
	}
	doc, err := s.owned(ctx, session, domain.KindInvoice, id)
	if err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	err = s.withTimeout(ctx, func(ctx context.Context) error {
		return s.repo.UpdateStatus(ctx, doc.ID, status, now)
	})
	if err != nil {
		return s.collaboratorErr(ctx, collaboratorStore, "update status", err)
	}
	return nil
}

// RegenerateAndDownload lays doc out from its stored values and hands the
// PDF to sink. It never touches the store. A logo that cannot be fetched
// or decoded is left out.
func (s *Service) RegenerateAndDownload(ctx context.Context, session authdomain.Session, doc *domain.Document, sink domain.Sink) (filename string, err error) {
	kind := domain.Kind("")
	if doc != nil {
		kind = doc.Kind
	}
	defer s.observe("download", kind, time.Now(), &err)

	if !session.Valid() {
		return "", authdomain.ErrInvalidSession
	}
	if doc == nil || !doc.Kind.Valid() {
		return "", domain.ErrInvalidKind
	}
	if doc.OwnerID != session.UserID {
		return "", domain.ErrAccessDenied
	}

	cfg := s.documentConfig.Get()
	result, err := s.engine(cfg, doc.Currency).Render(doc, layout.Assets{Logo: s.fetchLogo(ctx, doc)})
	if err != nil {
		if ierr.Is(err, layout.ErrMalformedDocument) {
			return "", ierr.WithError(err).
				WithHint("This document has no line items to print.").
				Mark(ierr.ErrValidation)
		}
		return "", ierr.Wrap(err, "layout document")
	}

	buf, err := s.exporter.Export(result.PageSet)
	if err != nil {
		s.log.Error("failed to export document", zap.String("document_id", doc.ID.String()), zap.Error(err))
		return "", ierr.Wrap(err, "export document")
	}
	s.metrics.ObservePages(string(doc.Kind), result.PageCount())

	filename = export.Filename(doc.Kind, doc.DocumentNumber)
	if err := export.Download(ctx, buf, filename, sink); err != nil {
		return "", s.collaboratorErr(ctx, "sink", "download document", err)
	}
	return filename, nil
}

func (s *Service) fetchLogo(ctx context.Context, doc *domain.Document) *layout.Image {
	url := doc.Issuer.Data().Logo
	if url == "" || s.assets == nil {
		return nil
	}

	var data []byte
	err := s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		data, err = s.assets.Fetch(ctx, url)
		return err
	})
	if err != nil {
		s.metrics.RecordCollaboratorFailure(collaboratorStorage)
		s.log.Warn("logo unavailable, rendering without it",
			zap.String("document_id", doc.ID.String()),
			zap.String("url", url),
			zap.Error(err),
		)
		return nil
	}

	img, ok := layout.DecodeImage(data)
	if !ok {
		s.log.Warn("logo is not a PNG or JPEG, rendering without it", zap.String("url", url))
		return nil
	}
	return img
}

func (s *Service) owned(ctx context.Context, session authdomain.Session, kind domain.Kind, rawID string) (*domain.Document, error) {
	if !session.Valid() {
		return nil, authdomain.ErrInvalidSession
	}
	if !kind.Valid() {
		return nil, domain.ErrInvalidKind
	}
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}

	var doc *domain.Document
	err = s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.FindByID(ctx, kind, id)
		return err
	})
	if err != nil {
		return nil, s.collaboratorErr(ctx, collaboratorStore, "load document", err)
	}
	if doc == nil {
		return nil, domain.ErrDocumentNotFound
	}
	if doc.OwnerID != session.UserID {
		s.log.Warn("document access denied",
			zap.String("document_id", id.String()),
			zap.String("user_id", session.UserID),
		)
		return nil, domain.ErrAccessDenied
	}
	return doc, nil
}

func (s *Service) ownedCompany(ctx context.Context, session authdomain.Session, rawID string) (*companydomain.Company, error) {
	rawID = strings.TrimSpace(rawID)
	if rawID == "" {
		return nil, domain.ErrCompanyRequired
	}
	id, err := snowflake.ParseString(rawID)
	if err != nil || id == 0 {
		return nil, companydomain.ErrInvalidID
	}

	var company *companydomain.Company
	err = s.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		company, err = s.companies.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, s.collaboratorErr(ctx, collaboratorStore, "load company", err)
	}
	if company == nil {
		return nil, companydomain.ErrNotFound
	}
	if company.OwnerID != session.UserID {
		return nil, companydomain.ErrAccessDenied
	}
	return company, nil
}

func (s *Service) builder(cfg config.DocumentConfig) *builder.Builder {
	opts := []builder.Option{
		builder.WithClock(s.clock),
		builder.WithDefaultCurrency(cfg.DefaultCurrency),
	}
	if s.suffix != nil {
		opts = append(opts, builder.WithSuffixSource(s.suffix))
	}
	return builder.New(opts...)
}

func (s *Service) engine(cfg config.DocumentConfig, currency string) *layout.Engine {
	return layout.New(
		layout.WithGeometry(layout.Geometry{
			Width:        cfg.PageWidth,
			Height:       cfg.PageHeight,
			MarginTop:    cfg.MarginMM,
			MarginRight:  cfg.MarginMM,
			MarginBottom: cfg.MarginMM,
			MarginLeft:   cfg.MarginMM,
		}),
		layout.WithMeasurer(s.measurer),
		layout.WithFormatter(money.NewFormatter(cfg.Locale, currency)),
		layout.WithProduct(cfg.Product),
	)
}

func (s *Service) withTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}

// collaboratorErr passes conflicts through and wraps everything else as a
// retryable collaborator failure.
func (s *Service) collaboratorErr(ctx context.Context, collaborator, op string, err error) error {
	if ierr.Is(err, ierr.ErrVersionConflict) || ierr.Is(err, ierr.ErrNotFound) {
		return err
	}
	s.metrics.RecordCollaboratorFailure(collaborator)
	obslogger.WithContext(ctx, s.log).Error("collaborator call failed",
		zap.String("collaborator", collaborator),
		zap.String("op", op),
		zap.Error(err),
	)
	return ierr.Collaborator(err, op)
}

func (s *Service) observe(op string, kind domain.Kind, start time.Time, err *error) {
	s.metrics.ObserveDocumentOp(op, string(kind), *err, time.Since(start))
}
