package service

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/samber/lo"
	authdomain "github.com/smallbiznis/bytebills/internal/auth/domain"
	"github.com/smallbiznis/bytebills/internal/clock"
	"github.com/smallbiznis/bytebills/internal/config"
	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
	"github.com/smallbiznis/bytebills/internal/export"
	"github.com/smallbiznis/bytebills/internal/money"
	"github.com/smallbiznis/bytebills/internal/providers/pdf"
	"github.com/smallbiznis/bytebills/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidPeriod = ierr.NewError("invalid_report_period").
	WithHint("The start date must be before the end date.").
	Mark(ierr.ErrValidation)

type Params struct {
	fx.In

	Log            *zap.Logger
	Clock          clock.Clock
	Config         config.Config
	DocumentConfig *config.DocumentConfigHolder
	Documents      documentdomain.Repository
	PDF            pdf.Provider
}

type Service struct {
	log            *zap.Logger
	clock          clock.Clock
	timeout        time.Duration
	documentConfig *config.DocumentConfigHolder
	documents      documentdomain.Repository
	pdf            pdf.Provider
}

func New(p Params) domain.Service {
	timeout := p.Config.CollaboratorTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		log:            p.Log.Named("report.service"),
		clock:          p.Clock,
		timeout:        timeout,
		documentConfig: p.DocumentConfig,
		documents:      p.Documents,
		pdf:            p.PDF,
	}
}

func (s *Service) Generate(ctx context.Context, session authdomain.Session, req domain.Request) (*domain.Report, error) {
	if !session.Valid() {
		return nil, authdomain.ErrInvalidSession
	}
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return nil, ErrInvalidPeriod
	}

	kinds := lo.Uniq(req.Kinds)
	if len(kinds) == 0 {
		kinds = documentdomain.Kinds
	}

	var docs []documentdomain.Document
	for _, kind := range kinds {
		if !kind.Valid() {
			return nil, documentdomain.ErrInvalidKind
		}

		batch, err := s.query(ctx, documentdomain.Query{
			Kind:       kind,
			OwnerID:    session.UserID,
			IssuedFrom: req.From,
			IssuedTo:   req.To,
			SortBy:     "issue_date",
		})
		if err != nil {
			s.log.Error("failed to query documents for report",
				zap.String("kind", string(kind)),
				zap.String("owner_id", session.UserID),
				zap.Error(err),
			)
			return nil, ierr.Collaborator(err, "query documents")
		}
		docs = append(docs, batch...)
	}

	rows, totals := Aggregate(docs)
	return &domain.Report{
		OwnerID:     session.UserID,
		From:        req.From,
		To:          req.To,
		GeneratedAt: s.clock.Now().UTC(),
		Rows:        rows,
		Totals:      totals,
	}, nil
}

func (s *Service) Download(ctx context.Context, session authdomain.Session, req domain.Request, sink documentdomain.Sink) (string, error) {
	report, err := s.Generate(ctx, session, req)
	if err != nil {
		return "", err
	}

	cfg := s.documentConfig.Get()
	owner := session.DisplayName
	if owner == "" {
		owner = session.Email
	}
	data := ToPDFData(report, "Revenue report", owner, money.NewFormatter(cfg.Locale, cfg.DefaultCurrency))

	r, err := s.pdf.GenerateReport(ctx, data)
	if err != nil {
		s.log.Error("failed to render report", zap.String("owner_id", session.UserID), zap.Error(err))
		return "", ierr.Wrap(err, "render report")
	}

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return "", ierr.Wrap(err, "buffer report")
	}

	filename := "Report-" + report.GeneratedAt.Format("20060102") + ".pdf"
	if err := export.Download(ctx, buf, filename, sink); err != nil {
		return "", ierr.Collaborator(err, "download report")
	}
	return filename, nil
}

func (s *Service) query(ctx context.Context, q documentdomain.Query) ([]documentdomain.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.documents.Query(ctx, q)
}
