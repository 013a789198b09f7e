package domain

import (
	"context"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/bytebills/internal/auth/domain"
)

// Sink receives a finished export, e.g. an HTTP response or a directory.
type Sink interface {
	Save(ctx context.Context, filename string, r io.Reader, size int64) error
}

type ListRequest struct {
	Kind       Kind       `form:"-"`
	Status     *Status    `form:"status"`
	IssuedFrom *time.Time `form:"issued_from" time_format:"2006-01-02"`
	IssuedTo   *time.Time `form:"issued_to" time_format:"2006-01-02"`
	SortBy     string     `form:"sort_by"`
	Desc       bool       `form:"desc"`
	Limit      int        `form:"limit" validate:"omitempty,gte=1,lte=250"`
}

// Service is the lifecycle facade pages and handlers call. Every
// operation takes the caller's session explicitly.
type Service interface {
	Create(ctx context.Context, session authdomain.Session, kind Kind, form FormValues, companyID string) (snowflake.ID, error)
	Update(ctx context.Context, session authdomain.Session, kind Kind, id string, form FormValues, companyID string, previous *Document) (*Document, error)
	Remove(ctx context.Context, session authdomain.Session, kind Kind, id string) error
	Get(ctx context.Context, session authdomain.Session, kind Kind, id string) (*Document, error)
	List(ctx context.Context, session authdomain.Session, req ListRequest) ([]Document, error)
	ChangeStatus(ctx context.Context, session authdomain.Session, id string, status Status) error
	// RegenerateAndDownload renders doc and hands the PDF to sink. It
	// returns the filename used.
	RegenerateAndDownload(ctx context.Context, session authdomain.Session, doc *Document, sink Sink) (string, error)
}
