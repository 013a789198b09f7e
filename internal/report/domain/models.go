// Package domain contains the revenue report model.
package domain

import (
	"context"
	"time"

	authdomain "github.com/smallbiznis/bytebills/internal/auth/domain"
	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
)

// Request selects the documents a report covers. An empty Kinds means
// every kind. From and To are inclusive days.
type Request struct {
	Kinds []documentdomain.Kind `form:"kind"`
	From  *time.Time            `form:"from" time_format:"2006-01-02"`
	To    *time.Time            `form:"to" time_format:"2006-01-02"`
}

// Row aggregates the documents of one month, kind, currency and status.
// Status is empty for receipts and delivery notes.
type Row struct {
	Month    string                `json:"month"`
	Kind     documentdomain.Kind   `json:"kind"`
	Status   documentdomain.Status `json:"status,omitempty"`
	Currency string                `json:"currency"`
	Count    int                   `json:"count"`
	Subtotal float64               `json:"subtotal"`
	Tax      float64               `json:"tax"`
	Total    float64               `json:"total"`
}

// CurrencyTotal is the revenue in one currency. Delivery notes and
// cancelled invoices are not revenue and are left out.
type CurrencyTotal struct {
	Currency string  `json:"currency"`
	Count    int     `json:"count"`
	Total    float64 `json:"total"`
}

type Report struct {
	OwnerID     string          `json:"ownerId"`
	From        *time.Time      `json:"from,omitempty"`
	To          *time.Time      `json:"to,omitempty"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Rows        []Row           `json:"rows"`
	Totals      []CurrencyTotal `json:"totals"`
}

type Service interface {
	Generate(ctx context.Context, session authdomain.Session, req Request) (*Report, error)
	// Download renders the report as a PDF into sink and returns the
	// filename used.
	Download(ctx context.Context, session authdomain.Session, req Request, sink documentdomain.Sink) (string, error)
}
