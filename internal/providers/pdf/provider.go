// Package pdf renders tabular reports with maroto.
package pdf

import (
	"context"
	"io"
)

// Provider turns report data into a PDF stream.
type Provider interface {
	GenerateReport(ctx context.Context, data ReportData) (io.Reader, error)
}

type ReportData struct {
	Title       string
	Owner       string
	Period      string
	GeneratedAt string

	Rows   []ReportRow
	Totals []ReportTotal
}

// ReportRow is one printed line; amounts arrive formatted.
type ReportRow struct {
	Month    string
	Kind     string
	Status   string
	Currency string
	Count    int
	Subtotal string
	Tax      string
	Total    string
}

type ReportTotal struct {
	Currency string
	Count    int
	Total    string
}
