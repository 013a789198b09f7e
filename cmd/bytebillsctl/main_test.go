package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/bytebills/internal/clock"
	"github.com/smallbiznis/bytebills/internal/config"
	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	"github.com/smallbiznis/bytebills/internal/export"
	"github.com/smallbiznis/bytebills/internal/providers/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const invoiceJSON = `{
  "company": {"name": "Acme Ltd", "address": "1 Main St", "city": "Springfield"},
  "number": "INV-2501-0042",
  "form": {
    "recipient": {"name": "Globex"},
    "items": [{"description": "Widget", "quantity": 10, "unitPrice": 12.5}],
    "currency": "USD",
    "taxRatePercent": 10
  }
}`

func testRenderer() renderer {
	return renderer{
		cfg:      config.DefaultDocumentConfig(),
		clock:    clock.NewFakeClock(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)),
		exporter: export.New(zap.NewNop()),
		log:      zap.NewNop(),
	}
}

func TestRenderWritesPDF(t *testing.T) {
	dir := t.TempDir()

	filename, pages, err := testRenderer().render(context.Background(), strings.NewReader(invoiceJSON), documentdomain.KindInvoice, nil, export.FileSink{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "Invoice-INV-2501-0042.pdf", filename)
	assert.Equal(t, 1, pages)

	data, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRenderRejectsInvalidInput(t *testing.T) {
	dir := t.TempDir()
	input := strings.Replace(invoiceJSON, `"quantity": 10`, `"quantity": 0`, 1)

	_, _, err := testRenderer().render(context.Background(), strings.NewReader(input), documentdomain.KindInvoice, nil, export.FileSink{Dir: dir})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

const documentsJSON = `{"data": [
  {"kind": "invoice", "status": "paid", "currency": "USD", "subtotal": 100, "tax": 10, "total": 110, "issueDate": "2025-01-10T00:00:00Z"},
  {"kind": "invoice", "status": "cancelled", "currency": "USD", "subtotal": 50, "tax": 5, "total": 55, "issueDate": "2025-01-12T00:00:00Z"},
  {"kind": "receipt", "currency": "USD", "subtotal": 40, "tax": 0, "total": 40, "issueDate": "2025-02-03T00:00:00Z"},
  {"kind": "delivery_note", "currency": "USD", "issueDate": "2025-02-04T00:00:00Z"}
]}`

func TestBuildReport(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	report, err := buildReport([]byte(documentsJSON), now)
	require.NoError(t, err)

	assert.Len(t, report.Rows, 4)
	require.Len(t, report.Totals, 1)
	assert.Equal(t, "USD", report.Totals[0].Currency)
	assert.Equal(t, 2, report.Totals[0].Count)
	assert.InDelta(t, 150, report.Totals[0].Total, 1e-9)
	require.NotNil(t, report.From)
	assert.Equal(t, time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC), *report.From)
	assert.Equal(t, time.Date(2025, 2, 4, 0, 0, 0, 0, time.UTC), *report.To)

	_, err = buildReport([]byte("not json"), now)
	assert.Error(t, err)
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	report, err := buildReport([]byte(documentsJSON), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	data := pdf.ReportData{Title: "Revenue report", Owner: "Acme Ltd"}
	filename, err := writeReport(context.Background(), pdf.New("ByteBills"), data, report.GeneratedAt, export.FileSink{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, "Report-20250301.pdf", filename)

	_, err = os.Stat(filepath.Join(dir, filename))
	assert.NoError(t, err)
}
