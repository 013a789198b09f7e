package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/samber/lo"
	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	"github.com/smallbiznis/bytebills/internal/export"
	"github.com/smallbiznis/bytebills/internal/money"
	"github.com/smallbiznis/bytebills/internal/providers/pdf"
	reportdomain "github.com/smallbiznis/bytebills/internal/report/domain"
	reportservice "github.com/smallbiznis/bytebills/internal/report/service"
	"github.com/spf13/cobra"
)

type reportOptions struct {
	*globalOptions
	owner  string
	asJSON bool
}

func newReportCmd(global *globalOptions) *cobra.Command {
	opts := &reportOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "report [documents.json]",
		Short: "Summarize exported documents into a revenue report",
		Long: `Reads a JSON array of documents, as returned by GET /api/documents/:kind,
and writes a revenue report grouped by month, kind, status and currency.`,
		Example: `  bytebillsctl report invoices.json --owner "Acme Ltd" -o out
  bytebillsctl report invoices.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}

	cmd.Flags().StringVar(&opts.owner, "owner", "", "Name printed on the report")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the report as JSON instead of writing a PDF")
	return cmd
}

func (o *reportOptions) run(ctx context.Context, out io.Writer, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	report, err := buildReport(raw, time.Now().UTC())
	if err != nil {
		return err
	}

	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	docCfg, err := o.documentConfig()
	if err != nil {
		return err
	}
	data := reportservice.ToPDFData(report, "Revenue report", o.owner, money.NewFormatter(docCfg.Locale, docCfg.DefaultCurrency))
	filename, err := writeReport(ctx, pdf.New(docCfg.Product), data, report.GeneratedAt, export.FileSink{Dir: o.outDir})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%d rows)\n", filename, len(report.Rows))
	return nil
}

// buildReport accepts either a bare array or the {"data": [...]} envelope
// the HTTP API responds with.
func buildReport(raw []byte, now time.Time) (*reportdomain.Report, error) {
	var docs []documentdomain.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		var envelope struct {
			Data []documentdomain.Document `json:"data"`
		}
		if envErr := json.Unmarshal(raw, &envelope); envErr != nil {
			return nil, fmt.Errorf("decode documents: %w", err)
		}
		docs = envelope.Data
	}

	docs = lo.Filter(docs, func(d documentdomain.Document, _ int) bool { return d.Kind.Valid() })
	rows, totals := reportservice.Aggregate(docs)

	report := &reportdomain.Report{
		GeneratedAt: now,
		Rows:        rows,
		Totals:      totals,
	}
	if len(docs) > 0 {
		first := lo.MinBy(docs, func(a, b documentdomain.Document) bool { return a.IssueDate.Before(b.IssueDate) }).IssueDate
		last := lo.MaxBy(docs, func(a, b documentdomain.Document) bool { return a.IssueDate.After(b.IssueDate) }).IssueDate
		report.From, report.To = &first, &last
	}
	return report, nil
}

func writeReport(ctx context.Context, provider pdf.Provider, data pdf.ReportData, at time.Time, sink export.Sink) (string, error) {
	r, err := provider.GenerateReport(ctx, data)
	if err != nil {
		return "", err
	}
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return "", err
	}
	filename := "Report-" + at.Format("20060102") + ".pdf"
	return filename, export.Download(ctx, buf, filename, sink)
}
