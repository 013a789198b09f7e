package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/smallbiznis/bytebills/internal/clock"
	companydomain "github.com/smallbiznis/bytebills/internal/company/domain"
	"github.com/smallbiznis/bytebills/internal/config"
	"github.com/smallbiznis/bytebills/internal/document/builder"
	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	"github.com/smallbiznis/bytebills/internal/export"
	"github.com/smallbiznis/bytebills/internal/layout"
	"github.com/smallbiznis/bytebills/internal/money"
	"github.com/smallbiznis/bytebills/internal/validator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// renderInput is the JSON file read by the render command.
type renderInput struct {
	Company companydomain.CreateRequest `json:"company"`
	Form    documentdomain.FormValues   `json:"form"`
	// Number overrides the generated document number.
	Number string `json:"number,omitempty"`
}

type renderOptions struct {
	*globalOptions
	kind string
	logo string
}

func newRenderCmd(global *globalOptions) *cobra.Command {
	opts := &renderOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "render [input.json]",
		Short: "Render an invoice, receipt or delivery note to PDF",
		Example: `  # Render an invoice into ./out
  bytebillsctl render invoice.json --kind invoice -o out

  # Render a delivery note with a logo
  bytebillsctl render delivery.json --kind delivery_note --logo logo.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", string(documentdomain.KindInvoice), "Document kind: invoice, receipt or delivery_note")
	cmd.Flags().StringVar(&opts.logo, "logo", "", "PNG or JPEG printed in the header")
	return cmd
}

func (o *renderOptions) run(ctx context.Context, out io.Writer, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	kind, err := documentdomain.ParseKind(strings.ToLower(o.kind))
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var logo *layout.Image
	if o.logo != "" {
		data, err := os.ReadFile(o.logo)
		if err != nil {
			return err
		}
		img, ok := layout.DecodeImage(data)
		if !ok {
			return fmt.Errorf("%s is not a PNG or JPEG", o.logo)
		}
		logo = img
	}

	docCfg, err := o.documentConfig()
	if err != nil {
		return err
	}

	r := renderer{
		cfg:      docCfg,
		clock:    clock.NewSystemClock(),
		exporter: export.New(o.log),
		log:      o.log,
	}
	filename, pages, err := r.render(ctx, f, kind, logo, export.FileSink{Dir: o.outDir})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (%d pages)\n", filename, pages)
	return nil
}

type renderer struct {
	cfg      config.DocumentConfig
	clock    clock.Clock
	exporter *export.Exporter
	log      *zap.Logger
}

// render builds, lays out and exports the document described by in.
// It returns the filename handed to sink and the page count.
func (r renderer) render(ctx context.Context, in io.Reader, kind documentdomain.Kind, logo *layout.Image, sink export.Sink) (string, int, error) {
	var input renderInput
	if err := json.NewDecoder(in).Decode(&input); err != nil {
		return "", 0, fmt.Errorf("decode input: %w", err)
	}
	if err := validator.ValidateRequest(input.Company); err != nil {
		return "", 0, err
	}
	if err := validator.ValidateRequest(input.Form); err != nil {
		return "", 0, err
	}

	company := &companydomain.Company{
		Name:    input.Company.Name,
		Address: input.Company.Address,
		City:    input.Company.City,
		Country: input.Company.Country,
		Phone:   input.Company.Phone,
		Email:   input.Company.Email,
	}
	doc, err := builder.New(
		builder.WithClock(r.clock),
		builder.WithDefaultCurrency(r.cfg.DefaultCurrency),
	).Build(kind, input.Form, company, nil)
	if err != nil {
		return "", 0, err
	}
	if number := strings.TrimSpace(input.Number); number != "" {
		doc.DocumentNumber = number
	}

	engine := layout.New(
		layout.WithGeometry(layout.Geometry{
			Width:        r.cfg.PageWidth,
			Height:       r.cfg.PageHeight,
			MarginTop:    r.cfg.MarginMM,
			MarginRight:  r.cfg.MarginMM,
			MarginBottom: r.cfg.MarginMM,
			MarginLeft:   r.cfg.MarginMM,
		}),
		layout.WithFormatter(money.NewFormatter(r.cfg.Locale, doc.Currency)),
		layout.WithProduct(r.cfg.Product),
	)
	result, err := engine.Render(&doc, layout.Assets{Logo: logo})
	if err != nil {
		return "", 0, err
	}

	buf, err := r.exporter.Export(result.PageSet)
	if err != nil {
		return "", 0, err
	}

	filename := export.Filename(doc.Kind, doc.DocumentNumber)
	if err := export.Download(ctx, buf, filename, sink); err != nil {
		return "", 0, err
	}
	r.log.Debug("rendered document",
		zap.String("kind", string(doc.Kind)),
		zap.String("number", doc.DocumentNumber),
		zap.Int("pages", result.PageCount()),
	)
	return filename, result.PageCount(), nil
}
