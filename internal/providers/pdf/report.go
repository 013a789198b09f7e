package pdf

import (
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type MarotoProvider struct {
	creator string
}

func New(creator string) Provider {
	return &MarotoProvider{creator: creator}
}

var (
	headerText = props.Text{Style: fontstyle.Bold, Size: 9}
	cellText   = props.Text{Size: 9}
)

func (p *MarotoProvider) GenerateReport(ctx context.Context, data ReportData) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		WithTitle(data.Title, false).
		WithCreator(p.creator, false).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, data.Title, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(16,
		col.New(8).Add(
			text.New(data.Owner, props.Text{Top: 0}),
			text.New(data.Period, props.Text{Top: 5}),
		),
		text.NewCol(4, "Generated "+data.GeneratedAt, props.Text{Size: 8, Align: align.Right}),
	)

	m.AddRow(8,
		text.NewCol(2, "Month", headerText),
		text.NewCol(2, "Type", headerText),
		text.NewCol(1, "Status", headerText),
		text.NewCol(1, "Count", right(headerText)),
		text.NewCol(2, "Subtotal", right(headerText)),
		text.NewCol(2, "Tax", right(headerText)),
		text.NewCol(2, "Total", right(headerText)),
	)

	if len(data.Rows) == 0 {
		m.AddRow(8, text.NewCol(12, "No documents in this period.", props.Text{Size: 9, Style: fontstyle.Italic}))
	}
	for _, row := range data.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.AddRow(7,
			text.NewCol(2, row.Month, cellText),
			text.NewCol(2, row.Kind, cellText),
			text.NewCol(1, row.Status, cellText),
			text.NewCol(1, strconv.Itoa(row.Count), right(cellText)),
			text.NewCol(2, row.Subtotal, right(cellText)),
			text.NewCol(2, row.Tax, right(cellText)),
			text.NewCol(2, row.Total, right(cellText)),
		)
	}

	m.AddRow(6, col.New(12))
	for _, total := range data.Totals {
		m.AddRow(8,
			col.New(6),
			text.NewCol(2, "Total "+total.Currency, headerText),
			text.NewCol(2, strconv.Itoa(total.Count)+" docs", right(cellText)),
			text.NewCol(2, total.Total, right(headerText)),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(doc.GetBytes()), nil
}

func right(t props.Text) props.Text {
	t.Align = align.Right
	return t
}
