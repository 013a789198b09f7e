package service

import (
	"cmp"
	"slices"
	"time"

	"github.com/samber/lo"
	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	"github.com/smallbiznis/bytebills/internal/money"
	"github.com/smallbiznis/bytebills/internal/providers/pdf"
	"github.com/smallbiznis/bytebills/internal/report/domain"
)

type rowKey struct {
	month    string
	kind     documentdomain.Kind
	status   documentdomain.Status
	currency string
}

var kindOrder = map[documentdomain.Kind]int{
	documentdomain.KindInvoice:      0,
	documentdomain.KindReceipt:      1,
	documentdomain.KindDeliveryNote: 2,
}

// Aggregate groups docs by issue month, kind, currency and invoice status,
// summing the stored totals. Rows are ordered by month, kind, status and
// currency.
func Aggregate(docs []documentdomain.Document) ([]domain.Row, []domain.CurrencyTotal) {
	groups := lo.GroupBy(docs, func(doc documentdomain.Document) rowKey {
		key := rowKey{
			month:    doc.IssueDate.UTC().Format("2006-01"),
			kind:     doc.Kind,
			currency: doc.Currency,
		}
		if doc.Kind == documentdomain.KindInvoice {
			key.status = doc.Status
		}
		return key
	})

	rows := make([]domain.Row, 0, len(groups))
	for key, group := range groups {
		rows = append(rows, domain.Row{
			Month:    key.month,
			Kind:     key.kind,
			Status:   key.status,
			Currency: key.currency,
			Count:    len(group),
			Subtotal: money.Round(money.Sum(lo.Map(group, func(d documentdomain.Document, _ int) float64 { return d.Subtotal })...), key.currency),
			Tax:      money.Round(money.Sum(lo.Map(group, func(d documentdomain.Document, _ int) float64 { return d.Tax })...), key.currency),
			Total:    money.Round(money.Sum(lo.Map(group, func(d documentdomain.Document, _ int) float64 { return d.Total })...), key.currency),
		})
	}
	slices.SortFunc(rows, func(a, b domain.Row) int {
		return cmp.Or(
			cmp.Compare(a.Month, b.Month),
			cmp.Compare(kindOrder[a.Kind], kindOrder[b.Kind]),
			cmp.Compare(a.Status, b.Status),
			cmp.Compare(a.Currency, b.Currency),
		)
	})

	revenue := lo.Filter(docs, func(doc documentdomain.Document, _ int) bool {
		switch doc.Kind {
		case documentdomain.KindDeliveryNote:
			return false
		case documentdomain.KindInvoice:
			return doc.Status != documentdomain.StatusCancelled
		}
		return true
	})
	byCurrency := lo.GroupBy(revenue, func(doc documentdomain.Document) string { return doc.Currency })

	totals := make([]domain.CurrencyTotal, 0, len(byCurrency))
	for _, code := range lo.Keys(byCurrency) {
		group := byCurrency[code]
		totals = append(totals, domain.CurrencyTotal{
			Currency: code,
			Count:    len(group),
			Total:    money.Round(money.Sum(lo.Map(group, func(d documentdomain.Document, _ int) float64 { return d.Total })...), code),
		})
	}
	slices.SortFunc(totals, func(a, b domain.CurrencyTotal) int { return cmp.Compare(a.Currency, b.Currency) })

	return rows, totals
}

// ToPDFData formats report for the PDF provider.
func ToPDFData(report *domain.Report, title, owner string, formatter *money.Formatter) pdf.ReportData {
	data := pdf.ReportData{
		Title:       title,
		Owner:       owner,
		Period:      period(report.From, report.To),
		GeneratedAt: report.GeneratedAt.Format(dateLayout),
	}
	for _, row := range report.Rows {
		printed := pdf.ReportRow{
			Month:    row.Month,
			Kind:     row.Kind.Title(),
			Status:   string(row.Status),
			Currency: row.Currency,
			Count:    row.Count,
			Subtotal: "-",
			Tax:      "-",
			Total:    "-",
		}
		if row.Kind != documentdomain.KindDeliveryNote {
			printed.Subtotal = formatter.Format(row.Subtotal, row.Currency)
			printed.Tax = formatter.Format(row.Tax, row.Currency)
			printed.Total = formatter.Format(row.Total, row.Currency)
		}
		data.Rows = append(data.Rows, printed)
	}
	for _, total := range report.Totals {
		data.Totals = append(data.Totals, pdf.ReportTotal{
			Currency: total.Currency,
			Count:    total.Count,
			Total:    formatter.Format(total.Total, total.Currency),
		})
	}
	return data
}

const dateLayout = "January 2, 2006"

func period(from, to *time.Time) string {
	switch {
	case from != nil && to != nil:
		return from.Format(dateLayout) + " - " + to.Format(dateLayout)
	case from != nil:
		return "Since " + from.Format(dateLayout)
	case to != nil:
		return "Until " + to.Format(dateLayout)
	}
	return "All time"
}
