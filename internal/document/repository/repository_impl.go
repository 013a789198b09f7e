package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/bytebills/internal/document/domain"
	"github.com/smallbiznis/bytebills/pkg/db"
	"github.com/smallbiznis/bytebills/pkg/db/option"
	"gorm.io/gorm"
)

var sortable = map[string]bool{
	"issue_date":      true,
	"document_number": true,
	"total":           true,
	"created_at":      true,
	"updated_at":      true,
}

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) domain.Repository {
	return &repo{db: conn}
}

func (r *repo) Insert(ctx context.Context, doc *domain.Document) error {
	err := r.db.WithContext(ctx).Create(doc).Error
	if db.IsDuplicateKeyErr(err) {
		return domain.ErrDuplicateNumber
	}
	return err
}

func (r *repo) FindByID(ctx context.Context, kind domain.Kind, id snowflake.ID) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).
		Where("id = ? AND kind = ?", id, kind).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// Replace writes every mutable column in one statement guarded by the
// version the caller last read. Identity columns never change.
func (r *repo) Replace(ctx context.Context, doc *domain.Document, expectedVersion int64) error {
	next := expectedVersion + 1
	res := r.db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("id = ? AND kind = ? AND version = ?", doc.ID, doc.Kind, expectedVersion).
		UpdateColumns(map[string]any{
			"issuer":                doc.Issuer,
			"recipient":             doc.Recipient,
			"items":                 doc.Items,
			"currency":              doc.Currency,
			"tax_rate_percent":      doc.TaxRatePercent,
			"subtotal":              doc.Subtotal,
			"tax":                   doc.Tax,
			"total":                 doc.Total,
			"notes":                 doc.Notes,
			"terms":                 doc.Terms,
			"status":                doc.Status,
			"issue_date":            doc.IssueDate,
			"due_date":              doc.DueDate,
			"payment_method":        doc.PaymentMethod,
			"invoice_reference":     doc.InvoiceReference,
			"delivery_date":         doc.DeliveryDate,
			"delivery_address":      doc.DeliveryAddress,
			"order_reference":       doc.OrderReference,
			"delivery_instructions": doc.DeliveryInstructions,
			"version":               next,
			"updated_at":            doc.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrVersionConflict
	}
	doc.Version = next
	return nil
}

func (r *repo) UpdateStatus(ctx context.Context, id snowflake.ID, status domain.Status, updatedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("id = ? AND kind = ?", id, domain.KindInvoice).
		UpdateColumns(map[string]any{
			"status":     status,
			"version":    gorm.Expr("version + 1"),
			"updated_at": updatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, kind domain.Kind, id snowflake.ID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND kind = ?", id, kind).
		Delete(&domain.Document{}).Error
}

// Query lists the owner's documents of one kind. Without an explicit sort
// the newest issue date comes first.
func (r *repo) Query(ctx context.Context, q domain.Query) ([]domain.Document, error) {
	stmt := r.db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("owner_id = ? AND kind = ?", q.OwnerID, q.Kind)
	if q.Status != nil {
		stmt = stmt.Where("status = ?", *q.Status)
	}

	opts := []option.QueryOption{}
	if q.IssuedFrom != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "issue_date",
			Operator: option.GTE,
			Value:    *q.IssuedFrom,
		}))
	}
	if q.IssuedTo != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{
			Field:    "issue_date",
			Operator: option.LT,
			Value:    nextDay(*q.IssuedTo),
		}))
	}
	order := "asc"
	if q.Desc || q.SortBy == "" {
		order = "desc"
	}
	opts = append(opts,
		option.WithSortBy(option.QuerySortBy{SortBy: q.SortBy, OrderBy: order, Allow: sortable, Default: "issue_date"}),
		option.WithLimit(q.Limit),
	)
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}

	var docs []domain.Document
	if err := stmt.Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

// nextDay is midnight after t in t's location, the exclusive end of an
// inclusive IssuedTo day.
func nextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
