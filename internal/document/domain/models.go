// Package domain contains the billing document model shared by invoices,
// receipts and delivery notes.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Kind discriminates the document variants.
type Kind string

const (
	KindInvoice      Kind = "invoice"
	KindReceipt      Kind = "receipt"
	KindDeliveryNote Kind = "delivery_note"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindInvoice, KindReceipt, KindDeliveryNote}

func (k Kind) Valid() bool {
	switch k {
	case KindInvoice, KindReceipt, KindDeliveryNote:
		return true
	}
	return false
}

// NumberPrefix is the document-number prefix for the kind.
func (k Kind) NumberPrefix() string {
	switch k {
	case KindInvoice:
		return "INV"
	case KindReceipt:
		return "RCT"
	case KindDeliveryNote:
		return "DN"
	}
	return ""
}

// Title is the human label printed on the document.
func (k Kind) Title() string {
	switch k {
	case KindInvoice:
		return "Invoice"
	case KindReceipt:
		return "Receipt"
	case KindDeliveryNote:
		return "Delivery Note"
	}
	return ""
}

// FileLabel is the label used in exported filenames.
func (k Kind) FileLabel() string {
	switch k {
	case KindInvoice:
		return "Invoice"
	case KindReceipt:
		return "Receipt"
	case KindDeliveryNote:
		return "DeliveryNote"
	}
	return ""
}

// Collection is the collection name the kind is stored under.
func (k Kind) Collection() string {
	switch k {
	case KindInvoice:
		return "invoices"
	case KindReceipt:
		return "receipts"
	case KindDeliveryNote:
		return "delivery_notes"
	}
	return ""
}

// ParseKind accepts both kind values and collection names.
func ParseKind(raw string) (Kind, error) {
	for _, k := range Kinds {
		if raw == string(k) || raw == k.Collection() {
			return k, nil
		}
	}
	return "", ErrInvalidKind
}

// Status is the payment state of an invoice.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// LineItem is one row of a document. Delivery-note items have no price.
type LineItem struct {
	Description string   `json:"description" validate:"required"`
	Quantity    float64  `json:"quantity" validate:"gte=1"`
	UnitPrice   *float64 `json:"unitPrice,omitempty" validate:"omitempty,gte=0"`
	Notes       string   `json:"notes,omitempty"`
}

// PartyDetails describes an issuer or a recipient.
type PartyDetails struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Logo    string `json:"logo,omitempty"`
}

// Document is a persisted invoice, receipt or delivery note. Subtotal,
// Tax and Total are computed at build time and stored; renderers treat
// the stored values as authoritative.
type Document struct {
	ID             snowflake.ID                     `gorm:"primaryKey" json:"id"`
	Kind           Kind                             `gorm:"type:varchar(32);not null;index" json:"kind"`
	OwnerID        string                           `gorm:"type:varchar(128);not null;index;uniqueIndex:ux_billing_documents_owner_number" json:"ownerId"`
	DocumentNumber string                           `gorm:"type:varchar(64);not null;uniqueIndex:ux_billing_documents_owner_number" json:"documentNumber"`
	Issuer         datatypes.JSONType[PartyDetails] `json:"issuer"`
	Recipient      datatypes.JSONType[PartyDetails] `json:"recipient"`
	Items          datatypes.JSONSlice[LineItem]    `json:"items"`
	Currency       string                           `gorm:"type:varchar(8);not null" json:"currency"`
	TaxRatePercent float64                          `gorm:"not null;default:0" json:"taxRatePercent"`
	Subtotal       float64                          `gorm:"not null;default:0" json:"subtotal"`
	Tax            float64                          `gorm:"not null;default:0" json:"tax"`
	Total          float64                          `gorm:"not null;default:0" json:"total"`
	Notes          string                           `gorm:"type:text" json:"notes,omitempty"`
	Terms          string                           `gorm:"type:text" json:"terms,omitempty"`
	Status         Status                           `gorm:"type:varchar(16);index" json:"status,omitempty"`
	IssueDate      time.Time                        `gorm:"not null" json:"issueDate"`

	// Invoice
	DueDate *time.Time `json:"dueDate,omitempty"`

	// Receipt
	PaymentMethod string `gorm:"type:text" json:"paymentMethod,omitempty"`

	// Receipt and delivery note
	InvoiceReference string `gorm:"type:text" json:"invoiceReference,omitempty"`

	// Delivery note
	DeliveryDate         *time.Time `json:"deliveryDate,omitempty"`
	DeliveryAddress      string     `gorm:"type:text" json:"deliveryAddress,omitempty"`
	OrderReference       string     `gorm:"type:text" json:"orderReference,omitempty"`
	DeliveryInstructions string     `gorm:"type:text" json:"deliveryInstructions,omitempty"`

	Version   int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// TableName sets the database table name.
func (Document) TableName() string { return "billing_documents" }

// FormValues is the validated user input a document is built from.
// Totals are never accepted from the caller.
type FormValues struct {
	Recipient      PartyDetails `json:"recipient"`
	Items          []LineItem   `json:"items" validate:"required,min=1,dive"`
	Currency       string       `json:"currency" validate:"omitempty,len=3,alpha"`
	TaxRatePercent float64      `json:"taxRatePercent" validate:"gte=0,lte=100"`
	Notes          string       `json:"notes"`
	Terms          string       `json:"terms"`
	IssueDate      *time.Time   `json:"issueDate"`

	DueDate *time.Time `json:"dueDate"`

	PaymentMethod    string `json:"paymentMethod"`
	InvoiceReference string `json:"invoiceReference"`

	DeliveryDate         *time.Time `json:"deliveryDate"`
	DeliveryAddress      string     `json:"deliveryAddress"`
	OrderReference       string     `json:"orderReference"`
	DeliveryInstructions string     `json:"deliveryInstructions"`
}
