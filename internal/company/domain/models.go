// Package domain contains the issuer company profile.
package domain

import (
	"context"
	"io"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/bytebills/internal/auth/domain"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
)

// Company is an issuer profile owned by one user. Documents copy its
// fields at build time, so edits never reach documents already issued.
type Company struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID   string       `gorm:"type:varchar(128);not null;index" json:"ownerId"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Address   string       `gorm:"type:text" json:"address,omitempty"`
	City      string       `gorm:"type:text" json:"city,omitempty"`
	Country   string       `gorm:"type:text" json:"country,omitempty"`
	Phone     string       `gorm:"type:text" json:"phone,omitempty"`
	Email     string       `gorm:"type:text" json:"email,omitempty"`
	LogoURL   string       `gorm:"type:text" json:"logoUrl,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time    `gorm:"not null" json:"updatedAt"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }

type CreateRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
}

type UpdateRequest struct {
	ID      string  `json:"-"`
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	Country *string `json:"country,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
}

// Logo is an uploaded image file.
type Logo struct {
	Body io.Reader
	Size int64
	// Progress, if set, receives the byte count as the upload proceeds.
	Progress func(uploaded int64)
}

type Repository interface {
	Create(ctx context.Context, company *Company) error
	FindByID(ctx context.Context, id snowflake.ID) (*Company, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Company, error)
	Save(ctx context.Context, company *Company) error
	Delete(ctx context.Context, id snowflake.ID) error
}

type Service interface {
	Create(ctx context.Context, session authdomain.Session, req CreateRequest) (*Company, error)
	Update(ctx context.Context, session authdomain.Session, req UpdateRequest) (*Company, error)
	Get(ctx context.Context, session authdomain.Session, id string) (*Company, error)
	List(ctx context.Context, session authdomain.Session) ([]Company, error)
	Delete(ctx context.Context, session authdomain.Session, id string) error
	UploadLogo(ctx context.Context, session authdomain.Session, id string, logo Logo) (*Company, error)
}

var (
	ErrInvalidID = ierr.NewError("invalid_company_id").
		WithHint("Invalid company id.").
		Mark(ierr.ErrValidation)
	ErrNotFound = ierr.NewError("company_not_found").
		WithHint("The selected company could not be found.").
		Mark(ierr.ErrNotFound)
	ErrAccessDenied = ierr.NewError("company_access_denied").
		Mark(ierr.ErrAccessDenied)
	ErrUnsupportedLogo = ierr.NewError("unsupported_logo").
		WithHint("Logos must be PNG or JPEG images.").
		Mark(ierr.ErrValidation)
)
