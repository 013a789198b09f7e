package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Query selects documents of one kind owned by one user. IssuedFrom and
// IssuedTo are calendar days and both are inclusive: a document issued at
// any time on the IssuedTo day matches.
type Query struct {
	Kind       Kind
	OwnerID    string
	Status     *Status
	IssuedFrom *time.Time
	IssuedTo   *time.Time
	SortBy     string
	Desc       bool
	Limit      int
}

// Repository is the document-store collaborator.
type Repository interface {
	// Insert stores a new document. A clash on (owner, document number)
	// returns ErrDuplicateNumber.
	Insert(ctx context.Context, doc *Document) error
	// FindByID returns nil, nil when the document does not exist.
	FindByID(ctx context.Context, kind Kind, id snowflake.ID) (*Document, error)
	// Replace overwrites the document body when the stored version equals
	// expectedVersion, and returns ErrVersionConflict otherwise.
	Replace(ctx context.Context, doc *Document, expectedVersion int64) error
	// UpdateStatus changes only the status of an invoice and bumps its
	// version.
	UpdateStatus(ctx context.Context, id snowflake.ID, status Status, updatedAt time.Time) error
	Delete(ctx context.Context, kind Kind, id snowflake.ID) error
	Query(ctx context.Context, q Query) ([]Document, error)
}
