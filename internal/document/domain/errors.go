package domain

import (
	ierr "github.com/smallbiznis/bytebills/internal/errors"
)

var (
	ErrInvalidKind = ierr.NewError("invalid_kind").
		WithHint("Unknown document type.").
		Mark(ierr.ErrValidation)
	ErrInvalidStatus = ierr.NewError("invalid_status").
		WithHint("Status must be one of pending, paid, overdue or cancelled.").
		Mark(ierr.ErrValidation)
	ErrStatusNotSupported = ierr.NewError("status_not_supported").
		WithHint("Only invoices have a payment status.").
		Mark(ierr.ErrValidation)
	ErrNoLineItems = ierr.NewError("no_line_items").
		WithHint("At least one line item is required.").
		Mark(ierr.ErrValidation)
	ErrCompanyRequired = ierr.NewError("company_required").
		WithHint("Select a company to issue the document from.").
		Mark(ierr.ErrValidation)
	ErrInvalidID = ierr.NewError("invalid_id").
		WithHint("Invalid document id.").
		Mark(ierr.ErrValidation)
	ErrDocumentNotFound = ierr.NewError("document_not_found").
		WithHint("The requested document could not be found.").
		Mark(ierr.ErrNotFound)
	ErrAccessDenied = ierr.NewError("document_access_denied").
		Mark(ierr.ErrAccessDenied)
	ErrVersionConflict = ierr.NewError("document_version_conflict").
		Mark(ierr.ErrVersionConflict)
	ErrDuplicateNumber = ierr.NewError("duplicate_document_number").
		Mark(ierr.ErrCollaborator)
)
