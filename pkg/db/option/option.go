// Package option holds composable gorm query modifiers.
package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// QueryOption modifies a gorm statement.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryFunc func(db *gorm.DB) *gorm.DB

func (f queryFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

func (o Operator) valid() bool {
	switch o {
	case EQ, NEQ, GT, GTE, LT, LTE:
		return true
	}
	return false
}

// Condition compares a column with a value. Field must be a column name
// chosen by the caller, never raw user input.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func ApplyOperator(c Condition) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if !c.Operator.valid() || !isIdentifier(c.Field) {
			db.AddError(fmt.Errorf("invalid condition %q %q", c.Field, c.Operator))
			return db
		}
		return db.Where(fmt.Sprintf("%s %s ?", c.Field, c.Operator), c.Value)
	})
}

// QuerySortBy orders by SortBy when it is in Allow, falling back to the
// first default column.
type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
	Default string
}

func WithQuerySortBy(sortBy, orderBy string, allow map[string]bool) QuerySortBy {
	return QuerySortBy{SortBy: sortBy, OrderBy: orderBy, Allow: allow}
}

func WithSortBy(s QuerySortBy) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		column := s.SortBy
		if !s.Allow[column] {
			column = s.Default
			if column == "" {
				column = "created_at"
			}
		}
		direction := "desc"
		if strings.EqualFold(s.OrderBy, "asc") {
			direction = "asc"
		}
		return db.Order(fmt.Sprintf("%s %s", column, direction)).Order("id " + direction)
	})
}

// WithLimit caps the result size. Non-positive values are ignored.
func WithLimit(limit int) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
