package validator

import (
	"testing"

	documentdomain "github.com/smallbiznis/bytebills/internal/document/domain"
	ierr "github.com/smallbiznis/bytebills/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidateRequest(t *testing.T) {
	price := 10.0
	valid := documentdomain.FormValues{
		Recipient: documentdomain.PartyDetails{Name: "Globex"},
		Items:     []documentdomain.LineItem{{Description: "Widget", Quantity: 1, UnitPrice: &price}},
		Currency:  "USD",
	}
	assert.NoError(t, ValidateRequest(valid))

	invalid := valid
	invalid.Items = []documentdomain.LineItem{{Description: "", Quantity: 0}}
	invalid.TaxRatePercent = 150

	err := ValidateRequest(invalid)
	assert.True(t, ierr.Is(err, ierr.ErrValidation))

	n := ierr.Notify(err)
	assert.Equal(t, ierr.KindValidation, n.Kind)
	assert.Contains(t, n.Message, "items[0].description")
	assert.Contains(t, n.Message, "items[0].quantity")
	assert.Contains(t, n.Message, "taxRatePercent")
}

func TestValidateRequestRejectsEmptyItems(t *testing.T) {
	err := ValidateRequest(documentdomain.FormValues{Recipient: documentdomain.PartyDetails{Name: "Globex"}})
	assert.True(t, ierr.Is(err, ierr.ErrValidation))
	assert.Contains(t, ierr.Notify(err).Message, "items")
}
