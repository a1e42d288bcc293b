package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var billingValidator = validator.New(validator.WithRequiredStructEnabled())

// BillingInfo is the contact and address snapshot captured at checkout.
// It is stored on the order and never re-derived from the user profile.
type BillingInfo struct {
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required"`
	DocumentNumber string `json:"document_number"`
	Address        string `json:"address" validate:"required"`
	City           string `json:"city" validate:"required"`
	PostalCode     string `json:"postal_code"`
	Country        string `json:"country" validate:"required"`
}

// Validate checks the required contact fields.
func (b BillingInfo) Validate() error {
	return billingValidator.Struct(b)
}

// Value implements driver.Valuer so gorm can persist the snapshot as jsonb.
func (b BillingInfo) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements sql.Scanner.
func (b *BillingInfo) Scan(value any) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	default:
		return fmt.Errorf("unsupported billing info type %T", value)
	}
}
