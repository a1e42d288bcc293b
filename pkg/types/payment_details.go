package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentDetails carries the method-specific fields submitted with a payment.
// The blob is stored as-is; card numbers are expected to arrive tokenized.
type PaymentDetails struct {
	CardNumber     string `json:"card_number,omitempty"`
	CardHolder     string `json:"card_holder,omitempty"`
	ExpirationDate string `json:"expiration_date,omitempty"`
	TransferID     string `json:"transfer_id,omitempty"`
	BankName       string `json:"bank_name,omitempty"`
}

// Value implements driver.Valuer so gorm can persist the blob as jsonb.
func (p PaymentDetails) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *PaymentDetails) Scan(value any) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported payment details type %T", value)
	}
}
