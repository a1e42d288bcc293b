package enums

import "fmt"

// ProductType classifies the travel products sold on the platform.
type ProductType string

const (
	ProductTypeFlight     ProductType = "flight"
	ProductTypeHotel      ProductType = "hotel"
	ProductTypeTransfer   ProductType = "transfer"
	ProductTypeActivity   ProductType = "activity"
	ProductTypeInsurance  ProductType = "insurance"
	ProductTypeAssistance ProductType = "assistance"
)

var validProductTypes = []ProductType{
	ProductTypeFlight,
	ProductTypeHotel,
	ProductTypeTransfer,
	ProductTypeActivity,
	ProductTypeInsurance,
	ProductTypeAssistance,
}

// String implements fmt.Stringer.
func (p ProductType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductType.
func (p ProductType) IsValid() bool {
	for _, candidate := range validProductTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductType converts raw input into a ProductType.
func ParseProductType(value string) (ProductType, error) {
	for _, candidate := range validProductTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product type %q", value)
}
