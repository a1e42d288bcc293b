package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/enums"
)

// Package is a curated bundle of products sold at its own price. The
// bundle price is authoritative, not the sum of component prices.
type Package struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string         `gorm:"column:name;not null"`
	Description     *string        `gorm:"column:description"`
	TotalPriceCents int64          `gorm:"column:total_price_cents;not null"`
	Currency        enums.Currency `gorm:"column:currency;type:text;not null"`
	Available       bool           `gorm:"column:available;not null"`
	IsCustom        bool           `gorm:"column:is_custom;not null;default:false"`
	DeletedAt       gorm.DeletedAt `gorm:"column:deleted_at;index"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`

	Items []PackageItem `gorm:"foreignKey:PackageID"`
}

// PackageItem links one product into a package with a quantity.
type PackageItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PackageID uuid.UUID `gorm:"column:package_id;type:uuid;not null;uniqueIndex:ux_package_items_package_product"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_package_items_package_product"`
	Quantity  int       `gorm:"column:quantity;not null;default:1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`

	Product *Product `gorm:"foreignKey:ProductID"`
}
