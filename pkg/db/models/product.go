package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcastellan/terravia-backend/pkg/enums"
)

// Product is a single sellable travel item (flight, hotel, transfer, ...).
// Removal is a soft delete so historical order snapshots keep a valid
// reference for reporting.
type Product struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string            `gorm:"column:name;not null"`
	Description    *string           `gorm:"column:description"`
	Type           enums.ProductType `gorm:"column:type;type:text;not null"`
	Provider       *string           `gorm:"column:provider"`
	BasePriceCents int64             `gorm:"column:base_price_cents;not null"`
	Currency       enums.Currency    `gorm:"column:currency;type:text;not null"`
	Available      bool              `gorm:"column:available;not null"`
	DeletedAt      gorm.DeletedAt    `gorm:"column:deleted_at;index"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
