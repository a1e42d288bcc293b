package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mcastellan/terravia-backend/pkg/enums"
)

// EmailConfig holds the editable subject/body template used when a
// notification of the given type is sent, plus extra internal
// recipients to CC (sales desk, operations).
type EmailConfig struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type             enums.NotificationType `gorm:"column:type;type:text;not null;uniqueIndex"`
	Subject          string                 `gorm:"column:subject;not null"`
	BodyTemplate     string                 `gorm:"column:body_template;not null"`
	CopyRecipients   pq.StringArray         `gorm:"column:copy_recipients;type:text[]"`
	Enabled          bool                   `gorm:"column:enabled;not null;default:true"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
