package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of a single mutation. UserID is nullable:
// the actor may be unknown, or may have been deleted after the fact. Rows are
// never updated or removed by the system.
type AuditLog struct {
	ID         string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID     *string        `gorm:"type:varchar(36);index:idx_audit_logs_user" json:"user_id"`
	Action     AuditAction    `gorm:"type:varchar(16);not null" json:"action"`
	EntityType string         `gorm:"type:varchar(32);not null;index:idx_audit_logs_entity,priority:1" json:"entity_type"`
	EntityID   string         `gorm:"type:varchar(36);not null;index:idx_audit_logs_entity,priority:2" json:"entity_id"`
	OldValues  datatypes.JSON `json:"old_values"`
	NewValues  datatypes.JSON `json:"new_values"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (a *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
