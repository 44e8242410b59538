// Package audit appends immutable records of project mutations. The recorder
// only ever inserts; nothing in the system reads audit rows back for business
// decisions.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/talent-lab/sourcedash/dao/model"
)

// DB records audit rows into the audit_logs table. It participates in the
// caller's transaction when constructed with the transaction handle, which is
// how the repository makes mutation+audit atomic.
type DB struct {
	db *gorm.DB
}

func NewDB(db *gorm.DB) *DB {
	return &DB{db: db}
}

// Record writes one audit row. oldValue/newValue may be nil (absent snapshot,
// e.g. old on create, new on delete).
func (r *DB) Record(ctx context.Context, actorID *string, action model.AuditAction,
	entityType, entityID string, oldValue, newValue any) error {
	entry := model.AuditLog{
		UserID:     actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}

	var err error
	if entry.OldValues, err = marshalSnapshot(oldValue); err != nil {
		return err
	}
	if entry.NewValues, err = marshalSnapshot(newValue); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// WithTx returns a recorder bound to the given transaction.
func (r *DB) WithTx(tx *gorm.DB) *DB {
	return &DB{db: tx}
}

func marshalSnapshot(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal audit snapshot: %w", err)
	}
	return datatypes.JSON(data), nil
}
