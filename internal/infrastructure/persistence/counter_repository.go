package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/shared"
)

// DocumentCounter is one numbering window of one document family. The primary
// key (tenant_id, scope, period) makes the atomic upsert in Next race-free.
type DocumentCounter struct {
	TenantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Scope     string    `gorm:"type:varchar(100);primaryKey"`
	Period    string    `gorm:"type:varchar(20);primaryKey"`
	LastValue int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentCounter) TableName() string {
	return "document_counters"
}

// GormSequenceGenerator implements SequenceGenerator on the document_counters
// table. A single upsert claims the next value, so two concurrent callers for
// the same (tenant, scope, period) key can never receive the same number.
type GormSequenceGenerator struct {
	db *gorm.DB
}

// NewGormSequenceGenerator creates a new GormSequenceGenerator
func NewGormSequenceGenerator(db *gorm.DB) *GormSequenceGenerator {
	return &GormSequenceGenerator{db: db}
}

// Next claims and returns the next sequence value for the key.
func (g *GormSequenceGenerator) Next(ctx context.Context, tenantID uuid.UUID, scope, period string) (int64, error) {
	var next int64
	err := g.db.WithContext(ctx).Raw(`
		INSERT INTO document_counters (tenant_id, scope, period, last_value)
		VALUES (?, ?, ?, 1)
		ON CONFLICT (tenant_id, scope, period)
		DO UPDATE SET last_value = document_counters.last_value + 1
		RETURNING last_value`,
		tenantID, scope, period,
	).Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Ensure GormSequenceGenerator implements SequenceGenerator
var _ shared.SequenceGenerator = (*GormSequenceGenerator)(nil)
