package ledger

import "time"

// Promotion is a durable audit record of a completed master promotion
// (C3/onAcquired -> successful CURRENT publish). It is append-only:
// nothing in this package ever updates or deletes a row.
type Promotion struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Epoch       int64     `gorm:"uniqueIndex;not null" json:"epoch"`
	HostAndPort string    `gorm:"not null;size:255;index" json:"host_port"`
	LeaseVersion int64    `gorm:"not null" json:"lease_version"`
	PromotedAt  time.Time `gorm:"not null;index" json:"promoted_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Promotion.
func (Promotion) TableName() string {
	return "promotions"
}

// AllModels returns every model this package registers with
// AutoMigrate.
func AllModels() []any {
	return []any{
		&Promotion{},
	}
}
