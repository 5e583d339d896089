package models

import "time"

// ModerationState is embedded in every moderatable entity. Each decision
// timestamp is set on first entry into its state and cleared when a later
// decision supersedes it.
type ModerationState struct {
	Status        string     `gorm:"size:32;not null;index" json:"status"`
	Reason        string     `gorm:"type:text" json:"reason,omitempty"`
	ActedBy       *uint      `json:"acted_by,omitempty"`
	ActedByName   string     `gorm:"size:128" json:"acted_by_name,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	RejectedAt    *time.Time `json:"rejected_at,omitempty"`
	DisabledAt    *time.Time `json:"disabled_at,omitempty"`
	RemovedAt     *time.Time `json:"removed_at,omitempty"`
	RemovedBy     *uint      `json:"removed_by,omitempty"`
	RemovedByName string     `gorm:"size:128" json:"removed_by_name,omitempty"`
	RemoveReason  string     `gorm:"type:text" json:"remove_reason,omitempty"`
	Version       uint       `gorm:"not null" json:"version"`
}

// ModerationAudit is an immutable record of one moderation decision. The
// admin name is copied at write time and never refreshed.
type ModerationAudit struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EntityType string    `gorm:"size:32;not null;index:idx_moderation_audit_entity" json:"entity_type"`
	EntityID   uint      `gorm:"not null;index:idx_moderation_audit_entity" json:"entity_id"`
	AdminID    uint      `gorm:"not null;index" json:"admin_id"`
	AdminName  string    `gorm:"size:128;not null" json:"admin_name"`
	Action     string    `gorm:"size:32;not null" json:"action"`
	FromStatus string    `gorm:"size:32;not null" json:"from_status"`
	ToStatus   string    `gorm:"size:32;not null" json:"to_status"`
	Reason     string    `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

// TableName pins the audit table name.
func (ModerationAudit) TableName() string {
	return "moderation_audits"
}
