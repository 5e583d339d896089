package dto

import (
	"time"

	"github.com/noah-isme/community-portal-api/internal/models"
)

// ModerationDecisionRequest is the body accepted by every moderation action.
// The acting admin normally comes from the token; AdminID and AdminName fill
// gaps when the token carries no id or display name.
type ModerationDecisionRequest struct {
	AdminID   uint   `json:"admin_id"`
	AdminName string `json:"admin_name" validate:"omitempty,max=128"`
	Reason    string `json:"reason" validate:"omitempty,max=2000"`
}

// ModerationListRequest captures the admin tab, page and page size.
type ModerationListRequest struct {
	Tab      string
	Page     int
	PageSize int
}

// ModerationStateResponse mirrors the persisted moderation columns.
type ModerationStateResponse struct {
	Status        string     `json:"status"`
	Reason        string     `json:"reason,omitempty"`
	ActedBy       *uint      `json:"acted_by,omitempty"`
	ActedByName   string     `json:"acted_by_name,omitempty"`
	ApprovedAt    *time.Time `json:"approved_at"`
	RejectedAt    *time.Time `json:"rejected_at"`
	DisabledAt    *time.Time `json:"disabled_at"`
	RemovedAt     *time.Time `json:"removed_at"`
	RemovedBy     *uint      `json:"removed_by,omitempty"`
	RemovedByName string     `json:"removed_by_name,omitempty"`
	RemoveReason  string     `json:"remove_reason,omitempty"`
	Version       uint       `json:"version"`
}

// NewModerationStateResponse converts the embedded state into a DTO.
func NewModerationStateResponse(state models.ModerationState) ModerationStateResponse {
	return ModerationStateResponse{
		Status:        state.Status,
		Reason:        state.Reason,
		ActedBy:       state.ActedBy,
		ActedByName:   state.ActedByName,
		ApprovedAt:    state.ApprovedAt,
		RejectedAt:    state.RejectedAt,
		DisabledAt:    state.DisabledAt,
		RemovedAt:     state.RemovedAt,
		RemovedBy:     state.RemovedBy,
		RemovedByName: state.RemovedByName,
		RemoveReason:  state.RemoveReason,
		Version:       state.Version,
	}
}

// ModerationItemResponse is one row in the admin moderation queue.
type ModerationItemResponse struct {
	ID             uint      `json:"id"`
	Kind           string    `json:"kind"`
	Title          string    `json:"title"`
	OwnerID        uint      `json:"owner_id"`
	CreatedAt      time.Time `json:"created_at"`
	AllowedActions []string  `json:"allowed_actions"`
	ModerationStateResponse
}

// ModerationListResponse wraps a page of the moderation queue with per-status counts.
type ModerationListResponse struct {
	Items         []ModerationItemResponse `json:"items"`
	Pagination    PaginationMeta           `json:"pagination"`
	Counts        map[string]int64         `json:"counts"`
	TotalPending  int64                    `json:"total_pending"`
	TotalApproved int64                    `json:"total_approved"`
	TotalRejected int64                    `json:"total_rejected"`
}

// ModerationResult is returned after a successful transition.
type ModerationResult struct {
	Item       ModerationItemResponse   `json:"item"`
	Action     string                   `json:"action"`
	FromStatus string                   `json:"from_status"`
	Audit      *ModerationAuditResponse `json:"audit,omitempty"`
}

// ModerationAuditResponse serializes one audit record.
type ModerationAuditResponse struct {
	ID         uint      `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   uint      `json:"entity_id"`
	AdminID    uint      `json:"admin_id"`
	AdminName  string    `json:"admin_name"`
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewModerationAuditResponse converts an audit model into a DTO.
func NewModerationAuditResponse(audit models.ModerationAudit) ModerationAuditResponse {
	return ModerationAuditResponse{
		ID:         audit.ID,
		EntityType: audit.EntityType,
		EntityID:   audit.EntityID,
		AdminID:    audit.AdminID,
		AdminName:  audit.AdminName,
		Action:     audit.Action,
		FromStatus: audit.FromStatus,
		ToStatus:   audit.ToStatus,
		Reason:     audit.Reason,
		CreatedAt:  audit.CreatedAt,
	}
}

// NewModerationAuditResponseSlice converts a slice of audits.
func NewModerationAuditResponseSlice(audits []models.ModerationAudit) []ModerationAuditResponse {
	out := make([]ModerationAuditResponse, 0, len(audits))
	for _, audit := range audits {
		out = append(out, NewModerationAuditResponse(audit))
	}
	return out
}

// ModerationSummaryResponse aggregates queue sizes for the admin dashboard badges.
type ModerationSummaryResponse struct {
	Kinds        map[string]map[string]int64 `json:"kinds"`
	TotalPending int64                       `json:"total_pending"`
	GeneratedAt  time.Time                   `json:"generated_at"`
	CacheHit     bool                        `json:"cache_hit"`
}

// ModerationEvent is broadcast to connected admins and other nodes after a transition.
type ModerationEvent struct {
	Kind       string    `json:"kind"`
	EntityID   uint      `json:"entity_id"`
	Title      string    `json:"title"`
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    uint      `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
