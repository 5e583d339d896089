package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/community-portal-api/internal/models"
	"github.com/noah-isme/community-portal-api/internal/moderation"
)

// ErrVersionConflict indicates another writer changed the row after it was read.
var ErrVersionConflict = errors.New("entity was modified concurrently")

// ModerationRecord is the moderation projection shared by every moderatable table.
type ModerationRecord struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	OwnerID   uint      `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	models.ModerationState
}

// ModerationFilter narrows moderation listings. An empty Status means all.
type ModerationFilter struct {
	Status   string
	Page     int
	PageSize int
}

// ModerationRepository reads and transitions moderatable entities.
type ModerationRepository interface {
	Get(ctx context.Context, kind moderation.Kind, id uint) (ModerationRecord, error)
	List(ctx context.Context, kind moderation.Kind, filter ModerationFilter) ([]ModerationRecord, int64, error)
	CountByStatus(ctx context.Context, kind moderation.Kind) (map[string]int64, error)
	Apply(ctx context.Context, kind moderation.Kind, id uint, expectedVersion uint, updates map[string]interface{}, audit *models.ModerationAudit) error
	ListAudits(ctx context.Context, kind moderation.Kind, id uint) ([]models.ModerationAudit, error)
}

type kindTable struct {
	name        string
	titleColumn string
	ownerColumn string
}

var kindTables = map[moderation.Kind]kindTable{
	moderation.KindBlog:           {name: "blogs", titleColumn: "title", ownerColumn: "author_id"},
	moderation.KindAchievement:    {name: "achievements", titleColumn: "title", ownerColumn: "owner_id"},
	moderation.KindCoachingCenter: {name: "coaching_centers", titleColumn: "name", ownerColumn: "owner_id"},
	moderation.KindUserAccount:    {name: "user_accounts", titleColumn: "full_name", ownerColumn: "id"},
}

const moderationColumns = "status, reason, acted_by, acted_by_name, approved_at, rejected_at, disabled_at, removed_at, removed_by, removed_by_name, remove_reason, version"

func tableFor(kind moderation.Kind) (kindTable, error) {
	table, ok := kindTables[kind]
	if !ok {
		return kindTable{}, fmt.Errorf("%w: %q", moderation.ErrUnknownKind, kind)
	}
	return table, nil
}

func (t kindTable) selectColumns() string {
	return fmt.Sprintf("id, created_at, %s AS title, %s AS owner_id, %s", t.titleColumn, t.ownerColumn, moderationColumns)
}

type moderationRepository struct {
	db *gorm.DB
}

// NewModerationRepository constructs a GORM-backed moderation repository.
func NewModerationRepository(db *gorm.DB) ModerationRepository {
	return &moderationRepository{db: db}
}

func (r *moderationRepository) Get(ctx context.Context, kind moderation.Kind, id uint) (ModerationRecord, error) {
	table, err := tableFor(kind)
	if err != nil {
		return ModerationRecord{}, err
	}

	var record ModerationRecord
	if err := r.db.WithContext(ctx).
		Table(table.name).
		Select(table.selectColumns()).
		Where("id = ?", id).
		Take(&record).Error; err != nil {
		return ModerationRecord{}, err
	}

	return record, nil
}

func (r *moderationRepository) List(ctx context.Context, kind moderation.Kind, filter ModerationFilter) ([]ModerationRecord, int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).Table(table.name)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var records []ModerationRecord
	if err := query.
		Select(table.selectColumns()).
		Order("created_at DESC").
		Order("id DESC").
		Scan(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *moderationRepository) CountByStatus(ctx context.Context, kind moderation.Kind) (map[string]int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status string
		Total  int64
	}
	if err := r.db.WithContext(ctx).
		Table(table.name).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// Apply writes the status change and the audit row in one transaction. The
// update only matches when the stored version still equals expectedVersion.
func (r *moderationRepository) Apply(ctx context.Context, kind moderation.Kind, id uint, expectedVersion uint, updates map[string]interface{}, audit *models.ModerationAudit) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	values := make(map[string]interface{}, len(updates)+2)
	for column, value := range updates {
		values[column] = value
	}
	values["version"] = gorm.Expr("version + 1")
	values["updated_at"] = time.Now().UTC()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Table(table.name).
			Where("id = ? AND version = ?", id, expectedVersion).
			Updates(values)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVersionConflict
		}

		if audit == nil {
			return nil
		}
		return tx.Create(audit).Error
	})
}

func (r *moderationRepository) ListAudits(ctx context.Context, kind moderation.Kind, id uint) ([]models.ModerationAudit, error) {
	if _, err := tableFor(kind); err != nil {
		return nil, err
	}

	var audits []models.ModerationAudit
	if err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", string(kind), id).
		Order("created_at DESC").
		Order("id DESC").
		Find(&audits).Error; err != nil {
		return nil, err
	}
	return audits, nil
}
