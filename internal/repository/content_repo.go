package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/community-portal-api/internal/models"
)

// BlogFilter narrows blog listings.
type BlogFilter struct {
	Status   string
	Page     int
	PageSize int
}

// ContentRepository persists the entities members and admins author.
type ContentRepository interface {
	CreateBlog(ctx context.Context, blog *models.Blog) error
	GetBlog(ctx context.Context, id uint) (models.Blog, error)
	UpdateBlog(ctx context.Context, blog *models.Blog, expectedVersion uint) error
	ListBlogs(ctx context.Context, filter BlogFilter) ([]models.Blog, int64, error)
	CreateAchievement(ctx context.Context, achievement *models.Achievement) error
	CreateCoachingCenter(ctx context.Context, center *models.CoachingCenter) error
	CreateUserAccount(ctx context.Context, account *models.UserAccount) error
	FindUserAccountByEmail(ctx context.Context, email string) (models.UserAccount, error)
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository constructs a repository backed by GORM.
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) CreateBlog(ctx context.Context, blog *models.Blog) error {
	return r.db.WithContext(ctx).Create(blog).Error
}

func (r *contentRepository) GetBlog(ctx context.Context, id uint) (models.Blog, error) {
	var blog models.Blog
	if err := r.db.WithContext(ctx).First(&blog, id).Error; err != nil {
		return models.Blog{}, err
	}
	return blog, nil
}

// UpdateBlog saves author edits. It refuses to overwrite a row whose version
// moved on, which happens when a moderator decided in between.
func (r *contentRepository) UpdateBlog(ctx context.Context, blog *models.Blog, expectedVersion uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Blog{}).
		Where("id = ? AND version = ?", blog.ID, expectedVersion).
		Updates(map[string]interface{}{
			"title":    blog.Title,
			"body":     blog.Body,
			"category": blog.Category,
			"version":  gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}
	blog.Version = expectedVersion + 1
	return nil
}

func (r *contentRepository) ListBlogs(ctx context.Context, filter BlogFilter) ([]models.Blog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Blog{})
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

	var blogs []models.Blog
	if err := query.Order("approved_at DESC").Order("id DESC").Find(&blogs).Error; err != nil {
		return nil, 0, err
	}
	return blogs, total, nil
}

func (r *contentRepository) CreateAchievement(ctx context.Context, achievement *models.Achievement) error {
	return r.db.WithContext(ctx).Create(achievement).Error
}

func (r *contentRepository) CreateCoachingCenter(ctx context.Context, center *models.CoachingCenter) error {
	return r.db.WithContext(ctx).Create(center).Error
}

func (r *contentRepository) CreateUserAccount(ctx context.Context, account *models.UserAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *contentRepository) FindUserAccountByEmail(ctx context.Context, email string) (models.UserAccount, error) {
	var account models.UserAccount
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&account).Error; err != nil {
		return models.UserAccount{}, err
	}
	return account, nil
}
