package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/community-portal-api/internal/models"
)

// CommentRepository persists blog comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.BlogComment) error
	GetByID(ctx context.Context, id uint) (models.BlogComment, error)
	ListByBlog(ctx context.Context, blogID uint) ([]models.BlogComment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository constructs a GORM-backed repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.BlogComment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}

		return tx.Model(&models.Blog{}).
			Where("id = ?", comment.BlogID).
			UpdateColumn("updated_at", comment.CreatedAt).
			Error
	})
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (models.BlogComment, error) {
	var comment models.BlogComment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return models.BlogComment{}, err
	}
	return comment, nil
}

// ListByBlog returns every comment of the blog, oldest first.
func (r *commentRepository) ListByBlog(ctx context.Context, blogID uint) ([]models.BlogComment, error) {
	var comments []models.BlogComment
	if err := r.db.WithContext(ctx).
		Where("blog_id = ?", blogID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
