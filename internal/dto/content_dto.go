package dto

import (
	"time"

	"github.com/noah-isme/community-portal-api/internal/models"
)

// BlogCreateRequest is submitted by members writing a new blog post.
type BlogCreateRequest struct {
	Title    string `json:"title" validate:"required,min=3,max=255"`
	Body     string `json:"body" validate:"required,min=10"`
	Category string `json:"category" validate:"omitempty,max=64"`
	Submit   bool   `json:"submit"`
}

// BlogUpdateRequest patches a blog that has not been moderated yet.
type BlogUpdateRequest struct {
	Title    *string `json:"title" validate:"omitempty,min=3,max=255"`
	Body     *string `json:"body" validate:"omitempty,min=10"`
	Category *string `json:"category" validate:"omitempty,max=64"`
}

// BlogResponse serializes a blog post.
type BlogResponse struct {
	ID         uint      `json:"id"`
	AuthorID   uint      `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Body       string    `json:"body"`
	Category   string    `json:"category"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	ModerationStateResponse
}

// NewBlogResponse converts a blog model to DTO.
func NewBlogResponse(blog models.Blog) BlogResponse {
	return BlogResponse{
		ID:                      blog.ID,
		AuthorID:                blog.AuthorID,
		AuthorName:              blog.AuthorName,
		Title:                   blog.Title,
		Slug:                    blog.Slug,
		Body:                    blog.Body,
		Category:                blog.Category,
		CreatedAt:               blog.CreatedAt,
		UpdatedAt:               blog.UpdatedAt,
		ModerationStateResponse: NewModerationStateResponse(blog.ModerationState),
	}
}

// BlogListResponse wraps the public blog listing.
type BlogListResponse struct {
	Items      []BlogResponse `json:"items"`
	Pagination PaginationMeta `json:"pagination"`
	CacheHit   bool           `json:"cache_hit"`
}

// AchievementCreateRequest is submitted by admins curating achievements.
type AchievementCreateRequest struct {
	OwnerID     uint   `json:"owner_id"`
	Title       string `json:"title" validate:"required,min=3,max=255"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Year        int    `json:"year" validate:"required,gte=1900,lte=2100"`
}

// AchievementResponse serializes an achievement.
type AchievementResponse struct {
	ID          uint      `json:"id"`
	OwnerID     uint      `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Year        int       `json:"year"`
	CreatedAt   time.Time `json:"created_at"`
	ModerationStateResponse
}

// NewAchievementResponse converts an achievement model to DTO.
func NewAchievementResponse(model models.Achievement) AchievementResponse {
	return AchievementResponse{
		ID:                      model.ID,
		OwnerID:                 model.OwnerID,
		Title:                   model.Title,
		Description:             model.Description,
		Year:                    model.Year,
		CreatedAt:               model.CreatedAt,
		ModerationStateResponse: NewModerationStateResponse(model.ModerationState),
	}
}

// CoachingCenterCreateRequest registers an education directory listing.
type CoachingCenterCreateRequest struct {
	Name         string `json:"name" validate:"required,min=3,max=255"`
	City         string `json:"city" validate:"required,max=128"`
	Subjects     string `json:"subjects" validate:"omitempty,max=512"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
}

// CoachingCenterResponse serializes a coaching center listing.
type CoachingCenterResponse struct {
	ID           uint      `json:"id"`
	OwnerID      uint      `json:"owner_id"`
	Name         string    `json:"name"`
	City         string    `json:"city"`
	Subjects     string    `json:"subjects"`
	ContactEmail string    `json:"contact_email"`
	CreatedAt    time.Time `json:"created_at"`
	ModerationStateResponse
}

// NewCoachingCenterResponse converts a coaching center model to DTO.
func NewCoachingCenterResponse(model models.CoachingCenter) CoachingCenterResponse {
	return CoachingCenterResponse{
		ID:                      model.ID,
		OwnerID:                 model.OwnerID,
		Name:                    model.Name,
		City:                    model.City,
		Subjects:                model.Subjects,
		ContactEmail:            model.ContactEmail,
		CreatedAt:               model.CreatedAt,
		ModerationStateResponse: NewModerationStateResponse(model.ModerationState),
	}
}

// AccountRegisterRequest is submitted by people registering on the portal.
type AccountRegisterRequest struct {
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
	Gender   string `json:"gender" validate:"omitempty,oneof=male female other"`
	City     string `json:"city" validate:"omitempty,max=128"`
}

// UserAccountResponse serializes a registration.
type UserAccountResponse struct {
	ID        uint      `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	City      string    `json:"city,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ModerationStateResponse
}

// NewUserAccountResponse converts an account model to DTO.
func NewUserAccountResponse(model models.UserAccount) UserAccountResponse {
	return UserAccountResponse{
		ID:                      model.ID,
		FullName:                model.FullName,
		Email:                   model.Email,
		Phone:                   model.Phone,
		Gender:                  model.Gender,
		City:                    model.City,
		CreatedAt:               model.CreatedAt,
		ModerationStateResponse: NewModerationStateResponse(model.ModerationState),
	}
}
