package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/models"
	"github.com/noah-isme/community-portal-api/internal/moderation"
	"github.com/noah-isme/community-portal-api/internal/observability"
	"github.com/noah-isme/community-portal-api/internal/repository"
)

const publishedBlogsKeyPrefix = "blogs:published:v1"

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// ContentService creates the entities that later go through moderation.
type ContentService interface {
	CacheInvalidator
	CreateBlog(ctx context.Context, author Actor, payload dto.BlogCreateRequest) (dto.BlogResponse, error)
	UpdateBlog(ctx context.Context, id uint, author Actor, payload dto.BlogUpdateRequest) (dto.BlogResponse, error)
	ListPublishedBlogs(ctx context.Context, page, pageSize int) (dto.BlogListResponse, error)
	CreateAchievement(ctx context.Context, actor Actor, payload dto.AchievementCreateRequest) (dto.AchievementResponse, error)
	RegisterCoachingCenter(ctx context.Context, owner Actor, payload dto.CoachingCenterCreateRequest) (dto.CoachingCenterResponse, error)
	RegisterAccount(ctx context.Context, payload dto.AccountRegisterRequest) (dto.UserAccountResponse, error)
}

type contentService struct {
	repo      repository.ContentRepository
	cache     *redis.Client
	ttl       time.Duration
	summary   CacheInvalidator
	validator *validator.Validate
	ugc       *bluemonday.Policy
	strict    *bluemonday.Policy
	logger    zerolog.Logger
}

// NewContentService constructs the content service. summary is told when new
// items enter a moderation queue and may be nil.
func NewContentService(repo repository.ContentRepository, cache *redis.Client, ttl time.Duration, summary CacheInvalidator, validate *validator.Validate, logger zerolog.Logger) ContentService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &contentService{
		repo:      repo,
		cache:     cache,
		ttl:       ttl,
		summary:   summary,
		validator: validate,
		ugc:       bluemonday.UGCPolicy(),
		strict:    bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "content_service").Logger(),
	}
}

func (s *contentService) CreateBlog(ctx context.Context, author Actor, payload dto.BlogCreateRequest) (dto.BlogResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BlogResponse{}, err
	}

	title := plainText(s.strict, payload.Title)
	body := strings.TrimSpace(s.ugc.Sanitize(payload.Body))
	if title == "" || body == "" {
		return dto.BlogResponse{}, ErrContentEmpty
	}

	status := moderation.StatusDraft
	if payload.Submit {
		status = moderation.StatusPending
	}

	blog := models.Blog{
		AuthorID:   author.ID,
		AuthorName: strings.TrimSpace(author.Name),
		Title:      title,
		Slug:       slugify(title),
		Body:       body,
		Category:   strings.ToLower(strings.TrimSpace(payload.Category)),
		ModerationState: models.ModerationState{
			Status:  string(status),
			Version: 1,
		},
	}

	if err := s.repo.CreateBlog(ctx, &blog); err != nil {
		return dto.BlogResponse{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if status == moderation.StatusPending {
		s.queueChanged(ctx, moderation.KindBlog)
	}

	return dto.NewBlogResponse(blog), nil
}

func (s *contentService) UpdateBlog(ctx context.Context, id uint, author Actor, payload dto.BlogUpdateRequest) (dto.BlogResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BlogResponse{}, err
	}

	blog, err := s.repo.GetBlog(ctx, id)
	if err != nil {
		return dto.BlogResponse{}, storeError(err, ErrContentNotFound)
	}
	if blog.AuthorID != author.ID {
		return dto.BlogResponse{}, ErrContentForbidden
	}
	switch moderation.Status(blog.Status) {
	case moderation.StatusDraft, moderation.StatusPending:
	default:
		return dto.BlogResponse{}, ErrContentLocked
	}

	if payload.Title != nil {
		blog.Title = plainText(s.strict, *payload.Title)
	}
	if payload.Body != nil {
		blog.Body = strings.TrimSpace(s.ugc.Sanitize(*payload.Body))
	}
	if payload.Category != nil {
		blog.Category = strings.ToLower(strings.TrimSpace(*payload.Category))
	}
	if blog.Title == "" || blog.Body == "" {
		return dto.BlogResponse{}, ErrContentEmpty
	}

	if err := s.repo.UpdateBlog(ctx, &blog, blog.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			// A moderator acted between the read and the write.
			return dto.BlogResponse{}, ErrContentLocked
		}
		return dto.BlogResponse{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return dto.NewBlogResponse(blog), nil
}

func (s *contentService) ListPublishedBlogs(ctx context.Context, page, pageSize int) (dto.BlogListResponse, error) {
	page = normalizePage(page)
	pageSize = clampPageSize(pageSize)

	cacheKey := ""
	if s.cache != nil {
		cacheKey = fmt.Sprintf("%s:%d:%d", publishedBlogsKeyPrefix, page, pageSize)
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var response dto.BlogListResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				observability.CacheRequests().WithLabelValues("published_blogs", "hit").Inc()
				return response, nil
			}
		}
	}

	blogs, total, err := s.repo.ListBlogs(ctx, repository.BlogFilter{
		Status:   string(moderation.StatusApproved),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		observability.CacheRequests().WithLabelValues("published_blogs", "error").Inc()
		return dto.BlogListResponse{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	items := make([]dto.BlogResponse, 0, len(blogs))
	for _, blog := range blogs {
		items = append(items, dto.NewBlogResponse(blog))
	}

	response := dto.BlogListResponse{
		Items: items,
		Pagination: dto.PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: calculateTotalPages(total, pageSize),
		},
	}

	if cacheKey != "" {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache published blogs")
			}
		}
	}
	observability.CacheRequests().WithLabelValues("published_blogs", "miss").Inc()

	return response, nil
}

// Invalidate drops every cached page of the public blog listing.
func (s *contentService) Invalidate(ctx context.Context, kind moderation.Kind) error {
	if s.cache == nil || kind != moderation.KindBlog {
		return nil
	}

	iter := s.cache.Scan(ctx, 0, publishedBlogsKeyPrefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.cache.Del(ctx, keys...).Err()
}

func (s *contentService) CreateAchievement(ctx context.Context, actor Actor, payload dto.AchievementCreateRequest) (dto.AchievementResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AchievementResponse{}, err
	}

	policy, err := moderation.PolicyFor(moderation.KindAchievement)
	if err != nil {
		return dto.AchievementResponse{}, err
	}

	ownerID := payload.OwnerID
	if ownerID == 0 {
		ownerID = actor.ID
	}

	achievement := models.Achievement{
		OwnerID:     ownerID,
		Title:       plainText(s.strict, payload.Title),
		Description: strings.TrimSpace(s.ugc.Sanitize(payload.Description)),
		Year:        payload.Year,
		ModerationState: models.ModerationState{
			Status:  string(policy.Initial),
			Version: 1,
		},
	}
	if achievement.Title == "" {
		return dto.AchievementResponse{}, ErrContentEmpty
	}

	if err := s.repo.CreateAchievement(ctx, &achievement); err != nil {
		return dto.AchievementResponse{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.queueChanged(ctx, moderation.KindAchievement)

	return dto.NewAchievementResponse(achievement), nil
}

func (s *contentService) RegisterCoachingCenter(ctx context.Context, owner Actor, payload dto.CoachingCenterCreateRequest) (dto.CoachingCenterResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CoachingCenterResponse{}, err
	}

	center := models.CoachingCenter{
		OwnerID:      owner.ID,
		Name:         plainText(s.strict, payload.Name),
		City:         plainText(s.strict, payload.City),
		Subjects:     plainText(s.strict, payload.Subjects),
		ContactEmail: strings.ToLower(strings.TrimSpace(payload.ContactEmail)),
		ModerationState: models.ModerationState{
			Status:  string(moderation.StatusPending),
			Version: 1,
		},
	}
	if center.Name == "" {
		return dto.CoachingCenterResponse{}, ErrContentEmpty
	}

	if err := s.repo.CreateCoachingCenter(ctx, &center); err != nil {
		return dto.CoachingCenterResponse{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.queueChanged(ctx, moderation.KindCoachingCenter)

	return dto.NewCoachingCenterResponse(center), nil
}

func (s *contentService) RegisterAccount(ctx context.Context, payload dto.AccountRegisterRequest) (dto.UserAccountResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserAccountResponse{}, err
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if _, err := s.repo.FindUserAccountByEmail(ctx, email); err == nil {
		return dto.UserAccountResponse{}, ErrAccountExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.UserAccountResponse{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	account := models.UserAccount{
		FullName: plainText(s.strict, payload.FullName),
		Email:    email,
		Phone:    strings.TrimSpace(payload.Phone),
		Gender:   strings.ToLower(strings.TrimSpace(payload.Gender)),
		City:     plainText(s.strict, payload.City),
		ModerationState: models.ModerationState{
			Status:  string(moderation.StatusPending),
			Version: 1,
		},
	}
	if account.FullName == "" {
		return dto.UserAccountResponse{}, ErrContentEmpty
	}

	if err := s.repo.CreateUserAccount(ctx, &account); err != nil {
		return dto.UserAccountResponse{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.queueChanged(ctx, moderation.KindUserAccount)

	return dto.NewUserAccountResponse(account), nil
}

func (s *contentService) queueChanged(ctx context.Context, kind moderation.Kind) {
	if s.summary == nil {
		return
	}
	if err := s.summary.Invalidate(ctx, kind); err != nil {
		s.logger.Warn().Err(err).Str("kind", string(kind)).Msg("failed to invalidate moderation summary")
	}
}

func slugify(title string) string {
	base := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(base) > 80 {
		base = strings.TrimRight(base[:80], "-")
	}
	suffix := uuid.NewString()[:8]
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
