package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/moderation"
	"github.com/noah-isme/community-portal-api/internal/observability"
	"github.com/noah-isme/community-portal-api/internal/repository"
)

const moderationSummaryCacheKey = "moderation:summary:v1"

// ModerationSummaryService aggregates queue sizes for the dashboard badges.
type ModerationSummaryService interface {
	CacheInvalidator
	Summary(ctx context.Context) (dto.ModerationSummaryResponse, error)
}

type moderationSummaryService struct {
	repo   repository.ModerationRepository
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewModerationSummaryService constructs the summary service. A nil cache disables caching.
func NewModerationSummaryService(repo repository.ModerationRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ModerationSummaryService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &moderationSummaryService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "moderation_summary_service").Logger(),
		now:    time.Now,
	}
}

func (s *moderationSummaryService) Summary(ctx context.Context) (dto.ModerationSummaryResponse, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, moderationSummaryCacheKey).Result()
		switch {
		case err == nil && cached != "":
			var response dto.ModerationSummaryResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				observability.CacheRequests().WithLabelValues("moderation_summary", "hit").Inc()
				return response, nil
			}
		case err != nil && err != redis.Nil:
			observability.CacheRequests().WithLabelValues("moderation_summary", "error").Inc()
			s.logger.Warn().Err(err).Msg("failed to read moderation summary cache")
		}
	}

	response := dto.ModerationSummaryResponse{
		Kinds:       make(map[string]map[string]int64),
		GeneratedAt: s.now().UTC(),
	}
	for _, kind := range moderation.Kinds() {
		policy, err := moderation.PolicyFor(kind)
		if err != nil {
			return dto.ModerationSummaryResponse{}, err
		}
		raw, err := s.repo.CountByStatus(ctx, kind)
		if err != nil {
			return dto.ModerationSummaryResponse{}, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		counts := statusCounts(policy, raw)
		response.Kinds[string(kind)] = counts
		response.TotalPending += counts[string(moderation.StatusPending)]
	}

	if s.cache != nil {
		observability.CacheRequests().WithLabelValues("moderation_summary", "miss").Inc()
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, moderationSummaryCacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to cache moderation summary")
			}
		}
	}

	return response, nil
}

// Invalidate drops the cached summary. Every kind feeds the summary.
func (s *moderationSummaryService) Invalidate(ctx context.Context, _ moderation.Kind) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, moderationSummaryCacheKey).Err()
}
