package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/moderation"
	"github.com/noah-isme/community-portal-api/internal/repository"
)

const statusFilterAll = "all"

// ModerationQueryService lists moderatable entities for the admin tabs.
type ModerationQueryService interface {
	List(ctx context.Context, kind moderation.Kind, req dto.ModerationListRequest) (dto.ModerationListResponse, error)
}

type moderationQueryService struct {
	repo   repository.ModerationRepository
	logger zerolog.Logger
}

// NewModerationQueryService constructs the read side of moderation.
func NewModerationQueryService(repo repository.ModerationRepository, logger zerolog.Logger) ModerationQueryService {
	return &moderationQueryService{
		repo:   repo,
		logger: logger.With().Str("component", "moderation_query_service").Logger(),
	}
}

func (s *moderationQueryService) List(ctx context.Context, kind moderation.Kind, req dto.ModerationListRequest) (dto.ModerationListResponse, error) {
	policy, err := moderation.PolicyFor(kind)
	if err != nil {
		return dto.ModerationListResponse{}, err
	}

	status, err := parseStatusFilter(policy, req.Tab)
	if err != nil {
		return dto.ModerationListResponse{}, err
	}

	page := normalizePage(req.Page)
	pageSize := clampPageSize(req.PageSize)

	records, total, err := s.repo.List(ctx, kind, repository.ModerationFilter{
		Status:   status,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("kind", string(kind)).Msg("failed to list moderation queue")
		return dto.ModerationListResponse{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	raw, err := s.repo.CountByStatus(ctx, kind)
	if err != nil {
		return dto.ModerationListResponse{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	counts := statusCounts(policy, raw)

	items := make([]dto.ModerationItemResponse, 0, len(records))
	for _, record := range records {
		items = append(items, newModerationItem(policy, record))
	}

	return dto.ModerationListResponse{
		Items: items,
		Pagination: dto.PaginationMeta{
			Page:       page,
			PageSize:   pageSize,
			TotalItems: total,
			TotalPages: calculateTotalPages(total, pageSize),
		},
		Counts:        counts,
		TotalPending:  counts[string(moderation.StatusPending)],
		TotalApproved: counts[string(moderation.StatusApproved)],
		TotalRejected: counts[string(moderation.StatusRejected)],
	}, nil
}

// parseStatusFilter returns "" for all statuses. An empty tab means all.
func parseStatusFilter(policy moderation.Policy, tab string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(tab))
	if normalized == "" || normalized == statusFilterAll {
		return "", nil
	}
	if !policy.Allows(moderation.Status(normalized)) {
		return "", fmt.Errorf("%w: %q is not a %s status", ErrInvalidStatusFilter, tab, kindLabel(policy.Kind))
	}
	return normalized, nil
}

// statusCounts zero-fills every status of the kind.
func statusCounts(policy moderation.Policy, raw map[string]int64) map[string]int64 {
	statuses := policy.Statuses()
	counts := make(map[string]int64, len(statuses))
	for _, status := range statuses {
		counts[string(status)] = raw[string(status)]
	}
	return counts
}
