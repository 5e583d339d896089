package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/models"
	"github.com/noah-isme/community-portal-api/internal/moderation"
	"github.com/noah-isme/community-portal-api/internal/observability"
	"github.com/noah-isme/community-portal-api/internal/repository"
)

const defaultModerationAttempts = 3

// CacheInvalidator drops cached reads affected by a decision on kind.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, kind moderation.Kind) error
}

// ModerationService applies moderation decisions to portal content.
type ModerationService interface {
	Approve(ctx context.Context, kind moderation.Kind, id uint, actor Actor) (dto.ModerationResult, error)
	Reject(ctx context.Context, kind moderation.Kind, id uint, actor Actor, reason string) (dto.ModerationResult, error)
	Remove(ctx context.Context, kind moderation.Kind, id uint, actor Actor, reason string) (dto.ModerationResult, error)
	Disable(ctx context.Context, kind moderation.Kind, id uint, actor Actor, reason string) (dto.ModerationResult, error)
	Activate(ctx context.Context, kind moderation.Kind, id uint, actor Actor) (dto.ModerationResult, error)
	Reopen(ctx context.Context, kind moderation.Kind, id uint, actor Actor) (dto.ModerationResult, error)
	Submit(ctx context.Context, kind moderation.Kind, id uint, owner Actor) (dto.ModerationResult, error)
	Transition(ctx context.Context, kind moderation.Kind, id uint, action moderation.Action, actor Actor, reason string) (dto.ModerationResult, error)
	Audits(ctx context.Context, kind moderation.Kind, id uint) ([]dto.ModerationAuditResponse, error)
}

// ModerationHooks are the collaborators notified after a decision commits.
// Any of them may be nil.
type ModerationHooks struct {
	Activity      ActivityRecorder
	Notifications NotificationPublisher
	Feed          ModerationEventPublisher
	Caches        []CacheInvalidator
}

type moderationService struct {
	repo        repository.ModerationRepository
	hooks       ModerationHooks
	maxAttempts int
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewModerationService constructs the moderation service. maxAttempts bounds
// the read-validate-write cycle when the version check keeps failing.
func NewModerationService(repo repository.ModerationRepository, hooks ModerationHooks, maxAttempts int, logger zerolog.Logger) ModerationService {
	if maxAttempts <= 0 {
		maxAttempts = defaultModerationAttempts
	}
	return &moderationService{
		repo:        repo,
		hooks:       hooks,
		maxAttempts: maxAttempts,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "moderation_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/community-portal-api/internal/service/moderation"),
		now:         time.Now,
	}
}

func (s *moderationService) Approve(ctx context.Context, kind moderation.Kind, id uint, actor Actor) (dto.ModerationResult, error) {
	return s.Transition(ctx, kind, id, moderation.ActionApprove, actor, "")
}

func (s *moderationService) Reject(ctx context.Context, kind moderation.Kind, id uint, actor Actor, reason string) (dto.ModerationResult, error) {
	return s.Transition(ctx, kind, id, moderation.ActionReject, actor, reason)
}

func (s *moderationService) Remove(ctx context.Context, kind moderation.Kind, id uint, actor Actor, reason string) (dto.ModerationResult, error) {
	return s.Transition(ctx, kind, id, moderation.ActionRemove, actor, reason)
}

func (s *moderationService) Disable(ctx context.Context, kind moderation.Kind, id uint, actor Actor, reason string) (dto.ModerationResult, error) {
	return s.Transition(ctx, kind, id, moderation.ActionDisable, actor, reason)
}

func (s *moderationService) Activate(ctx context.Context, kind moderation.Kind, id uint, actor Actor) (dto.ModerationResult, error) {
	return s.Transition(ctx, kind, id, moderation.ActionActivate, actor, "")
}

func (s *moderationService) Reopen(ctx context.Context, kind moderation.Kind, id uint, actor Actor) (dto.ModerationResult, error) {
	return s.Transition(ctx, kind, id, moderation.ActionReopen, actor, "")
}

func (s *moderationService) Submit(ctx context.Context, kind moderation.Kind, id uint, owner Actor) (dto.ModerationResult, error) {
	return s.Transition(ctx, kind, id, moderation.ActionSubmit, owner, "")
}

func (s *moderationService) Transition(ctx context.Context, kind moderation.Kind, id uint, action moderation.Action, actor Actor, reason string) (dto.ModerationResult, error) {
	policy, err := moderation.PolicyFor(kind)
	if err != nil {
		return dto.ModerationResult{}, err
	}
	if actor.ID == 0 {
		return dto.ModerationResult{}, ErrActorRequired
	}

	reason = plainText(s.sanitizer, reason)
	if reason == "" && policy.RequiresReason(action) {
		s.record(kind, action, "invalid")
		return dto.ModerationResult{}, ErrReasonRequired
	}

	spanCtx, span := s.tracer.Start(ctx, "moderation.transition", trace.WithAttributes(
		attribute.String("moderation.kind", string(kind)),
		attribute.String("moderation.action", string(action)),
		attribute.Int64("moderation.entity_id", int64(id)),
		attribute.Int64("moderation.actor_id", int64(actor.ID)),
	))
	defer span.End()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		result, err := s.attempt(spanCtx, policy, id, action, actor, reason)
		if err == nil {
			span.SetAttributes(attribute.Int("moderation.attempts", attempt))
			s.record(kind, action, "success")
			s.afterCommit(spanCtx, kind, result, actor, reason)
			return result, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			span.RecordError(err)
			if errors.Is(err, ErrPersistence) {
				span.SetStatus(codes.Error, "persistence failure")
			}
			s.record(kind, action, outcomeLabel(err))
			return dto.ModerationResult{}, err
		}

		observability.ModerationRetries().WithLabelValues(string(kind)).Inc()
		s.logger.Debug().
			Str("kind", string(kind)).
			Uint("entity_id", id).
			Int("attempt", attempt).
			Msg("version check lost, retrying moderation")
	}

	span.SetStatus(codes.Error, "version conflict")
	s.record(kind, action, "conflict")
	s.logger.Warn().
		Str("kind", string(kind)).
		Uint("entity_id", id).
		Str("action", string(action)).
		Msg("moderation abandoned after repeated version conflicts")
	return dto.ModerationResult{}, ErrModerationConflict
}

func (s *moderationService) attempt(ctx context.Context, policy moderation.Policy, id uint, action moderation.Action, actor Actor, reason string) (dto.ModerationResult, error) {
	record, err := s.repo.Get(ctx, policy.Kind, id)
	if err != nil {
		return dto.ModerationResult{}, storeError(err, ErrModerationNotFound)
	}

	if action == moderation.ActionSubmit && record.OwnerID != actor.ID {
		return dto.ModerationResult{}, ErrModerationForbidden
	}

	from := moderation.Status(record.Status)
	rule, err := policy.Next(from, action)
	if err != nil {
		return dto.ModerationResult{}, err
	}

	now := s.now().UTC()
	next := nextState(record.ModerationState, action, rule, actor, reason, now)
	audit := &models.ModerationAudit{
		EntityType: string(policy.Kind),
		EntityID:   record.ID,
		AdminID:    actor.ID,
		AdminName:  actor.DisplayName(),
		Action:     action.PastTense(),
		FromStatus: string(from),
		ToStatus:   string(rule.Next),
		Reason:     reason,
		CreatedAt:  now,
	}

	if err := s.repo.Apply(ctx, policy.Kind, record.ID, record.Version, stateColumns(next), audit); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return dto.ModerationResult{}, err
		}
		return dto.ModerationResult{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	next.Version = record.Version + 1
	record.ModerationState = next
	audited := dto.NewModerationAuditResponse(*audit)

	return dto.ModerationResult{
		Item:       newModerationItem(policy, record),
		Action:     string(action),
		FromStatus: string(from),
		Audit:      &audited,
	}, nil
}

// nextState computes the moderation columns after action. Decision
// timestamps are only set when empty and are cleared by superseding
// decisions. A reaffirming vote (next equals current) records the new actor
// and leaves everything else untouched.
func nextState(current models.ModerationState, action moderation.Action, rule moderation.Rule, actor Actor, reason string, now time.Time) models.ModerationState {
	next := current
	next.Status = string(rule.Next)

	if action != moderation.ActionSubmit {
		actorID := actor.ID
		next.ActedBy = &actorID
		next.ActedByName = actor.DisplayName()
	}
	if moderation.Status(current.Status) == rule.Next {
		return next
	}

	stamp := now
	switch action {
	case moderation.ActionApprove:
		if next.ApprovedAt == nil {
			next.ApprovedAt = &stamp
		}
		next.Reason = ""
		next.RejectedAt = nil
		next.DisabledAt = nil
	case moderation.ActionActivate:
		next.Reason = ""
		next.DisabledAt = nil
	case moderation.ActionReject:
		if next.RejectedAt == nil {
			next.RejectedAt = &stamp
		}
		next.Reason = reason
		next.ApprovedAt = nil
	case moderation.ActionDisable:
		if next.DisabledAt == nil {
			next.DisabledAt = &stamp
		}
		next.Reason = reason
	case moderation.ActionRemove:
		removerID := actor.ID
		next.RemovedAt = &stamp
		next.RemovedBy = &removerID
		next.RemovedByName = actor.DisplayName()
		next.RemoveReason = reason
	case moderation.ActionReopen:
		next.Reason = ""
		next.ApprovedAt = nil
		next.RejectedAt = nil
	}
	return next
}

func stateColumns(state models.ModerationState) map[string]interface{} {
	return map[string]interface{}{
		"status":          state.Status,
		"reason":          state.Reason,
		"acted_by":        state.ActedBy,
		"acted_by_name":   state.ActedByName,
		"approved_at":     state.ApprovedAt,
		"rejected_at":     state.RejectedAt,
		"disabled_at":     state.DisabledAt,
		"removed_at":      state.RemovedAt,
		"removed_by":      state.RemovedBy,
		"removed_by_name": state.RemovedByName,
		"remove_reason":   state.RemoveReason,
	}
}

func (s *moderationService) Audits(ctx context.Context, kind moderation.Kind, id uint) ([]dto.ModerationAuditResponse, error) {
	if _, err := moderation.PolicyFor(kind); err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, kind, id); err != nil {
		return nil, storeError(err, ErrModerationNotFound)
	}

	audits, err := s.repo.ListAudits(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return dto.NewModerationAuditResponseSlice(audits), nil
}

// afterCommit runs the side effects of a committed decision. Failures are
// logged and never undo the decision.
func (s *moderationService) afterCommit(ctx context.Context, kind moderation.Kind, result dto.ModerationResult, actor Actor, reason string) {
	item := result.Item
	logger := s.logger.With().Str("kind", string(kind)).Uint("entity_id", item.ID).Str("action", result.Action).Logger()

	if s.hooks.Activity != nil {
		entityID := item.ID
		if _, err := s.hooks.Activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorName:  actor.DisplayName(),
			ActorRole:  actor.Role,
			Action:     "moderation." + result.Action,
			EntityType: string(kind),
			EntityID:   &entityID,
			Metadata: map[string]interface{}{
				"from":   result.FromStatus,
				"to":     item.Status,
				"reason": reason,
			},
		}); err != nil {
			logger.Warn().Err(err).Msg("failed to record moderation activity")
		}
	}

	if s.hooks.Notifications != nil && item.OwnerID != 0 && item.OwnerID != actor.ID && result.Action != string(moderation.ActionSubmit) {
		message := fmt.Sprintf("Your %s %s was %s.", kindLabel(kind), item.Title, moderation.Action(result.Action).PastTense())
		if reason != "" {
			message += " Reason: " + reason
		}
		if _, err := s.hooks.Notifications.Publish(ctx, dto.NotificationCreateRequest{
			UserID:  strconv.FormatUint(uint64(item.OwnerID), 10),
			Type:    "moderation_" + item.Status,
			Message: message,
		}); err != nil {
			logger.Warn().Err(err).Msg("failed to notify owner of moderation decision")
		}
	}

	if s.hooks.Feed != nil {
		s.hooks.Feed.Publish(ctx, dto.ModerationEvent{
			Kind:       string(kind),
			EntityID:   item.ID,
			Title:      item.Title,
			Action:     result.Action,
			FromStatus: result.FromStatus,
			ToStatus:   item.Status,
			ActorID:    actor.ID,
			ActorName:  actor.DisplayName(),
			Reason:     reason,
			OccurredAt: s.now().UTC(),
		})
	}

	for _, cache := range s.hooks.Caches {
		if cache == nil {
			continue
		}
		if err := cache.Invalidate(ctx, kind); err != nil {
			logger.Warn().Err(err).Msg("failed to invalidate cache after moderation")
		}
	}

	logger.Info().
		Uint("actor_id", actor.ID).
		Str("from", result.FromStatus).
		Str("to", item.Status).
		Msg("moderation decision applied")
}

func (s *moderationService) record(kind moderation.Kind, action moderation.Action, result string) {
	observability.ModerationDecisions().WithLabelValues(string(kind), string(action), result).Inc()
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrModerationNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrModerationForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

func kindLabel(kind moderation.Kind) string {
	return strings.ReplaceAll(string(kind), "_", " ")
}

func newModerationItem(policy moderation.Policy, record repository.ModerationRecord) dto.ModerationItemResponse {
	actions := policy.Actions(moderation.Status(record.Status))
	allowed := make([]string, 0, len(actions))
	for _, action := range actions {
		// Owners submit from their own screens, never from the admin queue.
		if action == moderation.ActionSubmit {
			continue
		}
		allowed = append(allowed, string(action))
	}

	return dto.ModerationItemResponse{
		ID:                      record.ID,
		Kind:                    string(policy.Kind),
		Title:                   record.Title,
		OwnerID:                 record.OwnerID,
		CreatedAt:               record.CreatedAt,
		AllowedActions:          allowed,
		ModerationStateResponse: dto.NewModerationStateResponse(record.ModerationState),
	}
}
