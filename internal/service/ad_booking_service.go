package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/models"
	"github.com/noah-isme/community-portal-api/internal/observability"
	"github.com/noah-isme/community-portal-api/internal/repository"
)

// AdBookingService manages ad placements and their day-range bookings.
type AdBookingService interface {
	CreatePlacement(ctx context.Context, payload dto.AdPlacementCreateRequest) (dto.AdPlacementResponse, error)
	ListPlacements(ctx context.Context) ([]dto.AdPlacementResponse, error)
	Book(ctx context.Context, placementID uint, actor Actor, payload dto.AdBookingCreateRequest) (dto.AdBookingResponse, error)
	BookedRanges(ctx context.Context, placementID uint, from, to string) ([]dto.AdBookingResponse, error)
	Cancel(ctx context.Context, bookingID uint, actor Actor) (dto.AdBookingResponse, error)
}

type adBookingService struct {
	repo      repository.AdRepository
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewAdBookingService constructs the booking service. activity may be nil.
func NewAdBookingService(repo repository.AdRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) AdBookingService {
	return &adBookingService{
		repo:      repo,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "ad_booking_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/community-portal-api/internal/service/ads"),
	}
}

func (s *adBookingService) CreatePlacement(ctx context.Context, payload dto.AdPlacementCreateRequest) (dto.AdPlacementResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AdPlacementResponse{}, err
	}

	placement := models.AdPlacement{
		Slot:      strings.ToLower(strings.TrimSpace(payload.Slot)),
		Name:      strings.TrimSpace(payload.Name),
		DailyRate: payload.DailyRate,
	}
	if err := s.repo.CreatePlacement(ctx, &placement); err != nil {
		return dto.AdPlacementResponse{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return dto.NewAdPlacementResponse(placement), nil
}

func (s *adBookingService) ListPlacements(ctx context.Context) ([]dto.AdPlacementResponse, error) {
	placements, err := s.repo.ListPlacements(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	out := make([]dto.AdPlacementResponse, 0, len(placements))
	for _, placement := range placements {
		out = append(out, dto.NewAdPlacementResponse(placement))
	}
	return out, nil
}

func (s *adBookingService) Book(ctx context.Context, placementID uint, actor Actor, payload dto.AdBookingCreateRequest) (dto.AdBookingResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AdBookingResponse{}, err
	}

	start, end, err := parseDayRange(payload.StartsOn, payload.EndsOn)
	if err != nil {
		observability.AdBookings().WithLabelValues("invalid").Inc()
		return dto.AdBookingResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "ads.book", trace.WithAttributes(
		attribute.Int64("ads.placement_id", int64(placementID)),
		attribute.String("ads.starts_on", payload.StartsOn),
		attribute.String("ads.ends_on", payload.EndsOn),
	))
	defer span.End()

	placement, err := s.repo.GetPlacement(spanCtx, placementID)
	if err != nil {
		return dto.AdBookingResponse{}, storeError(err, ErrPlacementNotFound)
	}

	booking := models.AdBooking{
		PlacementID: placement.ID,
		Advertiser:  strings.TrimSpace(payload.Advertiser),
		StartsOn:    start,
		EndsOn:      end,
		Status:      models.AdBookingStatusActive,
		BookedBy:    actor.ID,
	}

	if err := s.repo.BookIfFree(spanCtx, &booking); err != nil {
		if errors.Is(err, repository.ErrBookingOverlap) {
			observability.AdBookings().WithLabelValues("conflict").Inc()
			return dto.AdBookingResponse{}, ErrBookingConflict
		}
		span.RecordError(err)
		observability.AdBookings().WithLabelValues("error").Inc()
		return dto.AdBookingResponse{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	observability.AdBookings().WithLabelValues("booked").Inc()

	response := dto.NewAdBookingResponse(booking)
	response.TotalCost = float64(response.Days) * placement.DailyRate

	s.recordActivity(spanCtx, actor, "ads.booked", booking.ID, map[string]interface{}{
		"placement": placement.Slot,
		"starts_on": response.StartsOn,
		"ends_on":   response.EndsOn,
	})

	return response, nil
}

func (s *adBookingService) BookedRanges(ctx context.Context, placementID uint, from, to string) ([]dto.AdBookingResponse, error) {
	if _, err := s.repo.GetPlacement(ctx, placementID); err != nil {
		return nil, storeError(err, ErrPlacementNotFound)
	}

	var fromDay, toDay *time.Time
	if strings.TrimSpace(from) != "" {
		parsed, err := time.Parse(dto.DateLayout, strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid from date", ErrInvalidBookingRange)
		}
		fromDay = &parsed
	}
	if strings.TrimSpace(to) != "" {
		parsed, err := time.Parse(dto.DateLayout, strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid to date", ErrInvalidBookingRange)
		}
		toDay = &parsed
	}
	if fromDay != nil && toDay != nil && toDay.Before(*fromDay) {
		return nil, ErrInvalidBookingRange
	}

	bookings, err := s.repo.ListBookings(ctx, placementID, fromDay, toDay)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	out := make([]dto.AdBookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, dto.NewAdBookingResponse(booking))
	}
	return out, nil
}

func (s *adBookingService) Cancel(ctx context.Context, bookingID uint, actor Actor) (dto.AdBookingResponse, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return dto.AdBookingResponse{}, storeError(err, ErrBookingNotFound)
	}
	if booking.Status == models.AdBookingStatusCancelled {
		return dto.NewAdBookingResponse(booking), nil
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, models.AdBookingStatusCancelled); err != nil {
		return dto.AdBookingResponse{}, storeError(err, ErrBookingNotFound)
	}
	booking.Status = models.AdBookingStatusCancelled
	observability.AdBookings().WithLabelValues("cancelled").Inc()

	s.recordActivity(ctx, actor, "ads.cancelled", booking.ID, map[string]interface{}{
		"placement_id": booking.PlacementID,
	})

	return dto.NewAdBookingResponse(booking), nil
}

func (s *adBookingService) recordActivity(ctx context.Context, actor Actor, action string, bookingID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	id := bookingID
	if _, err := s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorName:  actor.DisplayName(),
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "ad_booking",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record booking activity")
	}
}

// parseDayRange parses inclusive whole days in UTC.
func parseDayRange(startsOn, endsOn string) (time.Time, time.Time, error) {
	start, err := time.Parse(dto.DateLayout, strings.TrimSpace(startsOn))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid starts_on", ErrInvalidBookingRange)
	}
	end, err := time.Parse(dto.DateLayout, strings.TrimSpace(endsOn))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid ends_on", ErrInvalidBookingRange)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidBookingRange
	}
	return start, end, nil
}
