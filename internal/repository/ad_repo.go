package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/community-portal-api/internal/models"
)

// ErrBookingOverlap indicates an active booking already covers part of the requested range.
var ErrBookingOverlap = errors.New("placement already booked for an overlapping range")

// AdRepository persists ad placements and their bookings.
type AdRepository interface {
	CreatePlacement(ctx context.Context, placement *models.AdPlacement) error
	ListPlacements(ctx context.Context) ([]models.AdPlacement, error)
	GetPlacement(ctx context.Context, id uint) (models.AdPlacement, error)
	BookIfFree(ctx context.Context, booking *models.AdBooking) error
	ListBookings(ctx context.Context, placementID uint, from, to *time.Time) ([]models.AdBooking, error)
	GetBooking(ctx context.Context, id uint) (models.AdBooking, error)
	UpdateBookingStatus(ctx context.Context, id uint, status string) error
}

type adRepository struct {
	db *gorm.DB
}

// NewAdRepository constructs a GORM-backed repository.
func NewAdRepository(db *gorm.DB) AdRepository {
	return &adRepository{db: db}
}

func (r *adRepository) CreatePlacement(ctx context.Context, placement *models.AdPlacement) error {
	return r.db.WithContext(ctx).Create(placement).Error
}

func (r *adRepository) ListPlacements(ctx context.Context) ([]models.AdPlacement, error) {
	var placements []models.AdPlacement
	if err := r.db.WithContext(ctx).Order("slot ASC").Find(&placements).Error; err != nil {
		return nil, err
	}
	return placements, nil
}

func (r *adRepository) GetPlacement(ctx context.Context, id uint) (models.AdPlacement, error) {
	var placement models.AdPlacement
	if err := r.db.WithContext(ctx).First(&placement, id).Error; err != nil {
		return models.AdPlacement{}, err
	}
	return placement, nil
}

// BookIfFree runs the overlap check and the insert in one transaction. On
// Postgres the placement row is locked so concurrent bookings serialise.
func (r *adRepository) BookIfFree(ctx context.Context, booking *models.AdBooking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lookup := tx
		if tx.Dialector.Name() == "postgres" {
			lookup = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var placement models.AdPlacement
		if err := lookup.First(&placement, booking.PlacementID).Error; err != nil {
			return err
		}

		var overlapping int64
		if err := tx.Model(&models.AdBooking{}).
			Where("placement_id = ? AND status = ?", booking.PlacementID, models.AdBookingStatusActive).
			Where("starts_on <= ? AND ends_on >= ?", booking.EndsOn, booking.StartsOn).
			Count(&overlapping).Error; err != nil {
			return err
		}
		if overlapping > 0 {
			return ErrBookingOverlap
		}

		return tx.Create(booking).Error
	})
}

// ListBookings returns active bookings on the placement that intersect [from, to].
func (r *adRepository) ListBookings(ctx context.Context, placementID uint, from, to *time.Time) ([]models.AdBooking, error) {
	query := r.db.WithContext(ctx).
		Where("placement_id = ? AND status = ?", placementID, models.AdBookingStatusActive)
	if from != nil {
		query = query.Where("ends_on >= ?", *from)
	}
	if to != nil {
		query = query.Where("starts_on <= ?", *to)
	}

	var bookings []models.AdBooking
	if err := query.Order("starts_on ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *adRepository) GetBooking(ctx context.Context, id uint) (models.AdBooking, error) {
	var booking models.AdBooking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return models.AdBooking{}, err
	}
	return booking, nil
}

func (r *adRepository) UpdateBookingStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.AdBooking{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
