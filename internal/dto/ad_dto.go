package dto

import (
	"time"

	"github.com/noah-isme/community-portal-api/internal/models"
)

// DateLayout is the wire format for booking days.
const DateLayout = "2006-01-02"

// AdPlacementCreateRequest creates a bookable slot.
type AdPlacementCreateRequest struct {
	Slot      string  `json:"slot" validate:"required,min=2,max=64"`
	Name      string  `json:"name" validate:"required,min=2,max=255"`
	DailyRate float64 `json:"daily_rate" validate:"gte=0"`
}

// AdPlacementResponse serializes a placement.
type AdPlacementResponse struct {
	ID        uint      `json:"id"`
	Slot      string    `json:"slot"`
	Name      string    `json:"name"`
	DailyRate float64   `json:"daily_rate"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAdPlacementResponse converts a placement model to DTO.
func NewAdPlacementResponse(model models.AdPlacement) AdPlacementResponse {
	return AdPlacementResponse{
		ID:        model.ID,
		Slot:      model.Slot,
		Name:      model.Name,
		DailyRate: model.DailyRate,
		CreatedAt: model.CreatedAt,
	}
}

// AdBookingCreateRequest books a placement for inclusive days.
type AdBookingCreateRequest struct {
	Advertiser string `json:"advertiser" validate:"required,min=2,max=255"`
	StartsOn   string `json:"starts_on" validate:"required,datetime=2006-01-02"`
	EndsOn     string `json:"ends_on" validate:"required,datetime=2006-01-02"`
}

// AdBookingResponse serializes a booking.
type AdBookingResponse struct {
	ID          uint    `json:"id"`
	PlacementID uint    `json:"placement_id"`
	Advertiser  string  `json:"advertiser"`
	StartsOn    string  `json:"starts_on"`
	EndsOn      string  `json:"ends_on"`
	Days        int     `json:"days"`
	Status      string  `json:"status"`
	BookedBy    uint    `json:"booked_by"`
	TotalCost   float64 `json:"total_cost,omitempty"`
}

// NewAdBookingResponse converts a booking model to DTO.
func NewAdBookingResponse(model models.AdBooking) AdBookingResponse {
	days := int(model.EndsOn.Sub(model.StartsOn).Hours()/24) + 1
	return AdBookingResponse{
		ID:          model.ID,
		PlacementID: model.PlacementID,
		Advertiser:  model.Advertiser,
		StartsOn:    model.StartsOn.Format(DateLayout),
		EndsOn:      model.EndsOn.Format(DateLayout),
		Days:        days,
		Status:      model.Status,
		BookedBy:    model.BookedBy,
	}
}
