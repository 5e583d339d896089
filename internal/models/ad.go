package models

import "time"

// Ad booking statuses.
const (
	AdBookingStatusActive    = "active"
	AdBookingStatusCancelled = "cancelled"
)

// AdPlacement is a slot on the portal that advertisers book by the day.
type AdPlacement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slot      string    `gorm:"size:64;uniqueIndex;not null" json:"slot"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	DailyRate float64   `gorm:"not null;default:0" json:"daily_rate"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdBooking reserves a placement for an inclusive range of days.
type AdBooking struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PlacementID uint      `gorm:"not null;index:idx_ad_booking_range" json:"placement_id"`
	Advertiser  string    `gorm:"size:255;not null" json:"advertiser"`
	StartsOn    time.Time `gorm:"not null;index:idx_ad_booking_range" json:"starts_on"`
	EndsOn      time.Time `gorm:"not null;index:idx_ad_booking_range" json:"ends_on"`
	Status      string    `gorm:"size:16;not null;default:active" json:"status"`
	BookedBy    uint      `json:"booked_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
