package models

import (
	"time"

	"gorm.io/datatypes"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "Pending"
	ReservationConfirmed ReservationStatus = "Confirmed"
	ReservationCancelled ReservationStatus = "Cancelled"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled},
	ReservationConfirmed: {ReservationCancelled},
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled:
		return true
	}
	return false
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Reservation struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	CustomerName    string            `gorm:"size:100;not null" json:"customer_name"`
	PhoneNumber     string            `gorm:"size:30;not null" json:"phone_number"`
	Email           string            `gorm:"size:255;not null" json:"email"`
	NumberOfGuests  int               `gorm:"not null" json:"number_of_guests"`
	ReservationDate datatypes.Date    `gorm:"not null;index" json:"reservation_date"`
	ReservationTime datatypes.Time    `gorm:"not null" json:"reservation_time"`
	TableNumber     int               `gorm:"not null" json:"table_number"`
	Status          ReservationStatus `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	SpecialRequests string            `gorm:"size:500" json:"special_requests"`
	Notes           string            `gorm:"size:500" json:"notes"`
	CreatedBy       *uint             `gorm:"index" json:"created_by,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Day returns the reservation date as a UTC midnight time.
func (r *Reservation) Day() time.Time {
	y, m, d := time.Time(r.ReservationDate).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TimeOfDay returns the reservation time as an offset from midnight.
func (r *Reservation) TimeOfDay() time.Duration {
	return time.Duration(r.ReservationTime)
}

// ReservationDay is the per-date row locked while a table is being assigned,
// so two bookings for the same date never read the same exclusion set.
type ReservationDay struct {
	Day string `gorm:"primaryKey;size:10"`
}
