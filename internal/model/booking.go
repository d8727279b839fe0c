package model

import "time"

// Booking statuses. Only Pending, Accepted, and Cancelled are written by
// current code paths; Confirmed and Missed exist in older records.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusCancelled = "cancelled"
	StatusConfirmed = "confirmed"
	StatusMissed    = "missed"
)

// Booking types offered on the public form.
const (
	TypeWedding     = "wedding"
	TypeWakeMass    = "wake mass"
	TypeMass        = "mass"
	TypeHealingMass = "healing mass"
	TypeDeliverance = "deliverance"
	TypeBaptismal   = "baptismal"
)

// BookingTypes lists the accepted values for the type field, in the order
// the form presents them.
var BookingTypes = []string{
	TypeWedding,
	TypeWakeMass,
	TypeMass,
	TypeHealingMass,
	TypeDeliverance,
	TypeBaptismal,
}

type Booking struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Type      string    `json:"type"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Time      string    `json:"time"` // HH:MM, 24-hour
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Name returns the parishioner's full name as shown in email and event titles.
func (b Booking) Name() string {
	return b.FirstName + " " + b.LastName
}

// EventDuration returns how long the derived calendar event runs. Masses
// block out an hour; every other service gets an hour and a half.
func EventDuration(bookingType string) time.Duration {
	switch bookingType {
	case TypeMass, TypeHealingMass:
		return time.Hour
	default:
		return 90 * time.Minute
	}
}

// ValidType reports whether t is one of the bookable service types.
func ValidType(t string) bool {
	for _, bt := range BookingTypes {
		if t == bt {
			return true
		}
	}
	return false
}
