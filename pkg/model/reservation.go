package model

import (
	"time"
)

// DateLayout is the calendar date format used for check-in and check-out
// dates throughout the system. Dates are plain calendar days, never
// timestamps; lexicographic order of the encoded form matches date order.
const DateLayout = "2006-01-02"

// Reservation statuses.
const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// Reservation is a time-bounded hold of a room for a guest. UpdatedAt doubles
// as the optimistic-concurrency token: it is set on creation, must match on
// update (compare-and-set against the stored value) and advances on every
// successful mutation. Overlapping reservations on the same room are allowed;
// the timeline deriver resolves shared days.
type Reservation struct {
	ID               string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Number           string    `json:"number,omitempty" bson:"number"`
	RoomID           string    `json:"room_id" bson:"room_id" validate:"required"`
	GuestID          string    `json:"guest_id" bson:"guest_id" validate:"required"`
	GuestName        string    `json:"guest_name" bson:"guest_name" validate:"required,min=1,max=200"`
	GuestCount       int       `json:"guest_count" bson:"guest_count" validate:"omitempty,min=0,max=50"`
	CheckinDate      string    `json:"checkin_date" bson:"checkin_date" validate:"required,calendar_date"`
	CheckoutDate     string    `json:"checkout_date" bson:"checkout_date" validate:"required,calendar_date"`
	Status           string    `json:"status" bson:"status" validate:"required,oneof=active cancelled"`
	ArrivalMarkers   string    `json:"arrival_markers,omitempty" bson:"arrival_markers,omitempty"`
	DepartureMarkers string    `json:"departure_markers,omitempty" bson:"departure_markers,omitempty"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// ReservationUpdate carries the mutable fields of a reservation. Zero values
// mean "leave unchanged"; pointer fields distinguish "unset" from "clear".
type ReservationUpdate struct {
	RoomID           string  `json:"room_id,omitempty"`
	GuestID          string  `json:"guest_id,omitempty"`
	GuestName        string  `json:"guest_name,omitempty" validate:"omitempty,min=1,max=200"`
	GuestCount       *int    `json:"guest_count,omitempty" validate:"omitempty,min=0,max=50"`
	CheckinDate      string  `json:"checkin_date,omitempty" validate:"omitempty,calendar_date"`
	CheckoutDate     string  `json:"checkout_date,omitempty" validate:"omitempty,calendar_date"`
	Status           string  `json:"status,omitempty" validate:"omitempty,oneof=active cancelled"`
	ArrivalMarkers   *string `json:"arrival_markers,omitempty"`
	DepartureMarkers *string `json:"departure_markers,omitempty"`
}

// ReservationQuery filters reservation reads. From/To, when set, select
// reservations whose [checkin, checkout] interval overlaps the window
// (inclusive on both ends).
type ReservationQuery struct {
	RoomID  string
	GuestID string
	Status  string
	From    string
	To      string
}
