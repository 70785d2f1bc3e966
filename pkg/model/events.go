package model

// Reservation change event types published to the event stream and consumed
// by the cleaning sync worker.
const (
	EventReservationCreated = "reservation.created"
	EventReservationUpdated = "reservation.updated"
	EventReservationDeleted = "reservation.deleted"
)

// ReservationEvent is the payload of a reservation change event. It carries
// just enough for a consumer to decide which replica window to refresh.
type ReservationEvent struct {
	ID           string `json:"id"`
	RoomID       string `json:"room_id"`
	CheckinDate  string `json:"checkin_date"`
	CheckoutDate string `json:"checkout_date"`
	Status       string `json:"status"`
}
