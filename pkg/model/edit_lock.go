package model

import "time"

// EditLock is an advisory presence marker: "someone is editing this
// reservation". It is a UX convenience, not a correctness mechanism; the
// reservation's concurrency token is the actual safety net. At most one lock
// exists per reservation (the reservation id is the document key). A lock
// whose last heartbeat is older than the staleness window has no holder
// rights and may be reclaimed by any acquirer.
type EditLock struct {
	ReservationID string    `json:"reservation_id" bson:"_id"`
	Holder        string    `json:"holder" bson:"holder"`
	LockedAt      time.Time `json:"locked_at" bson:"locked_at"`
	LastHeartbeat time.Time `json:"last_heartbeat" bson:"last_heartbeat"`
}

// Live reports whether the lock still grants holder rights at the given time.
func (l *EditLock) Live(now time.Time, staleness time.Duration) bool {
	return now.Sub(l.LastHeartbeat) <= staleness
}
