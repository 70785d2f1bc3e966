package model

import "time"

// Cleaning task statuses.
const (
	TaskPending   = "pending"
	TaskDone      = "done"
	TaskCancelled = "cancelled"
)

// CleaningTask is a replica row in the read-optimized cleaning store consumed
// by the disconnected housekeeping client. Rows are written wholesale by the
// replicator (delete window, re-insert) and keyed by room+date so reruns are
// idempotent. The replica is a disposable cache, never a source of truth.
type CleaningTask struct {
	ID             string    `json:"id" gorm:"primaryKey;size:80"`
	ReservationID  string    `json:"reservation_id" gorm:"index;size:32"`
	Number         string    `json:"reservation_number"`
	RoomID         string    `json:"room_id" gorm:"size:32"`
	RoomName       string    `json:"room_name"`
	RoomLocation   string    `json:"room_location"`
	Date           string    `json:"date" gorm:"index;size:10"`
	Classification string    `json:"classification" gorm:"size:16"`
	GuestName      string    `json:"guest_name"`
	GuestCount     int       `json:"guest_count"`
	Markers        string    `json:"markers"`
	Status         string    `json:"status" gorm:"size:16;default:pending"`
	SyncedAt       time.Time `json:"synced_at"`
}

// TaskKey is the natural key for a replica row: one row per room per day.
func TaskKey(roomID, date string) string {
	return roomID + "_" + date
}
