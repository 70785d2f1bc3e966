// Package cleaning pushes the derived occupancy grid into the cleaning
// replica as concrete task rows, one per room per in-use day.
package cleaning

import (
	"context"
	"fmt"
	"time"

	"pensio/internal/cleaning/replica"
	"pensio/internal/timeline"
	"pensio/pkg/config"
	"pensio/pkg/model"
)

// ReservationSource is the slice of the reservation repository the
// replicator reads from. Satisfied by the mongo repository.
type ReservationSource interface {
	Find(ctx context.Context, query *model.ReservationQuery, limit int, offset int64) ([]*model.Reservation, error)
}

// RoomSource lists the room inventory. Satisfied by the room repository.
type RoomSource interface {
	FindAll(ctx context.Context) ([]model.Room, error)
}

// ReplicationError reports a partially applied sync: some rows landed,
// some did not. The replica stays usable either way and the next sync
// repairs the gaps.
type ReplicationError struct {
	Synced int
	Failed int
	Err    error
}

func (e *ReplicationError) Error() string {
	return fmt.Sprintf("replica sync wrote %d rows, %d failed: %v", e.Synced, e.Failed, e.Err)
}

func (e *ReplicationError) Unwrap() error {
	return e.Err
}

type Replicator struct {
	reservations ReservationSource
	rooms        RoomSource
	store        replica.Store
	cfg          *config.Config
	now          func() time.Time
}

func NewReplicator(reservations ReservationSource, rooms RoomSource, store replica.Store, cfg *config.Config) *Replicator {
	return &Replicator{
		reservations: reservations,
		rooms:        rooms,
		store:        store,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Sync rebuilds the replica rows for the window [start, end]: derive the
// grid, clear the window, re-insert. The rebuild is idempotent, running
// it twice leaves the same rows. Row inserts are individually bounded
// and individually skippable; a single bad row must not starve the rest
// of the window.
func (r *Replicator) Sync(ctx context.Context, start, end string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.SyncTimeout)
	defer cancel()

	rooms, err := r.rooms.FindAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load rooms for sync: %w", err)
	}

	query := &model.ReservationQuery{
		Status: model.StatusActive,
		From:   start,
		To:     end,
	}
	reservations, err := r.reservations.Find(ctx, query, config.MaxPaginationLimit, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to load reservations for sync: %w", err)
	}

	values := make([]model.Reservation, len(reservations))
	for i, res := range reservations {
		values[i] = *res
	}

	grid, err := timeline.Derive(rooms, values, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to derive occupancy grid: %w", err)
	}

	tasks := TasksFromGrid(grid, r.now().UTC())

	deleted, err := r.store.DeleteWindow(ctx, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to clear replica window: %w", err)
	}

	synced := 0
	failed := 0
	var lastErr error
	for i := range tasks {
		rowCtx, rowCancel := context.WithTimeout(ctx, r.cfg.ReplicaRowTimeout)
		err := r.store.Insert(rowCtx, &tasks[i])
		rowCancel()
		if err != nil {
			failed++
			lastErr = err
			r.cfg.Log.Warn("Skipping replica row",
				"task_id", tasks[i].ID,
				"error", err,
			)
			continue
		}
		synced++
	}

	r.cfg.Log.Info("Replica window synced",
		"start", start,
		"end", end,
		"deleted", deleted,
		"synced", synced,
		"failed", failed,
	)

	if failed > 0 {
		return synced, &ReplicationError{Synced: synced, Failed: failed, Err: lastErr}
	}
	return synced, nil
}

// DeleteForReservation removes every replica row belonging to a
// reservation, used when the reservation itself is deleted.
func (r *Replicator) DeleteForReservation(ctx context.Context, reservationID string) error {
	count, err := r.store.DeleteForReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	r.cfg.Log.Info("Removed replica rows for reservation",
		"reservation_id", reservationID,
		"count", count,
	)
	return nil
}

// CleanupCompleted removes finished tasks older than the retention
// cutoff.
func (r *Replicator) CleanupCompleted(ctx context.Context, retention time.Duration) (int64, error) {
	return r.store.CleanupCompleted(ctx, r.now().Add(-retention))
}

// TasksFromGrid flattens every non-empty cell of a grid into replica
// rows. Markers travel with the stay boundary: arrival markers on
// check-in days, departure markers on check-out days, none in between.
func TasksFromGrid(grid *timeline.Grid, syncedAt time.Time) []model.CleaningTask {
	var tasks []model.CleaningTask
	for _, row := range grid.Rows {
		for _, cell := range row.Days {
			if cell.Classification == timeline.ClassEmpty {
				continue
			}

			var markers string
			switch cell.Classification {
			case timeline.ClassCheckIn:
				markers = cell.ArrivalMarkers
			case timeline.ClassCheckOut:
				markers = cell.DepartureMarkers
			}

			tasks = append(tasks, model.CleaningTask{
				ID:             model.TaskKey(cell.RoomID, cell.Date),
				ReservationID:  cell.ReservationID,
				Number:         cell.Number,
				RoomID:         cell.RoomID,
				RoomName:       row.Room.Name,
				RoomLocation:   row.Room.Location,
				Date:           cell.Date,
				Classification: string(cell.Classification),
				GuestName:      cell.GuestName,
				GuestCount:     cell.GuestCount,
				Markers:        markers,
				Status:         model.TaskPending,
				SyncedAt:       syncedAt,
			})
		}
	}
	return tasks
}
