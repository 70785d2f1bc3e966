package cleaning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pensio/internal/cleaning/replica"
	"pensio/pkg/config"
	"pensio/pkg/logger"
	"pensio/pkg/model"
)

type fakeReservationSource struct {
	reservations []*model.Reservation
}

func (f *fakeReservationSource) Find(ctx context.Context, query *model.ReservationQuery, limit int, offset int64) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, r := range f.reservations {
		if query.Status != "" && r.Status != query.Status {
			continue
		}
		if query.From != "" && r.CheckoutDate < query.From {
			continue
		}
		if query.To != "" && r.CheckinDate > query.To {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type fakeRoomSource struct {
	rooms []model.Room
}

func (f *fakeRoomSource) FindAll(ctx context.Context) ([]model.Room, error) {
	return f.rooms, nil
}

func testReplicaStore(t *testing.T) replica.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := replica.Open(dsn)
	require.NoError(t, err)
	return replica.NewGormStore(db)
}

func replicatorConfig() *config.Config {
	return &config.Config{
		SyncTimeout:       10 * time.Second,
		ReplicaRowTimeout: time.Second,
		Log:               logger.New(logger.Config{Output: io.Discard}),
	}
}

func newTestReplicator(t *testing.T, store replica.Store, reservations []*model.Reservation) *Replicator {
	t.Helper()
	rooms := &fakeRoomSource{rooms: []model.Room{
		{ID: "r1", Name: "101", Location: "main", Capacity: 2},
	}}
	src := &fakeReservationSource{reservations: reservations}
	return NewReplicator(src, rooms, store, replicatorConfig())
}

func TestSync_WritesActionableRows(t *testing.T) {
	store := testReplicaStore(t)
	rep := newTestReplicator(t, store, []*model.Reservation{
		{
			ID: "res-1", Number: "A1B2", RoomID: "r1", GuestID: "g1",
			GuestName: "Alice", GuestCount: 2,
			CheckinDate: "2025-10-01", CheckoutDate: "2025-10-03",
			Status:         model.StatusActive,
			ArrivalMarkers: "am", DepartureMarkers: "pm",
		},
	})

	synced, err := rep.Sync(context.Background(), "2025-10-01", "2025-10-05")
	require.NoError(t, err)
	assert.Equal(t, 3, synced)

	tasks, err := store.ListWindow(context.Background(), "2025-10-01", "2025-10-05")
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	checkin := tasks[0]
	assert.Equal(t, model.TaskKey("r1", "2025-10-01"), checkin.ID)
	assert.Equal(t, "checkin", checkin.Classification)
	assert.Equal(t, "res-1", checkin.ReservationID)
	assert.Equal(t, "A1B2", checkin.Number)
	assert.Equal(t, "Alice", checkin.GuestName)
	assert.Equal(t, 2, checkin.GuestCount)
	assert.Equal(t, "am", checkin.Markers)
	assert.Equal(t, model.TaskPending, checkin.Status)

	occupied := tasks[1]
	assert.Equal(t, "2025-10-02", occupied.Date)
	assert.Equal(t, "occupied", occupied.Classification)
	assert.Empty(t, occupied.Markers, "interior days carry no markers")

	checkout := tasks[2]
	assert.Equal(t, "2025-10-03", checkout.Date)
	assert.Equal(t, "checkout", checkout.Classification)
	assert.Equal(t, "pm", checkout.Markers)
}

func TestSync_Idempotent(t *testing.T) {
	store := testReplicaStore(t)
	rep := newTestReplicator(t, store, []*model.Reservation{
		{
			ID: "res-1", RoomID: "r1", GuestID: "g1", GuestName: "Alice",
			CheckinDate: "2025-10-01", CheckoutDate: "2025-10-03",
			Status: model.StatusActive,
		},
	})

	_, err := rep.Sync(context.Background(), "2025-10-01", "2025-10-05")
	require.NoError(t, err)
	_, err = rep.Sync(context.Background(), "2025-10-01", "2025-10-05")
	require.NoError(t, err)

	tasks, err := store.ListWindow(context.Background(), "2025-10-01", "2025-10-05")
	require.NoError(t, err)
	assert.Len(t, tasks, 3, "re-running a sync must not duplicate rows")
}

func TestSync_RemovesRowsForGoneReservations(t *testing.T) {
	store := testReplicaStore(t)
	src := &fakeReservationSource{reservations: []*model.Reservation{
		{
			ID: "res-1", RoomID: "r1", GuestID: "g1", GuestName: "Alice",
			CheckinDate: "2025-10-01", CheckoutDate: "2025-10-03",
			Status: model.StatusActive,
		},
	}}
	rooms := &fakeRoomSource{rooms: []model.Room{{ID: "r1", Name: "101", Location: "main"}}}
	rep := NewReplicator(src, rooms, store, replicatorConfig())

	_, err := rep.Sync(context.Background(), "2025-10-01", "2025-10-05")
	require.NoError(t, err)

	// The reservation is cancelled; the rebuild drops its rows.
	src.reservations[0].Status = model.StatusCancelled
	_, err = rep.Sync(context.Background(), "2025-10-01", "2025-10-05")
	require.NoError(t, err)

	tasks, err := store.ListWindow(context.Background(), "2025-10-01", "2025-10-05")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestDeleteForReservation(t *testing.T) {
	store := testReplicaStore(t)
	rep := newTestReplicator(t, store, []*model.Reservation{
		{
			ID: "res-1", RoomID: "r1", GuestID: "g1", GuestName: "Alice",
			CheckinDate: "2025-10-01", CheckoutDate: "2025-10-03",
			Status: model.StatusActive,
		},
	})

	_, err := rep.Sync(context.Background(), "2025-10-01", "2025-10-05")
	require.NoError(t, err)

	require.NoError(t, rep.DeleteForReservation(context.Background(), "res-1"))

	tasks, err := store.ListWindow(context.Background(), "2025-10-01", "2025-10-05")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestUpdateStatusAndCleanup(t *testing.T) {
	store := testReplicaStore(t)

	old := model.CleaningTask{
		ID:             model.TaskKey("r1", "2025-08-01"),
		ReservationID:  "res-old",
		RoomID:         "r1",
		Date:           "2025-08-01",
		Classification: "checkout",
		Status:         model.TaskPending,
		SyncedAt:       time.Now(),
	}
	require.NoError(t, store.Insert(context.Background(), &old))

	require.NoError(t, store.UpdateStatus(context.Background(), old.ID, model.TaskDone))

	// Pending rows survive cleanup regardless of age.
	pending := old
	pending.ID = model.TaskKey("r2", "2025-08-01")
	pending.RoomID = "r2"
	require.NoError(t, store.Insert(context.Background(), &pending))

	rep := newTestReplicator(t, store, nil)
	rep.now = func() time.Time { return time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC) }

	removed, err := rep.CleanupCompleted(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	tasks, err := store.ListWindow(context.Background(), "2025-08-01", "2025-08-31")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, pending.ID, tasks[0].ID)
}

// failingStore wraps a real store and fails inserts for a chosen row.
type failingStore struct {
	replica.Store
	failID string
}

func (f *failingStore) Insert(ctx context.Context, task *model.CleaningTask) error {
	if task.ID == f.failID {
		return errors.New("disk full")
	}
	return f.Store.Insert(ctx, task)
}

func TestSync_SkipsFailingRows(t *testing.T) {
	inner := testReplicaStore(t)
	store := &failingStore{Store: inner, failID: model.TaskKey("r1", "2025-10-01")}

	rooms := &fakeRoomSource{rooms: []model.Room{{ID: "r1", Name: "101", Location: "main"}}}
	src := &fakeReservationSource{reservations: []*model.Reservation{
		{
			ID: "res-1", RoomID: "r1", GuestID: "g1", GuestName: "Alice",
			CheckinDate: "2025-10-01", CheckoutDate: "2025-10-03",
			Status: model.StatusActive,
		},
	}}
	rep := NewReplicator(src, rooms, store, replicatorConfig())

	synced, err := rep.Sync(context.Background(), "2025-10-01", "2025-10-05")
	require.Error(t, err)
	assert.Equal(t, 2, synced, "the healthy rows should still land")

	var repErr *ReplicationError
	require.ErrorAs(t, err, &repErr)
	assert.Equal(t, 2, repErr.Synced)
	assert.Equal(t, 1, repErr.Failed)

	tasks, listErr := inner.ListWindow(context.Background(), "2025-10-01", "2025-10-05")
	require.NoError(t, listErr)
	require.Len(t, tasks, 2)
	assert.Equal(t, "2025-10-02", tasks[0].Date)
	assert.Equal(t, "2025-10-03", tasks[1].Date)
}
