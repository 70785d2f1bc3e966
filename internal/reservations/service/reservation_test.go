package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	reservationserrors "pensio/internal/reservations/errors"
	"pensio/internal/reservations/validator"
	"pensio/pkg/config"
	mongotx "pensio/pkg/db/mongo"
	apperrors "pensio/pkg/errors"
	"pensio/pkg/kafka"
	"pensio/pkg/logger"
	"pensio/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type mockReservationRepo struct {
	createFn    func(ctx context.Context, r *model.Reservation) error
	findByIDFn  func(ctx context.Context, id string) (*model.Reservation, error)
	findFn      func(ctx context.Context, q *model.ReservationQuery, limit int, offset int64) ([]*model.Reservation, error)
	countFn     func(ctx context.Context, q *model.ReservationQuery) (int64, error)
	updateFn    func(ctx context.Context, id string, token time.Time, r *model.Reservation) (*mongo.UpdateResult, error)
	deleteFn    func(ctx context.Context, id string) error
	executeTxFn func(ctx context.Context, fn mongotx.TransactionFunc) error
}

func (m *mockReservationRepo) Create(ctx context.Context, r *model.Reservation) error {
	return m.createFn(ctx, r)
}

func (m *mockReservationRepo) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockReservationRepo) Find(ctx context.Context, q *model.ReservationQuery, limit int, offset int64) ([]*model.Reservation, error) {
	return m.findFn(ctx, q, limit, offset)
}

func (m *mockReservationRepo) Count(ctx context.Context, q *model.ReservationQuery) (int64, error) {
	return m.countFn(ctx, q)
}

func (m *mockReservationRepo) UpdateWithToken(ctx context.Context, id string, token time.Time, r *model.Reservation) (*mongo.UpdateResult, error) {
	return m.updateFn(ctx, id, token, r)
}

func (m *mockReservationRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockReservationRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.executeTxFn != nil {
		return m.executeTxFn(ctx, fn)
	}
	return nil
}

type mockRoomRepo struct {
	findAllFn  func(ctx context.Context) ([]model.Room, error)
	findByIDFn func(ctx context.Context, id string) (*model.Room, error)
}

func (m *mockRoomRepo) FindAll(ctx context.Context) ([]model.Room, error) {
	return m.findAllFn(ctx)
}

func (m *mockRoomRepo) FindByID(ctx context.Context, id string) (*model.Room, error) {
	return m.findByIDFn(ctx, id)
}

type mockPublisher struct {
	published []kafka.Message
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, msg)
	return nil
}

type mockPurger struct {
	purged []string
	err    error
}

func (m *mockPurger) DeleteForReservation(ctx context.Context, reservationID string) error {
	if m.err != nil {
		return m.err
	}
	m.purged = append(m.purged, reservationID)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Output: io.Discard}),
	}
}

func testToken() time.Time {
	return time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
}

func validReservation() *model.Reservation {
	return &model.Reservation{
		RoomID:       "507f1f77bcf86cd799439011",
		GuestID:      "g1",
		GuestName:    "Alice",
		GuestCount:   2,
		CheckinDate:  "2025-10-01",
		CheckoutDate: "2025-10-03",
		Status:       model.StatusActive,
	}
}

func newTestService(repo *mockReservationRepo, rooms *mockRoomRepo, pub *mockPublisher, purger *mockPurger) ReservationService {
	cfg := testConfig()
	v := validator.NewReservationValidator(cfg.Log)
	// Pass true nil interfaces for absent mocks so the service's nil
	// checks work; a typed-nil *mockPublisher would slip past them.
	var p EventPublisher
	if pub != nil {
		p = pub
	}
	var pg ReplicaPurger
	if purger != nil {
		pg = purger
	}
	return NewReservationService(repo, rooms, v, p, pg, cfg)
}

func TestCreate_AppliesDefaultsAndPublishes(t *testing.T) {
	var stored *model.Reservation
	repo := &mockReservationRepo{
		createFn: func(ctx context.Context, r *model.Reservation) error {
			r.ID = "507f1f77bcf86cd799439099"
			stored = r
			return nil
		},
	}
	rooms := &mockRoomRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Room, error) {
			return &model.Room{ID: id, Name: "101"}, nil
		},
	}
	pub := &mockPublisher{}

	svc := newTestService(repo, rooms, pub, nil)

	res := validReservation()
	res.Status = ""
	if err := svc.Create(context.Background(), res); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if stored == nil {
		t.Fatal("reservation was not stored")
	}
	if stored.Status != model.StatusActive {
		t.Errorf("expected default status active, got %s", stored.Status)
	}
	if stored.Number == "" {
		t.Error("expected a generated reservation number")
	}
	if len(pub.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(pub.published))
	}
	if got := pub.published[0].GetEventType(); got != model.EventReservationCreated {
		t.Errorf("expected event type %s, got %s", model.EventReservationCreated, got)
	}
}

func TestCreate_RejectsInvertedDates(t *testing.T) {
	repo := &mockReservationRepo{
		createFn: func(ctx context.Context, r *model.Reservation) error {
			t.Fatal("repository should not be called for invalid input")
			return nil
		},
	}
	rooms := &mockRoomRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Room, error) {
			return &model.Room{ID: id}, nil
		},
	}

	svc := newTestService(repo, rooms, nil, nil)

	res := validReservation()
	res.CheckinDate = "2025-10-05"
	res.CheckoutDate = "2025-10-01"

	err := svc.Create(context.Background(), res)
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("expected validation error code, got %s", appErr.Code)
	}
}

func TestCreate_UnknownRoom(t *testing.T) {
	repo := &mockReservationRepo{
		createFn: func(ctx context.Context, r *model.Reservation) error {
			t.Fatal("repository should not be called for unknown room")
			return nil
		},
	}
	rooms := &mockRoomRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Room, error) {
			return nil, reservationserrors.ErrRoomNotFound
		},
	}

	svc := newTestService(repo, rooms, nil, nil)

	err := svc.Create(context.Background(), validReservation())
	if err == nil {
		t.Fatal("expected not found error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeNotFound {
		t.Errorf("expected not found code, got %s", apperrors.AsAppError(err).Code)
	}
}

func TestUpdate_StaleTokenConflict(t *testing.T) {
	existing := validReservation()
	existing.ID = "507f1f77bcf86cd799439011"
	existing.UpdatedAt = testToken().Add(time.Minute)

	repo := &mockReservationRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Reservation, error) {
			copy := *existing
			return &copy, nil
		},
		updateFn: func(ctx context.Context, id string, token time.Time, r *model.Reservation) (*mongo.UpdateResult, error) {
			return &mongo.UpdateResult{MatchedCount: 0}, nil
		},
	}
	rooms := &mockRoomRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Room, error) {
			return &model.Room{ID: id}, nil
		},
	}

	svc := newTestService(repo, rooms, nil, nil)

	name := "Bob"
	_, err := svc.Update(context.Background(), existing.ID, testToken(), &model.ReservationUpdate{GuestName: name})
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeConflict {
		t.Errorf("expected conflict code, got %s", apperrors.AsAppError(err).Code)
	}
}

func TestUpdate_MissingDocumentIsNotFound(t *testing.T) {
	calls := 0
	repo := &mockReservationRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Reservation, error) {
			calls++
			if calls == 1 {
				copy := *validReservation()
				copy.ID = id
				return &copy, nil
			}
			// Deleted between the read and the compare-and-swap.
			return nil, reservationserrors.ErrNotFound
		},
		updateFn: func(ctx context.Context, id string, token time.Time, r *model.Reservation) (*mongo.UpdateResult, error) {
			return &mongo.UpdateResult{MatchedCount: 0}, nil
		},
	}
	rooms := &mockRoomRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Room, error) {
			return &model.Room{ID: id}, nil
		},
	}

	svc := newTestService(repo, rooms, nil, nil)

	_, err := svc.Update(context.Background(), "507f1f77bcf86cd799439011", testToken(), &model.ReservationUpdate{GuestName: "Bob"})
	if err == nil {
		t.Fatal("expected not found error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeNotFound {
		t.Errorf("expected not found code, got %s", apperrors.AsAppError(err).Code)
	}
}

func TestUpdate_RequiresToken(t *testing.T) {
	svc := newTestService(&mockReservationRepo{}, &mockRoomRepo{}, nil, nil)

	_, err := svc.Update(context.Background(), "507f1f77bcf86cd799439011", time.Time{}, &model.ReservationUpdate{GuestName: "Bob"})
	if err == nil {
		t.Fatal("expected invalid input error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
		t.Errorf("expected invalid input code, got %s", apperrors.AsAppError(err).Code)
	}
}

func TestUpdate_MergesPartialFields(t *testing.T) {
	existing := validReservation()
	existing.ID = "507f1f77bcf86cd799439011"

	var saved *model.Reservation
	repo := &mockReservationRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Reservation, error) {
			copy := *existing
			return &copy, nil
		},
		updateFn: func(ctx context.Context, id string, token time.Time, r *model.Reservation) (*mongo.UpdateResult, error) {
			saved = r
			return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		},
	}
	rooms := &mockRoomRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Room, error) {
			return &model.Room{ID: id}, nil
		},
	}

	svc := newTestService(repo, rooms, nil, nil)

	clear := ""
	updated, err := svc.Update(context.Background(), existing.ID, testToken(), &model.ReservationUpdate{
		GuestName:      "Bob",
		ArrivalMarkers: &clear,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if saved.GuestName != "Bob" {
		t.Errorf("guest name should be updated, got %s", saved.GuestName)
	}
	if saved.CheckinDate != existing.CheckinDate {
		t.Error("unset fields should keep their stored values")
	}
	if saved.ArrivalMarkers != "" {
		t.Error("explicit empty pointer should clear the markers")
	}
	if updated.GuestName != "Bob" {
		t.Error("returned reservation should reflect the merge")
	}
}

func TestDelete_PurgesReplicaAndPublishes(t *testing.T) {
	repo := &mockReservationRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Reservation, error) {
			copy := *validReservation()
			copy.ID = id
			return &copy, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			return nil
		},
	}
	pub := &mockPublisher{}
	purger := &mockPurger{}

	svc := newTestService(repo, &mockRoomRepo{}, pub, purger)

	id := "507f1f77bcf86cd799439011"
	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if len(purger.purged) != 1 || purger.purged[0] != id {
		t.Errorf("expected purge for %s, got %v", id, purger.purged)
	}
	if len(pub.published) != 1 || pub.published[0].GetEventType() != model.EventReservationDeleted {
		t.Error("expected a deleted event to be published")
	}
}

func TestDelete_PurgeFailureDoesNotFailDelete(t *testing.T) {
	repo := &mockReservationRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Reservation, error) {
			copy := *validReservation()
			copy.ID = id
			return &copy, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			return nil
		},
	}
	purger := &mockPurger{err: errors.New("replica offline")}

	svc := newTestService(repo, &mockRoomRepo{}, nil, purger)

	if err := svc.Delete(context.Background(), "507f1f77bcf86cd799439011"); err != nil {
		t.Fatalf("delete should succeed even when the replica purge fails, got %v", err)
	}
}

func TestTimeline_DerivesFromActiveReservations(t *testing.T) {
	rooms := &mockRoomRepo{
		findAllFn: func(ctx context.Context) ([]model.Room, error) {
			return []model.Room{{ID: "r1", Name: "101", Location: "main"}}, nil
		},
	}
	repo := &mockReservationRepo{
		findFn: func(ctx context.Context, q *model.ReservationQuery, limit int, offset int64) ([]*model.Reservation, error) {
			if q.Status != model.StatusActive {
				t.Errorf("timeline should only load active reservations, got status %q", q.Status)
			}
			return []*model.Reservation{
				{ID: "res-1", RoomID: "r1", GuestID: "g1", GuestName: "Alice", CheckinDate: "2025-10-01", CheckoutDate: "2025-10-02", Status: model.StatusActive},
			}, nil
		},
	}

	svc := newTestService(repo, rooms, nil, nil)

	grid, err := svc.Timeline(context.Background(), "2025-10-01", "2025-10-03")
	if err != nil {
		t.Fatalf("Timeline failed: %v", err)
	}
	if len(grid.Rows) != 1 || len(grid.Days) != 3 {
		t.Fatalf("unexpected grid shape: %d rows, %d days", len(grid.Rows), len(grid.Days))
	}
}
