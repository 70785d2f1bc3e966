package service

import (
	"context"
	"errors"
	"sync"
	"time"

	reservationserrors "pensio/internal/reservations/errors"
	"pensio/internal/reservations/repository"
	"pensio/internal/reservations/validator"
	"pensio/internal/timeline"
	"pensio/pkg/config"
	apperrors "pensio/pkg/errors"
	"pensio/pkg/kafka"
	"pensio/pkg/model"

	"github.com/google/uuid"
)

// EventPublisher is the slice of the Kafka producer the service needs.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// ReplicaPurger removes the cleaning rows of a reservation from the
// read cache when the reservation disappears.
type ReplicaPurger interface {
	DeleteForReservation(ctx context.Context, reservationID string) error
}

type ReservationService interface {
	Create(ctx context.Context, reservation *model.Reservation) error
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	Query(ctx context.Context, query *model.ReservationQuery, limit int, offset int64) ([]*model.Reservation, int64, error)
	Update(ctx context.Context, id string, expectedToken time.Time, updates *model.ReservationUpdate) (*model.Reservation, error)
	Delete(ctx context.Context, id string) error
	Timeline(ctx context.Context, start, end string) (*timeline.Grid, error)
	ListRooms(ctx context.Context) ([]model.Room, error)
}

type reservationService struct {
	repo      repository.ReservationRepository
	roomRepo  repository.RoomRepository
	validator *validator.ReservationValidator
	publisher EventPublisher
	purger    ReplicaPurger
	cfg       *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	roomRepo repository.RoomRepository,
	validator *validator.ReservationValidator,
	publisher EventPublisher,
	purger ReplicaPurger,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		roomRepo:  roomRepo,
		validator: validator,
		publisher: publisher,
		purger:    purger,
		cfg:       cfg,
	}
}

func (s *reservationService) Create(ctx context.Context, reservation *model.Reservation) error {
	s.applyDefaults(reservation)

	if err := s.validate(reservation); err != nil {
		return err
	}

	if _, err := s.roomRepo.FindByID(ctx, reservation.RoomID); err != nil {
		if errors.Is(err, reservationserrors.ErrRoomNotFound) {
			return apperrors.NotFoundWithID("Room", reservation.RoomID)
		}
		return apperrors.Internal("Failed to verify room", err)
	}

	if err := s.repo.Create(ctx, reservation); err != nil {
		s.cfg.Log.Error("Failed to create reservation", "error", err)
		return apperrors.Internal("Failed to create reservation", err)
	}

	s.publishEvent(ctx, model.EventReservationCreated, reservation)

	s.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"number", reservation.Number,
		"room_id", reservation.RoomID,
		"checkin_date", reservation.CheckinDate,
		"checkout_date", reservation.CheckoutDate,
	)
	return nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	return reservation, nil
}

func (s *reservationService) Query(ctx context.Context, query *model.ReservationQuery, limit int, offset int64) ([]*model.Reservation, int64, error) {
	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, query)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.Find(ctx, query, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}

// Update applies a partial update guarded by the caller's change token.
// The token is the updated_at value the caller last read; if the stored
// document carries a different one, somebody else saved in between and
// the update is rejected rather than silently overwritten.
func (s *reservationService) Update(ctx context.Context, id string, expectedToken time.Time, updates *model.ReservationUpdate) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}
	if expectedToken.IsZero() {
		return nil, apperrors.InvalidInput("Change token is required for updates")
	}
	if updates == nil {
		return nil, apperrors.InvalidInput("Update payload cannot be empty")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *current
	applyUpdates(&merged, updates)

	if err := s.validate(&merged); err != nil {
		return nil, err
	}

	if merged.RoomID != current.RoomID {
		if _, err := s.roomRepo.FindByID(ctx, merged.RoomID); err != nil {
			if errors.Is(err, reservationserrors.ErrRoomNotFound) {
				return nil, apperrors.NotFoundWithID("Room", merged.RoomID)
			}
			return nil, apperrors.Internal("Failed to verify room", err)
		}
	}

	result, err := s.repo.UpdateWithToken(ctx, id, expectedToken, &merged)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		s.cfg.Log.Error("Failed to update reservation", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to update reservation", err)
	}

	if result.MatchedCount == 0 {
		// Token mismatch and missing document look the same to the
		// compare-and-swap; re-read to tell them apart.
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return nil, apperrors.NotFoundWithID("Reservation", id)
			}
			return nil, apperrors.Internal("Failed to verify reservation after update", err)
		}
		s.cfg.Log.Warn("Stale change token on update", "id", id, "expected_token", expectedToken)
		return nil, apperrors.Conflict("Reservation was modified by someone else; reload and retry")
	}

	merged.ID = id
	s.publishEvent(ctx, model.EventReservationUpdated, &merged)

	s.cfg.Log.Info("Reservation updated successfully", "id", id)
	return &merged, nil
}

func (s *reservationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid reservation ID format")
		}
		s.cfg.Log.Error("Failed to delete reservation", "id", id, "error", err)
		return apperrors.Internal("Failed to delete reservation", err)
	}

	// The read cache is best effort: a failed purge is repaired by the
	// next full sync, so it never rolls back the delete.
	if s.purger != nil {
		if err := s.purger.DeleteForReservation(ctx, id); err != nil {
			s.cfg.Log.Warn("Failed to purge cleaning rows for deleted reservation",
				"id", id,
				"error", err,
			)
		}
	}

	s.publishEvent(ctx, model.EventReservationDeleted, reservation)

	s.cfg.Log.Info("Reservation deleted successfully", "id", id)
	return nil
}

func (s *reservationService) Timeline(ctx context.Context, start, end string) (*timeline.Grid, error) {
	rooms, err := s.roomRepo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to load rooms for timeline", "error", err)
		return nil, apperrors.Internal("Failed to load rooms", err)
	}

	query := &model.ReservationQuery{
		Status: model.StatusActive,
		From:   start,
		To:     end,
	}
	reservations, err := s.repo.Find(ctx, query, config.MaxPaginationLimit, 0)
	if err != nil {
		s.cfg.Log.Error("Failed to load reservations for timeline", "error", err)
		return nil, apperrors.Internal("Failed to load reservations", err)
	}

	values := make([]model.Reservation, len(reservations))
	for i, r := range reservations {
		values[i] = *r
	}

	return timeline.Derive(rooms, values, start, end)
}

func (s *reservationService) ListRooms(ctx context.Context) ([]model.Room, error) {
	rooms, err := s.roomRepo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list rooms", "error", err)
		return nil, apperrors.Internal("Failed to retrieve rooms", err)
	}
	return rooms, nil
}

func (s *reservationService) applyDefaults(reservation *model.Reservation) {
	if reservation.Status == "" {
		reservation.Status = model.StatusActive
	}
	if reservation.Number == "" {
		reservation.Number = uuid.New().String()[:8]
	}
}

func (s *reservationService) validate(reservation *model.Reservation) error {
	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return apperrors.Validation(err.Error(), nil)
	}
	return nil
}

func (s *reservationService) publishEvent(ctx context.Context, eventType string, reservation *model.Reservation) {
	if s.publisher == nil {
		return
	}

	event := model.ReservationEvent{
		ID:           reservation.ID,
		RoomID:       reservation.RoomID,
		CheckinDate:  reservation.CheckinDate,
		CheckoutDate: reservation.CheckoutDate,
		Status:       reservation.Status,
	}

	msg := kafka.NewMessage().
		WithKey(reservation.ID).
		WithValue(event).
		WithEventType(eventType).
		WithSource("reservations").
		Build()

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish reservation event",
			"event_type", eventType,
			"id", reservation.ID,
			"error", err,
		)
	}
}

// applyUpdates copies the set fields of a partial update onto a
// reservation. Pointer fields distinguish "leave unchanged" (nil) from
// "set to zero value".
func applyUpdates(reservation *model.Reservation, updates *model.ReservationUpdate) {
	if updates.RoomID != "" {
		reservation.RoomID = updates.RoomID
	}
	if updates.GuestID != "" {
		reservation.GuestID = updates.GuestID
	}
	if updates.GuestName != "" {
		reservation.GuestName = updates.GuestName
	}
	if updates.GuestCount != nil {
		reservation.GuestCount = *updates.GuestCount
	}
	if updates.CheckinDate != "" {
		reservation.CheckinDate = updates.CheckinDate
	}
	if updates.CheckoutDate != "" {
		reservation.CheckoutDate = updates.CheckoutDate
	}
	if updates.Status != "" {
		reservation.Status = updates.Status
	}
	if updates.ArrivalMarkers != nil {
		reservation.ArrivalMarkers = *updates.ArrivalMarkers
	}
	if updates.DepartureMarkers != nil {
		reservation.DepartureMarkers = *updates.DepartureMarkers
	}
}
