package service

import (
	"context"
	"errors"
	"time"

	editlockserrors "pensio/internal/editlocks/errors"
	"pensio/internal/editlocks/repository"
	"pensio/pkg/config"
	apperrors "pensio/pkg/errors"
	"pensio/pkg/model"
)

type LockService interface {
	Acquire(ctx context.Context, reservationID, holder string) (*model.EditLock, error)
	Heartbeat(ctx context.Context, reservationID, holder string) (*model.EditLock, error)
	Release(ctx context.Context, reservationID, holder string) error
	ReleaseAllForHolder(ctx context.Context, holder string) (int64, error)
	Get(ctx context.Context, reservationID string) (*model.EditLock, error)
	ListAll(ctx context.Context) ([]model.EditLock, error)
}

type lockService struct {
	repo repository.LockRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewLockService(repo repository.LockRepository, cfg *config.Config) LockService {
	return &lockService{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

// Acquire claims the edit lock on a reservation. Re-acquiring a lock the
// caller already holds refreshes its heartbeat instead of failing, so a
// client that lost track of its own lock can resume editing. Locks whose
// heartbeat went stale are reclaimed on the way in: staleness is handled
// lazily here rather than by a background sweeper.
func (s *lockService) Acquire(ctx context.Context, reservationID, holder string) (*model.EditLock, error) {
	if err := validateLockInput(reservationID, holder); err != nil {
		return nil, err
	}

	s.purgeStale(ctx)

	now := s.now().UTC().Truncate(time.Millisecond)
	lock := &model.EditLock{
		ReservationID: reservationID,
		Holder:        holder,
		LockedAt:      now,
		LastHeartbeat: now,
	}

	err := s.repo.Insert(ctx, lock)
	if err == nil {
		s.cfg.Log.Info("Edit lock acquired", "reservation_id", reservationID, "holder", holder)
		return lock, nil
	}
	if !errors.Is(err, editlockserrors.ErrAlreadyLocked) {
		s.cfg.Log.Error("Failed to acquire edit lock", "reservation_id", reservationID, "error", err)
		return nil, apperrors.Internal("Failed to acquire edit lock", err)
	}

	existing, getErr := s.repo.Get(ctx, reservationID)
	if getErr != nil {
		if errors.Is(getErr, editlockserrors.ErrLockNotFound) {
			// Released between insert and read; one more insert attempt.
			if retryErr := s.repo.Insert(ctx, lock); retryErr == nil {
				s.cfg.Log.Info("Edit lock acquired on retry", "reservation_id", reservationID, "holder", holder)
				return lock, nil
			}
			return nil, apperrors.Conflict("Reservation is being edited by someone else")
		}
		s.cfg.Log.Error("Failed to inspect existing edit lock", "reservation_id", reservationID, "error", getErr)
		return nil, apperrors.Internal("Failed to acquire edit lock", getErr)
	}

	if existing.Holder == holder {
		if _, err := s.repo.RefreshHeartbeat(ctx, reservationID, holder, now); err != nil {
			s.cfg.Log.Warn("Failed to refresh heartbeat on re-acquire", "reservation_id", reservationID, "error", err)
		}
		existing.LastHeartbeat = now
		return existing, nil
	}

	s.cfg.Log.Info("Edit lock contention",
		"reservation_id", reservationID,
		"requested_by", holder,
		"held_by", existing.Holder,
	)
	return nil, apperrors.ConflictWithHolder("Reservation is being edited by someone else", existing.Holder)
}

// Heartbeat keeps a held lock alive. It only succeeds for the current
// holder; a heartbeat against a lock someone else holds is a conflict,
// and against no lock at all is not found (the lock went stale and was
// reclaimed, the holder must re-acquire).
func (s *lockService) Heartbeat(ctx context.Context, reservationID, holder string) (*model.EditLock, error) {
	if err := validateLockInput(reservationID, holder); err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	matched, err := s.repo.RefreshHeartbeat(ctx, reservationID, holder, now)
	if err != nil {
		s.cfg.Log.Error("Failed to refresh edit lock heartbeat", "reservation_id", reservationID, "error", err)
		return nil, apperrors.Internal("Failed to refresh edit lock heartbeat", err)
	}

	if !matched {
		existing, getErr := s.repo.Get(ctx, reservationID)
		if getErr == nil {
			return nil, apperrors.ConflictWithHolder("Lock is held by someone else", existing.Holder)
		}
		if !errors.Is(getErr, editlockserrors.ErrLockNotFound) {
			return nil, apperrors.Internal("Failed to inspect edit lock", getErr)
		}
		return nil, apperrors.NotFoundWithID("Edit lock", reservationID)
	}

	lock, err := s.repo.Get(ctx, reservationID)
	if err != nil {
		return nil, apperrors.Internal("Failed to read edit lock after heartbeat", err)
	}
	return lock, nil
}

// Release is lenient: releasing a lock that is gone, or that someone
// else now holds, succeeds quietly. The client is finishing its edit
// either way and has nothing useful to do with a failure.
func (s *lockService) Release(ctx context.Context, reservationID, holder string) error {
	if err := validateLockInput(reservationID, holder); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, reservationID, holder)
	if err != nil {
		s.cfg.Log.Error("Failed to release edit lock", "reservation_id", reservationID, "error", err)
		return apperrors.Internal("Failed to release edit lock", err)
	}

	if deleted {
		s.cfg.Log.Info("Edit lock released", "reservation_id", reservationID, "holder", holder)
	} else {
		s.cfg.Log.Info("Edit lock release was a no-op", "reservation_id", reservationID, "holder", holder)
	}
	return nil
}

func (s *lockService) ReleaseAllForHolder(ctx context.Context, holder string) (int64, error) {
	if holder == "" {
		return 0, apperrors.InvalidInput("Holder cannot be empty")
	}

	count, err := s.repo.DeleteByHolder(ctx, holder)
	if err != nil {
		s.cfg.Log.Error("Failed to release edit locks for holder", "holder", holder, "error", err)
		return 0, apperrors.Internal("Failed to release edit locks", err)
	}

	s.cfg.Log.Info("Released all edit locks for holder", "holder", holder, "count", count)
	return count, nil
}

// Get returns the live lock on a reservation, or not found when there is
// no lock or only a stale one.
func (s *lockService) Get(ctx context.Context, reservationID string) (*model.EditLock, error) {
	if reservationID == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	lock, err := s.repo.Get(ctx, reservationID)
	if err != nil {
		if errors.Is(err, editlockserrors.ErrLockNotFound) {
			return nil, apperrors.NotFoundWithID("Edit lock", reservationID)
		}
		return nil, apperrors.Internal("Failed to retrieve edit lock", err)
	}

	if !lock.Live(s.now(), s.cfg.LockStaleness) {
		return nil, apperrors.NotFoundWithID("Edit lock", reservationID)
	}

	return lock, nil
}

func (s *lockService) ListAll(ctx context.Context) ([]model.EditLock, error) {
	locks, err := s.repo.List(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list edit locks", "error", err)
		return nil, apperrors.Internal("Failed to list edit locks", err)
	}

	now := s.now()
	live := locks[:0]
	for _, lock := range locks {
		if lock.Live(now, s.cfg.LockStaleness) {
			live = append(live, lock)
		}
	}
	return live, nil
}

func (s *lockService) purgeStale(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.LockStaleness)
	count, err := s.repo.DeleteStale(ctx, cutoff)
	if err != nil {
		s.cfg.Log.Warn("Failed to purge stale edit locks", "error", err)
		return
	}
	if count > 0 {
		s.cfg.Log.Info("Purged stale edit locks", "count", count, "cutoff", cutoff)
	}
}

func validateLockInput(reservationID, holder string) error {
	if reservationID == "" {
		return apperrors.InvalidInput("Reservation ID cannot be empty")
	}
	if holder == "" {
		return apperrors.InvalidInput("Holder cannot be empty")
	}
	return nil
}
