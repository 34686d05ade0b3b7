// Package timerecord owns time entries: it checks preconditions, asks the
// access policy before every mutation and serializes writes per entry.
package timerecord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hours-ledger/internal/cache"
	"hours-ledger/internal/metrics"
	"hours-ledger/internal/model"
	"hours-ledger/internal/policy"
	"hours-ledger/internal/store"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Options struct {
	// Location decides which calendar day "today" is.
	Location *time.Location
	// LockWait bounds how long a write waits for the entry lock.
	LockWait time.Duration
	Now      func() time.Time
}

type Store struct {
	db     store.Store
	locker cache.Locker
	authz  *policy.Authorizer
	loc    *time.Location
	wait   time.Duration
	now    func() time.Time
	newID  func() string
}

func New(db store.Store, locker cache.Locker, authz *policy.Authorizer, opts Options) *Store {
	s := &Store{
		db:     db,
		locker: locker,
		authz:  authz,
		loc:    opts.Location,
		wait:   opts.LockWait,
		now:    opts.Now,
		newID:  uuid.NewString,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.wait <= 0 {
		s.wait = 5 * time.Second
	}
	return s
}

// Today is the current calendar date in the configured time zone.
func (s *Store) Today() time.Time {
	return model.DateOf(s.now(), s.loc)
}

// Create records a new entry for ownerID. Only employees own entries.
func (s *Store) Create(ctx context.Context, identity model.Identity, ownerID, projectID string, date time.Time, hours decimal.Decimal, description string) (model.TimeEntry, error) {
	e, err := s.create(ctx, identity, ownerID, projectID, date, hours, description)
	s.observe(ctx, policy.OpCreateEntry, err)
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("Create: %w", err)
	}
	zerolog.Ctx(ctx).Info().
		Str("entry_id", e.ID).
		Str("owner_id", e.OwnerID).
		Str("project_id", e.ProjectID).
		Str("hours", e.Hours.String()).
		Msg("time entry created")
	return e, nil
}

func (s *Store) create(ctx context.Context, identity model.Identity, ownerID, projectID string, date time.Time, hours decimal.Decimal, description string) (model.TimeEntry, error) {
	if err := s.authz.Require(ctx, nil, identity, policy.OpCreateEntry, ownerID); err != nil {
		return model.TimeEntry{}, err
	}
	owner, err := s.db.GetUser(ctx, ownerID)
	if err != nil {
		return model.TimeEntry{}, err
	}
	if owner.Role != model.RoleEmployee {
		return model.TimeEntry{}, fmt.Errorf("%w: %s %s cannot own time entries", model.ErrForbidden, owner.Role, owner.ID)
	}
	if !owner.Active {
		return model.TimeEntry{}, fmt.Errorf("%w: %s", model.ErrUserInactive, owner.ID)
	}

	e := model.TimeEntry{
		ID:          s.newID(),
		OwnerID:     ownerID,
		ProjectID:   projectID,
		WorkDate:    model.DateOf(date, nil),
		Hours:       hours,
		Description: description,
	}
	if err := s.check(ctx, e, true); err != nil {
		return model.TimeEntry{}, err
	}
	return s.db.CreateEntry(ctx, e)
}

// Update applies fields to the entry under its lock. The stored version must
// not move between the read and the write.
func (s *Store) Update(ctx context.Context, identity model.Identity, entryID string, fields model.EntryFields) (model.TimeEntry, error) {
	var out model.TimeEntry
	err := s.withEntryLock(ctx, entryID, func(ctx context.Context) error {
		if fields.Empty() {
			return fmt.Errorf("%w: nothing to update", model.ErrInvalidInput)
		}
		cur, err := s.db.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if err := s.authz.Require(ctx, nil, identity, policy.OpUpdateEntry, cur.OwnerID); err != nil {
			return err
		}
		if err := s.requireActive(ctx, cur.OwnerID); err != nil {
			return err
		}
		next := fields.Apply(cur)
		if err := s.check(ctx, next, next.ProjectID != cur.ProjectID); err != nil {
			return err
		}
		out, err = s.db.UpdateEntry(ctx, next)
		return err
	})
	s.observe(ctx, policy.OpUpdateEntry, err)
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("Update: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("entry_id", out.ID).Int("version", out.Version).Msg("time entry updated")
	return out, nil
}

func (s *Store) Delete(ctx context.Context, identity model.Identity, entryID string) error {
	err := s.withEntryLock(ctx, entryID, func(ctx context.Context) error {
		cur, err := s.db.GetEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if err := s.authz.Require(ctx, nil, identity, policy.OpDeleteEntry, cur.OwnerID); err != nil {
			return err
		}
		if err := s.requireActive(ctx, cur.OwnerID); err != nil {
			return err
		}
		return s.db.DeleteEntry(ctx, cur.ID, cur.Version)
	})
	s.observe(ctx, policy.OpDeleteEntry, err)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	zerolog.Ctx(ctx).Info().Str("entry_id", entryID).Msg("time entry deleted")
	return nil
}

// ListByOwner returns ownerID's entries dated inside r.
func (s *Store) ListByOwner(ctx context.Context, identity model.Identity, reports policy.ReportLookup, ownerID string, r model.DateRange) ([]model.TimeEntry, error) {
	return s.ListByOwners(ctx, identity, policy.OpReadEntries, reports, []string{ownerID}, r)
}

// ListByOwners reads the entries of every owner in ownerIDs dated inside r.
// The whole owner set is authorized for op before anything is read.
func (s *Store) ListByOwners(ctx context.Context, identity model.Identity, op policy.Operation, reports policy.ReportLookup, ownerIDs []string, r model.DateRange) ([]model.TimeEntry, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("ListByOwners: %w", err)
	}
	owners := dedupe(ownerIDs)
	if err := s.authz.Require(ctx, reports, identity, op, owners...); err != nil {
		return nil, fmt.Errorf("ListByOwners: %w", err)
	}
	if len(owners) == 0 {
		return []model.TimeEntry{}, nil
	}
	list, err := s.db.ListEntries(ctx, owners, r)
	if err != nil {
		return nil, fmt.Errorf("ListByOwners: %w", err)
	}
	if list == nil {
		list = []model.TimeEntry{}
	}
	return list, nil
}

// check validates e against its own rules and the outside state: the work
// date may not lie in the future and a newly referenced project must be open.
func (s *Store) check(ctx context.Context, e model.TimeEntry, newProject bool) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if today := s.Today(); e.WorkDate.After(today) {
		return fmt.Errorf("%w: work date %s is after %s", model.ErrInvalidDate,
			e.WorkDate.Format(model.DateLayout), today.Format(model.DateLayout))
	}
	p, err := s.db.GetProject(ctx, e.ProjectID)
	if err != nil {
		return err
	}
	if newProject && !p.Open() {
		return fmt.Errorf("%w: project %s is %s", model.ErrInvalidInput, p.ID, p.Status)
	}
	return nil
}

// requireActive freezes the entries of a deactivated owner, whoever asks.
func (s *Store) requireActive(ctx context.Context, ownerID string) error {
	owner, err := s.db.GetUser(ctx, ownerID)
	if err != nil {
		return err
	}
	if !owner.Active {
		return fmt.Errorf("%w: %s", model.ErrUserInactive, owner.ID)
	}
	return nil
}

func (s *Store) withEntryLock(ctx context.Context, entryID string, fn func(ctx context.Context) error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.wait)
	defer cancel()
	unlock, err := s.locker.Lock(lockCtx, "entry:"+entryID)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("entry_id", entryID).Msg("release entry lock")
		}
	}()
	return fn(ctx)
}

func (s *Store) observe(ctx context.Context, op policy.Operation, err error) {
	metrics.EntryWrites.WithLabelValues(string(op), outcome(err)).Inc()
	if err != nil && !model.IsDenied(err) {
		zerolog.Ctx(ctx).Debug().Err(err).Str("operation", string(op)).Msg("time entry write rejected")
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case model.IsDenied(err):
		return "denied"
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	case errors.Is(err, model.ErrStoreUnavailable):
		return "unavailable"
	case errors.Is(err, model.ErrInvalidInput), errors.Is(err, model.ErrInvalidDate), errors.Is(err, model.ErrNotFound):
		return "rejected"
	default:
		return "error"
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
