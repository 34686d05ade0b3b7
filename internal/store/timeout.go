package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hours-ledger/internal/model"
)

// WithTimeout bounds every call on s by d. A call that runs out of time
// surfaces as model.ErrStoreUnavailable rather than hanging.
func WithTimeout(s Store, d time.Duration) Store {
	if d <= 0 {
		return s
	}
	return &bounded{s: s, d: d}
}

type bounded struct {
	s Store
	d time.Duration
}

func (b *bounded) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, b.d)
}

func unavailable(err error) error {
	if err == nil || errors.Is(err, model.ErrStoreUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", model.ErrStoreUnavailable, err)
	}
	return err
}

func (b *bounded) GetUser(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := b.ctx(ctx)
	defer cancel()
	u, err := b.s.GetUser(ctx, id)
	return u, unavailable(err)
}

func (b *bounded) ListUsersByManager(ctx context.Context, managerID string) ([]model.User, error) {
	ctx, cancel := b.ctx(ctx)
	defer cancel()
	users, err := b.s.ListUsersByManager(ctx, managerID)
	return users, unavailable(err)
}

func (b *bounded) ListUsersByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	ctx, cancel := b.ctx(ctx)
	defer cancel()
	users, err := b.s.ListUsersByRole(ctx, role)
	return users, unavailable(err)
}

func (b *bounded) GetProject(ctx context.Context, id string) (*model.Project, error) {
	ctx, cancel := b.ctx(ctx)
	defer cancel()
	p, err := b.s.GetProject(ctx, id)
	return p, unavailable(err)
}

func (b *bounded) CreateEntry(ctx context.Context, e model.TimeEntry) (model.TimeEntry, error) {
	ctx, cancel := b.ctx(ctx)
	defer cancel()
	out, err := b.s.CreateEntry(ctx, e)
	return out, unavailable(err)
}

func (b *bounded) GetEntry(ctx context.Context, id string) (model.TimeEntry, error) {
	ctx, cancel := b.ctx(ctx)
	defer cancel()
	e, err := b.s.GetEntry(ctx, id)
	return e, unavailable(err)
}

func (b *bounded) UpdateEntry(ctx context.Context, e model.TimeEntry) (model.TimeEntry, error) {
	ctx, cancel := b.ctx(ctx)
	defer cancel()
	out, err := b.s.UpdateEntry(ctx, e)
	return out, unavailable(err)
}

func (b *bounded) DeleteEntry(ctx context.Context, id string, version int) error {
	ctx, cancel := b.ctx(ctx)
	defer cancel()
	return unavailable(b.s.DeleteEntry(ctx, id, version))
}

func (b *bounded) ListEntries(ctx context.Context, ownerIDs []string, r model.DateRange) ([]model.TimeEntry, error) {
	ctx, cancel := b.ctx(ctx)
	defer cancel()
	list, err := b.s.ListEntries(ctx, ownerIDs, r)
	return list, unavailable(err)
}

func (b *bounded) Ping(ctx context.Context) error {
	ctx, cancel := b.ctx(ctx)
	defer cancel()
	return unavailable(b.s.Ping(ctx))
}
