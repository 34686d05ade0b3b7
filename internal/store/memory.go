package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hours-ledger/internal/model"
)

// Memory is a map-backed Store. Every read hands out copies taken under the
// read lock, so callers always see a consistent snapshot.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]model.User
	projects map[string]model.Project
	entries  map[string]model.TimeEntry
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users:    map[string]model.User{},
		projects: map[string]model.Project{},
		entries:  map[string]model.TimeEntry{},
		now:      time.Now,
	}
}

func (m *Memory) GetUser(ctx context.Context, id string) (*model.User, error) {
	if err := ctxErr("memory.GetUser", ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("memory.GetUser: %w: user %s", model.ErrNotFound, id)
	}
	return &u, nil
}

func (m *Memory) ListUsersByManager(ctx context.Context, managerID string) ([]model.User, error) {
	return m.filterUsers(ctx, "memory.ListUsersByManager", func(u model.User) bool { return u.ReportsTo(managerID) })
}

func (m *Memory) ListUsersByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	return m.filterUsers(ctx, "memory.ListUsersByRole", func(u model.User) bool { return u.Role == role })
}

func (m *Memory) filterUsers(ctx context.Context, op string, keep func(model.User) bool) ([]model.User, error) {
	if err := ctxErr(op, ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.User
	for _, u := range m.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetProject(ctx context.Context, id string) (*model.Project, error) {
	if err := ctxErr("memory.GetProject", ctx); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("memory.GetProject: %w: project %s", model.ErrNotFound, id)
	}
	return &p, nil
}

func (m *Memory) CreateEntry(ctx context.Context, e model.TimeEntry) (model.TimeEntry, error) {
	if err := ctxErr("memory.CreateEntry", ctx); err != nil {
		return model.TimeEntry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.entries[e.ID]; dup {
		return model.TimeEntry{}, fmt.Errorf("memory.CreateEntry: %w: entry %s exists", model.ErrConflict, e.ID)
	}
	if err := m.checkRefs(e); err != nil {
		return model.TimeEntry{}, fmt.Errorf("memory.CreateEntry: %w", err)
	}
	now := m.now().UTC()
	e.Version = 1
	e.CreatedAt = now
	e.UpdatedAt = now
	m.entries[e.ID] = e
	return e, nil
}

func (m *Memory) GetEntry(ctx context.Context, id string) (model.TimeEntry, error) {
	if err := ctxErr("memory.GetEntry", ctx); err != nil {
		return model.TimeEntry{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return model.TimeEntry{}, fmt.Errorf("memory.GetEntry: %w: entry %s", model.ErrNotFound, id)
	}
	return e, nil
}

func (m *Memory) UpdateEntry(ctx context.Context, e model.TimeEntry) (model.TimeEntry, error) {
	if err := ctxErr("memory.UpdateEntry", ctx); err != nil {
		return model.TimeEntry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.entries[e.ID]
	if !ok || cur.Version != e.Version {
		return model.TimeEntry{}, fmt.Errorf("memory.UpdateEntry: %w: entry %s is not at version %d", model.ErrConflict, e.ID, e.Version)
	}
	if err := m.checkRefs(e); err != nil {
		return model.TimeEntry{}, fmt.Errorf("memory.UpdateEntry: %w", err)
	}
	e.OwnerID = cur.OwnerID
	e.CreatedAt = cur.CreatedAt
	e.Version = cur.Version + 1
	e.UpdatedAt = m.now().UTC()
	m.entries[e.ID] = e
	return e, nil
}

func (m *Memory) DeleteEntry(ctx context.Context, id string, version int) error {
	if err := ctxErr("memory.DeleteEntry", ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.entries[id]
	if !ok || cur.Version != version {
		return fmt.Errorf("memory.DeleteEntry: %w: entry %s is not at version %d", model.ErrConflict, id, version)
	}
	delete(m.entries, id)
	return nil
}

func (m *Memory) ListEntries(ctx context.Context, ownerIDs []string, r model.DateRange) ([]model.TimeEntry, error) {
	if err := ctxErr("memory.ListEntries", ctx); err != nil {
		return nil, err
	}
	owners := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.TimeEntry
	for _, e := range m.entries {
		if owners[e.OwnerID] && r.Contains(e.WorkDate) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.WorkDate.Equal(b.WorkDate) {
			return a.WorkDate.Before(b.WorkDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

// PutUser inserts or replaces u. The manager reference must already exist.
func (m *Memory) PutUser(ctx context.Context, u model.User) error {
	if err := ctxErr("memory.PutUser", ctx); err != nil {
		return err
	}
	if !u.Role.Valid() {
		return fmt.Errorf("memory.PutUser: %w: role %q", model.ErrInvalidInput, u.Role)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ManagerID != nil {
		mgr, ok := m.users[*u.ManagerID]
		var mp *model.User
		if ok {
			mp = &mgr
		}
		if err := u.CheckManager(mp); err != nil {
			return fmt.Errorf("memory.PutUser: %w", err)
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now().UTC()
	}
	m.users[u.ID] = u
	return nil
}

func (m *Memory) PutProject(ctx context.Context, p model.Project) error {
	if err := ctxErr("memory.PutProject", ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	return nil
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctxErr("memory.Ping", ctx)
}

// checkRefs mirrors the foreign keys of time_entries. Callers hold m.mu.
func (m *Memory) checkRefs(e model.TimeEntry) error {
	if _, ok := m.users[e.OwnerID]; !ok {
		return fmt.Errorf("%w: user %s", model.ErrNotFound, e.OwnerID)
	}
	if _, ok := m.projects[e.ProjectID]; !ok {
		return fmt.Errorf("%w: project %s", model.ErrNotFound, e.ProjectID)
	}
	return nil
}

func ctxErr(op string, ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
	}
	return nil
}
