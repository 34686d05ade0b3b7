// Package hierarchy answers who reports to whom. The hierarchy is a single
// employee -> manager back-reference; transitive chains are not followed.
package hierarchy

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hours-ledger/internal/model"
)

// Directory is the read-only view of user records the resolver needs.
type Directory interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsersByManager(ctx context.Context, managerID string) ([]model.User, error)
	ListUsersByRole(ctx context.Context, role model.Role) ([]model.User, error)
}

type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// DirectReports returns the sorted ids of employees whose manager is managerID.
func (r *Resolver) DirectReports(ctx context.Context, managerID string) ([]string, error) {
	m, err := r.dir.GetUser(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("DirectReports: %w", err)
	}
	if m.Role != model.RoleManager {
		return nil, fmt.Errorf("DirectReports: %w: user %s is %s, not manager", model.ErrInvalidInput, managerID, m.Role)
	}
	users, err := r.dir.ListUsersByManager(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("DirectReports: %w", err)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		if u.ReportsTo(managerID) {
			ids = append(ids, u.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// AllEmployees returns the sorted ids of every employee, active or not.
func (r *Resolver) AllEmployees(ctx context.Context) ([]string, error) {
	users, err := r.dir.ListUsersByRole(ctx, model.RoleEmployee)
	if err != nil {
		return nil, fmt.Errorf("AllEmployees: %w", err)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	sort.Strings(ids)
	return ids, nil
}

// Memo pins resolver answers for the lifetime of one request so that the
// authorization check and the data fetch see the same team.
type Memo struct {
	r       *Resolver
	mu      sync.Mutex
	reports map[string][]string
}

func (r *Resolver) Memo() *Memo {
	return &Memo{r: r, reports: map[string][]string{}}
}

func (m *Memo) DirectReports(ctx context.Context, managerID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ids, ok := m.reports[managerID]; ok {
		return ids, nil
	}
	ids, err := m.r.DirectReports(ctx, managerID)
	if err != nil {
		return nil, err
	}
	m.reports[managerID] = ids
	return ids, nil
}
