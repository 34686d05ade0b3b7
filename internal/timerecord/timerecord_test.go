package timerecord

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hours-ledger/internal/cache"
	"hours-ledger/internal/hierarchy"
	"hours-ledger/internal/model"
	"hours-ledger/internal/policy"
	"hours-ledger/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

/* ---------- 假實作 ---------- */

// staleStore hands out entries one version behind, as if another writer
// got in between the read and the write.
type staleStore struct {
	*store.Memory
}

func (s staleStore) GetEntry(ctx context.Context, id string) (model.TimeEntry, error) {
	e, err := s.Memory.GetEntry(ctx, id)
	e.Version--
	return e, err
}

type busyLocker struct{}

func (busyLocker) Lock(ctx context.Context, key string) (cache.Unlock, error) {
	<-ctx.Done()
	return nil, cache.ErrNotAcquired
}

/* ---------- 共用 ---------- */

var clock = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func hours(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func employee(id, manager string) model.Identity {
	return model.Identity{UserID: id, Role: model.RoleEmployee, ManagerID: ptr(manager)}
}

func manager(id string) model.Identity { return model.Identity{UserID: id, Role: model.RoleManager} }

var admin = model.Identity{UserID: "root", Role: model.RoleAdmin}

func seed(t *testing.T) *store.Memory {
	t.Helper()
	m := store.NewMemory()
	ctx := context.Background()
	for _, u := range []model.User{
		{ID: "m1", Role: model.RoleManager, Active: true},
		{ID: "m2", Role: model.RoleManager, Active: true},
		{ID: "root", Role: model.RoleAdmin, Active: true},
		{ID: "alice", Role: model.RoleEmployee, ManagerID: ptr("m1"), Active: true},
		{ID: "bob", Role: model.RoleEmployee, ManagerID: ptr("m1"), Active: true},
		{ID: "carol", Role: model.RoleEmployee, ManagerID: ptr("m2"), Active: true},
		{ID: "dave", Role: model.RoleEmployee, ManagerID: ptr("m1"), Active: false},
	} {
		require.NoError(t, m.PutUser(ctx, u))
	}
	require.NoError(t, m.PutProject(ctx, model.Project{ID: "P1", Status: model.ProjectActive}))
	require.NoError(t, m.PutProject(ctx, model.Project{ID: "P2", Status: model.ProjectActive}))
	require.NoError(t, m.PutProject(ctx, model.Project{ID: "OLD", Status: model.ProjectArchived}))
	return m
}

func newStore(t *testing.T, db store.Store) *Store {
	t.Helper()
	return New(db, cache.NewLocalLocker(), policy.NewAuthorizer(db), Options{
		Now:      func() time.Time { return clock },
		LockWait: 50 * time.Millisecond,
	})
}

func memo(db store.Store) *hierarchy.Memo {
	return hierarchy.NewResolver(db).Memo()
}

/* ---------- 完整測試 ---------- */

func TestCreate(t *testing.T) {
	ctx := context.Background()
	alice := employee("alice", "m1")

	t.Run("ok", func(t *testing.T) {
		db := seed(t)
		s := newStore(t, db)
		e, err := s.Create(ctx, alice, "alice", "P1", day("2024-03-10"), hours("7.5"), "review")
		require.NoError(t, err)
		require.NotEmpty(t, e.ID)
		require.Equal(t, 1, e.Version)
		require.True(t, e.WorkDate.Equal(day("2024-03-10")))

		got, err := db.GetEntry(ctx, e.ID)
		require.NoError(t, err)
		require.Equal(t, e, got)
	})

	t.Run("hours bounds", func(t *testing.T) {
		s := newStore(t, seed(t))
		for _, h := range []string{"0", "-1", "24.1", "25", "7.25"} {
			_, err := s.Create(ctx, alice, "alice", "P1", day("2024-03-01"), hours(h), "")
			require.ErrorIs(t, err, model.ErrInvalidInput, h)
		}
		_, err := s.Create(ctx, alice, "alice", "P1", day("2024-03-01"), hours("24"), "")
		require.NoError(t, err)
		_, err = s.Create(ctx, alice, "alice", "P1", day("2024-03-01"), hours("0.1"), "")
		require.NoError(t, err)
	})

	t.Run("future date", func(t *testing.T) {
		s := newStore(t, seed(t))
		_, err := s.Create(ctx, alice, "alice", "P1", day("2024-03-11"), hours("1"), "")
		require.ErrorIs(t, err, model.ErrInvalidDate)
		require.NotErrorIs(t, err, model.ErrInvalidRange)
	})

	t.Run("today follows the configured zone", func(t *testing.T) {
		db := seed(t)
		s := New(db, cache.NewLocalLocker(), policy.NewAuthorizer(db), Options{
			Location: time.FixedZone("UTC+8", 8*60*60),
			Now:      func() time.Time { return time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC) },
		})
		require.True(t, s.Today().Equal(day("2024-03-11")))
		_, err := s.Create(ctx, alice, "alice", "P1", day("2024-03-11"), hours("1"), "")
		require.NoError(t, err)
	})

	t.Run("description too long", func(t *testing.T) {
		s := newStore(t, seed(t))
		long := make([]rune, model.MaxDescriptionLength+1)
		for i := range long {
			long[i] = 'x'
		}
		_, err := s.Create(ctx, alice, "alice", "P1", day("2024-03-01"), hours("1"), string(long))
		require.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("project checks", func(t *testing.T) {
		s := newStore(t, seed(t))
		_, err := s.Create(ctx, alice, "alice", "OLD", day("2024-03-01"), hours("1"), "")
		require.ErrorIs(t, err, model.ErrInvalidInput)
		_, err = s.Create(ctx, alice, "alice", "NOPE", day("2024-03-01"), hours("1"), "")
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("authorization comes first", func(t *testing.T) {
		db := seed(t)
		s := newStore(t, db)

		_, err := s.Create(ctx, alice, "bob", "P1", day("2024-03-01"), hours("1"), "")
		require.ErrorIs(t, err, model.ErrNotOwner)

		_, err = s.Create(ctx, manager("m1"), "alice", "P1", day("2024-03-01"), hours("1"), "")
		require.ErrorIs(t, err, model.ErrForbidden)

		_, err = s.Create(ctx, employee("dave", "m1"), "dave", "P1", day("2024-03-01"), hours("1"), "")
		require.ErrorIs(t, err, model.ErrUserInactive)

		_, err = s.Create(ctx, model.Identity{}, "alice", "P1", day("2024-03-01"), hours("1"), "")
		require.ErrorIs(t, err, model.ErrUnauthorized)

		r, _ := model.ParseDateRange("2024-01-01", "2024-12-31")
		list, err := db.ListEntries(ctx, []string{"alice", "bob", "dave"}, r)
		require.NoError(t, err)
		require.Empty(t, list)
	})

	t.Run("admin on behalf of an employee only", func(t *testing.T) {
		s := newStore(t, seed(t))
		e, err := s.Create(ctx, admin, "carol", "P2", day("2024-03-01"), hours("3"), "")
		require.NoError(t, err)
		require.Equal(t, "carol", e.OwnerID)

		_, err = s.Create(ctx, admin, "m1", "P2", day("2024-03-01"), hours("3"), "")
		require.ErrorIs(t, err, model.ErrForbidden)

		_, err = s.Create(ctx, admin, "ghost", "P2", day("2024-03-01"), hours("3"), "")
		require.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	alice := employee("alice", "m1")

	setup := func(t *testing.T) (*store.Memory, *Store, model.TimeEntry) {
		db := seed(t)
		s := newStore(t, db)
		e, err := s.Create(ctx, alice, "alice", "P1", day("2024-03-01"), hours("8"), "")
		require.NoError(t, err)
		return db, s, e
	}

	t.Run("own entry", func(t *testing.T) {
		_, s, e := setup(t)
		got, err := s.Update(ctx, alice, e.ID, model.EntryFields{Hours: ptr(hours("6.5")), ProjectID: ptr("P2")})
		require.NoError(t, err)
		require.Equal(t, 2, got.Version)
		require.Equal(t, "P2", got.ProjectID)
		require.True(t, got.Hours.Equal(hours("6.5")))
	})

	t.Run("denied writers change nothing", func(t *testing.T) {
		db, s, e := setup(t)
		_, err := s.Update(ctx, employee("bob", "m1"), e.ID, model.EntryFields{Hours: ptr(hours("1"))})
		require.ErrorIs(t, err, model.ErrNotOwner)
		_, err = s.Update(ctx, manager("m1"), e.ID, model.EntryFields{Hours: ptr(hours("1"))})
		require.ErrorIs(t, err, model.ErrForbidden)

		cur, err := db.GetEntry(ctx, e.ID)
		require.NoError(t, err)
		require.Equal(t, e, cur)
	})

	t.Run("admin may edit", func(t *testing.T) {
		_, s, e := setup(t)
		got, err := s.Update(ctx, admin, e.ID, model.EntryFields{Description: ptr("fixed")})
		require.NoError(t, err)
		require.Equal(t, "fixed", got.Description)
	})

	t.Run("preconditions", func(t *testing.T) {
		_, s, e := setup(t)
		_, err := s.Update(ctx, alice, e.ID, model.EntryFields{})
		require.ErrorIs(t, err, model.ErrInvalidInput)
		_, err = s.Update(ctx, alice, e.ID, model.EntryFields{Hours: ptr(hours("25"))})
		require.ErrorIs(t, err, model.ErrInvalidInput)
		_, err = s.Update(ctx, alice, e.ID, model.EntryFields{WorkDate: ptr(day("2024-04-01"))})
		require.ErrorIs(t, err, model.ErrInvalidDate)
		_, err = s.Update(ctx, alice, e.ID, model.EntryFields{ProjectID: ptr("OLD")})
		require.ErrorIs(t, err, model.ErrInvalidInput)
		_, err = s.Update(ctx, alice, "missing", model.EntryFields{Hours: ptr(hours("1"))})
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("entry on a since archived project stays editable", func(t *testing.T) {
		db, s, e := setup(t)
		require.NoError(t, db.PutProject(ctx, model.Project{ID: "P1", Status: model.ProjectArchived}))
		_, err := s.Update(ctx, alice, e.ID, model.EntryFields{Hours: ptr(hours("2"))})
		require.NoError(t, err)
	})

	t.Run("deactivated owner freezes entries", func(t *testing.T) {
		db, s, e := setup(t)
		require.NoError(t, db.PutUser(ctx, model.User{ID: "alice", Role: model.RoleEmployee, ManagerID: ptr("m1"), Active: false}))
		_, err := s.Update(ctx, alice, e.ID, model.EntryFields{Hours: ptr(hours("2"))})
		require.ErrorIs(t, err, model.ErrUserInactive)
		_, err = s.Update(ctx, admin, e.ID, model.EntryFields{Hours: ptr(hours("2"))})
		require.ErrorIs(t, err, model.ErrUserInactive)
		require.ErrorIs(t, s.Delete(ctx, admin, e.ID), model.ErrUserInactive)
		_, err = s.Create(ctx, admin, "alice", "P1", day("2024-03-01"), hours("1"), "")
		require.ErrorIs(t, err, model.ErrUserInactive)

		cur, err := db.GetEntry(ctx, e.ID)
		require.NoError(t, err)
		require.Equal(t, e, cur)
	})

	t.Run("stale version conflicts", func(t *testing.T) {
		db, _, e := setup(t)
		s := newStore(t, staleStore{db})
		_, err := s.Update(ctx, alice, e.ID, model.EntryFields{Hours: ptr(hours("2"))})
		require.ErrorIs(t, err, model.ErrConflict)
		require.False(t, model.IsRetryable(err))
	})

	t.Run("lock unavailable", func(t *testing.T) {
		db, _, e := setup(t)
		s := New(db, busyLocker{}, policy.NewAuthorizer(db), Options{Now: func() time.Time { return clock }, LockWait: 10 * time.Millisecond})
		_, err := s.Update(ctx, alice, e.ID, model.EntryFields{Hours: ptr(hours("2"))})
		require.ErrorIs(t, err, model.ErrStoreUnavailable)
		require.ErrorIs(t, s.Delete(ctx, alice, e.ID), model.ErrStoreUnavailable)
	})

	t.Run("concurrent writers are serialized", func(t *testing.T) {
		db, s, e := setup(t)
		s.wait = 5 * time.Second
		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Update(ctx, alice, e.ID, model.EntryFields{Hours: ptr(hours("1"))})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		cur, err := db.GetEntry(ctx, e.ID)
		require.NoError(t, err)
		require.Equal(t, 11, cur.Version)
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	alice := employee("alice", "m1")
	db := seed(t)
	s := newStore(t, db)
	e, err := s.Create(ctx, alice, "alice", "P1", day("2024-03-01"), hours("8"), "")
	require.NoError(t, err)

	require.ErrorIs(t, s.Delete(ctx, employee("bob", "m1"), e.ID), model.ErrNotOwner)
	require.ErrorIs(t, s.Delete(ctx, manager("m1"), e.ID), model.ErrForbidden)
	_, err = db.GetEntry(ctx, e.ID)
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, alice, e.ID))
	_, err = db.GetEntry(ctx, e.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, alice, e.ID), model.ErrNotFound)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	db := seed(t)
	s := newStore(t, db)
	for _, c := range []struct {
		owner, date, h string
	}{
		{"alice", "2024-03-01", "8"},
		{"alice", "2024-03-02", "4"},
		{"bob", "2024-03-01", "6"},
		{"carol", "2024-03-01", "5"},
	} {
		_, err := s.Create(ctx, admin, c.owner, "P1", day(c.date), hours(c.h), "")
		require.NoError(t, err)
	}
	march, err := model.ParseDateRange("2024-03-01", "2024-03-31")
	require.NoError(t, err)

	t.Run("own listing is exact", func(t *testing.T) {
		list, err := s.ListByOwner(ctx, employee("alice", "m1"), memo(db), "alice", march)
		require.NoError(t, err)
		require.Len(t, list, 2)
		for _, e := range list {
			require.Equal(t, "alice", e.OwnerID)
		}
	})

	t.Run("foreign owner denied", func(t *testing.T) {
		_, err := s.ListByOwner(ctx, employee("alice", "m1"), memo(db), "bob", march)
		require.ErrorIs(t, err, model.ErrNotOwner)
	})

	t.Run("manager over team", func(t *testing.T) {
		list, err := s.ListByOwners(ctx, manager("m1"), policy.OpReadTeam, memo(db), []string{"alice", "bob", "alice"}, march)
		require.NoError(t, err)
		require.Len(t, list, 3)

		_, err = s.ListByOwners(ctx, manager("m1"), policy.OpReadTeam, memo(db), []string{"alice", "carol"}, march)
		require.ErrorIs(t, err, model.ErrOutOfScope)

		list, err = s.ListByOwners(ctx, manager("m2"), policy.OpReadTeam, memo(db), nil, march)
		require.NoError(t, err)
		require.NotNil(t, list)
		require.Empty(t, list)
	})

	t.Run("inactive history is readable", func(t *testing.T) {
		_, err := s.ListByOwner(ctx, employee("dave", "m1"), memo(db), "dave", march)
		require.NoError(t, err)
	})

	t.Run("range validated first", func(t *testing.T) {
		bad := model.DateRange{Start: day("2024-03-02"), End: day("2024-03-01")}
		_, err := s.ListByOwner(ctx, model.Identity{}, memo(db), "alice", bad)
		require.ErrorIs(t, err, model.ErrInvalidRange)
	})
}

func TestOutcome(t *testing.T) {
	require.Equal(t, "ok", outcome(nil))
	require.Equal(t, "denied", outcome(model.ErrNotOwner))
	require.Equal(t, "conflict", outcome(model.ErrConflict))
	require.Equal(t, "unavailable", outcome(model.ErrStoreUnavailable))
	require.Equal(t, "rejected", outcome(model.ErrInvalidRange))
	require.Equal(t, "error", outcome(errors.New("boom")))
}
