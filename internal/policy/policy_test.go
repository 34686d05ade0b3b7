package policy

import (
	"context"
	"errors"
	"testing"

	"hours-ledger/internal/model"

	"github.com/stretchr/testify/require"
)

var allOps = []Operation{OpCreateEntry, OpReadEntries, OpUpdateEntry, OpDeleteEntry, OpReadReport, OpReadTeam}

func emp(id string) model.Identity { return model.Identity{UserID: id, Role: model.RoleEmployee} }
func mgr(id string) model.Identity { return model.Identity{UserID: id, Role: model.RoleManager} }

func TestEvaluateRules(t *testing.T) {
	reports := map[string]bool{"alice": true, "bob": true}

	cases := []struct {
		name   string
		facts  Facts
		reason error
		rule   string
	}{
		{"admin writes anything", Facts{Identity: model.Identity{UserID: "root", Role: model.RoleAdmin}, Operation: OpDeleteEntry, Targets: []string{"alice"}, Inactive: map[string]bool{"alice": true}}, nil, "admin"},
		{"employee creates own", Facts{Identity: emp("alice"), Operation: OpCreateEntry, Targets: []string{"alice"}}, nil, "employee-own"},
		{"employee reads own", Facts{Identity: emp("alice"), Operation: OpReadEntries, Targets: []string{"alice"}}, nil, "employee-own"},
		{"employee own report", Facts{Identity: emp("alice"), Operation: OpReadReport, Targets: []string{"alice"}}, nil, "employee-own"},
		{"employee touches other", Facts{Identity: emp("alice"), Operation: OpUpdateEntry, Targets: []string{"bob"}}, model.ErrNotOwner, "employee-own"},
		{"employee reads other", Facts{Identity: emp("alice"), Operation: OpReadEntries, Targets: []string{"alice", "bob"}}, model.ErrNotOwner, "employee-own"},
		{"employee empty target", Facts{Identity: emp("alice"), Operation: OpReadEntries}, model.ErrNotOwner, "employee-own"},
		{"employee team read", Facts{Identity: emp("alice"), Operation: OpReadTeam}, model.ErrUnauthorized, "default"},
		{"inactive employee writes", Facts{Identity: emp("bob"), Operation: OpCreateEntry, Targets: []string{"bob"}, Inactive: map[string]bool{"bob": true}}, model.ErrUserInactive, "inactive-user"},
		{"inactive employee reads history", Facts{Identity: emp("bob"), Operation: OpReadEntries, Targets: []string{"bob"}, Inactive: map[string]bool{"bob": true}}, nil, "employee-own"},
		{"manager reads team", Facts{Identity: mgr("carol"), Operation: OpReadEntries, Targets: []string{"alice", "bob"}, Reports: reports}, nil, "manager-team-read"},
		{"manager reads empty team", Facts{Identity: mgr("erin"), Operation: OpReadTeam}, nil, "manager-team-read"},
		{"manager reads outsider", Facts{Identity: mgr("carol"), Operation: OpReadReport, Targets: []string{"alice", "zoe"}, Reports: reports}, model.ErrOutOfScope, "manager-team-read"},
		{"manager writes report's entry", Facts{Identity: mgr("carol"), Operation: OpUpdateEntry, Targets: []string{"alice"}, Reports: reports}, model.ErrForbidden, "manager-read-only"},
		{"manager deletes entry", Facts{Identity: mgr("carol"), Operation: OpDeleteEntry, Targets: []string{"alice"}}, model.ErrForbidden, "manager-read-only"},
		{"manager writes own", Facts{Identity: mgr("carol"), Operation: OpCreateEntry, Targets: []string{"carol"}}, model.ErrUnauthorized, "default"},
		{"no identity", Facts{Operation: OpReadEntries, Targets: []string{"alice"}}, model.ErrUnauthorized, "identity"},
		{"unknown role", Facts{Identity: model.Identity{UserID: "x", Role: "guest"}, Operation: OpReadEntries}, model.ErrUnauthorized, "identity"},
		{"unknown operation", Facts{Identity: emp("alice"), Operation: "export_everything", Targets: []string{"alice"}}, model.ErrUnauthorized, "default"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Evaluate(tc.facts)
			require.Equal(t, tc.rule, d.Rule)
			if tc.reason == nil {
				require.True(t, d.Allowed)
				require.NoError(t, d.Err(tc.facts))
				return
			}
			require.False(t, d.Allowed)
			require.ErrorIs(t, d.Err(tc.facts), tc.reason)
		})
	}
}

func TestEvaluateIsTotalAndDeterministic(t *testing.T) {
	identities := []model.Identity{
		{UserID: "root", Role: model.RoleAdmin},
		emp("alice"),
		emp("bob"),
		mgr("carol"),
		{},
	}
	targetSets := [][]string{nil, {"alice"}, {"bob"}, {"alice", "bob"}, {"carol"}}
	for _, id := range identities {
		for _, op := range allOps {
			for _, targets := range targetSets {
				for _, inactive := range []bool{false, true} {
					f := Facts{
						Identity:  id,
						Operation: op,
						Targets:   targets,
						Reports:   map[string]bool{"alice": true},
						Inactive:  map[string]bool{"alice": inactive, "bob": inactive},
					}
					first := Evaluate(f)
					require.NotEmpty(t, first.Rule)
					if !first.Allowed {
						require.Error(t, first.Reason)
					}
					for i := 0; i < 3; i++ {
						require.Equal(t, first, Evaluate(f))
					}
				}
			}
		}
	}
}

/* ---------- Authorizer ---------- */

type fakeUsers map[string]model.User

func (f fakeUsers) GetUser(_ context.Context, id string) (*model.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &u, nil
}

type fakeReports struct {
	ids   []string
	err   error
	calls int
}

func (f *fakeReports) DirectReports(context.Context, string) ([]string, error) {
	f.calls++
	return f.ids, f.err
}

func TestAuthorizerGathersFacts(t *testing.T) {
	users := fakeUsers{
		"alice": {ID: "alice", Role: model.RoleEmployee, Active: true},
		"bob":   {ID: "bob", Role: model.RoleEmployee, Active: false},
	}
	a := NewAuthorizer(users)
	ctx := context.Background()

	t.Run("manager read consults reports", func(t *testing.T) {
		rep := &fakeReports{ids: []string{"alice"}}
		require.NoError(t, a.Require(ctx, rep, mgr("carol"), OpReadEntries, "alice"))
		require.Equal(t, 1, rep.calls)
		require.ErrorIs(t, a.Require(ctx, rep, mgr("carol"), OpReadEntries, "bob"), model.ErrOutOfScope)
	})

	t.Run("employee read skips reports", func(t *testing.T) {
		rep := &fakeReports{}
		require.NoError(t, a.Require(ctx, rep, emp("alice"), OpReadEntries, "alice"))
		require.Zero(t, rep.calls)
	})

	t.Run("write checks target activity", func(t *testing.T) {
		require.NoError(t, a.Require(ctx, nil, emp("alice"), OpCreateEntry, "alice"))
		require.ErrorIs(t, a.Require(ctx, nil, emp("bob"), OpCreateEntry, "bob"), model.ErrUserInactive)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, _, err := a.Authorize(ctx, nil, emp("ghost"), OpDeleteEntry, "ghost")
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("denied writes never look up targets", func(t *testing.T) {
		d, _, err := a.Authorize(ctx, nil, emp("alice"), OpCreateEntry, "ghost")
		require.NoError(t, err)
		require.False(t, d.Allowed)
		require.ErrorIs(t, a.Require(ctx, nil, emp("alice"), OpCreateEntry, "ghost"), model.ErrNotOwner)
		require.ErrorIs(t, a.Require(ctx, nil, mgr("carol"), OpUpdateEntry, "ghost"), model.ErrForbidden)
		require.ErrorIs(t, a.Require(ctx, nil, model.Identity{}, OpDeleteEntry, "ghost"), model.ErrUnauthorized)
	})

	t.Run("admin write on unknown target", func(t *testing.T) {
		_, _, err := a.Authorize(ctx, nil, model.Identity{UserID: "root", Role: model.RoleAdmin}, OpCreateEntry, "ghost")
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("resolver failure is not a denial", func(t *testing.T) {
		rep := &fakeReports{err: model.ErrStoreUnavailable}
		_, _, err := a.Authorize(ctx, rep, mgr("carol"), OpReadTeam)
		require.True(t, errors.Is(err, model.ErrStoreUnavailable))
		require.False(t, model.IsDenied(err))
	})
}
