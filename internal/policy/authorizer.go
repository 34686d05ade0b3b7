package policy

import (
	"context"
	"fmt"

	"hours-ledger/internal/metrics"
	"hours-ledger/internal/model"

	"github.com/rs/zerolog"
)

// UserLookup reads a single user record.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// ReportLookup yields a manager's direct reports, normally a per-request
// hierarchy.Memo.
type ReportLookup interface {
	DirectReports(ctx context.Context, managerID string) ([]string, error)
}

// Authorizer gathers the facts a decision needs and evaluates the rule table.
type Authorizer struct {
	users UserLookup
}

func NewAuthorizer(users UserLookup) *Authorizer {
	return &Authorizer{users: users}
}

// Authorize returns the decision for identity performing op on targets. The
// error is non-nil only when facts could not be gathered.
func (a *Authorizer) Authorize(ctx context.Context, reports ReportLookup, identity model.Identity, op Operation, targets ...string) (Decision, Facts, error) {
	f := Facts{Identity: identity, Operation: op, Targets: targets}

	if identity.Role == model.RoleManager && op.read() && identity.Valid() {
		ids, err := reports.DirectReports(ctx, identity.UserID)
		if err != nil {
			return Decision{}, f, fmt.Errorf("Authorize: %w", err)
		}
		f.Reports = make(map[string]bool, len(ids))
		for _, id := range ids {
			f.Reports[id] = true
		}
	}

	// Targets are looked up only for writes the role rules have not denied.
	d := Evaluate(f)
	if op.Write() && (d.Allowed || d.Rule == ruleDefault) {
		f.Inactive = map[string]bool{}
		for _, id := range targets {
			if _, seen := f.Inactive[id]; seen {
				continue
			}
			u, err := a.users.GetUser(ctx, id)
			if err != nil {
				return Decision{}, f, fmt.Errorf("Authorize: %w", err)
			}
			f.Inactive[id] = !u.Active
		}
		d = Evaluate(f)
	}

	result := "allow"
	if !d.Allowed {
		result = "deny"
		zerolog.Ctx(ctx).Debug().
			Str("user_id", identity.UserID).
			Str("role", string(identity.Role)).
			Str("operation", string(op)).
			Strs("targets", targets).
			Str("rule", d.Rule).
			Err(d.Reason).
			Msg("authorization denied")
	}
	metrics.AuthzDecisions.WithLabelValues(string(op), result).Inc()
	return d, f, nil
}

// Require is Authorize folded into a single error.
func (a *Authorizer) Require(ctx context.Context, reports ReportLookup, identity model.Identity, op Operation, targets ...string) error {
	d, f, err := a.Authorize(ctx, reports, identity, op, targets...)
	if err != nil {
		return err
	}
	return d.Err(f)
}
