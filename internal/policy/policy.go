// Package policy decides whether an identity may act on a set of users'
// time records. The decision is an ordered rule table: the first rule that
// matches wins, and every (role, operation) pair ends in some decision.
package policy

import (
	"fmt"
	"strings"

	"hours-ledger/internal/model"
)

type Operation string

const (
	OpCreateEntry Operation = "create_entry"
	OpReadEntries Operation = "read_entries"
	OpUpdateEntry Operation = "update_entry"
	OpDeleteEntry Operation = "delete_entry"
	OpReadReport  Operation = "read_report"
	OpReadTeam    Operation = "read_team"
)

// Write reports whether the operation mutates a time entry.
func (o Operation) Write() bool {
	switch o {
	case OpCreateEntry, OpUpdateEntry, OpDeleteEntry:
		return true
	}
	return false
}

func (o Operation) entryOp() bool {
	return o.Write() || o == OpReadEntries
}

func (o Operation) read() bool {
	switch o {
	case OpReadEntries, OpReadReport, OpReadTeam:
		return true
	}
	return false
}

// Facts is everything a decision depends on. Evaluate is a pure function of it.
type Facts struct {
	Identity  model.Identity
	Operation Operation
	// Targets are the owner user ids the operation touches.
	Targets []string
	// Reports holds the identity's direct reports; only consulted for managers.
	Reports map[string]bool
	// Inactive holds the deactivated targets; only consulted for writes.
	Inactive map[string]bool
}

type Decision struct {
	Allowed bool
	Rule    string
	Reason  error
}

// Err returns nil for an allow, otherwise the denial reason with context.
func (d Decision) Err(f Facts) error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s %s on [%s] (%s)", d.Reason, f.Identity.Role, f.Operation, strings.Join(f.Targets, ","), d.Rule)
}

const ruleDefault = "default"

type rule struct {
	name  string
	match func(f Facts) (Decision, bool)
}

func allow(name string) (Decision, bool) { return Decision{Allowed: true, Rule: name}, true }

func deny(name string, reason error) (Decision, bool) {
	return Decision{Rule: name, Reason: reason}, true
}

var rules = []rule{
	{"identity", func(f Facts) (Decision, bool) {
		if !f.Identity.Valid() {
			return deny("identity", model.ErrUnauthorized)
		}
		return Decision{}, false
	}},
	{"admin", func(f Facts) (Decision, bool) {
		if f.Identity.Role == model.RoleAdmin {
			return allow("admin")
		}
		return Decision{}, false
	}},
	{"employee-own", func(f Facts) (Decision, bool) {
		if f.Identity.Role != model.RoleEmployee || !(f.Operation.entryOp() || f.Operation == OpReadReport) {
			return Decision{}, false
		}
		if len(f.Targets) == 0 {
			return deny("employee-own", model.ErrNotOwner)
		}
		for _, id := range f.Targets {
			if id != f.Identity.UserID {
				return deny("employee-own", model.ErrNotOwner)
			}
		}
		if f.Operation.Write() && f.Inactive[f.Identity.UserID] {
			// falls through to the inactive-user rule
			return Decision{}, false
		}
		return allow("employee-own")
	}},
	{"manager-team-read", func(f Facts) (Decision, bool) {
		if f.Identity.Role != model.RoleManager || !f.Operation.read() {
			return Decision{}, false
		}
		for _, id := range f.Targets {
			if !f.Reports[id] {
				return deny("manager-team-read", model.ErrOutOfScope)
			}
		}
		return allow("manager-team-read")
	}},
	{"manager-read-only", func(f Facts) (Decision, bool) {
		if f.Identity.Role != model.RoleManager || !f.Operation.Write() {
			return Decision{}, false
		}
		for _, id := range f.Targets {
			if id != f.Identity.UserID {
				return deny("manager-read-only", model.ErrForbidden)
			}
		}
		return Decision{}, false
	}},
	{"inactive-user", func(f Facts) (Decision, bool) {
		if !f.Operation.Write() {
			return Decision{}, false
		}
		for _, id := range f.Targets {
			if f.Inactive[id] {
				return deny("inactive-user", model.ErrUserInactive)
			}
		}
		return Decision{}, false
	}},
}

// Evaluate runs the rule table against f.
func Evaluate(f Facts) Decision {
	for _, r := range rules {
		if d, ok := r.match(f); ok {
			return d
		}
	}
	d, _ := deny(ruleDefault, model.ErrUnauthorized)
	return d
}
