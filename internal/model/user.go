// File: internal/model/user.go
package model

import (
	"fmt"
	"time"
)

type User struct {
	ID        string    `db:"id" json:"id" yaml:"id"`
	Name      string    `db:"name" json:"name" yaml:"name"`
	Role      Role      `db:"role" json:"role" yaml:"role"`
	ManagerID *string   `db:"manager_id" json:"manager_id,omitempty" yaml:"manager_id"`
	Active    bool      `db:"active" json:"active" yaml:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at" yaml:"-"`
}

// ReportsTo reports whether u is a direct report of managerID.
func (u User) ReportsTo(managerID string) bool {
	return u.Role == RoleEmployee && u.ManagerID != nil && *u.ManagerID == managerID
}

// CheckManager verifies the manager back-reference: only employees carry one,
// and it must point at a manager.
func (u User) CheckManager(manager *User) error {
	if u.ManagerID == nil {
		return nil
	}
	if u.Role != RoleEmployee {
		return fmt.Errorf("%w: %s user %s cannot have a manager", ErrInvalidInput, u.Role, u.ID)
	}
	if manager == nil || manager.ID != *u.ManagerID {
		return fmt.Errorf("%w: manager %s of user %s", ErrNotFound, *u.ManagerID, u.ID)
	}
	if manager.Role != RoleManager {
		return fmt.Errorf("%w: user %s is not a manager", ErrInvalidInput, manager.ID)
	}
	return nil
}
