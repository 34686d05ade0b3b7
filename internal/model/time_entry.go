package model

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

const (
	// MaxDescriptionLength bounds the optional short description.
	MaxDescriptionLength = 500
)

// MaxHours is the upper bound of hours_worked per entry.
var MaxHours = decimal.NewFromInt(24)

type TimeEntry struct {
	ID          string          `db:"id" json:"id"`
	OwnerID     string          `db:"owner_user_id" json:"owner_user_id"`
	ProjectID   string          `db:"project_id" json:"project_id"`
	WorkDate    time.Time       `db:"work_date" json:"work_date"`
	Hours       decimal.Decimal `db:"hours_worked" json:"hours_worked"`
	Description string          `db:"description" json:"description,omitempty"`
	Version     int             `db:"version" json:"version"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// EntryFields carries the mutable fields of an update; nil means unchanged.
type EntryFields struct {
	ProjectID   *string
	WorkDate    *time.Time
	Hours       *decimal.Decimal
	Description *string
}

func (f EntryFields) Empty() bool {
	return f.ProjectID == nil && f.WorkDate == nil && f.Hours == nil && f.Description == nil
}

// Apply returns a copy of e with the set fields replaced.
func (f EntryFields) Apply(e TimeEntry) TimeEntry {
	if f.ProjectID != nil {
		e.ProjectID = *f.ProjectID
	}
	if f.WorkDate != nil {
		e.WorkDate = DateOf(*f.WorkDate, nil)
	}
	if f.Hours != nil {
		e.Hours = *f.Hours
	}
	if f.Description != nil {
		e.Description = *f.Description
	}
	return e
}

// CheckHours enforces 0 < h <= 24 with at most one fractional digit.
func CheckHours(h decimal.Decimal) error {
	if !h.IsPositive() || h.GreaterThan(MaxHours) {
		return fmt.Errorf("%w: hours_worked %s outside (0, 24]", ErrInvalidInput, h.String())
	}
	if !h.Equal(h.Round(1)) {
		return fmt.Errorf("%w: hours_worked %s has more than one decimal place", ErrInvalidInput, h.String())
	}
	return nil
}

// Validate checks the entry's own fields. Future dates and project status
// depend on outside state and are checked by the record store.
func (e TimeEntry) Validate() error {
	err := validation.ValidateStruct(&e,
		validation.Field(&e.OwnerID, validation.Required),
		validation.Field(&e.ProjectID, validation.Required),
		validation.Field(&e.WorkDate, validation.Required),
		validation.Field(&e.Hours, validation.By(func(any) error { return CheckHours(e.Hours) })),
		validation.Field(&e.Description, validation.RuneLength(0, MaxDescriptionLength)),
	)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
