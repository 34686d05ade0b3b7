package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hours-ledger/internal/aggregate"
	"hours-ledger/internal/export"
	"hours-ledger/internal/hierarchy"
	"hours-ledger/internal/metrics"
	"hours-ledger/internal/model"
	"hours-ledger/internal/policy"
	"hours-ledger/internal/timerecord"
	"hours-ledger/internal/worker"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Ledger is the operation surface exposed to transports. Every call takes
// the caller's identity explicitly.
type Ledger struct {
	records  *timerecord.Store
	resolver *hierarchy.Resolver
	renderer Renderer
}

// Renderer runs export jobs with bounded concurrency. worker.Pool satisfies it.
type Renderer interface {
	Do(ctx context.Context, fn func() error) error
}

func NewLedger(records *timerecord.Store, resolver *hierarchy.Resolver) *Ledger {
	return &Ledger{records: records, resolver: resolver}
}

// WithRenderer makes Report render through r instead of the calling goroutine.
func (l *Ledger) WithRenderer(r Renderer) *Ledger {
	l.renderer = r
	return l
}

type LogTimeInput struct {
	// OwnerID defaults to the caller. Only an admin may name someone else.
	OwnerID     string
	ProjectID   string
	WorkDate    time.Time
	Hours       decimal.Decimal
	Description string
}

// LogTime records hours for the caller, or for OwnerID when an admin logs on
// an employee's behalf.
func (l *Ledger) LogTime(ctx context.Context, id model.Identity, in LogTimeInput) (model.TimeEntry, error) {
	owner := in.OwnerID
	if owner == "" {
		owner = id.UserID
	}
	if id.Valid() && owner == id.UserID && id.Role != model.RoleEmployee {
		return model.TimeEntry{}, fmt.Errorf("LogTime: %w: only employees record hours", model.ErrForbidden)
	}
	e, err := l.records.Create(ctx, id, owner, in.ProjectID, in.WorkDate, in.Hours, in.Description)
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("LogTime: %w", err)
	}
	return e, nil
}

// ListOwnHours returns exactly the caller's entries dated inside r.
func (l *Ledger) ListOwnHours(ctx context.Context, id model.Identity, r model.DateRange) ([]model.TimeEntry, error) {
	list, err := l.records.ListByOwner(ctx, id, l.resolver.Memo(), id.UserID, r)
	if err != nil {
		return nil, fmt.Errorf("ListOwnHours: %w", err)
	}
	return list, nil
}

// ListTeamHours returns the entries of the caller's team inside r: a
// manager's direct reports, or every employee for an admin.
func (l *Ledger) ListTeamHours(ctx context.Context, id model.Identity, r model.DateRange) ([]model.TimeEntry, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("ListTeamHours: %w", err)
	}
	memo := l.resolver.Memo()
	scope, err := l.scope(ctx, memo, id)
	if err != nil {
		return nil, fmt.Errorf("ListTeamHours: %w", err)
	}
	list, err := l.records.ListByOwners(ctx, id, policy.OpReadTeam, memo, scope, r)
	if err != nil {
		return nil, fmt.Errorf("ListTeamHours: %w", err)
	}
	return list, nil
}

type ReportRequest struct {
	Range   model.DateRange
	GroupBy string
	Format  string
	// OwnerIDs narrows the report; empty means the caller's whole scope.
	OwnerIDs []string
}

type Summary struct {
	GroupBy    aggregate.GroupBy
	Range      model.DateRange
	Rows       []aggregate.Row
	GrandTotal decimal.Decimal
}

type ReportFile struct {
	Summary
	Format      export.Format
	ContentType string
	Body        []byte
}

// Summarize aggregates the hours visible to the caller. Employees see their
// own totals, managers their direct reports and admins every employee.
func (l *Ledger) Summarize(ctx context.Context, id model.Identity, req ReportRequest) (*Summary, error) {
	if err := req.Range.Validate(); err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}
	groupBy, err := aggregate.ParseGroupBy(req.GroupBy)
	if err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}
	return l.summarize(ctx, id, req, groupBy)
}

func (l *Ledger) summarize(ctx context.Context, id model.Identity, req ReportRequest, groupBy aggregate.GroupBy) (*Summary, error) {
	memo := l.resolver.Memo()
	owners := req.OwnerIDs
	if len(owners) == 0 {
		var err error
		if owners, err = l.reportScope(ctx, memo, id); err != nil {
			return nil, err
		}
	}
	entries, err := l.records.ListByOwners(ctx, id, policy.OpReadReport, memo, owners, req.Range)
	if err != nil {
		return nil, err
	}
	rows, err := aggregate.Aggregate(entries, groupBy, req.Range)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []aggregate.Row{}
	}
	return &Summary{GroupBy: groupBy, Range: req.Range, Rows: rows, GrandTotal: aggregate.GrandTotal(rows)}, nil
}

// Report is Summarize rendered in the requested export format.
func (l *Ledger) Report(ctx context.Context, id model.Identity, req ReportRequest) (*ReportFile, error) {
	if err := req.Range.Validate(); err != nil {
		return nil, fmt.Errorf("Report: %w", err)
	}
	groupBy, err := aggregate.ParseGroupBy(req.GroupBy)
	if err != nil {
		return nil, fmt.Errorf("Report: %w", err)
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, fmt.Errorf("Report: %w", err)
	}
	sum, err := l.summarize(ctx, id, req, groupBy)
	if err != nil {
		return nil, fmt.Errorf("Report: %w", err)
	}
	body, err := l.render(ctx, export.Report{GroupBy: sum.GroupBy, Range: sum.Range, Rows: sum.Rows}, format)
	if err != nil {
		return nil, fmt.Errorf("Report: %w", err)
	}

	metrics.ReportsGenerated.WithLabelValues(string(groupBy), string(format)).Inc()
	zerolog.Ctx(ctx).Info().
		Str("user_id", id.UserID).
		Str("group_by", string(groupBy)).
		Str("format", string(format)).
		Str("range", req.Range.String()).
		Int("rows", len(sum.Rows)).
		Msg("report generated")

	return &ReportFile{Summary: *sum, Format: format, ContentType: format.ContentType(), Body: body}, nil
}

func (l *Ledger) render(ctx context.Context, rep export.Report, format export.Format) ([]byte, error) {
	if l.renderer == nil {
		return export.Export(rep, format)
	}
	var body []byte
	err := l.renderer.Do(ctx, func() error {
		var err error
		body, err = export.Export(rep, format)
		return err
	})
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return nil, fmt.Errorf("%w: rendering: %v", model.ErrStoreUnavailable, err)
	}
	if errors.Is(err, worker.ErrStopped) {
		return nil, fmt.Errorf("%w: rendering: %v", model.ErrStoreUnavailable, err)
	}
	return body, err
}

func (l *Ledger) UpdateEntry(ctx context.Context, id model.Identity, entryID string, fields model.EntryFields) (model.TimeEntry, error) {
	e, err := l.records.Update(ctx, id, entryID, fields)
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("UpdateEntry: %w", err)
	}
	return e, nil
}

func (l *Ledger) DeleteEntry(ctx context.Context, id model.Identity, entryID string) error {
	if err := l.records.Delete(ctx, id, entryID); err != nil {
		return fmt.Errorf("DeleteEntry: %w", err)
	}
	return nil
}

// scope is the team visible to id. Employees have none; the policy then
// decides how to refuse them.
func (l *Ledger) scope(ctx context.Context, memo *hierarchy.Memo, id model.Identity) ([]string, error) {
	if !id.Valid() {
		return nil, nil
	}
	switch id.Role {
	case model.RoleManager:
		return memo.DirectReports(ctx, id.UserID)
	case model.RoleAdmin:
		return l.resolver.AllEmployees(ctx)
	}
	return nil, nil
}

func (l *Ledger) reportScope(ctx context.Context, memo *hierarchy.Memo, id model.Identity) ([]string, error) {
	if id.Valid() && id.Role == model.RoleEmployee {
		return []string{id.UserID}, nil
	}
	return l.scope(ctx, memo, id)
}
