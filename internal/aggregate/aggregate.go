// Package aggregate reduces time entries to per-group hour totals.
package aggregate

import (
	"fmt"
	"sort"

	"hours-ledger/internal/model"

	"github.com/shopspring/decimal"
)

type GroupBy string

const (
	ByEmployee GroupBy = "employee"
	ByProject  GroupBy = "project"
)

func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case ByEmployee, ByProject:
		return g, nil
	case "":
		return ByEmployee, nil
	}
	return "", fmt.Errorf("%w: group_by %q", model.ErrInvalidInput, s)
}

func (g GroupBy) key(e model.TimeEntry) string {
	if g == ByProject {
		return e.ProjectID
	}
	return e.OwnerID
}

// Row is one group of the result.
type Row struct {
	Key        string
	TotalHours decimal.Decimal
	EntryCount int
}

// Aggregate sums hours per group over entries whose work date lies in r.
// Groups without matching entries do not appear. Rows are ordered by total
// hours descending, then key ascending.
func Aggregate(entries []model.TimeEntry, groupBy GroupBy, r model.DateRange) ([]Row, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if groupBy != ByEmployee && groupBy != ByProject {
		return nil, fmt.Errorf("%w: group_by %q", model.ErrInvalidInput, groupBy)
	}

	groups := map[string]*Row{}
	for _, e := range entries {
		if !r.Contains(e.WorkDate) {
			continue
		}
		k := groupBy.key(e)
		g, ok := groups[k]
		if !ok {
			g = &Row{Key: k, TotalHours: decimal.Zero}
			groups[k] = g
		}
		g.TotalHours = g.TotalHours.Add(e.Hours)
		g.EntryCount++
	}

	rows := make([]Row, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, *g)
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].TotalHours.Cmp(rows[j].TotalHours); c != 0 {
			return c > 0
		}
		return rows[i].Key < rows[j].Key
	})
	return rows, nil
}

// GrandTotal sums the totals of rows.
func GrandTotal(rows []Row) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.TotalHours)
	}
	return total
}
