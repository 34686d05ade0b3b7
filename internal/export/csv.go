package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"hours-ledger/internal/aggregate"
	"hours-ledger/internal/model"

	"github.com/shopspring/decimal"
)

// WriteCSV renders the header row and one line per aggregated group. Hours
// always carry exactly one decimal digit with '.' as separator.
func WriteCSV(rep Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{string(rep.GroupBy), ColumnTotalHours, ColumnEntryCount}); err != nil {
		return nil, fmt.Errorf("WriteCSV: %w", err)
	}
	for _, r := range rep.Rows {
		rec := []string{r.Key, r.TotalHours.StringFixed(1), strconv.Itoa(r.EntryCount)}
		if err := w.Write(rec); err != nil {
			return nil, fmt.Errorf("WriteCSV: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("WriteCSV: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseCSV reads back a table produced by WriteCSV.
func ParseCSV(r io.Reader) (aggregate.GroupBy, []aggregate.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	header, err := cr.Read()
	if err != nil {
		return "", nil, fmt.Errorf("ParseCSV: header: %w", err)
	}
	g, err := aggregate.ParseGroupBy(header[0])
	if err != nil || header[0] == "" || header[1] != ColumnTotalHours || header[2] != ColumnEntryCount {
		return "", nil, fmt.Errorf("ParseCSV: %w: unexpected header %v", model.ErrInvalidInput, header)
	}

	var rows []aggregate.Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("ParseCSV: %w", err)
		}
		hours, err := decimal.NewFromString(rec[1])
		if err != nil {
			return "", nil, fmt.Errorf("ParseCSV: %w: hours %q", model.ErrInvalidInput, rec[1])
		}
		count, err := strconv.Atoi(rec[2])
		if err != nil {
			return "", nil, fmt.Errorf("ParseCSV: %w: count %q", model.ErrInvalidInput, rec[2])
		}
		rows = append(rows, aggregate.Row{Key: rec[0], TotalHours: hours, EntryCount: count})
	}
	return g, rows, nil
}
