// Package export renders aggregation results as downloadable tables.
package export

import (
	"fmt"

	"hours-ledger/internal/aggregate"
	"hours-ledger/internal/model"
)

type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

const (
	ColumnTotalHours = "total_hours"
	ColumnEntryCount = "entry_count"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatPDF:
		return f, nil
	case "", "tabular":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: format %q", model.ErrInvalidInput, s)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Report is an aggregation result together with what produced it.
type Report struct {
	GroupBy aggregate.GroupBy
	Range   model.DateRange
	Rows    []aggregate.Row
}

// Export renders rep in format f. Rows are written in the order given.
func Export(rep Report, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return WriteCSV(rep)
	case FormatPDF:
		return WritePDF(rep)
	}
	return nil, fmt.Errorf("%w: format %q", model.ErrInvalidInput, f)
}
