package export

import (
	"fmt"
	"strconv"

	"hours-ledger/internal/aggregate"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// WritePDF renders the same table as WriteCSV on an A4 page, followed by a
// grand total line.
func WritePDF(rep Report) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).WithRightMargin(15).
		WithTopMargin(15).WithBottomMargin(15).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 10}).
		WithTitle("Hours report", true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(titleRow(rep))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(headerRow(rep.GroupBy))
	for _, r := range rep.Rows {
		m.AddRows(bodyRow(r))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(rep.Rows))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("WritePDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func titleRow(rep Report) core.Row {
	return row.New(14).Add(
		col.New(8).Add(text.New("Hours by "+string(rep.GroupBy), props.Text{
			Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 2,
		})),
		col.New(4).Add(text.New(rep.Range.String(), props.Text{
			Size: 9, Align: align.Right, Color: colorGray, Top: 4,
		})),
	)
}

func headerRow(g aggregate.GroupBy) core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 9, Align: a, Top: 2}))
	}
	return row.New(8).Add(
		h(string(g), 6, align.Left),
		h(ColumnTotalHours, 3, align.Right),
		h(ColumnEntryCount, 3, align.Right),
	)
}

func bodyRow(r aggregate.Row) core.Row {
	return row.New(7).Add(
		col.New(6).Add(text.New(r.Key, props.Text{Size: 9, Top: 1})),
		col.New(3).Add(text.New(r.TotalHours.StringFixed(1), props.Text{Size: 9, Align: align.Right, Top: 1})),
		col.New(3).Add(text.New(strconv.Itoa(r.EntryCount), props.Text{Size: 9, Align: align.Right, Top: 1})),
	)
}

func totalRow(rows []aggregate.Row) core.Row {
	count := 0
	for _, r := range rows {
		count += r.EntryCount
	}
	return row.New(8).Add(
		col.New(6).Add(text.New("total", props.Text{Style: fontstyle.Bold, Size: 9, Top: 2})),
		col.New(3).Add(text.New(aggregate.GrandTotal(rows).StringFixed(1), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2})),
		col.New(3).Add(text.New(strconv.Itoa(count), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2})),
	)
}
