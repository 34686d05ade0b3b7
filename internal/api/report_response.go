package api

import (
	"hours-ledger/internal/model"
	"hours-ledger/internal/service"
)

// swagger:model api.ReportRow
type ReportRow struct {
	Key        string `json:"key" example:"alice"`
	TotalHours string `json:"total_hours" example:"12.0"`
	EntryCount int    `json:"entry_count" example:"2"`
}

// swagger:model api.SummaryResponse
type SummaryResponse struct {
	GroupBy    string      `json:"group_by" example:"employee"`
	From       string      `json:"from" example:"2024-01-01"`
	To         string      `json:"to" example:"2024-01-07"`
	Rows       []ReportRow `json:"rows"`
	GrandTotal string      `json:"grand_total" example:"18.0"`
}

func NewSummaryResponse(s *service.Summary) SummaryResponse {
	resp := SummaryResponse{
		GroupBy:    string(s.GroupBy),
		From:       s.Range.Start.Format(model.DateLayout),
		To:         s.Range.End.Format(model.DateLayout),
		Rows:       make([]ReportRow, 0, len(s.Rows)),
		GrandTotal: s.GrandTotal.StringFixed(1),
	}
	for _, r := range s.Rows {
		resp.Rows = append(resp.Rows, ReportRow{Key: r.Key, TotalHours: r.TotalHours.StringFixed(1), EntryCount: r.EntryCount})
	}
	return resp
}
