package api

import (
	"time"

	"hours-ledger/internal/model"

	"github.com/shopspring/decimal"
)

// swagger:model api.EntryResponse
type EntryResponse struct {
	ID          string    `json:"id" example:"6f1c2d3e-4b5a-4c6d-8e7f-901a2b3c4d5e"`
	OwnerID     string    `json:"owner_user_id" example:"alice"`
	ProjectID   string    `json:"project_id" example:"P1"`
	WorkDate    string    `json:"work_date" example:"2024-01-02"`
	HoursWorked string    `json:"hours_worked" example:"8.0"`
	Description string    `json:"description,omitempty" example:"sprint planning"`
	Version     int       `json:"version" example:"1"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// swagger:model api.EntryListResponse
type EntryListResponse struct {
	From       string          `json:"from" example:"2024-01-01"`
	To         string          `json:"to" example:"2024-01-07"`
	Entries    []EntryResponse `json:"entries"`
	TotalHours string          `json:"total_hours" example:"12.0"`
}

func NewEntryResponse(e model.TimeEntry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		ProjectID:   e.ProjectID,
		WorkDate:    e.WorkDate.Format(model.DateLayout),
		HoursWorked: e.Hours.StringFixed(1),
		Description: e.Description,
		Version:     e.Version,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func NewEntryListResponse(r model.DateRange, entries []model.TimeEntry) EntryListResponse {
	resp := EntryListResponse{
		From:    r.Start.Format(model.DateLayout),
		To:      r.End.Format(model.DateLayout),
		Entries: make([]EntryResponse, 0, len(entries)),
	}
	var total decimal.Decimal
	for _, e := range entries {
		resp.Entries = append(resp.Entries, NewEntryResponse(e))
		total = total.Add(e.Hours)
	}
	resp.TotalHours = total.StringFixed(1)
	return resp
}
