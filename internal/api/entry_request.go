package api

import "github.com/shopspring/decimal"

// swagger:model api.CreateEntryRequest
type CreateEntryRequest struct {
	// admin 代替員工登錄時填寫，其餘情況留空
	OwnerID     string           `json:"owner_user_id" example:"alice"`
	ProjectID   string           `json:"project_id" validate:"required" example:"P1"`
	WorkDate    string           `json:"work_date" validate:"required,datetime=2006-01-02" example:"2024-01-02"`
	HoursWorked *decimal.Decimal `json:"hours_worked" validate:"required" swaggertype:"string" example:"8.0"`
	Description string           `json:"description" validate:"max=500" example:"sprint planning"`
}

// swagger:model api.UpdateEntryRequest
type UpdateEntryRequest struct {
	ProjectID   *string          `json:"project_id" validate:"omitempty,min=1" example:"P2"`
	WorkDate    *string          `json:"work_date" validate:"omitempty,datetime=2006-01-02" example:"2024-01-03"`
	HoursWorked *decimal.Decimal `json:"hours_worked" swaggertype:"string" example:"6.5"`
	Description *string          `json:"description" validate:"omitempty,max=500" example:"code review"`
}

// swagger:model api.RangeQuery
type RangeQuery struct {
	From string `query:"from" validate:"required,datetime=2006-01-02" example:"2024-01-01"`
	To   string `query:"to" validate:"required,datetime=2006-01-02" example:"2024-01-07"`
}

// swagger:model api.ReportQuery
type ReportQuery struct {
	From    string   `query:"from" validate:"required,datetime=2006-01-02" example:"2024-01-01"`
	To      string   `query:"to" validate:"required,datetime=2006-01-02" example:"2024-01-07"`
	GroupBy string   `query:"group_by" validate:"omitempty,oneof=employee project" example:"employee"`
	Format  string   `query:"format" validate:"omitempty,oneof=csv tabular pdf" example:"csv"`
	Owners  []string `query:"owner" example:"alice"`
}
