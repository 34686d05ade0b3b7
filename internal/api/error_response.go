package api

// swagger:model api.ErrorResponse
type ErrorResponse struct {
	// 錯誤描述
	Message string `json:"message" example:"not owner"`
	// 錯誤類別，例如 not_owner、invalid_input
	Code string `json:"code,omitempty" example:"not_owner"`
}
