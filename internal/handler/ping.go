// File: internal/handler/ping.go
package handler

import (
	"context"
	"net/http"

	"hours-ledger/internal/api"
	"hours-ledger/internal/cache"

	"github.com/labstack/echo/v4"
)

// Pinger 是可做健康檢查的儲存後端，store.Store 即符合
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingResponse 健康檢查回應模型
// swagger:model PingResponse
type PingResponse struct {
	// 回應訊息
	Message string `json:"message" example:"pong"`
}

// PingHandler 健康檢查
// @Summary     Health Check
// @Description 回傳 pong，並檢查資料庫與 Redis（若有設定）連線是否正常
// @Tags        health
// @Produce     json
// @Success     200 {object} PingResponse
// @Failure     503 {object} api.ErrorResponse
// @Router      /ping [get]
func PingHandler(db Pinger, rdb cache.Cache) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := db.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Message: "database unhealthy", Code: "store_unavailable"})
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				return c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Message: "cache unhealthy", Code: "store_unavailable"})
			}
		}
		return c.JSON(http.StatusOK, PingResponse{Message: "pong"})
	}
}
