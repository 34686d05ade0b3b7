// File: internal/router/router.go
package router

import (
	"hours-ledger/internal/cache"
	"hours-ledger/internal/handler"
	"hours-ledger/internal/handler/entries"
	"hours-ledger/internal/handler/reports"
	"hours-ledger/internal/middleware"

	"github.com/labstack/echo/v4"
)

// Ledger 是路由需要的全部業務操作，service.Ledger 即符合
type Ledger interface {
	entries.Ledger
	reports.Ledger
}

type Deps struct {
	Ledger    Ledger
	Store     handler.Pinger
	Cache     cache.Cache // 可為 nil
	JWTSecret string
}

// Setup 註冊所有路由與中介層
func Setup(e *echo.Echo, d Deps) {
	api := e.Group("/api")

	// 健康檢查（不需登入，給負載平衡器使用）
	api.GET("/ping", handler.PingHandler(d.Store, d.Cache))

	auth := middleware.RequireAuth(d.JWTSecret)

	// 工時紀錄（中介層掛在個別路由上，群組不會多出 Any 路由）
	apiEntries := api.Group("/entries")
	apiEntries.POST("", entries.CreateEntryHandler(d.Ledger), auth)
	apiEntries.GET("", entries.ListMyEntriesHandler(d.Ledger), auth)
	apiEntries.PUT("/:entry_id", entries.UpdateEntryHandler(d.Ledger), auth)
	apiEntries.DELETE("/:entry_id", entries.DeleteEntryHandler(d.Ledger), auth)

	// 團隊工時（manager 直屬員工、admin 全部員工）
	api.GET("/team/entries", entries.ListTeamEntriesHandler(d.Ledger), auth)

	// 報表
	apiReports := api.Group("/reports")
	apiReports.GET("", reports.ExportHandler(d.Ledger), auth)
	apiReports.GET("/summary", reports.SummaryHandler(d.Ledger), auth)
}
