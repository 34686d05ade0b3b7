// Package reports serves aggregated hour totals as JSON or as a file.
package reports

import (
	"context"
	"fmt"
	"net/http"

	"hours-ledger/internal/api"
	"hours-ledger/internal/handler/httperr"
	"hours-ledger/internal/middleware"
	"hours-ledger/internal/model"
	"hours-ledger/internal/service"

	"github.com/labstack/echo/v4"
)

type Ledger interface {
	Summarize(ctx context.Context, id model.Identity, req service.ReportRequest) (*service.Summary, error)
	Report(ctx context.Context, id model.Identity, req service.ReportRequest) (*service.ReportFile, error)
}

func bindReport(c echo.Context) (service.ReportRequest, error) {
	var q api.ReportQuery
	if err := c.Bind(&q); err != nil {
		return service.ReportRequest{}, fmt.Errorf("%w: invalid query", model.ErrInvalidInput)
	}
	if err := c.Validate(&q); err != nil {
		return service.ReportRequest{}, fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	r, err := model.ParseDateRange(q.From, q.To)
	if err != nil {
		return service.ReportRequest{}, err
	}
	return service.ReportRequest{Range: r, GroupBy: q.GroupBy, Format: q.Format, OwnerIDs: q.Owners}, nil
}

// SummaryHandler 工時彙總
// @Summary     Summarize hours
// @Description 依員工或專案加總日期區間內的工時；範圍依角色決定
// @Tags        reports
// @Produce     json
// @Param       from     query    string   true  "起日 (YYYY-MM-DD)"
// @Param       to       query    string   true  "迄日 (YYYY-MM-DD)"
// @Param       group_by query    string   false "employee 或 project" Enums(employee, project)
// @Param       owner    query    []string false "只統計指定員工"
// @Success     200      {object} api.SummaryResponse
// @Failure     400      {object} api.ErrorResponse
// @Failure     401      {object} api.ErrorResponse
// @Failure     403      {object} api.ErrorResponse
// @Failure     503      {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /reports/summary [get]
func SummaryHandler(l Ledger) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := bindReport(c)
		if err != nil {
			return httperr.Write(c, err)
		}
		sum, err := l.Summarize(c.Request().Context(), middleware.IdentityFrom(c), req)
		if err != nil {
			return httperr.Write(c, err)
		}
		return c.JSON(http.StatusOK, api.NewSummaryResponse(sum))
	}
}

// ExportHandler 匯出工時報表
// @Summary     Export a report
// @Description 以 CSV 或 PDF 下載工時彙總，CSV 欄位為 <group_by>,total_hours,entry_count
// @Tags        reports
// @Produce     text/csv
// @Produce     application/pdf
// @Param       from     query    string   true  "起日 (YYYY-MM-DD)"
// @Param       to       query    string   true  "迄日 (YYYY-MM-DD)"
// @Param       group_by query    string   false "employee 或 project" Enums(employee, project)
// @Param       format   query    string   false "csv、tabular 或 pdf" Enums(csv, tabular, pdf)
// @Param       owner    query    []string false "只統計指定員工"
// @Success     200      {file}   file
// @Failure     400      {object} api.ErrorResponse
// @Failure     401      {object} api.ErrorResponse
// @Failure     403      {object} api.ErrorResponse
// @Failure     503      {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /reports [get]
func ExportHandler(l Ledger) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := bindReport(c)
		if err != nil {
			return httperr.Write(c, err)
		}
		file, err := l.Report(c.Request().Context(), middleware.IdentityFrom(c), req)
		if err != nil {
			return httperr.Write(c, err)
		}

		name := fmt.Sprintf("hours-by-%s_%s_%s.%s", file.GroupBy,
			file.Range.Start.Format(model.DateLayout), file.Range.End.Format(model.DateLayout), file.Format)
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
		return c.Blob(http.StatusOK, file.ContentType, file.Body)
	}
}
