// Package entries serves time entry writes and listings.
package entries

import (
	"context"
	"net/http"

	"hours-ledger/internal/api"
	"hours-ledger/internal/handler/httperr"
	"hours-ledger/internal/middleware"
	"hours-ledger/internal/model"
	"hours-ledger/internal/service"

	"github.com/labstack/echo/v4"
)

// Ledger is the part of service.Ledger these handlers call.
type Ledger interface {
	LogTime(ctx context.Context, id model.Identity, in service.LogTimeInput) (model.TimeEntry, error)
	ListOwnHours(ctx context.Context, id model.Identity, r model.DateRange) ([]model.TimeEntry, error)
	ListTeamHours(ctx context.Context, id model.Identity, r model.DateRange) ([]model.TimeEntry, error)
	UpdateEntry(ctx context.Context, id model.Identity, entryID string, fields model.EntryFields) (model.TimeEntry, error)
	DeleteEntry(ctx context.Context, id model.Identity, entryID string) error
}

// CreateEntryHandler 登錄工時
// @Summary     Log hours
// @Description 員工為自己登錄工時；admin 可透過 owner_user_id 代替員工登錄
// @Tags        entries
// @Accept      json
// @Produce     json
// @Param       body body     api.CreateEntryRequest true "工時內容"
// @Success     201  {object} api.EntryResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Failure     403  {object} api.ErrorResponse
// @Failure     404  {object} api.ErrorResponse
// @Failure     409  {object} api.ErrorResponse
// @Failure     503  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /entries [post]
func CreateEntryHandler(l Ledger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.CreateEntryRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body", Code: "invalid_input"})
		}
		if err := c.Validate(&req); err != nil {
			return httperr.BadRequest(c, err)
		}
		date, err := model.ParseDate(req.WorkDate)
		if err != nil {
			return httperr.Write(c, err)
		}

		e, err := l.LogTime(c.Request().Context(), middleware.IdentityFrom(c), service.LogTimeInput{
			OwnerID:     req.OwnerID,
			ProjectID:   req.ProjectID,
			WorkDate:    date,
			Hours:       *req.HoursWorked,
			Description: req.Description,
		})
		if err != nil {
			return httperr.Write(c, err)
		}
		return c.JSON(http.StatusCreated, api.NewEntryResponse(e))
	}
}

// ListMyEntriesHandler 查詢自己的工時
// @Summary     List own hours
// @Description 回傳呼叫者在日期區間內（含頭尾）的工時紀錄
// @Tags        entries
// @Produce     json
// @Param       from query    string true "起日 (YYYY-MM-DD)"
// @Param       to   query    string true "迄日 (YYYY-MM-DD)"
// @Success     200  {object} api.EntryListResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     403  {object} api.ErrorResponse
// @Failure     503  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /entries [get]
func ListMyEntriesHandler(l Ledger) echo.HandlerFunc {
	return listHandler(func(ctx context.Context, id model.Identity, r model.DateRange) ([]model.TimeEntry, error) {
		return l.ListOwnHours(ctx, id, r)
	})
}

// ListTeamEntriesHandler 查詢團隊工時
// @Summary     List team hours
// @Description manager 取得直屬員工的工時；admin 取得所有員工的工時
// @Tags        entries
// @Produce     json
// @Param       from query    string true "起日 (YYYY-MM-DD)"
// @Param       to   query    string true "迄日 (YYYY-MM-DD)"
// @Success     200  {object} api.EntryListResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Failure     403  {object} api.ErrorResponse
// @Failure     503  {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /team/entries [get]
func ListTeamEntriesHandler(l Ledger) echo.HandlerFunc {
	return listHandler(func(ctx context.Context, id model.Identity, r model.DateRange) ([]model.TimeEntry, error) {
		return l.ListTeamHours(ctx, id, r)
	})
}

type listFunc func(ctx context.Context, id model.Identity, r model.DateRange) ([]model.TimeEntry, error)

func listHandler(list listFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var q api.RangeQuery
		if err := c.Bind(&q); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid query", Code: "invalid_input"})
		}
		if err := c.Validate(&q); err != nil {
			return httperr.BadRequest(c, err)
		}
		r, err := model.ParseDateRange(q.From, q.To)
		if err != nil {
			return httperr.Write(c, err)
		}

		entries, err := list(c.Request().Context(), middleware.IdentityFrom(c), r)
		if err != nil {
			return httperr.Write(c, err)
		}
		return c.JSON(http.StatusOK, api.NewEntryListResponse(r, entries))
	}
}

// UpdateEntryHandler 修改工時
// @Summary     Update an entry
// @Description 只更新有提供的欄位；停用員工的紀錄不可修改
// @Tags        entries
// @Accept      json
// @Produce     json
// @Param       entry_id path     string                 true "工時紀錄 ID"
// @Param       body     body     api.UpdateEntryRequest true "要修改的欄位"
// @Success     200      {object} api.EntryResponse
// @Failure     400      {object} api.ErrorResponse
// @Failure     403      {object} api.ErrorResponse
// @Failure     404      {object} api.ErrorResponse
// @Failure     409      {object} api.ErrorResponse
// @Failure     503      {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /entries/{entry_id} [put]
func UpdateEntryHandler(l Ledger) echo.HandlerFunc {
	return func(c echo.Context) error {
		entryID := c.Param("entry_id")
		var req api.UpdateEntryRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid request body", Code: "invalid_input"})
		}
		if err := c.Validate(&req); err != nil {
			return httperr.BadRequest(c, err)
		}

		fields := model.EntryFields{
			ProjectID:   req.ProjectID,
			Hours:       req.HoursWorked,
			Description: req.Description,
		}
		if req.WorkDate != nil {
			d, err := model.ParseDate(*req.WorkDate)
			if err != nil {
				return httperr.Write(c, err)
			}
			fields.WorkDate = &d
		}

		e, err := l.UpdateEntry(c.Request().Context(), middleware.IdentityFrom(c), entryID, fields)
		if err != nil {
			return httperr.Write(c, err)
		}
		return c.JSON(http.StatusOK, api.NewEntryResponse(e))
	}
}

// DeleteEntryHandler 刪除工時
// @Summary     Delete an entry
// @Tags        entries
// @Param       entry_id path string true "工時紀錄 ID"
// @Success     204      "No Content"
// @Failure     403      {object} api.ErrorResponse
// @Failure     404      {object} api.ErrorResponse
// @Failure     409      {object} api.ErrorResponse
// @Failure     503      {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /entries/{entry_id} [delete]
func DeleteEntryHandler(l Ledger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := l.DeleteEntry(c.Request().Context(), middleware.IdentityFrom(c), c.Param("entry_id")); err != nil {
			return httperr.Write(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
}
