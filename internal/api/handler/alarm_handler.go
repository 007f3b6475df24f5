package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/krush/market-core/internal/core/domain"
	"github.com/krush/market-core/internal/core/ports"
)

// AlarmHandler serves the caller's notification inbox.
type AlarmHandler struct {
	service ports.InboxService
}

func NewAlarmHandler(service ports.InboxService) *AlarmHandler {
	return &AlarmHandler{service: service}
}

// List handles GET /api/alarms.
//
// @Summary      List the caller's most recent notifications
// @Tags         alarms
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum entries (default 100)"
// @Success      200    {object}  alarmListResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Router       /api/alarms [get]
func (h *AlarmHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return fmt.Errorf("limit must be a non-negative integer: %w", domain.ErrInvalidContent)
		}
	}

	alarms, err := h.service.List(c.Request().Context(), actor, limit)
	if err != nil {
		return err
	}
	if alarms == nil {
		alarms = []*domain.Notification{}
	}
	return c.JSON(http.StatusOK, alarmListResponse{Alarms: alarms})
}

// Unread handles GET /api/alarms/unread.
//
// @Summary      Unread notification counts per kind
// @Tags         alarms
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  unreadCountsResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/alarms/unread [get]
func (h *AlarmHandler) Unread(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	counts, err := h.service.UnreadCounts(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, unreadCountsResponse{UnreadCounts: counts, Total: counts.Total()})
}

// MarkRead handles POST /api/alarms/:id/read.
//
// @Summary      Mark one of the caller's notifications read
// @Tags         alarms
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification id"
// @Success      200  {object}  alarmResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/alarms/{id}/read [post]
func (h *AlarmHandler) MarkRead(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	alarm, err := h.service.MarkRead(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, alarmResponse{Alarm: alarm})
}
