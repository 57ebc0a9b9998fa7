package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"ResearchAgent/internal/apperr"
	"ResearchAgent/internal/calendar"
	"ResearchAgent/internal/usecase"
)

type handlers struct {
	research Research
	settings SettingsService
	calendar CalendarService
}

type submitRequest struct {
	URL string `json:"url"`
}

type calendarResponse struct {
	Event calendar.Event `json:"event"`
	Text  string         `json:"text"`
}

func (h *handlers) submit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewInvalidRequest("request body must be JSON with a url field")
	}

	out, err := h.research.Submit(c.Request().Context(), req.URL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *handlers) listResults(c echo.Context) error {
	limit := 0
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return apperr.NewInvalidRequest("limit must be an integer")
		}
		limit = parsed
	}

	results, err := h.research.ListResults(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, results)
}

func (h *handlers) getResult(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	result, err := h.research.GetResult(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *handlers) exportCalendar(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	event, err := h.calendar.Export(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, calendarResponse{Event: event, Text: event.String()})
}

func (h *handlers) showSettings(c echo.Context) error {
	view, err := h.settings.Show(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *handlers) updateSettings(c echo.Context) error {
	var upd usecase.SettingsUpdate
	if err := c.Bind(&upd); err != nil {
		return apperr.NewInvalidRequest("request body must be a JSON settings object")
	}

	view, err := h.settings.Update(c.Request().Context(), upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NewInvalidRequest("id must be a positive integer")
	}
	return id, nil
}
