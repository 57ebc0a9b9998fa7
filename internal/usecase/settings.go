package usecase

import (
	"context"
	"time"

	"ResearchAgent/internal/apperr"
	"ResearchAgent/internal/calendar"
	"ResearchAgent/internal/domain"
	"ResearchAgent/internal/ports"
)

// SettingsView is what callers may see of the settings record; the key
// itself is never returned.
type SettingsView struct {
	HasAPIKey       bool `json:"has_api_key"`
	CalendarEnabled bool `json:"calendar_enabled"`
}

// SettingsUpdate changes the settings record. Nil fields are left untouched.
type SettingsUpdate struct {
	APIKey          *string `json:"api_key"`
	CalendarEnabled *bool   `json:"calendar_enabled"`
}

// Settings reads and updates the single settings record.
type Settings struct {
	repo ports.SettingsRepository
}

// NewSettings wraps repo.
func NewSettings(repo ports.SettingsRepository) *Settings {
	return &Settings{repo: repo}
}

// Show returns the redacted settings.
func (s *Settings) Show(ctx context.Context) (SettingsView, error) {
	current, err := s.repo.GetSettings(ctx)
	if err != nil {
		return SettingsView{}, apperr.NewPersistenceFailure("load settings", err)
	}
	return viewOf(current), nil
}

// Update applies upd and returns the redacted result.
func (s *Settings) Update(ctx context.Context, upd SettingsUpdate) (SettingsView, error) {
	current, err := s.repo.GetSettings(ctx)
	if err != nil {
		return SettingsView{}, apperr.NewPersistenceFailure("load settings", err)
	}
	if upd.APIKey != nil {
		current.APIKey = *upd.APIKey
	}
	if upd.CalendarEnabled != nil {
		current.CalendarEnabled = *upd.CalendarEnabled
	}
	if err := s.repo.SaveSettings(ctx, current); err != nil {
		return SettingsView{}, apperr.NewPersistenceFailure("save settings", err)
	}
	return viewOf(current), nil
}

func viewOf(settings domain.UserSettings) SettingsView {
	return SettingsView{HasAPIKey: settings.HasAPIKey(), CalendarEnabled: settings.CalendarEnabled}
}

// ResultReader loads stored results.
type ResultReader interface {
	GetResult(ctx context.Context, id int64) (domain.ResearchResult, error)
}

// CalendarExport proposes follow-up events for results when the calendar
// flag is on.
type CalendarExport struct {
	settings ports.SettingsProvider
	results  ResultReader
	clock    func() time.Time
}

// NewCalendarExport wires the export use case.
func NewCalendarExport(settings ports.SettingsProvider, results ResultReader, clock func() time.Time) *CalendarExport {
	if clock == nil {
		clock = time.Now
	}
	return &CalendarExport{settings: settings, results: results, clock: clock}
}

// Export formats an event for result id at the next full hour.
func (c *CalendarExport) Export(ctx context.Context, id int64) (calendar.Event, error) {
	current, err := c.settings.GetSettings(ctx)
	if err != nil {
		return calendar.Event{}, apperr.NewPersistenceFailure("load settings", err)
	}
	if !current.CalendarEnabled {
		return calendar.Event{}, apperr.NewCalendarDisabled()
	}

	result, err := c.results.GetResult(ctx, id)
	if err != nil {
		return calendar.Event{}, err
	}
	return calendar.FormatEvent(result, calendar.NextSlot(c.clock())), nil
}
