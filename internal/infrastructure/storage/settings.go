package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ResearchAgent/internal/domain"
	"ResearchAgent/internal/ports"
)

const settingsRowID = 1

var _ ports.SettingsRepository = (*Store)(nil)

// GetSettings returns the settings record, or zero settings when none was saved.
func (s *Store) GetSettings(ctx context.Context) (domain.UserSettings, error) {
	query, args, err := s.sb.Select("api_key", "calendar_enabled").
		From(settingsTable).
		Where(sq.Eq{"id": settingsRowID}).
		ToSql()
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("build settings query: %w", err)
	}

	var (
		apiKey  sql.NullString
		enabled bool
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&apiKey, &enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserSettings{}, nil
	}
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("load settings: %w", err)
	}

	return domain.UserSettings{APIKey: apiKey.String, CalendarEnabled: enabled}, nil
}

// SaveSettings replaces the settings record. An empty key is stored as NULL.
func (s *Store) SaveSettings(ctx context.Context, settings domain.UserSettings) error {
	apiKey := sql.NullString{String: settings.APIKey, Valid: settings.APIKey != ""}

	query, args, err := s.sb.Insert(settingsTable).
		Columns("id", "api_key", "calendar_enabled").
		Values(settingsRowID, apiKey, settings.CalendarEnabled).
		Suffix("ON CONFLICT (id) DO UPDATE SET api_key = excluded.api_key, calendar_enabled = excluded.calendar_enabled").
		ToSql()
	if err != nil {
		return fmt.Errorf("build settings upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
