package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ResearchAgent/internal/domain"
	"ResearchAgent/internal/ports"
)

// MaxListLimit caps how many results a single List call returns.
const MaxListLimit = 50

var resultColumns = []string{
	"id", "url", "title", "content_type", "summary",
	"key_insights", "actionable_items", "status", "created_at", "processed_at",
}

var _ ports.ResultRepository = (*Store)(nil)

// Append inserts a new result and returns its id. created_at is taken from
// the store clock.
func (s *Store) Append(ctx context.Context, result domain.ResearchResult) (int64, error) {
	insights, err := encodeList(result.KeyInsights)
	if err != nil {
		return 0, err
	}
	items, err := encodeList(result.ActionableItems)
	if err != nil {
		return 0, err
	}

	query, args, err := s.sb.Insert(resultsTable).
		Columns("url", "title", "content_type", "summary", "key_insights", "actionable_items", "status", "created_at", "processed_at").
		Values(
			result.URL,
			result.Title,
			string(result.ContentType),
			result.Summary,
			insights,
			items,
			string(result.Status),
			s.now().UnixMilli(),
			toMillis(result.ProcessedAt),
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert result: %w", err)
	}
	return id, nil
}

// Complete records the extraction and analysis outcome and marks the result
// completed.
func (s *Store) Complete(ctx context.Context, id int64, extraction domain.Extraction, analysis domain.Analysis, processedAt time.Time) error {
	insights, err := encodeList(analysis.KeyInsights)
	if err != nil {
		return err
	}
	items, err := encodeList(analysis.ActionableItems)
	if err != nil {
		return err
	}

	query, args, err := s.sb.Update(resultsTable).
		Set("title", extraction.Title).
		Set("content_type", string(extraction.ContentType)).
		Set("summary", analysis.Summary).
		Set("key_insights", insights).
		Set("actionable_items", items).
		Set("status", string(domain.StatusCompleted)).
		Set("processed_at", processedAt.UnixMilli()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update result %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update result %d: %w", id, domain.ErrResultNotFound)
	}
	return nil
}

// List returns the newest results first. A limit outside (0, MaxListLimit]
// is clamped to MaxListLimit.
func (s *Store) List(ctx context.Context, limit int) ([]domain.ResearchResult, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}

	query, args, err := s.sb.Select(resultColumns...).
		From(resultsTable).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := make([]domain.ResearchResult, 0, limit)
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return results, nil
}

// Get loads one result; a missing id yields domain.ErrResultNotFound.
func (s *Store) Get(ctx context.Context, id int64) (domain.ResearchResult, error) {
	query, args, err := s.sb.Select(resultColumns...).
		From(resultsTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.ResearchResult{}, fmt.Errorf("build get: %w", err)
	}

	result, err := scanResult(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ResearchResult{}, fmt.Errorf("get result %d: %w", id, domain.ErrResultNotFound)
	}
	if err != nil {
		return domain.ResearchResult{}, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (domain.ResearchResult, error) {
	var (
		result      domain.ResearchResult
		contentType string
		status      string
		insights    string
		items       string
		createdAt   int64
		processedAt sql.NullInt64
	)

	err := row.Scan(
		&result.ID,
		&result.URL,
		&result.Title,
		&contentType,
		&result.Summary,
		&insights,
		&items,
		&status,
		&createdAt,
		&processedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ResearchResult{}, err
	}
	if err != nil {
		return domain.ResearchResult{}, fmt.Errorf("scan result: %w", err)
	}

	result.ContentType = domain.ContentType(contentType)
	result.Status = domain.ProcessingStatus(status)
	result.KeyInsights = decodeList(insights)
	result.ActionableItems = decodeList(items)
	result.CreatedAt = time.UnixMilli(createdAt).UTC()
	if processedAt.Valid {
		t := time.UnixMilli(processedAt.Int64).UTC()
		result.ProcessedAt = &t
	}
	return result, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(raw), nil
}

// decodeList never fails: unreadable text is treated as an empty list.
func decodeList(raw string) []string {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		return []string{}
	}
	return items
}

func toMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
