package store

import (
	"database/sql"
	"fmt"
	"time"
)

// EntriesBetween returns raw entry tuples whose start time falls in the
// half-open window [from, to). The filter is on start_ms only; entries
// running past the window are returned whole. This is the contract the
// stats layer's server path is built on.
func (s *Store) EntriesBetween(from, to time.Time) ([]EntryRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, task_id, start_ms, end_ms, duration_ms, created_at
		 FROM time_entries
		 WHERE start_ms >= ? AND start_ms < ?
		 ORDER BY start_ms`,
		from.UnixMilli(), to.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("entries between: %w", err)
	}
	defer rows.Close()

	var entries []EntryRecord
	for rows.Next() {
		var e EntryRecord
		var end, dur sql.NullInt64
		var createdAt string
		if err := rows.Scan(&e.ID, &e.TaskID, &e.StartMS, &end, &dur, &createdAt); err != nil {
			return nil, err
		}
		if end.Valid {
			e.EndMS = &end.Int64
		}
		if dur.Valid {
			e.DurationMS = &dur.Int64
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetDailyStatusSummary aggregates closed-entry time per day per task
// status for [from, to), for the reports chart.
func (s *Store) GetDailyStatusSummary(from, to time.Time) ([]DailyStatusSummary, error) {
	rows, err := s.db.Query(`
		SELECT date(e.start_ms / 1000, 'unixepoch') AS day, t.status,
		       COALESCE(SUM(e.duration_ms), 0), COUNT(*)
		FROM time_entries e
		JOIN tasks t ON t.id = e.task_id
		WHERE e.end_ms IS NOT NULL
		  AND e.start_ms >= ? AND e.start_ms < ?
		GROUP BY day, t.status
		ORDER BY day, t.status`,
		from.UnixMilli(), to.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []DailyStatusSummary
	for rows.Next() {
		var ds DailyStatusSummary
		if err := rows.Scan(&ds.Date, &ds.Status, &ds.TotalMS, &ds.EntryCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

// GetTodayTotal returns today's closed tracked time in ms.
func (s *Store) GetTodayTotal() (int64, error) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var total sql.NullInt64
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(duration_ms), 0)
		FROM time_entries
		WHERE start_ms >= ? AND start_ms < ? AND end_ms IS NOT NULL`,
		dayStart.UnixMilli(), dayStart.Add(24*time.Hour).UnixMilli(),
	).Scan(&total)
	if err != nil {
		return 0, err
	}
	return total.Int64, nil
}
