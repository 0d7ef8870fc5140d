package store

import (
	"database/sql"
	"time"
)

// FetchRun records a single OpenWeatherMap request for auditing.
type FetchRun struct {
	ID                int64          `json:"id"`
	RequestID         string         `json:"request_id"`
	City              string         `json:"city"`
	StartedAt         time.Time      `json:"started_at"`
	FinishedAt        sql.NullTime   `json:"-"`
	HTTPStatus        sql.NullInt64  `json:"-"`
	ResponseSizeBytes sql.NullInt64  `json:"-"`
	Success           bool           `json:"success"`
	ErrorMessage      sql.NullString `json:"-"`
}

// StartFetchRun creates a new fetch run record and returns it.
func (s *Store) StartFetchRun(requestID, city string) (*FetchRun, error) {
	run := &FetchRun{
		RequestID: requestID,
		City:      city,
		StartedAt: time.Now().UTC(),
	}

	result, err := s.db.Exec(`
		INSERT INTO fetch_runs (request_id, city, started_at, success)
		VALUES (?, ?, ?, FALSE)
	`, run.RequestID, run.City, run.StartedAt)
	if err != nil {
		return nil, err
	}

	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return run, nil
}

// CompleteFetchRun updates the fetch run with results.
func (s *Store) CompleteFetchRun(run *FetchRun) error {
	if run == nil {
		return nil
	}

	run.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE fetch_runs SET
			finished_at = ?,
			http_status = ?,
			response_size_bytes = ?,
			success = ?,
			error_message = ?
		WHERE id = ?
	`, run.FinishedAt, run.HTTPStatus, run.ResponseSizeBytes, run.Success, run.ErrorMessage, run.ID)
	return err
}

// FetchHealthSummary aggregates fetch runs for one day.
type FetchHealthSummary struct {
	Date        string `json:"date"`
	TotalRuns   int    `json:"total_runs"`
	SuccessRuns int    `json:"success_runs"`
	FailedRuns  int    `json:"failed_runs"`
	Cities      int    `json:"cities"`
}

// GetFetchHealth returns daily fetch summaries for the last N days, newest first.
func (s *Store) GetFetchHealth(days int) ([]FetchHealthSummary, error) {
	rows, err := s.db.Query(`
		SELECT
			DATE(SUBSTR(started_at, 1, 19)) as date,
			COUNT(*) as total_runs,
			SUM(CASE WHEN success THEN 1 ELSE 0 END) as success_runs,
			SUM(CASE WHEN NOT success THEN 1 ELSE 0 END) as failed_runs,
			COUNT(DISTINCT LOWER(city)) as cities
		FROM fetch_runs
		WHERE SUBSTR(started_at, 1, 19) > datetime('now', '-' || ? || ' days')
		GROUP BY date
		ORDER BY date DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []FetchHealthSummary
	for rows.Next() {
		var h FetchHealthSummary
		if err := rows.Scan(&h.Date, &h.TotalRuns, &h.SuccessRuns, &h.FailedRuns, &h.Cities); err != nil {
			return nil, err
		}
		results = append(results, h)
	}
	return results, rows.Err()
}

// GetRecentFetchErrors returns recent failed fetch runs, newest first.
func (s *Store) GetRecentFetchErrors(limit int) ([]FetchRun, error) {
	rows, err := s.db.Query(`
		SELECT id, request_id, city, started_at, finished_at, http_status,
		       response_size_bytes, success, error_message
		FROM fetch_runs
		WHERE success = FALSE AND finished_at IS NOT NULL
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []FetchRun
	for rows.Next() {
		var r FetchRun
		if err := rows.Scan(&r.ID, &r.RequestID, &r.City, &r.StartedAt, &r.FinishedAt,
			&r.HTTPStatus, &r.ResponseSizeBytes, &r.Success, &r.ErrorMessage); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
