// Package postgres persists indicators, data points, and reports in
// PostgreSQL via database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/bkyoung/report-generator/internal/domain"
	"github.com/bkyoung/report-generator/internal/usecase/report"
)

//go:embed schema.sql
var schema string

// Connect opens and pings a PostgreSQL pool.
func Connect(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Store implements the pipeline's data source and report sink, plus the read
// side used by the HTTP layer.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// New creates a Store around an existing pool.
func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// EnsureSchema applies the embedded DDL. Idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// QueryIndicatorData fetches the series for each requested code in request
// order, skipping unknown codes. Observations are ordered by date.
func (s *Store) QueryIndicatorData(ctx context.Context, codes []string, start, end time.Time) ([]domain.IndicatorSeries, error) {
	results := make([]domain.IndicatorSeries, 0, len(codes))

	for _, code := range codes {
		var (
			id     int
			series domain.IndicatorSeries
		)
		err := s.db.QueryRowContext(ctx,
			`SELECT id, code, name, unit, frequency FROM indicators WHERE code = $1`,
			code,
		).Scan(&id, &series.Code, &series.Name, &series.Unit, &series.Frequency)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("query indicator %s: %w", code, err)
		}

		rows, err := s.db.QueryContext(ctx,
			`SELECT observation_date, value FROM data_points
			 WHERE indicator_id = $1 AND observation_date >= $2 AND observation_date <= $3
			 ORDER BY observation_date`,
			id, start, end,
		)
		if err != nil {
			return nil, fmt.Errorf("query data points for %s: %w", code, err)
		}

		for rows.Next() {
			var point domain.DataPoint
			if err := rows.Scan(&point.Date, &point.Value); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan data point: %w", err)
			}
			series.Values = append(series.Values, point)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterate data points: %w", err)
		}
		rows.Close()

		results = append(results, series)
	}

	return results, nil
}

// InsertReport persists one formatted report row.
func (s *Store) InsertReport(ctx context.Context, rep domain.Report) error {
	sections, err := json.Marshal(rep.Sections)
	if err != nil {
		return fmt.Errorf("marshal sections: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports
		 (id, title, executive_summary, sections, indicators_used,
		  time_range_start, time_range_end, total_data_points, total_tokens,
		  total_cost_usd, providers_used, generation_duration_ms, trace_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rep.ID, rep.Title, rep.ExecutiveSummary, sections,
		pq.Array(rep.IndicatorsUsed), rep.TimeRangeStart, rep.TimeRangeEnd,
		rep.TotalDataPoints, rep.TotalTokens, rep.TotalCostUSD,
		pq.Array(rep.ProvidersUsed), rep.GenerationDurationMS,
		nullableString(rep.TraceID), rep.Status,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetReport returns one report or report.ErrNotFound.
func (s *Store) GetReport(ctx context.Context, id uuid.UUID) (domain.Report, error) {
	row := s.db.QueryRowContext(ctx, selectReport+` WHERE id = $1`, id)
	rep, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Report{}, report.ErrNotFound
	}
	if err != nil {
		return domain.Report{}, fmt.Errorf("get report: %w", err)
	}
	return rep, nil
}

// ListReports returns reports ordered newest first.
func (s *Store) ListReports(ctx context.Context, limit, offset int) ([]domain.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		selectReport+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]domain.Report, 0, limit)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

const selectReport = `SELECT id, title, executive_summary, sections, indicators_used,
	time_range_start, time_range_end, total_data_points, total_tokens,
	total_cost_usd, providers_used, generation_duration_ms, trace_id, status, created_at
	FROM reports`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (domain.Report, error) {
	var (
		rep      domain.Report
		sections []byte
		traceID  sql.NullString
	)
	err := row.Scan(
		&rep.ID, &rep.Title, &rep.ExecutiveSummary, &sections,
		pq.Array(&rep.IndicatorsUsed), &rep.TimeRangeStart, &rep.TimeRangeEnd,
		&rep.TotalDataPoints, &rep.TotalTokens, &rep.TotalCostUSD,
		pq.Array(&rep.ProvidersUsed), &rep.GenerationDurationMS,
		&traceID, &rep.Status, &rep.CreatedAt,
	)
	if err != nil {
		return domain.Report{}, err
	}
	if err := json.Unmarshal(sections, &rep.Sections); err != nil {
		return domain.Report{}, fmt.Errorf("unmarshal sections: %w", err)
	}
	rep.TraceID = traceID.String
	return rep, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
