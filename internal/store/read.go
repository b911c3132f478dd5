package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nornir-works/urd/internal/catalog"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// ReadAllEvents returns the full imported catalog ordered by occurrence
// time, ties by event ID, so repeated reads yield the same sequence.
func (s *Store) ReadAllEvents(ctx context.Context) ([]catalog.Event, error) {
	rows, err := s.Query(ctx, `
		SELECT event_id, magnitude, occurred_at, latitude, longitude, depth_km, raw
		FROM events
		ORDER BY occurred_at, event_id
	`)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []catalog.Event
	for rows.Next() {
		var (
			ev       catalog.Event
			occurred string
			rawJSON  string
		)
		if err := rows.Scan(&ev.ID, &ev.Magnitude, &occurred, &ev.Latitude, &ev.Longitude, &ev.DepthKm, &rawJSON); err != nil {
			return nil, fmt.Errorf("read events: scan: %w", err)
		}
		if ev.Time, err = unmarshalTime(occurred); err != nil {
			return nil, fmt.Errorf("read events: %s: %w", ev.ID, err)
		}
		if ev.Raw, err = unmarshalRaw(rawJSON); err != nil {
			return nil, fmt.Errorf("read events: %s: %w", ev.ID, err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// CountEvents returns the number of imported events.
func (s *Store) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// GetRun fetches a single run record by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, model, mode, scale, params, independent, dependent
		FROM runs WHERE id = ?
	`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return rec, nil
}

// ListRuns returns all run records. UUIDv7 identifiers sort by creation
// time, so ordering by ID is chronological.
func (s *Store) ListRuns(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.Query(ctx, `
		SELECT id, created_at, model, mode, scale, params, independent, dependent
		FROM runs ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var recs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return recs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		rec     RunRecord
		created string
	)
	err := row.Scan(&rec.ID, &created, &rec.Model, &rec.Mode, &rec.Scale, &rec.Params, &rec.Independent, &rec.Dependent)
	if err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = unmarshalTime(created); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Classification is one stored per-event verdict.
type Classification struct {
	EventID string
	Class   string
	Attr    *catalog.Attribution // nil for independent events
}

// ReadClassifications returns the verdicts of a run keyed by event ID.
func (s *Store) ReadClassifications(ctx context.Context, runID string) (map[string]Classification, error) {
	rows, err := s.Query(ctx, `
		SELECT event_id, class, parent_id, parent_magnitude, delta_t_seconds, delta_distance_km
		FROM classifications WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read classifications: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Classification)
	for rows.Next() {
		var (
			c        Classification
			parentID sql.NullString
			parentM  sql.NullFloat64
			deltaT   sql.NullFloat64
			deltaD   sql.NullFloat64
		)
		if err := rows.Scan(&c.EventID, &c.Class, &parentID, &parentM, &deltaT, &deltaD); err != nil {
			return nil, fmt.Errorf("read classifications: scan: %w", err)
		}
		if parentID.Valid {
			c.Attr = &catalog.Attribution{
				ParentID:        parentID.String,
				ParentMagnitude: parentM.Float64,
				DeltaTSeconds:   deltaT.Float64,
				DeltaDistanceKm: deltaD.Float64,
			}
		}
		out[c.EventID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read classifications: %w", err)
	}
	return out, nil
}
