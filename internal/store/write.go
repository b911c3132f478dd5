package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nornir-works/urd/internal/catalog"
	"github.com/nornir-works/urd/internal/decluster"
)

// ImportEvents inserts catalog events in a single transaction and returns
// the number of newly inserted rows. Uses ON CONFLICT(event_id) DO NOTHING
// for idempotency: re-importing the same catalog is a no-op.
func (s *Store) ImportEvents(ctx context.Context, events []catalog.Event) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("import events: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(event_id, magnitude, occurred_at, latitude, longitude, depth_km, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING
	`)
	if err != nil {
		return 0, fmt.Errorf("import events: prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, ev := range events {
		rawJSON, err := marshalRaw(ev.Raw)
		if err != nil {
			return 0, fmt.Errorf("import events: %s: %w", ev.ID, err)
		}
		result, err := stmt.ExecContext(ctx,
			ev.ID,
			ev.Magnitude,
			marshalTime(ev.Time),
			ev.Latitude,
			ev.Longitude,
			ev.DepthKm,
			rawJSON,
		)
		if err != nil {
			return 0, fmt.Errorf("import events: insert %s: %w", ev.ID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("import events: rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("import events: commit: %w", err)
	}
	return inserted, nil
}

// RunRecord describes one declustering execution.
type RunRecord struct {
	ID          string
	CreatedAt   time.Time
	Model       string
	Mode        string
	Scale       float64
	Params      string // model parameters as JSON
	Independent int
	Dependent   int
}

// SaveRun writes a run record and its per-event classifications in one
// transaction: either the whole run is recorded or none of it. Counts are
// taken from the result, not from rec.
func (s *Store) SaveRun(ctx context.Context, rec RunRecord, res *decluster.Result) error {
	rec.Independent, rec.Dependent = res.Counts()
	if rec.Params == "" {
		rec.Params = "{}"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, created_at, model, mode, scale, params, independent, dependent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		marshalTime(rec.CreatedAt),
		rec.Model,
		rec.Mode,
		rec.Scale,
		rec.Params,
		rec.Independent,
		rec.Dependent,
	)
	if err != nil {
		return fmt.Errorf("save run: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO classifications
		(run_id, event_id, class, parent_id, parent_magnitude, delta_t_seconds, delta_distance_km)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save run: prepare: %w", err)
	}
	defer stmt.Close()

	for i, ev := range res.Events {
		state := res.States[i]
		if state.Class == decluster.Dependent {
			attr := state.Attr
			_, err = stmt.ExecContext(ctx,
				rec.ID, ev.ID, state.Class.String(),
				attr.ParentID, attr.ParentMagnitude, attr.DeltaTSeconds, attr.DeltaDistanceKm,
			)
		} else {
			_, err = stmt.ExecContext(ctx,
				rec.ID, ev.ID, state.Class.String(),
				nil, nil, nil, nil,
			)
		}
		if err != nil {
			return fmt.Errorf("save run: insert classification %s: %w", ev.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run: commit: %w", err)
	}
	return nil
}
