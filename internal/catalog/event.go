// Package catalog defines the event record schema shared by every
// declustering variant, plus CSV projection of catalogs in and out of the
// engine. Events are immutable once parsed; classification state lives in
// the engine, never on the record.
package catalog

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Canonical column names of the record schema. Any further input columns
// are opaque pass-through data preserved verbatim in output.
const (
	ColEventID   = "event_id"
	ColMagnitude = "magnitude"
	ColTimestamp = "timestamp"
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
	ColDepthKm   = "depth_km"
)

// Attribution column names appended to dependent records when the caller
// requested attributed output.
const (
	ColParentID        = "parent_id"
	ColParentMagnitude = "parent_magnitude"
	ColDeltaTSeconds   = "delta_t_seconds"
	ColDeltaDistanceKm = "delta_distance_km"
)

// AttributionColumns lists the four attribution columns in output order.
var AttributionColumns = []string{
	ColParentID,
	ColParentMagnitude,
	ColDeltaTSeconds,
	ColDeltaDistanceKm,
}

// Event is one immutable catalog record.
//
// Raw holds the original column values by column name, exactly as read from
// the source, including pass-through columns. It may be nil for events built
// programmatically; CSV output then falls back to formatting the typed
// fields.
type Event struct {
	ID        string
	Magnitude float64
	Time      time.Time
	Latitude  float64
	Longitude float64
	DepthKm   float64

	Raw map[string]string
}

// Validate checks the typed fields against the domain ranges. It does not
// re-parse Raw.
func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event: missing %s", ColEventID)
	}
	if math.IsNaN(e.Magnitude) {
		return fmt.Errorf("event %s: %s is NaN", e.ID, ColMagnitude)
	}
	if e.Time.IsZero() {
		return fmt.Errorf("event %s: missing %s", e.ID, ColTimestamp)
	}
	if e.Latitude < -90 || e.Latitude > 90 {
		return fmt.Errorf("event %s: %s %v out of range [-90, 90]", e.ID, ColLatitude, e.Latitude)
	}
	if e.Longitude < -180 || e.Longitude > 180 {
		return fmt.Errorf("event %s: %s %v out of range [-180, 180]", e.ID, ColLongitude, e.Longitude)
	}
	if e.DepthKm < 0 {
		return fmt.Errorf("event %s: %s %v is negative", e.ID, ColDepthKm, e.DepthKm)
	}
	return nil
}

// rawOr returns the verbatim source value for a column, or the formatted
// fallback when the event has no raw row.
func (e Event) rawOr(col, fallback string) string {
	if e.Raw != nil {
		if v, ok := e.Raw[col]; ok {
			return v
		}
	}
	return fallback
}

// columnValue projects the event onto one output column.
func (e Event) columnValue(col string) string {
	switch col {
	case ColEventID:
		return e.rawOr(col, e.ID)
	case ColMagnitude:
		return e.rawOr(col, formatFloat(e.Magnitude))
	case ColTimestamp:
		return e.rawOr(col, e.Time.UTC().Format(time.RFC3339))
	case ColLatitude:
		return e.rawOr(col, formatFloat(e.Latitude))
	case ColLongitude:
		return e.rawOr(col, formatFloat(e.Longitude))
	case ColDepthKm:
		return e.rawOr(col, formatFloat(e.DepthKm))
	default:
		return e.rawOr(col, "")
	}
}

// Attribution links a dependent event to its assigned parent.
//
// DeltaTSeconds is signed: negative when the dependent event precedes its
// parent (a foreshock).
type Attribution struct {
	ParentID        string
	ParentMagnitude float64
	DeltaTSeconds   float64
	DeltaDistanceKm float64
}

// formatFloat renders a float the way the CSV layer writes computed values:
// shortest representation that round-trips, no exponent for typical
// catalog magnitudes and deltas.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
