package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// ParseMode controls how the reader treats invalid records.
type ParseMode int

const (
	// Strict aborts the whole read on the first invalid record. This is
	// the default policy: a partially-read catalog silently changes the
	// declustering result, which is worse than failing loudly.
	Strict ParseMode = iota

	// Lenient skips invalid records and reports how many were dropped.
	Lenient
)

// Catalog is a parsed event catalog plus the source header, in source
// order. The header is needed to write pass-through columns back out
// verbatim.
type Catalog struct {
	Header []string
	Events []Event
}

// requiredColumns must all be present in the input header.
var requiredColumns = []string{ColEventID, ColMagnitude, ColTimestamp, ColLatitude, ColLongitude}

// ReadCatalog parses a CSV catalog. The header must contain the canonical
// columns; depth_km is optional and defaults to 0 when absent or empty.
// Column order is free and extra columns are preserved.
//
// Returns the catalog and, in Lenient mode, the number of skipped records.
func ReadCatalog(r io.Reader, mode ParseMode) (*Catalog, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // validated per row against the header

	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, fmt.Errorf("read catalog: empty input, header row required")
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read catalog: header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		colIdx[name] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, 0, fmt.Errorf("read catalog: missing required column %q", col)
		}
	}

	cat := &Catalog{Header: header}
	skipped := 0
	seen := make(map[string]int)

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read catalog: line %d: %w", line, err)
		}
		if len(record) != len(header) {
			if mode == Lenient {
				skipped++
				continue
			}
			return nil, 0, fmt.Errorf("read catalog: line %d: %d fields, header has %d", line, len(record), len(header))
		}

		ev, err := parseRecord(header, record)
		if err == nil {
			if prev, dup := seen[ev.ID]; dup {
				err = fmt.Errorf("duplicate %s %q (first seen on line %d)", ColEventID, ev.ID, prev)
			}
		}
		if err != nil {
			if mode == Lenient {
				skipped++
				continue
			}
			return nil, 0, fmt.Errorf("read catalog: line %d: %w", line, err)
		}

		seen[ev.ID] = line
		cat.Events = append(cat.Events, ev)
	}

	return cat, skipped, nil
}

// parseRecord builds a validated Event from one CSV row.
func parseRecord(header, record []string) (Event, error) {
	raw := make(map[string]string, len(header))
	for i, name := range header {
		raw[name] = record[i]
	}

	ev := Event{Raw: raw}

	ev.ID = NormalizeID(raw[ColEventID])
	if ev.ID == "" {
		return Event{}, fmt.Errorf("missing %s", ColEventID)
	}

	var err error
	if ev.Magnitude, err = parseFloat(raw, ColMagnitude); err != nil {
		return Event{}, err
	}
	if ev.Latitude, err = parseFloat(raw, ColLatitude); err != nil {
		return Event{}, err
	}
	if ev.Longitude, err = parseFloat(raw, ColLongitude); err != nil {
		return Event{}, err
	}

	ts := raw[ColTimestamp]
	if ts == "" {
		return Event{}, fmt.Errorf("missing %s", ColTimestamp)
	}
	ev.Time, err = time.Parse(time.RFC3339, ts)
	if err != nil {
		return Event{}, fmt.Errorf("bad %s %q: %w", ColTimestamp, ts, err)
	}
	ev.Time = ev.Time.UTC()

	if depth, ok := raw[ColDepthKm]; ok && depth != "" {
		if ev.DepthKm, err = parseFloat(raw, ColDepthKm); err != nil {
			return Event{}, err
		}
	}

	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}

func parseFloat(raw map[string]string, col string) (float64, error) {
	s := raw[col]
	if s == "" {
		return 0, fmt.Errorf("missing %s", col)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q: %w", col, s, err)
	}
	return v, nil
}

// WriteCatalog writes events under the given header, in the order given.
// Canonical and pass-through columns are emitted verbatim from the source
// row when present.
func WriteCatalog(w io.Writer, header []string, events []Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write catalog: header: %w", err)
	}

	row := make([]string, len(header))
	for _, ev := range events {
		for i, col := range header {
			row[i] = ev.columnValue(col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write catalog: event %s: %w", ev.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}

// WriteAttributed writes dependent events with the four attribution columns
// appended after the source header. attrs must be parallel to events.
//
// This is a pure re-projection: no classification logic happens here.
func WriteAttributed(w io.Writer, header []string, events []Event, attrs []Attribution) error {
	if len(events) != len(attrs) {
		return fmt.Errorf("write attributed: %d events but %d attributions", len(events), len(attrs))
	}

	cw := csv.NewWriter(w)
	outHeader := append(append([]string{}, header...), AttributionColumns...)
	if err := cw.Write(outHeader); err != nil {
		return fmt.Errorf("write attributed: header: %w", err)
	}

	row := make([]string, len(outHeader))
	for i, ev := range events {
		for j, col := range header {
			row[j] = ev.columnValue(col)
		}
		a := attrs[i]
		row[len(header)+0] = a.ParentID
		row[len(header)+1] = formatFloat(a.ParentMagnitude)
		row[len(header)+2] = formatFloat(a.DeltaTSeconds)
		row[len(header)+3] = formatFloat(a.DeltaDistanceKm)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write attributed: event %s: %w", ev.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write attributed: %w", err)
	}
	return nil
}
