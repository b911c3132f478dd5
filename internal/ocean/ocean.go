// Package ocean classifies catalog events as oceanic, continental, or
// transitional by their distance to the nearest coastline vertex.
package ocean

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/nornir-works/urd/internal/catalog"
	"github.com/nornir-works/urd/internal/geo"
)

// Classification labels.
const (
	Oceanic      = "oceanic"
	Continental  = "continental"
	Transitional = "transitional"
)

// kmPerDegLat is the cheap lower bound on distance per degree of
// latitude, used to cull the sorted-vertex scan.
const kmPerDegLat = 111.195

// Vertex is one coastline sample point.
type Vertex struct {
	Lon float64
	Lat float64
}

// Thresholds are the distance cutoffs for the classification bands.
// Events farther than OceanicKm from any vertex are oceanic, events
// within CoastalKm are continental, everything between is transitional.
type Thresholds struct {
	OceanicKm float64
	CoastalKm float64
}

// DefaultThresholds returns the standard 200 km / 50 km bands.
func DefaultThresholds() Thresholds {
	return Thresholds{OceanicKm: 200, CoastalKm: 50}
}

// Validate checks that the bands are positive and ordered.
func (t Thresholds) Validate() error {
	if t.CoastalKm <= 0 || math.IsNaN(t.CoastalKm) {
		return fmt.Errorf("ocean: coastal threshold must be positive, got %v", t.CoastalKm)
	}
	if t.OceanicKm <= t.CoastalKm || math.IsNaN(t.OceanicKm) {
		return fmt.Errorf("ocean: oceanic threshold must exceed coastal threshold, got %v <= %v", t.OceanicKm, t.CoastalKm)
	}
	return nil
}

// ReadVertices loads a bare lon,lat CSV. A header row and malformed or
// short rows are silently skipped, so coastline extracts can be fed in
// as produced.
func ReadVertices(r io.Reader) ([]Vertex, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var verts []Vertex
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ocean: reading vertices: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		lon, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			continue
		}
		lat, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			continue
		}
		verts = append(verts, Vertex{Lon: lon, Lat: lat})
	}
	return verts, nil
}

// ReadSegmentVertices loads vertices from a plate-boundary segment CSV
// by its lon and lat header columns, for use as a coarse coastline
// proxy. Rows with unparsable coordinates are skipped.
func ReadSegmentVertices(r io.Reader) ([]Vertex, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("ocean: segment file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("ocean: reading segment header: %w", err)
	}
	lonIdx, latIdx := -1, -1
	for i, name := range header {
		switch name {
		case "lon":
			lonIdx = i
		case "lat":
			latIdx = i
		}
	}
	if lonIdx < 0 || latIdx < 0 {
		return nil, fmt.Errorf("ocean: segment file lacks lon/lat columns")
	}

	var verts []Vertex
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ocean: reading segments: %w", err)
		}
		if len(row) <= lonIdx || len(row) <= latIdx {
			continue
		}
		lon, err := strconv.ParseFloat(row[lonIdx], 64)
		if err != nil {
			continue
		}
		lat, err := strconv.ParseFloat(row[latIdx], 64)
		if err != nil {
			continue
		}
		verts = append(verts, Vertex{Lon: lon, Lat: lat})
	}
	return verts, nil
}

// Index answers nearest-vertex distance queries against a fixed vertex
// set. Vertices are sorted by latitude once so each query scans only
// the band whose latitude gap alone cannot already exceed the best
// distance found.
type Index struct {
	verts []Vertex // sorted by latitude
}

// NewIndex builds a query index over the vertices.
func NewIndex(verts []Vertex) *Index {
	sorted := make([]Vertex, len(verts))
	copy(sorted, verts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Lat < sorted[j].Lat })
	return &Index{verts: sorted}
}

// Len returns the number of indexed vertices.
func (ix *Index) Len() int {
	return len(ix.verts)
}

// NearestKm returns the great-circle distance to the nearest vertex,
// or +Inf when the index is empty.
func (ix *Index) NearestKm(lat, lon float64) float64 {
	n := len(ix.verts)
	if n == 0 {
		return math.Inf(1)
	}

	mid := sort.Search(n, func(i int) bool { return ix.verts[i].Lat >= lat })
	if mid >= n {
		mid = n - 1
	}
	min := geo.DistanceKm(lat, lon, ix.verts[mid].Lat, ix.verts[mid].Lon)

	lo, hi := mid-1, mid+1
	for lo >= 0 || hi < n {
		if lo >= 0 && (lat-ix.verts[lo].Lat)*kmPerDegLat >= min {
			lo = -1
		}
		if hi < n && (ix.verts[hi].Lat-lat)*kmPerDegLat >= min {
			hi = n
		}
		if lo < 0 && hi >= n {
			break
		}
		if lo >= 0 {
			if d := geo.DistanceKm(lat, lon, ix.verts[lo].Lat, ix.verts[lo].Lon); d < min {
				min = d
			}
			lo--
		}
		if hi < n {
			if d := geo.DistanceKm(lat, lon, ix.verts[hi].Lat, ix.verts[hi].Lon); d < min {
				min = d
			}
			hi++
		}
	}
	return min
}

// Classify maps a coastline distance to its band label. The coastal
// cutoff is inclusive, the oceanic cutoff exclusive.
func Classify(distKm float64, t Thresholds) string {
	switch {
	case distKm > t.OceanicKm:
		return Oceanic
	case distKm <= t.CoastalKm:
		return Continental
	default:
		return Transitional
	}
}

// Classification is the verdict for one event.
type Classification struct {
	EventID       string
	Class         string
	DistToCoastKm float64
}

// ClassifyEvents classifies every event against the index, preserving
// input order. Distances are rounded to meter-ish precision so the CSV
// output stays stable.
func ClassifyEvents(events []catalog.Event, ix *Index, t Thresholds) []Classification {
	out := make([]Classification, 0, len(events))
	for _, ev := range events {
		dist := ix.NearestKm(ev.Latitude, ev.Longitude)
		dist = math.Round(dist*1000) / 1000
		out = append(out, Classification{
			EventID:       ev.ID,
			Class:         Classify(dist, t),
			DistToCoastKm: dist,
		})
	}
	return out
}

// WriteClassifications writes verdicts as CSV with the header
// event_id,ocean_class,dist_to_coast_km.
func WriteClassifications(w io.Writer, cls []Classification) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"event_id", "ocean_class", "dist_to_coast_km"}); err != nil {
		return fmt.Errorf("ocean: writing header: %w", err)
	}
	for _, c := range cls {
		row := []string{c.EventID, c.Class, strconv.FormatFloat(c.DistToCoastKm, 'f', -1, 64)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("ocean: writing %s: %w", c.EventID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
