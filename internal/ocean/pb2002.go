package ocean

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Segment is one digitized plate-boundary step, reduced to its plate
// pair, boundary type, and midpoint coordinates (Bird 2003).
type Segment struct {
	ID        int
	PlateA    string
	PlateB    string
	TypeCode  string
	TypeLabel string
	Lon       float64
	Lat       float64
}

// boundaryTypeLabels maps the 3-letter codes of Bird (2003), Table 1.
var boundaryTypeLabels = map[string]string{
	"CTF": "Continental transform fault",
	"CRB": "Continental rift boundary",
	"CCB": "Continental convergent boundary",
	"OSR": "Oceanic spreading ridge",
	"OTF": "Oceanic transform fault",
	"OCB": "Oceanic convergent boundary",
	"SUB": "Subduction zone",
}

// segmentColumns is the CSV schema written by WriteSegments.
var segmentColumns = []string{
	"segment_id",
	"plate_a",
	"plate_b",
	"boundary_type_code",
	"boundary_type_label",
	"lon",
	"lat",
}

// ParseSteps reads a space-delimited plate-boundary steps file. Each
// usable row carries at least 15 fields: step ID, plate pair, start and
// end coordinates, velocity fields, and the boundary type code in the
// 15th column. Leading colons on the plate pair and type code are
// decorations in the source data and are stripped. Blank lines, comment
// lines, short rows, and rows with unknown type codes are skipped.
func ParseSteps(r io.Reader) ([]Segment, error) {
	var segs []Segment

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 15 {
			continue
		}

		id, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		startLon, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			continue
		}
		startLat, err := strconv.ParseFloat(parts[3], 64)
		if err != nil {
			continue
		}
		endLon, err := strconv.ParseFloat(parts[4], 64)
		if err != nil {
			continue
		}
		endLat, err := strconv.ParseFloat(parts[5], 64)
		if err != nil {
			continue
		}

		typeCode := strings.TrimPrefix(parts[14], ":")
		label, ok := boundaryTypeLabels[typeCode]
		if !ok {
			continue
		}

		pair := strings.TrimPrefix(parts[1], ":")
		plateA, plateB, _ := strings.Cut(pair, "-")

		segs = append(segs, Segment{
			ID:        id,
			PlateA:    plateA,
			PlateB:    plateB,
			TypeCode:  typeCode,
			TypeLabel: label,
			Lon:       roundCoord((startLon + endLon) / 2),
			Lat:       roundCoord((startLat + endLat) / 2),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ocean: reading steps: %w", err)
	}
	return segs, nil
}

// roundCoord rounds a midpoint coordinate to 5 decimal places, about
// meter resolution.
func roundCoord(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// WriteSegments writes parsed segments as the type lookup CSV consumed
// by ReadSegmentVertices.
func WriteSegments(w io.Writer, segs []Segment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(segmentColumns); err != nil {
		return fmt.Errorf("ocean: writing header: %w", err)
	}
	for _, s := range segs {
		row := []string{
			strconv.Itoa(s.ID),
			s.PlateA,
			s.PlateB,
			s.TypeCode,
			s.TypeLabel,
			strconv.FormatFloat(s.Lon, 'f', -1, 64),
			strconv.FormatFloat(s.Lat, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("ocean: writing segment %d: %w", s.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
