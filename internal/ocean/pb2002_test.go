package ocean

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSteps = `1 AF-AN 19.162 -72.209 19.162 -72.209 0.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 :CTF
2 SO-AN 20.000 -73.000 21.000 -74.000 0.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 :OSR
`

func TestParseSteps(t *testing.T) {
	segs, err := ParseSteps(strings.NewReader(sampleSteps))
	require.NoError(t, err)
	require.Len(t, segs, 2)

	assert.Equal(t, 1, segs[0].ID)
	assert.Equal(t, "AF", segs[0].PlateA)
	assert.Equal(t, "AN", segs[0].PlateB)
	assert.Equal(t, "CTF", segs[0].TypeCode)
	assert.Equal(t, "Continental transform fault", segs[0].TypeLabel)
	assert.Equal(t, "Oceanic spreading ridge", segs[1].TypeLabel)
}

func TestParseSteps_Midpoint(t *testing.T) {
	src := "1 AF-AN 10.0 20.0 20.0 40.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 :CTF\n"
	segs, err := ParseSteps(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.InDelta(t, 15.0, segs[0].Lon, 1e-9)
	assert.InDelta(t, 30.0, segs[0].Lat, 1e-9)
}

func TestParseSteps_StripsColonPrefixes(t *testing.T) {
	src := "1 :AF-AN 10.0 20.0 20.0 40.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 :CTF\n"
	segs, err := ParseSteps(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "AF", segs[0].PlateA)
	assert.Equal(t, "AN", segs[0].PlateB)
	assert.Equal(t, "CTF", segs[0].TypeCode)
}

func TestParseSteps_PairWithoutDash(t *testing.T) {
	src := "1 AFAN 10.0 20.0 20.0 40.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 :SUB\n"
	segs, err := ParseSteps(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "AFAN", segs[0].PlateA)
	assert.Empty(t, segs[0].PlateB)
}

func TestParseSteps_SkipsBadRows(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"unknown type code", "1 AF-AN 10.0 20.0 10.0 20.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 :XXX\n", 0},
		{"comment lines", "# comment\n1 AF-AN 10.0 20.0 10.0 20.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 :CTF\n", 1},
		{"short rows", "1 AF-AN 10.0 20.0\n", 0},
		{"non-numeric step id", "x AF-AN 10.0 20.0 10.0 20.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 :CTF\n", 0},
		{"blank lines", "\n\n1 AF-AN 10.0 20.0 10.0 20.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 0.0 :CTF\n", 1},
		{"empty file", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := ParseSteps(strings.NewReader(tt.src))
			require.NoError(t, err)
			assert.Len(t, segs, tt.want)
		})
	}
}

func TestWriteSegments(t *testing.T) {
	segs, err := ParseSteps(strings.NewReader(sampleSteps))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, WriteSegments(&sb, segs))

	assert.Equal(t,
		"segment_id,plate_a,plate_b,boundary_type_code,boundary_type_label,lon,lat\n"+
			"1,AF,AN,CTF,Continental transform fault,19.162,-72.209\n"+
			"2,SO,AN,OSR,Oceanic spreading ridge,20.5,-73.5\n",
		sb.String())
}

func TestWriteSegments_RoundTripsThroughVertexLoader(t *testing.T) {
	segs, err := ParseSteps(strings.NewReader(sampleSteps))
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, WriteSegments(&sb, segs))

	verts, err := ReadSegmentVertices(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, []Vertex{{Lon: 19.162, Lat: -72.209}, {Lon: 20.5, Lat: -73.5}}, verts)
}
