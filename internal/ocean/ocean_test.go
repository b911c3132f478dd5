package ocean

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nornir-works/urd/internal/catalog"
	"github.com/nornir-works/urd/internal/geo"
	"github.com/nornir-works/urd/internal/testutil"
)

func TestReadVertices(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Vertex
	}{
		{
			name: "numeric rows",
			src:  "10.5,20.3\n-15.0,35.7\n",
			want: []Vertex{{Lon: 10.5, Lat: 20.3}, {Lon: -15.0, Lat: 35.7}},
		},
		{
			name: "header row skipped",
			src:  "lon,lat\n10.5,20.3\n",
			want: []Vertex{{Lon: 10.5, Lat: 20.3}},
		},
		{
			name: "short rows skipped",
			src:  "10.5\n10.5,20.3\n",
			want: []Vertex{{Lon: 10.5, Lat: 20.3}},
		},
		{
			name: "empty file",
			src:  "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verts, err := ReadVertices(strings.NewReader(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, verts)
		})
	}
}

func TestReadSegmentVertices(t *testing.T) {
	src := "segment_id,plate_a,plate_b,boundary_type_code,boundary_type_label,lon,lat\n" +
		"1,AF,AN,CTF,Continental transform fault,19.162,-72.209\n" +
		"bad,AF,AN,CTF,label,not_a_number,-72.209\n"
	verts, err := ReadSegmentVertices(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []Vertex{{Lon: 19.162, Lat: -72.209}}, verts)
}

func TestReadSegmentVertices_RejectsMissingColumns(t *testing.T) {
	_, err := ReadSegmentVertices(strings.NewReader("a,b,c\n1,2,3\n"))
	require.Error(t, err)

	_, err = ReadSegmentVertices(strings.NewReader(""))
	require.Error(t, err)
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	assert.Error(t, Thresholds{OceanicKm: 200, CoastalKm: 0}.Validate())
	assert.Error(t, Thresholds{OceanicKm: 200, CoastalKm: -1}.Validate())
	assert.Error(t, Thresholds{OceanicKm: 50, CoastalKm: 50}.Validate())
	assert.Error(t, Thresholds{OceanicKm: 40, CoastalKm: 50}.Validate())
	assert.Error(t, Thresholds{OceanicKm: math.NaN(), CoastalKm: 50}.Validate())
}

func TestClassify_Bands(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		distKm float64
		want   string
	}{
		{250.0, Oceanic},
		{30.0, Continental},
		{50.0, Continental},   // coastal cutoff inclusive
		{50.1, Transitional},  // just past coastal
		{200.0, Transitional}, // oceanic cutoff exclusive
		{200.1, Oceanic},
		{125.0, Transitional},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.distKm, th), "dist %v", tt.distKm)
	}
}

func TestIndex_NearestKm(t *testing.T) {
	t.Run("zero distance to self", func(t *testing.T) {
		ix := NewIndex([]Vertex{{Lon: 10, Lat: 20}})
		assert.InDelta(t, 0, ix.NearestKm(20, 10), 1e-6)
	})

	t.Run("picks closest vertex", func(t *testing.T) {
		ix := NewIndex([]Vertex{{Lon: 0, Lat: 0.1}, {Lon: 0, Lat: 10}})
		assert.Less(t, ix.NearestKm(0, 0), 20.0)
	})

	t.Run("known distance", func(t *testing.T) {
		// London to Paris is roughly 340 km.
		ix := NewIndex([]Vertex{{Lon: 2.35, Lat: 48.85}})
		d := ix.NearestKm(51.5, -0.1)
		assert.Greater(t, d, 330.0)
		assert.Less(t, d, 360.0)
	})

	t.Run("empty index", func(t *testing.T) {
		ix := NewIndex(nil)
		assert.True(t, math.IsInf(ix.NearestKm(0, 0), 1))
	})
}

func TestIndex_MatchesBruteForce(t *testing.T) {
	verts := []Vertex{
		{Lon: 139, Lat: 35}, {Lon: -0.1, Lat: 51.5}, {Lon: 151, Lat: -33.9},
		{Lon: -70, Lat: -33.4}, {Lon: 18.4, Lat: -33.9}, {Lon: 0, Lat: 0},
		{Lon: -157.8, Lat: 21.3}, {Lon: 12.5, Lat: 41.9},
	}
	ix := NewIndex(verts)

	queries := []struct{ lat, lon float64 }{
		{35.7, 139.7}, {48.85, 2.35}, {-34, 151}, {0.5, 0.5}, {89, 0}, {-89, 0},
	}
	for _, q := range queries {
		brute := math.Inf(1)
		for _, v := range verts {
			if d := geo.DistanceKm(q.lat, q.lon, v.Lat, v.Lon); d < brute {
				brute = d
			}
		}
		assert.InDelta(t, brute, ix.NearestKm(q.lat, q.lon), 1e-9, "query %v", q)
	}
}

func TestClassifyEvents(t *testing.T) {
	ix := NewIndex([]Vertex{{Lon: 0, Lat: 0}})
	th := DefaultThresholds()

	t.Run("near coast is continental", func(t *testing.T) {
		cls := ClassifyEvents([]catalog.Event{testutil.Event("eq1", 5, 0, 0, 0)}, ix, th)
		require.Len(t, cls, 1)
		assert.Equal(t, "eq1", cls[0].EventID)
		assert.Equal(t, Continental, cls[0].Class)
		assert.Zero(t, cls[0].DistToCoastKm)
	})

	t.Run("far from coast is oceanic", func(t *testing.T) {
		cls := ClassifyEvents([]catalog.Event{testutil.Event("eq2", 5, 0, 50, 0)}, ix, th)
		assert.Equal(t, Oceanic, cls[0].Class)
	})

	t.Run("distance is rounded", func(t *testing.T) {
		// One degree of longitude at the equator is about 111 km.
		cls := ClassifyEvents([]catalog.Event{testutil.Event("eq3", 5, 0, 0, 1)}, ix, th)
		d := cls[0].DistToCoastKm
		assert.Greater(t, d, 100.0)
		assert.Less(t, d, 125.0)
		assert.InDelta(t, d, math.Round(d*1000)/1000, 0)
	})

	t.Run("empty catalog", func(t *testing.T) {
		assert.Empty(t, ClassifyEvents(nil, ix, th))
	})

	t.Run("order preserved", func(t *testing.T) {
		events := []catalog.Event{
			testutil.Event("a", 5, 0, 0, 0),
			testutil.Event("b", 5, 0, 10, 0),
			testutil.Event("c", 5, 0, 50, 0),
		}
		cls := ClassifyEvents(events, ix, th)
		require.Len(t, cls, 3)
		assert.Equal(t, "a", cls[0].EventID)
		assert.Equal(t, "b", cls[1].EventID)
		assert.Equal(t, "c", cls[2].EventID)
	})
}

func TestWriteClassifications(t *testing.T) {
	var sb strings.Builder
	err := WriteClassifications(&sb, []Classification{
		{EventID: "eq1", Class: Continental, DistToCoastKm: 0},
		{EventID: "eq2", Class: Transitional, DistToCoastKm: 111.195},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"event_id,ocean_class,dist_to_coast_km\neq1,continental,0\neq2,transitional,111.195\n",
		sb.String())
}
