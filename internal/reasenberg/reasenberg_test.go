package reasenberg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nornir-works/urd/internal/catalog"
	"github.com/nornir-works/urd/internal/testutil"
)

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		ok     bool
	}{
		{"defaults", func(*Params) {}, true},
		{"zero r_fact", func(p *Params) { p.RFact = 0 }, false},
		{"negative r_fact", func(p *Params) { p.RFact = -1 }, false},
		{"inverted tau bounds", func(p *Params) { p.TauMinDays = 20 }, false},
		{"zero tau_min", func(p *Params) { p.TauMinDays = 0 }, false},
		{"p at one", func(p *Params) { p.P = 1 }, false},
		{"p at zero", func(p *Params) { p.P = 0 }, false},
		{"equal tau bounds", func(p *Params) { p.TauMinDays, p.TauMaxDays = 5, 5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRun_RejectsInvalidParamsBeforeProcessing(t *testing.T) {
	p := DefaultParams()
	p.RFact = -5
	res, err := Run([]catalog.Event{testutil.Event("a", 6, 0, 0, 0)}, p)
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestRun_EmptyAndSingleton(t *testing.T) {
	res, err := Run(nil, DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, res.Independent())
	assert.Empty(t, res.Dependent())

	res, err = Run([]catalog.Event{testutil.Event("solo", 6.5, 0, 35, 139)}, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, testutil.IDs(res.Independent()))
	assert.Empty(t, res.Dependent())
}

func TestLookbackDays_ClampsToBounds(t *testing.T) {
	p := DefaultParams()
	// High-magnitude clusters collapse to tau_min.
	assert.Equal(t, p.TauMinDays, lookbackDays(6.5, p))
	// Near-xmeff clusters saturate at tau_max.
	assert.Equal(t, p.TauMaxDays, lookbackDays(p.XMeff-2, p))
	// Extreme exponents take the overflow guard.
	assert.Equal(t, p.TauMinDays, lookbackDays(500, p))
}

func TestInteractionRadius_ScalesWithRFact(t *testing.T) {
	r1 := interactionRadiusKm(6.0, 1)
	r10 := interactionRadiusKm(6.0, 10)
	assert.InDelta(t, r1*10, r10, 1e-9)
	// rfact=10, M6.0: 10 * 10^(0.684) ~ 48.3 km
	assert.InDelta(t, 48.3, r10, 0.2)
}

func TestRun_AftershockJoinsCluster(t *testing.T) {
	events := []catalog.Event{
		testutil.Event("main", 6.5, 0, 35.0, 139.0),
		testutil.Event("after", 5.0, testutil.Days(0.5), 35.05, 139.05),
	}
	res, err := Run(events, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, []string{"main"}, testutil.IDs(res.Independent()))
	require.Equal(t, []string{"after"}, testutil.IDs(res.Dependent()))

	attr := res.DependentAttribution()[0]
	assert.Equal(t, "main", attr.ParentID)
	assert.Equal(t, 6.5, attr.ParentMagnitude)
	assert.InDelta(t, 12*3600.0, attr.DeltaTSeconds, 1.0)
	assert.InDelta(t, 7.2, attr.DeltaDistanceKm, 0.5)
}

func TestRun_ForeshockReassignedWhenLargerEventJoins(t *testing.T) {
	// The small event opens the cluster; when the large one joins, the
	// cluster's mainshock moves and the opener becomes a dependent
	// foreshock with a negative delta.
	events := []catalog.Event{
		testutil.Event("foreshock", 4.0, 0, 35.0, 139.0),
		testutil.Event("mainshock", 6.0, testutil.Days(0.5), 35.01, 139.01),
	}
	res, err := Run(events, DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, []string{"mainshock"}, testutil.IDs(res.Independent()))
	require.Equal(t, []string{"foreshock"}, testutil.IDs(res.Dependent()))

	attr := res.DependentAttribution()[0]
	assert.Equal(t, "mainshock", attr.ParentID)
	assert.Negative(t, attr.DeltaTSeconds)
}

// Five decaying events chained inside the lookback window, then a gap of
// 30 days: the first cluster must be closed before the sixth event is
// evaluated, so the sixth opens a new singleton.
func TestRun_ClusterClosure(t *testing.T) {
	events := []catalog.Event{
		testutil.Event("m1", 6.0, 0, 35.0, 139.0),
		testutil.Event("m2", 5.5, testutil.Days(0.5), 35.02, 139.02),
		testutil.Event("m3", 5.0, testutil.Days(0.9), 35.01, 139.03),
		testutil.Event("m4", 4.5, testutil.Days(1.2), 35.03, 139.01),
		testutil.Event("m5", 4.0, testutil.Days(1.4), 35.02, 139.0),
		testutil.Event("late", 5.8, testutil.Days(31.4), 35.0, 139.0),
	}
	res, err := Run(events, DefaultParams())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"m1", "late"}, testutil.IDs(res.Independent()))
	assert.Equal(t, []string{"m2", "m3", "m4", "m5"}, testutil.IDs(res.Dependent()))

	for _, attr := range res.DependentAttribution() {
		assert.Equal(t, "m1", attr.ParentID)
		assert.Equal(t, 6.0, attr.ParentMagnitude)
	}
}

// When an event qualifies for two open clusters, the cluster with the
// greater maximum magnitude absorbs it.
func TestRun_AmbiguousEventJoinsDominantCluster(t *testing.T) {
	events := []catalog.Event{
		testutil.Event("big", 6.5, 0, 35.0, 139.0),
		testutil.Event("small", 5.5, 0, 35.5, 139.5),
		testutil.Event("between", 4.0, testutil.Days(0.5), 35.27, 139.27),
	}
	res, err := Run(events, DefaultParams())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"big", "small"}, testutil.IDs(res.Independent()))
	require.Equal(t, []string{"between"}, testutil.IDs(res.Dependent()))
	assert.Equal(t, "big", res.DependentAttribution()[0].ParentID)
}

func TestRun_IndependentFarApartEvents(t *testing.T) {
	events := []catalog.Event{
		testutil.Event("a", 6.0, 0, 35, 139),
		testutil.Event("b", 6.0, testutil.Days(0.5), -33, -70),
		testutil.Event("c", 6.0, testutil.Days(1.0), 60, 10),
	}
	res, err := Run(events, DefaultParams())
	require.NoError(t, err)
	assert.Len(t, res.Independent(), 3)
	assert.Empty(t, res.Dependent())
}

func TestRun_PartitionCompleteAndInputOrder(t *testing.T) {
	events := []catalog.Event{
		testutil.Event("x1", 5.0, testutil.Days(0.3), 35.02, 139.02),
		testutil.Event("x2", 6.5, 0, 35.0, 139.0),
		testutil.Event("x3", 4.5, testutil.Days(0.6), 35.01, 139.01),
		testutil.Event("x4", 6.0, testutil.Days(100), -20, 50),
	}
	res, err := Run(events, DefaultParams())
	require.NoError(t, err)

	ind, dep := res.Independent(), res.Dependent()
	assert.Equal(t, len(events), len(ind)+len(dep))
	// Output respects original input order, not chronological order.
	assert.Equal(t, []string{"x2", "x4"}, testutil.IDs(ind))
	assert.Equal(t, []string{"x1", "x3"}, testutil.IDs(dep))
}
