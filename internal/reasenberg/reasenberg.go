// Package reasenberg implements Reasenberg (1985) interaction-based
// cluster analysis.
//
// Unlike the Gardner-Knopoff family, events are processed in chronological
// order and clusters grow adaptively: an open cluster accepts a new event
// when it falls inside the cluster's interaction radius and its adaptive
// lookback window. The lookback window follows an Omori-law decay model
// driven by the cluster's largest magnitude and the target non-detection
// probability, clamped to [TauMinDays, TauMaxDays]. The algorithm is
// inherently sequential; cluster membership depends on prior cluster state.
package reasenberg

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/nornir-works/urd/internal/catalog"
	"github.com/nornir-works/urd/internal/decluster"
	"github.com/nornir-works/urd/internal/geo"
)

// Params holds the five Reasenberg tuning parameters.
type Params struct {
	// RFact scales the nominal location-uncertainty interaction radius.
	RFact float64

	// TauMinDays and TauMaxDays bound the adaptive lookback window.
	TauMinDays float64
	TauMaxDays float64

	// P is the Omori decay probability threshold for observing the next
	// event in an active sequence.
	P float64

	// XMeff is the effective magnitude floor: smaller events do not
	// extend a cluster's lookback window.
	XMeff float64
}

// DefaultParams returns the literature-standard defaults.
func DefaultParams() Params {
	return Params{
		RFact:      10,
		TauMinDays: 1,
		TauMaxDays: 10,
		P:          0.95,
		XMeff:      1.5,
	}
}

// Validate rejects invalid parameter combinations before any event is
// processed.
func (p Params) Validate() error {
	if p.RFact <= 0 {
		return fmt.Errorf("reasenberg: r_fact must be positive, got %v", p.RFact)
	}
	if p.TauMinDays <= 0 {
		return fmt.Errorf("reasenberg: tau_min must be positive, got %v", p.TauMinDays)
	}
	if p.TauMinDays > p.TauMaxDays {
		return fmt.Errorf("reasenberg: tau_min %v exceeds tau_max %v", p.TauMinDays, p.TauMaxDays)
	}
	if p.P <= 0 || p.P >= 1 {
		return fmt.Errorf("reasenberg: p must be in (0, 1), got %v", p.P)
	}
	return nil
}

// interactionRadiusKm is the interaction zone for a cluster whose largest
// magnitude is mmax: rfact * 10^(0.11*M + 0.024) km.
func interactionRadiusKm(mmax, rfact float64) float64 {
	return rfact * math.Pow(10, 0.11*mmax+0.024)
}

// omoriB is the aftershock productivity slope in the lookback model.
const omoriB = 1.0

// lookbackDays is the adaptive crack time tau for a cluster of largest
// magnitude mmax, clamped to [tauMin, tauMax]. The effective magnitude
// floor enters through the 10^(b*(mmax-xmeff)) rate term.
func lookbackDays(mmax float64, p Params) float64 {
	exponent := omoriB * (mmax - p.XMeff)
	// Very large exponents would overflow the rate term; the window has
	// already collapsed to the floor at that point.
	if exponent > 300 {
		return p.TauMinDays
	}
	lambda := math.Pow(10, exponent)
	tau := -math.Log(1-p.P) / lambda
	return math.Min(p.TauMaxDays, math.Max(p.TauMinDays, tau))
}

// cluster is the per-cluster growth state. A cluster opens as a singleton
// and closes permanently once an event arrives beyond its lookback window;
// closed clusters are immutable.
type cluster struct {
	maxMag  float64
	mainIdx int   // chronological index of the largest-magnitude member
	lastIdx int   // chronological index of the most recent member
	members []int // chronological indices
	closed  bool
}

// Run clusters the catalog and returns the partition in original input
// order: each multi-event cluster contributes its largest-magnitude member
// as independent and the rest as dependents attributed to it; singleton
// clusters are independent.
func Run(events []catalog.Event, params Params) (*decluster.Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	n := len(events)
	res := &decluster.Result{
		Events: events,
		States: make([]decluster.State, n),
	}
	for i := range res.States {
		res.States[i].Parent = -1
	}
	if n < 2 {
		return res, nil
	}

	// Chronological processing order, ties by ascending event ID.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := &events[order[a]], &events[order[b]]
		if !ea.Time.Equal(eb.Time) {
			return ea.Time.Before(eb.Time)
		}
		return ea.ID < eb.ID
	})

	var clusters []*cluster

	for pos, idx := range order {
		ev := &events[idx]
		best := -1

		for ci, c := range clusters {
			if c.closed {
				continue
			}
			last := &events[order[c.lastIdx]]
			dtDays := ev.Time.Sub(last.Time).Seconds() / 86400.0
			if dtDays > lookbackDays(c.maxMag, params) {
				// Chronological processing: no later event can be
				// closer in time, so the cluster is finished.
				c.closed = true
				continue
			}
			main := &events[order[c.mainIdx]]
			dist := geo.DistanceKm(ev.Latitude, ev.Longitude, main.Latitude, main.Longitude)
			if dist > interactionRadiusKm(c.maxMag, params.RFact) {
				continue
			}
			if best == -1 || betterHost(events, order, clusters[best], c, ev) {
				best = ci
			}
		}

		if best >= 0 {
			c := clusters[best]
			c.members = append(c.members, pos)
			if ev.Magnitude > c.maxMag {
				c.maxMag = ev.Magnitude
				c.mainIdx = pos
			}
			c.lastIdx = pos
		} else {
			clusters = append(clusters, &cluster{
				maxMag:  ev.Magnitude,
				mainIdx: pos,
				lastIdx: pos,
				members: []int{pos},
			})
		}
	}

	// Classification: within each multi-event cluster the largest member
	// is the mainshock, everything else is dependent on it.
	multi := 0
	for _, c := range clusters {
		if len(c.members) < 2 {
			continue
		}
		multi++
		mainInput := order[c.mainIdx]
		main := &events[mainInput]
		for _, pos := range c.members {
			if pos == c.mainIdx {
				continue
			}
			inputIdx := order[pos]
			ev := &events[inputIdx]
			res.States[inputIdx] = decluster.State{
				Class:  decluster.Dependent,
				Parent: mainInput,
				Attr: catalog.Attribution{
					ParentID:        main.ID,
					ParentMagnitude: main.Magnitude,
					DeltaTSeconds:   ev.Time.Sub(main.Time).Seconds(),
					DeltaDistanceKm: geo.DistanceKm(main.Latitude, main.Longitude, ev.Latitude, ev.Longitude),
				},
			}
		}
	}

	independent, dependent := res.Counts()
	slog.Debug("reasenberg pass complete",
		"events", n,
		"clusters", len(clusters),
		"multi_event_clusters", multi,
		"independent", independent,
		"dependent", dependent,
	)

	return res, nil
}

// betterHost reports whether candidate should absorb the event instead of
// the incumbent when the event qualifies for both open clusters. The
// dominant mainshock wins: greatest maximum magnitude first, then the
// cluster whose last member is closest in time, then the earliest-opened
// cluster (the incumbent, since clusters are scanned in open order).
func betterHost(events []catalog.Event, order []int, incumbent, candidate *cluster, ev *catalog.Event) bool {
	if candidate.maxMag != incumbent.maxMag {
		return candidate.maxMag > incumbent.maxMag
	}
	incLast := &events[order[incumbent.lastIdx]]
	candLast := &events[order[candidate.lastIdx]]
	return ev.Time.Sub(candLast.Time) < ev.Time.Sub(incLast.Time)
}
