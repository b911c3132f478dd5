package decluster

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/nornir-works/urd/internal/catalog"
	"github.com/nornir-works/urd/internal/geo"
	"github.com/nornir-works/urd/internal/window"
)

// Mode selects how multi-parent ambiguity is resolved.
type Mode int

const (
	// SingleClaim assigns each dependent event to the first qualifying
	// event in magnitude-descending processing order and never revisits
	// the assignment.
	SingleClaim Mode = iota

	// Reevaluate recomputes the attribution for every qualifying parent
	// and keeps the one closest in time: when two mainshock windows both
	// claim an event, the parent is the mainshock with the smallest
	// absolute elapsed time, ties broken by smaller distance and then by
	// the earlier-processed parent.
	Reevaluate
)

// Engine classifies a catalog against a window model. Construct with New;
// a zero Engine is not usable.
type Engine struct {
	model window.Model
	mode  Mode
}

// New builds an engine. A nil model or unknown mode is a configuration
// error.
func New(model window.Model, mode Mode) (*Engine, error) {
	if model == nil {
		return nil, fmt.Errorf("decluster: window model is required")
	}
	if mode != SingleClaim && mode != Reevaluate {
		return nil, fmt.Errorf("decluster: unknown mode %d", mode)
	}
	return &Engine{model: model, mode: mode}, nil
}

// Run partitions the catalog. The input slice is not mutated; the returned
// Result references it in original order. An empty catalog yields an empty
// partition, a singleton catalog yields one independent event.
func (e *Engine) Run(events []catalog.Event) *Result {
	n := len(events)
	res := &Result{
		Events: events,
		States: make([]State, n),
	}
	for i := range res.States {
		res.States[i].Parent = -1
	}
	if n < 2 {
		return res
	}

	// Magnitude-descending processing order; ties by ascending timestamp,
	// then ascending event ID, so equal-magnitude ordering is a stable,
	// documented total order.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := &events[order[a]], &events[order[b]]
		if ea.Magnitude != eb.Magnitude {
			return ea.Magnitude > eb.Magnitude
		}
		if !ea.Time.Equal(eb.Time) {
			return ea.Time.Before(eb.Time)
		}
		return ea.ID < eb.ID
	})

	for _, p := range order {
		// A dependent event never triggers: its window is subsumed into
		// its parent's cluster.
		if res.States[p].Class == Dependent {
			continue
		}
		e.claim(events, res.States, p)
	}

	independent, dependent := res.Counts()
	slog.Debug("declustering pass complete",
		"model", e.model.Name(),
		"events", n,
		"independent", independent,
		"dependent", dependent,
	)

	return res
}

// claim scans the whole catalog for events inside p's window and tags or
// re-attributes them according to the engine mode.
func (e *Engine) claim(events []catalog.Event, states []State, p int) {
	parent := &events[p]
	w := e.model.Window(parent.Magnitude)
	maxSeconds := w.Seconds()

	for q := range events {
		if q == p {
			continue
		}
		if events[q].Magnitude > parent.Magnitude {
			continue
		}
		if e.mode == SingleClaim && states[q].Class == Dependent {
			continue
		}

		// Temporal reject first: it is the cheap half of the box test.
		deltaT := events[q].Time.Sub(parent.Time).Seconds()
		if math.Abs(deltaT) > maxSeconds {
			continue
		}

		dist := geo.DistanceKm(parent.Latitude, parent.Longitude, events[q].Latitude, events[q].Longitude)
		if dist > w.DistanceKm {
			continue
		}

		cand := catalog.Attribution{
			ParentID:        parent.ID,
			ParentMagnitude: parent.Magnitude,
			DeltaTSeconds:   deltaT,
			DeltaDistanceKm: dist,
		}

		if states[q].Class == Dependent {
			// Reevaluate mode only: keep the assignment closest in
			// time, then closest in space, then the earlier-processed
			// parent (strict inequality keeps the incumbent on full
			// ties, and processing order guarantees the incumbent was
			// processed earlier).
			cur := &states[q].Attr
			better := math.Abs(deltaT) < math.Abs(cur.DeltaTSeconds) ||
				(math.Abs(deltaT) == math.Abs(cur.DeltaTSeconds) && dist < cur.DeltaDistanceKm)
			if !better {
				continue
			}
		}

		states[q].Class = Dependent
		states[q].Parent = p
		states[q].Attr = cand
	}
}
