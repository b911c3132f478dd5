package decluster

import "github.com/nornir-works/urd/internal/catalog"

// Class tags an event's final classification.
type Class uint8

const (
	// Independent marks a mainshock: not inside any qualifying larger
	// event's window.
	Independent Class = iota

	// Dependent marks an aftershock or foreshock attributed to a parent.
	Dependent
)

func (c Class) String() string {
	if c == Dependent {
		return "dependent"
	}
	return "independent"
}

// State is the per-event classification produced by a run. Parent is the
// input-order index of the assigned parent, or -1 for independent events.
type State struct {
	Class  Class
	Parent int
	Attr   catalog.Attribution
}

// Result is a frozen declustering partition. Events holds the input slice
// in its original order; States is parallel to it.
type Result struct {
	Events []catalog.Event
	States []State
}

// Independent returns the independent events in original input order.
func (r *Result) Independent() []catalog.Event {
	out := make([]catalog.Event, 0, len(r.Events))
	for i, ev := range r.Events {
		if r.States[i].Class == Independent {
			out = append(out, ev)
		}
	}
	return out
}

// Dependent returns the dependent events in original input order.
func (r *Result) Dependent() []catalog.Event {
	out := make([]catalog.Event, 0, len(r.Events))
	for i, ev := range r.Events {
		if r.States[i].Class == Dependent {
			out = append(out, ev)
		}
	}
	return out
}

// DependentAttribution returns the attribution records parallel to
// Dependent().
func (r *Result) DependentAttribution() []catalog.Attribution {
	out := make([]catalog.Attribution, 0, len(r.Events))
	for i := range r.Events {
		if r.States[i].Class == Dependent {
			out = append(out, r.States[i].Attr)
		}
	}
	return out
}

// Counts returns the number of independent and dependent events.
func (r *Result) Counts() (independent, dependent int) {
	for i := range r.States {
		if r.States[i].Class == Dependent {
			dependent++
		} else {
			independent++
		}
	}
	return independent, dependent
}
