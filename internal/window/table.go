package window

// tableEntry is one step of the published Gardner-Knopoff (1974) window
// table: the minimum magnitude the step applies to and the window at that
// step.
type tableEntry struct {
	minMag float64
	window Window
}

// gkTable holds the published Gardner & Knopoff (1974) reference table,
// ordered by ascending magnitude threshold. These are the tabulated values,
// not the fitted continuous curve; at the same magnitude the two disagree
// (e.g. M6.0: table 54 km / 510 d vs formula ~53.2 km / ~499 d).
var gkTable = []tableEntry{
	{2.5, Window{DistanceKm: 19.5, Days: 6}},
	{3.0, Window{DistanceKm: 22.5, Days: 11.5}},
	{3.5, Window{DistanceKm: 26, Days: 22}},
	{4.0, Window{DistanceKm: 30, Days: 42}},
	{4.5, Window{DistanceKm: 35, Days: 83}},
	{5.0, Window{DistanceKm: 40, Days: 155}},
	{5.5, Window{DistanceKm: 47, Days: 290}},
	{6.0, Window{DistanceKm: 54, Days: 510}},
	{6.5, Window{DistanceKm: 61, Days: 790}},
	{7.0, Window{DistanceKm: 70, Days: 915}},
	{7.5, Window{DistanceKm: 81, Days: 960}},
	{8.0, Window{DistanceKm: 94, Days: 985}},
}

// Table is the discrete Gardner-Knopoff lookup model. Lookup selects the
// highest threshold <= the event's magnitude. Magnitudes below the lowest
// threshold (M2.5) clamp to the lowest entry; a step table has no sensible
// extrapolation below its first row and the smallest published window is
// the conservative choice.
type Table struct{}

func (Table) Window(magnitude float64) Window {
	w := gkTable[0].window
	for _, e := range gkTable {
		if magnitude >= e.minMag {
			w = e.window
		} else {
			break
		}
	}
	return w
}

func (Table) Name() string { return "gardner-knopoff-table" }
