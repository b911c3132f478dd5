// Package testutil provides catalog builders shared by engine tests.
package testutil

import (
	"time"

	"github.com/nornir-works/urd/internal/catalog"
)

// Epoch is the reference instant synthetic test catalogs are built around.
var Epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Event builds a catalog event at an offset from Epoch.
func Event(id string, mag float64, offset time.Duration, lat, lon float64) catalog.Event {
	return catalog.Event{
		ID:        id,
		Magnitude: mag,
		Time:      Epoch.Add(offset),
		Latitude:  lat,
		Longitude: lon,
	}
}

// Days converts a day count to a duration, the unit windows are stated in.
func Days(d float64) time.Duration {
	return time.Duration(d * 24 * float64(time.Hour))
}

// IDs projects events onto their identifiers, preserving order.
func IDs(events []catalog.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}
