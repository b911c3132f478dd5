// Package decluster implements magnitude-ordered Gardner-Knopoff style
// catalog declustering.
//
// The engine is a pure batch transform: given an event slice and a window
// model it produces a partition of the catalog into independent
// (mainshock) and dependent (aftershock/foreshock) events, with optional
// parent attribution. The same input and configuration always produce the
// same partition.
//
// Processing order is magnitude descending, ties broken by ascending
// timestamp and then ascending event ID. An event that has been tagged
// dependent never acts as a trigger for smaller events. The pairwise scan
// is O(n^2) with an early temporal reject; catalogs in the tens of
// thousands complete in seconds.
//
// Events are never mutated. Classification lives in a per-run state array
// parallel to the input slice, with a single writer per pass.
package decluster
