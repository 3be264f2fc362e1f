// Package overlap detects conflicts between half-open time intervals of the
// same day.
package overlap

import (
	"time"
)

// Interval is the half-open span [Start, End) of a record identified by ID
type Interval struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Pair is two overlapping intervals, First preceding Second in input order
type Pair struct {
	First  Interval
	Second Interval
}

// Overlaps reports whether a and b intersect. Touching intervals do not.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Find returns the intervals of existing that overlap candidate, in input
// order. Callers pass only intervals of the candidate's date.
func Find(candidate Interval, existing []Interval) []Interval {
	var found []Interval
	for _, other := range existing {
		if Overlaps(candidate, other) {
			found = append(found, other)
		}
	}
	return found
}

// Pairs returns every overlapping pair among intervals
func Pairs(intervals []Interval) []Pair {
	var pairs []Pair
	for i := range intervals {
		for j := i + 1; j < len(intervals); j++ {
			if Overlaps(intervals[i], intervals[j]) {
				pairs = append(pairs, Pair{First: intervals[i], Second: intervals[j]})
			}
		}
	}
	return pairs
}
