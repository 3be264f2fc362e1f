// Package clock turns the calendar dates and wall-clock times typed by team
// members into instants in the team's shared timezone.
package clock

import (
	"time"

	"github.com/korjavin/teamslots/pkg/apperr"
)

const (
	// DateLayout is the layout of slot dates
	DateLayout = "2006-01-02"
	// TimeLayout is the layout of slot start and end times
	TimeLayout = "15:04"
)

// Resolver resolves dates and times in a single location
type Resolver struct {
	loc *time.Location
	now func() time.Time
}

// New creates a resolver for loc. A nil location means local time.
func New(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{loc: loc, now: time.Now}
}

// WithNow returns a copy of the resolver that reads the current time from now
func (r *Resolver) WithNow(now func() time.Time) *Resolver {
	return &Resolver{loc: r.loc, now: now}
}

// Location returns the resolver's location
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Now returns the current instant in the resolver's location
func (r *Resolver) Now() time.Time {
	return r.now().In(r.loc)
}

// Today returns the current date in the resolver's location
func (r *Resolver) Today() string {
	return r.Now().Format(DateLayout)
}

// Resolve combines a YYYY-MM-DD date and an H:MM or HH:MM 24-hour time
func (r *Resolver) Resolve(date, timeOfDay string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+timeOfDay, r.loc)
	if err != nil {
		return time.Time{}, apperr.Wrapf(err, apperr.KindParse, "Invalid date/time format: %s %s", date, timeOfDay)
	}
	return t, nil
}

// ValidDate reports whether date is a YYYY-MM-DD calendar date
func ValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

// NormalizeTime returns timeOfDay zero-padded as HH:MM
func NormalizeTime(timeOfDay string) (string, error) {
	t, err := time.Parse(TimeLayout, timeOfDay)
	if err != nil {
		return "", apperr.Wrap(err, apperr.KindParse, "Times must be HH:MM (24-hour).")
	}
	return t.Format(TimeLayout), nil
}
