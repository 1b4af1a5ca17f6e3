package models

import "time"

// DateRange is an inclusive instant interval with Start <= End.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SingleDay reports whether both bounds fall on the same calendar day in loc.
func (r DateRange) SingleDay(loc *time.Location) bool {
	sy, sm, sd := r.Start.In(loc).Date()
	ey, em, ed := r.End.In(loc).Date()
	return sy == ey && sm == em && sd == ed
}

// Contains reports whether t lies within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
