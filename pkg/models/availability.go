package models

import "fmt"

// Availability is the outcome of an availability check.
type Availability struct {
	// Free is true when no event overlaps the checked window.
	Free bool `json:"free"`
	// Conflicts is the number of overlapping events; zero when Free.
	Conflicts int `json:"conflicts"`
}

// Free returns an availability with no conflicts.
func Free() Availability {
	return Availability{Free: true}
}

// Busy returns an availability with n conflicts. n is clamped to at least 1.
func Busy(n int) Availability {
	if n < 1 {
		n = 1
	}
	return Availability{Conflicts: n}
}

func (a Availability) String() string {
	if a.Free {
		return "free"
	}
	return fmt.Sprintf("busy (%d conflicts)", a.Conflicts)
}

// ProbeResult is one candidate's answer to an availability probe.
type ProbeResult struct {
	Identity     Identity     `json:"identity"`
	Availability Availability `json:"availability"`
	// Err is set when the probe could not be completed. Such a result
	// never counts as free.
	Err error `json:"-"`
}

// IsFree reports whether the probe completed and the candidate is free.
func (r ProbeResult) IsFree() bool {
	return r.Err == nil && r.Availability.Free
}
