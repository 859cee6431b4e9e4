package orchestrator

import (
	"time"

	"github.com/ShayCichocki/crewcal/internal/timeparse"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

// Shift is the day/night attribute used to match employees to work.
type Shift string

const (
	ShiftDay   Shift = "day"
	ShiftNight Shift = "night"
)

// Day shift covers hours DayStartHour through DayEndHour inclusive.
const (
	DayStartHour = 6
	DayEndHour   = 18
)

// ShiftOf classifies an hour of day.
func ShiftOf(hour int) Shift {
	if hour >= DayStartHour && hour <= DayEndHour {
		return ShiftDay
	}
	return ShiftNight
}

// CurrentShift returns the shift identity is in at now, in its own timezone.
func CurrentShift(identity models.Identity, now time.Time) Shift {
	return ShiftOf(now.In(identity.Location()).Hour())
}

// Filter narrows the employee population to those whose current shift
// matches the shift of a target time.
type Filter struct {
	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

func (f Filter) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Apply resolves targetTime in loc and returns the identities, in input order,
// that are eligible and currently in the same shift. An unparseable target
// yields no candidates.
func (f Filter) Apply(identities []models.Identity, targetTime string, loc *time.Location) []models.Identity {
	now := f.now()
	target, err := timeparse.Resolve(targetTime, loc, now)
	if err != nil {
		return nil
	}
	want := ShiftOf(target.Hour())

	var out []models.Identity
	for _, id := range identities {
		if !id.Status.Eligible() {
			continue
		}
		if CurrentShift(id, now) == want {
			out = append(out, id)
		}
	}
	return out
}
