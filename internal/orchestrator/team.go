package orchestrator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ShayCichocki/crewcal/internal/timeparse"
	"github.com/ShayCichocki/crewcal/pkg/models"
)

// TimezoneCount is one row of the timezone distribution.
type TimezoneCount struct {
	Timezone string
	Count    int
}

// MemberStatus is one employee's situation at the summary instant.
type MemberStatus struct {
	Identity  models.Identity
	LocalTime time.Time
	Shift     Shift
}

// TeamSummary aggregates the employee population.
type TeamSummary struct {
	Total         int
	Connected     int
	SetupRequired int
	Inactive      int
	Timezones     []TimezoneCount
	Members       []MemberStatus
}

// Summarize computes counts by status, the timezone distribution and each
// member's local time at now.
func Summarize(employees []models.Identity, now time.Time) TeamSummary {
	s := TeamSummary{Total: len(employees)}
	counts := make(map[string]int)

	for _, e := range employees {
		switch e.Status {
		case models.StatusConnected:
			s.Connected++
		case models.StatusCreated:
			s.SetupRequired++
		default:
			s.Inactive++
		}

		tz := e.Location().String()
		counts[tz]++

		local := now.In(e.Location())
		s.Members = append(s.Members, MemberStatus{
			Identity:  e,
			LocalTime: local,
			Shift:     ShiftOf(local.Hour()),
		})
	}

	for tz, n := range counts {
		s.Timezones = append(s.Timezones, TimezoneCount{Timezone: tz, Count: n})
	}
	sort.Slice(s.Timezones, func(i, j int) bool {
		if s.Timezones[i].Count != s.Timezones[j].Count {
			return s.Timezones[i].Count > s.Timezones[j].Count
		}
		return s.Timezones[i].Timezone < s.Timezones[j].Timezone
	})
	return s
}

// Render formats the summary as a chat reply.
func (s TeamSummary) Render() string {
	if s.Total == 0 {
		return "Your team has no members yet."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Team status: %d members\n", s.Total)
	fmt.Fprintf(&b, "• Connected: %d\n", s.Connected)
	fmt.Fprintf(&b, "• Setup required: %d\n", s.SetupRequired)
	fmt.Fprintf(&b, "• Inactive: %d\n", s.Inactive)

	b.WriteString("\nTimezones:\n")
	for _, tz := range s.Timezones {
		fmt.Fprintf(&b, "• %s: %d\n", tz.Timezone, tz.Count)
	}

	b.WriteString("\nMembers:\n")
	for _, m := range s.Members {
		fmt.Fprintf(&b, "• %s: %s (%s shift, %s)\n",
			m.Identity.DisplayName, m.LocalTime.Format("Mon 3:04 PM MST"), m.Shift, statusLabel(m.Identity.Status))
	}
	return strings.TrimRight(b.String(), "\n")
}

func statusLabel(s models.ConnectionStatus) string {
	switch s {
	case models.StatusConnected:
		return "connected"
	case models.StatusCreated:
		return "setup required"
	default:
		return "inactive"
	}
}

// RenderAvailability lists free, busy and unreachable members for a window.
func RenderAvailability(results []models.ProbeResult, at time.Time, hours float64) string {
	var free, busy, failed []string
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed = append(failed, r.Identity.DisplayName)
		case r.Availability.Free:
			free = append(free, r.Identity.DisplayName)
		default:
			busy = append(busy, fmt.Sprintf("%s (%d conflicts)", r.Identity.DisplayName, r.Availability.Conflicts))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Team availability for %s (%g h):\n", timeparse.Format(at), hours)
	writeGroup(&b, "Free", free)
	writeGroup(&b, "Busy", busy)
	writeGroup(&b, "Unavailable", failed)
	return strings.TrimRight(b.String(), "\n")
}

func writeGroup(b *strings.Builder, label string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", label)
	for _, n := range names {
		fmt.Fprintf(b, "• %s\n", n)
	}
}
