package calendar

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
)

// maxOccurrences caps how many instances one recurring VEVENT may expand to.
const maxOccurrences = 500

// ImportResult counts what ImportICS did.
type ImportResult struct {
	Events  int
	Created int
	Skipped int
}

// ExpandICS parses an ICS document and returns the occurrences overlapping
// [from, to). Recurring events are expanded with their RRULE and EXDATEs.
func ExpandICS(r io.Reader, from, to time.Time) ([]Event, ImportResult, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, ImportResult{}, fmt.Errorf("parse ics: %w", err)
	}

	var result ImportResult
	var out []Event
	for _, ve := range cal.Events() {
		result.Events++
		occ, err := expandVEvent(ve, from, to)
		if err != nil {
			slog.Warn("skipping vevent", "uid", propValue(ve, ical.ComponentPropertyUniqueId), "error", err)
			result.Skipped++
			continue
		}
		out = append(out, occ...)
	}
	sortByStart(out)
	return out, result, nil
}

// ImportICS expands an ICS document into the local calendar of handle.
func ImportICS(ctx context.Context, p *LocalProvider, handle string, r io.Reader, from, to time.Time) (ImportResult, error) {
	events, result, err := ExpandICS(r, from, to)
	if err != nil {
		return result, err
	}
	for _, ev := range events {
		if _, err := p.CreateEvent(ctx, handle, ev); err != nil {
			return result, fmt.Errorf("import %q: %w", ev.Title, err)
		}
		result.Created++
	}
	return result, nil
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

func expandVEvent(ve *ical.VEvent, from, to time.Time) ([]Event, error) {
	allDay := false
	if dt := ve.GetProperty(ical.ComponentPropertyDtStart); dt != nil {
		if vs, ok := dt.ICalParameters["VALUE"]; ok && len(vs) > 0 && vs[0] == "DATE" {
			allDay = true
		}
	}

	var start, end time.Time
	var err error
	if allDay {
		start, err = ve.GetAllDayStartAt()
		if err != nil {
			return nil, fmt.Errorf("dtstart: %w", err)
		}
		end, err = ve.GetAllDayEndAt()
		if err != nil {
			end = start.AddDate(0, 0, 1)
		}
	} else {
		start, err = ve.GetStartAt()
		if err != nil {
			return nil, fmt.Errorf("dtstart: %w", err)
		}
		end, err = ve.GetEndAt()
		if err != nil {
			end = start.Add(time.Hour)
		}
	}
	if !end.After(start) {
		end = start.Add(time.Hour)
	}

	base := Event{
		Title:       propValue(ve, ical.ComponentPropertySummary),
		Description: propValue(ve, ical.ComponentPropertyDescription),
		AllDay:      allDay,
	}
	if base.Title == "" {
		base.Title = "(untitled)"
	}

	raw := propValue(ve, ical.ComponentPropertyRrule)
	if raw == "" {
		ev := base
		ev.Start, ev.End = start, end
		if !ev.Overlaps(from, to) {
			return nil, nil
		}
		return []Event{ev}, nil
	}

	rule, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, fmt.Errorf("rrule %q: %w", raw, err)
	}
	rule.DTStart(start)

	var set rrule.Set
	set.RRule(rule)
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, ex := range parseExDates(p.Value, start.Location()) {
			set.ExDate(ex)
		}
	}

	duration := end.Sub(start)
	loc := start.Location()
	starts := set.Between(from.Add(-duration).In(loc), to.In(loc), false)
	if len(starts) > maxOccurrences {
		starts = starts[:maxOccurrences]
	}

	out := make([]Event, 0, len(starts))
	for _, s := range starts {
		ev := base
		ev.Start, ev.End = s, s.Add(duration)
		if ev.Overlaps(from, to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func parseExDates(v string, loc *time.Location) []time.Time {
	var out []time.Time
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		for _, layout := range []string{"20060102T150405Z", "20060102T150405", "20060102"} {
			var t time.Time
			var err error
			if layout == "20060102T150405Z" {
				t, err = time.Parse(layout, part)
			} else {
				t, err = time.ParseInLocation(layout, part, loc)
			}
			if err == nil {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
