package timeparse

import (
	"errors"
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return loc
}

func TestResolve_Layouts(t *testing.T) {
	berlin := mustLoad(t, "Europe/Berlin")
	now := time.Date(2025, 7, 10, 9, 0, 0, 0, berlin)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-07-12 14:00", time.Date(2025, 7, 12, 14, 0, 0, 0, berlin)},
		{"2025-07-12T14:00", time.Date(2025, 7, 12, 14, 0, 0, 0, berlin)},
		{"2025-07-12T14:00:30", time.Date(2025, 7, 12, 14, 0, 30, 0, berlin)},
		{"2025-07-12 2:30PM", time.Date(2025, 7, 12, 14, 30, 0, 0, berlin)},
		{"  2025-07-12 3pm ", time.Date(2025, 7, 12, 15, 0, 0, 0, berlin)},
		{"2025-07-12T12:00:00Z", time.Date(2025, 7, 12, 14, 0, 0, 0, berlin)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Resolve(tt.in, berlin, now)
			if err != nil {
				t.Fatalf("Resolve(%q) error: %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if got.Location() != berlin {
				t.Errorf("Resolve(%q) location = %v, want Europe/Berlin", tt.in, got.Location())
			}
		})
	}
}

func TestResolve_Natural(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	now := time.Date(2025, 7, 10, 9, 0, 0, 0, tokyo)

	got, err := Resolve("tomorrow at 3pm", tokyo, now)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got.Day() != 11 || got.Hour() != 15 {
		t.Errorf("tomorrow at 3pm = %v, want Jul 11 15:00", got)
	}
}

func TestResolve_Unparseable(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-time"} {
		t.Run(in, func(t *testing.T) {
			_, err := Resolve(in, time.UTC, time.Now())
			if !errors.Is(err, ErrUnparseable) {
				t.Errorf("Resolve(%q) err = %v, want ErrUnparseable", in, err)
			}
		})
	}
}

func TestHour(t *testing.T) {
	h, err := Hour("2025-07-12 14:00", nil, time.Now())
	if err != nil {
		t.Fatalf("Hour error: %v", err)
	}
	if h != 14 {
		t.Errorf("Hour = %d, want 14", h)
	}
}

func TestFormat(t *testing.T) {
	ts := time.Date(2025, 7, 12, 14, 0, 0, 0, time.UTC)
	if got := Format(ts); got != "Sat Jul 12 2025, 2:00 PM UTC" {
		t.Errorf("Format = %q", got)
	}
}
