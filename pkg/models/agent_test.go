package models

import (
	"testing"
	"time"
)

func TestAgent_DefaultValues(t *testing.T) {
	agent := Agent{}

	if agent.ID != "" {
		t.Errorf("Agent.ID default should be empty string, got %q", agent.ID)
	}
	if agent.Status != "" {
		t.Errorf("Agent.Status default should be empty string, got %q", agent.Status)
	}
	if agent.CalendarConnected {
		t.Error("Agent.CalendarConnected default should be false")
	}
	if !agent.CreatedAt.IsZero() {
		t.Errorf("Agent.CreatedAt default should be zero time, got %v", agent.CreatedAt)
	}
	if agent.ConversationLength != 0 {
		t.Errorf("Agent.ConversationLength default should be 0, got %d", agent.ConversationLength)
	}
}

func TestAgent_Fields(t *testing.T) {
	now := time.Now()
	agent := Agent{
		ID:                 "agent_u1_0badc0de",
		IdentityID:         "u1",
		Role:               RoleEmployee,
		Status:             StatusConnected,
		CalendarConnected:  true,
		CreatedAt:          now,
		ConversationLength: 4,
	}

	if agent.IdentityID != "u1" {
		t.Errorf("Agent.IdentityID = %q, want %q", agent.IdentityID, "u1")
	}
	if agent.Role != RoleEmployee {
		t.Errorf("Agent.Role = %q, want %q", agent.Role, RoleEmployee)
	}
	if !agent.CreatedAt.Equal(now) {
		t.Errorf("Agent.CreatedAt = %v, want %v", agent.CreatedAt, now)
	}
}

func TestAvailability(t *testing.T) {
	if a := Free(); !a.Free || a.Conflicts != 0 {
		t.Errorf("Free() = %+v", a)
	}
	if a := Busy(3); a.Free || a.Conflicts != 3 {
		t.Errorf("Busy(3) = %+v", a)
	}
	if a := Busy(0); a.Conflicts != 1 {
		t.Errorf("Busy(0).Conflicts = %d, want 1", a.Conflicts)
	}
	if got := Busy(2).String(); got != "busy (2 conflicts)" {
		t.Errorf("Busy(2).String() = %q", got)
	}
}

func TestProbeResult_IsFree(t *testing.T) {
	tests := []struct {
		name string
		r    ProbeResult
		want bool
	}{
		{"free", ProbeResult{Availability: Free()}, true},
		{"busy", ProbeResult{Availability: Busy(1)}, false},
		{"error counts as busy", ProbeResult{Availability: Free(), Err: errTest}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.IsFree(); got != tt.want {
				t.Errorf("IsFree() = %v, want %v", got, tt.want)
			}
		})
	}
}
