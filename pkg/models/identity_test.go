package models

import (
	"errors"
	"testing"
)

var errTest = errors.New("test error")

func TestConnectionStatus_Valid(t *testing.T) {
	tests := []struct {
		status ConnectionStatus
		want   bool
	}{
		{StatusNone, true},
		{StatusCreated, true},
		{StatusConnected, true},
		{ConnectionStatus(""), false},
		{ConnectionStatus("calendar_connected"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("ConnectionStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestConnectionStatus_Eligible(t *testing.T) {
	if StatusNone.Eligible() {
		t.Error("none should not be eligible")
	}
	if !StatusCreated.Eligible() || !StatusConnected.Eligible() {
		t.Error("created and connected should be eligible")
	}
}

func TestIdentity_Validate(t *testing.T) {
	base := Identity{
		ID:          "u1",
		Role:        RoleEmployee,
		DisplayName: "Ada",
		Timezone:    "Europe/London",
		Status:      StatusCreated,
	}

	tests := []struct {
		name    string
		mutate  func(*Identity)
		wantErr bool
		is      error
	}{
		{"valid created", func(*Identity) {}, false, nil},
		{"valid connected", func(i *Identity) { i.Status = StatusConnected; i.CredentialHandle = "cred-1" }, false, nil},
		{"connected without handle", func(i *Identity) { i.Status = StatusConnected }, true, ErrCredentialMismatch},
		{"handle without connection", func(i *Identity) { i.CredentialHandle = "cred-1" }, true, ErrCredentialMismatch},
		{"missing id", func(i *Identity) { i.ID = "" }, true, nil},
		{"missing name", func(i *Identity) { i.DisplayName = "" }, true, nil},
		{"bad role", func(i *Identity) { i.Role = "boss" }, true, nil},
		{"bad timezone", func(i *Identity) { i.Timezone = "Mars/Olympus" }, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := base
			tt.mutate(&id)
			err := id.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("Validate() error = %v, want errors.Is %v", err, tt.is)
			}
		})
	}
}

func TestIdentity_Location(t *testing.T) {
	id := Identity{Timezone: "Asia/Tokyo"}
	if got := id.Location().String(); got != "Asia/Tokyo" {
		t.Errorf("Location() = %q, want Asia/Tokyo", got)
	}
	id.Timezone = "Not/AZone"
	if got := id.Location(); got != nil && got.String() != "UTC" {
		t.Errorf("Location() for unknown zone = %q, want UTC", got)
	}
}

func TestSupervisor_Title(t *testing.T) {
	s := Supervisor{}
	if s.Title() != DefaultPosition {
		t.Errorf("Title() = %q, want %q", s.Title(), DefaultPosition)
	}
	s.Position = "CTO"
	if s.Title() != "CTO" {
		t.Errorf("Title() = %q, want CTO", s.Title())
	}
}
