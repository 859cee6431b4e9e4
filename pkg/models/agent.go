package models

import "time"

// Agent describes a live agent instance built for one identity.
type Agent struct {
	// ID is unique per construction, e.g. "agent_u1_3f9a1c2e".
	ID string `json:"id"`
	// IdentityID is the directory key of the owner.
	IdentityID string `json:"identity_id"`
	// Role is the agent flavor.
	Role Role `json:"role"`
	// Status mirrors the owner's connection status at construction time.
	Status ConnectionStatus `json:"status"`
	// CalendarConnected is derived from Status and the credential handle.
	CalendarConnected bool `json:"calendar_connected"`
	// CreatedAt is when this instance was constructed.
	CreatedAt time.Time `json:"created_at"`
	// ConversationLength is the number of remembered dialogue messages.
	ConversationLength int `json:"conversation_length"`
}
