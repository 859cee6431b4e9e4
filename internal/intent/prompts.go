package intent

import (
	"fmt"
	"strings"
	"time"
)

// Role selects which action shapes the parser accepts.
type Role string

const (
	// RoleAssistant accepts calendar actions on the caller's own calendar.
	RoleAssistant Role = "assistant"
	// RoleSupervisor accepts team workflow directives.
	RoleSupervisor Role = "supervisor"
)

const assistantSchemas = `{"action":"create_event","title":"<string>","start_time":"<ISO 8601 local time or phrase>","duration_hours":<number>,"description":"<optional string>"}
{"action":"list_events","lookahead_days":<integer>}
{"action":"search_events","query":"<string>","range_days":<integer>}
{"action":"delete_event","search_query":"<string>"}
{"action":"check_availability","check_time":"<ISO 8601 local time>","duration_hours":<number>}`

const supervisorSchemas = `{"action":"assign_task","task_title":"<string>","target_time":"<YYYY-MM-DD HH:MM local time>","duration_hours":<number>,"priority":"low|normal|high|urgent"}
{"action":"team_status"}
{"action":"team_availability","target_time":"<YYYY-MM-DD HH:MM local time>","duration_hours":<number>}
{"action":"contact_individual","target_name":"<employee name>","message":"<string>"}`

const assistantPreamble = `You are a personal calendar assistant. Convert the user's request into exactly one JSON object.`

const supervisorPreamble = `You are a supervisor's team coordination agent. Convert the supervisor's directive into exactly one JSON object.`

const rules = `Rules:
- Reply with the JSON object only. No prose, no markdown.
- Use one of the shapes below. Every field without "optional" is required.
- Resolve relative expressions such as "tomorrow", "next week" or "in two hours" against the current time and timezone given above, and write absolute local times.
- Default duration_hours to 1, lookahead_days to 7, range_days to 30 and priority to "normal" when the user does not say.
- If the request fits none of the shapes, reply with {"action":"unknown"}.`

// Turn is one remembered dialogue message.
type Turn struct {
	// Speaker is "user" or "assistant".
	Speaker string
	Text    string
}

func schemasFor(role Role) string {
	if role == RoleSupervisor {
		return supervisorSchemas
	}
	return assistantSchemas
}

func preambleFor(role Role) string {
	if role == RoleSupervisor {
		return supervisorPreamble
	}
	return assistantPreamble
}

// buildSystemPrompt renders the instruction prompt for role, anchored at now in tz.
func buildSystemPrompt(role Role, tz string, now time.Time, history []Turn) string {
	var b strings.Builder
	b.WriteString(preambleFor(role))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Timezone: %s\n", tz)
	fmt.Fprintf(&b, "Current time: %s (%s)\n\n", now.Format("2006-01-02 15:04"), now.Format("Monday"))
	b.WriteString(rules)
	b.WriteString("\n\nShapes:\n")
	b.WriteString(schemasFor(role))

	if len(history) > 0 {
		b.WriteString("\n\nRecent conversation (oldest first):\n")
		for _, t := range history {
			fmt.Fprintf(&b, "%s: %s\n", t.Speaker, t.Text)
		}
	}
	return b.String()
}
