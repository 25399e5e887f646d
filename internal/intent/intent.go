// Package intent classifies a spoken query into the coarse category that
// decides which response path the orchestrator takes.
package intent

import "strings"

// Intent is the category of a user query.
type Intent int

const (
	General Intent = iota
	Telemetry
	Reference
	ModeSwitch
)

func (i Intent) String() string {
	switch i {
	case Telemetry:
		return "telemetry"
	case Reference:
		return "reference"
	case ModeSwitch:
		return "mode_switch"
	default:
		return "general"
	}
}

// Keyword sets are matched as substrings over the lowercased query, not as
// whole words: "status" matches "statuses". Precedence is mode switch, then
// reference, then telemetry.
var (
	modeSwitchKeywords = []string{"switch", "mode"}
	referenceKeywords  = []string{"flap", "gear", "rip", "limit", "wing"}
	telemetryKeywords  = []string{"fuel", "g", "temperature", "damage", "status", "aoa", "speed"}
)

// Classify maps free text to an intent. Pure and stateless.
func Classify(text string) Intent {
	lowered := strings.ToLower(text)
	switch {
	case containsAny(lowered, modeSwitchKeywords):
		return ModeSwitch
	case containsAny(lowered, referenceKeywords):
		return Reference
	case containsAny(lowered, telemetryKeywords):
		return Telemetry
	default:
		return General
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
