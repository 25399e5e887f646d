package brain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"chief/internal/refdata"
	"chief/internal/telemetry"
)

// Message is one entry of an ordered LLM conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SnapshotSource supplies the current telemetry snapshot. Implemented by
// state.Store; the composer only ever reads.
type SnapshotSource interface {
	Snapshot() telemetry.Snapshot
}

// ReferenceLookup resolves static limits for a vehicle name.
type ReferenceLookup interface {
	FindForVehicle(name string) (refdata.Entry, bool, error)
}

// Composer builds spoken responses and LLM context from live telemetry and
// static reference data.
type Composer struct {
	source SnapshotSource
	ref    ReferenceLookup
}

func NewComposer(source SnapshotSource, ref ReferenceLookup) *Composer {
	return &Composer{source: source, ref: ref}
}

// TelemetryOnlyResponse renders the current snapshot as a single
// comma-joined line: fuel, IAS, AoA, G-load (with optional status
// annotation) and damage, each included only when present. With nothing to
// render it returns the literal "No data".
func (c *Composer) TelemetryOnlyResponse() string {
	snap := c.source.Snapshot()

	var parts []string
	if fuel, ok := snap["fuel_percent"]; ok {
		parts = append(parts, fmt.Sprintf("Fuel: %s%%", formatValue(fuel)))
	}
	if ias, ok := snap["ias_kmh"]; ok {
		parts = append(parts, fmt.Sprintf("IAS: %s km/h", formatValue(ias)))
	}
	if aoa, ok := snap["aoa_deg"]; ok {
		parts = append(parts, fmt.Sprintf("AoA: %s°", formatValue(aoa)))
	}
	if g, ok := snap["g_load"]; ok {
		suffix := ""
		if status, ok := snap["g_status"].(string); ok && status != "" {
			suffix = fmt.Sprintf(" (%s)", status)
		}
		parts = append(parts, fmt.Sprintf("G-load: %s%s", formatValue(g), suffix))
	}
	if damage := damageMap(snap["damage"]); len(damage) > 0 {
		items := make([]string, 0, len(damage))
		for _, k := range sortedKeys(damage) {
			items = append(items, fmt.Sprintf("%s: %s", titleCase(k), formatValue(damage[k])))
		}
		parts = append(parts, strings.Join(items, "; "))
	}

	if len(parts) == 0 {
		return "No data"
	}
	return strings.Join(parts, ", ")
}

// ContextMessages returns the telemetry and reference context blocks fed to
// the language model ahead of the user's question.
func (c *Composer) ContextMessages() []Message {
	snap := c.source.Snapshot()

	var ref refdata.Entry
	if vehicle, ok := snap["vehicle"].(string); ok {
		entry, found, err := c.ref.FindForVehicle(vehicle)
		if err == nil && found {
			ref = entry
		}
	}

	return []Message{
		{Role: "assistant", Content: "Telemetry: " + serializeSnapshot(snap)},
		{Role: "assistant", Content: "Reference: " + serializeEntry(ref)},
	}
}

// serializeSnapshot flattens a snapshot to "key: value" pairs in canonical
// field order, with any unrecognized keys appended alphabetically.
func serializeSnapshot(snap telemetry.Snapshot) string {
	if len(snap) == 0 {
		return "{}"
	}

	seen := make(map[string]bool, len(snap))
	var parts []string
	for _, k := range telemetry.FieldOrder {
		if v, ok := snap[k]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", k, formatValue(v)))
			seen[k] = true
		}
	}
	var extra []string
	for k := range snap {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		parts = append(parts, fmt.Sprintf("%s: %s", k, formatValue(snap[k])))
	}
	return strings.Join(parts, ", ")
}

func serializeEntry(entry refdata.Entry) string {
	if len(entry) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(entry))
	for k := range entry {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, formatValue(entry[k])))
	}
	return strings.Join(parts, ", ")
}

// formatValue renders numbers without a trailing ".0" so a snapshot decoded
// from JSON reads like the simulator sent it.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func damageMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// titleCase turns "left_wing" into "Left Wing".
func titleCase(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
