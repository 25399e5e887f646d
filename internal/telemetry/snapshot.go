package telemetry

// Snapshot is the single most recent normalized telemetry reading. Each poll
// cycle replaces the previous snapshot wholesale; no history is kept.
type Snapshot map[string]any

// FieldOrder is the canonical field order of a normalized snapshot, the order
// the normalizer emits fields in. Consumers that render a snapshot as text
// iterate in this order.
var FieldOrder = []string{
	"vehicle",
	"fuel_percent",
	"ias_kmh",
	"pitch_deg",
	"roll_deg",
	"aoa_deg",
	"altitude_m",
	"g_load",
	"g_status",
	"ammo",
	"gear_state",
	"flap_state",
	"damage",
	"temperatures_c",
}

// Clone returns a copy that shares no mutable structure with the receiver.
// Nested maps (damage, temperatures_c) are copied one level deep, which is as
// deep as the canonical schema nests.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		switch m := v.(type) {
		case map[string]any:
			inner := make(map[string]any, len(m))
			for ik, iv := range m {
				inner[ik] = iv
			}
			out[k] = inner
		case map[string]string:
			inner := make(map[string]string, len(m))
			for ik, iv := range m {
				inner[ik] = iv
			}
			out[k] = inner
		default:
			out[k] = v
		}
	}
	return out
}
