package telemetry

import "math"

// Normalize maps the simulator's raw state object onto the canonical snapshot
// schema. Raw fields that are missing stay absent in the result rather than
// being zero-filled.
func Normalize(raw map[string]any) Snapshot {
	snap := Snapshot{}

	if v := firstString(raw, "name", "plane_name"); v != "" {
		snap["vehicle"] = v
	}
	if fuel, ok := raw["fuel"]; ok {
		snap["fuel_percent"] = normalizeFuel(fuel)
	}
	if ias, ok := iasKmh(raw); ok {
		snap["ias_kmh"] = ias
	}

	passThrough(raw, snap, "pitch", "pitch_deg")
	passThrough(raw, snap, "roll", "roll_deg")
	passThrough(raw, snap, "aoa", "aoa_deg")
	passThrough(raw, snap, "altitude", "altitude_m")
	passThrough(raw, snap, "g_force", "g_load")
	passThrough(raw, snap, "ammo", "ammo")
	passThrough(raw, snap, "gear", "gear_state")
	passThrough(raw, snap, "flaps", "flap_state")
	passThrough(raw, snap, "damage", "damage")
	passThrough(raw, snap, "temperatures", "temperatures_c")

	return snap
}

// normalizeFuel scales fractional fuel readings (a decimal in (0, 1)) to a
// percentage. Values already expressed in percent pass through untouched.
func normalizeFuel(v any) any {
	f, ok := v.(float64)
	if !ok {
		return v
	}
	if f > 0 && f < 1 && f != math.Trunc(f) {
		return f * 100
	}
	return f
}

func iasKmh(raw map[string]any) (any, bool) {
	if speed, ok := raw["speed"].(map[string]any); ok {
		if kmh, ok := speed["kmh"]; ok {
			return kmh, true
		}
	}
	if ias, ok := raw["ias"]; ok {
		return ias, true
	}
	return nil, false
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func passThrough(raw map[string]any, snap Snapshot, rawKey, canonical string) {
	if v, ok := raw[rawKey]; ok && v != nil {
		snap[canonical] = v
	}
}
