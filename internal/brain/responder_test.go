package brain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chief/internal/refdata"
	"chief/internal/telemetry"
)

type fakeSource struct {
	snap telemetry.Snapshot
}

func (f fakeSource) Snapshot() telemetry.Snapshot { return f.snap }

type fakeRef struct {
	entries map[string]refdata.Entry
}

func (f fakeRef) FindForVehicle(name string) (refdata.Entry, bool, error) {
	e, ok := f.entries[name]
	return e, ok, nil
}

func TestTelemetryOnlyResponse(t *testing.T) {
	c := NewComposer(fakeSource{snap: telemetry.Snapshot{
		"fuel_percent": 34.0,
		"ias_kmh":      820.0,
		"aoa_deg":      12.0,
		"g_load":       7.2,
		"g_status":     "HIGH",
		"damage":       map[string]any{"left_wing": "Yellow"},
	}}, fakeRef{})

	got := c.TelemetryOnlyResponse()

	wantInOrder := []string{
		"Fuel: 34%",
		"IAS: 820 km/h",
		"AoA: 12°",
		"G-load: 7.2 (HIGH)",
		"Left Wing: Yellow",
	}
	pos := 0
	for _, substr := range wantInOrder {
		idx := strings.Index(got[pos:], substr)
		require.GreaterOrEqual(t, idx, 0, "missing %q in %q", substr, got)
		pos += idx + len(substr)
	}
}

func TestTelemetryOnlyResponseNoData(t *testing.T) {
	c := NewComposer(fakeSource{snap: telemetry.Snapshot{}}, fakeRef{})
	assert.Equal(t, "No data", c.TelemetryOnlyResponse())

	// Fields outside the renderable set still yield "No data".
	c = NewComposer(fakeSource{snap: telemetry.Snapshot{"altitude_m": 2400.0}}, fakeRef{})
	assert.Equal(t, "No data", c.TelemetryOnlyResponse())
}

func TestTelemetryOnlyResponseGLoadWithoutStatus(t *testing.T) {
	c := NewComposer(fakeSource{snap: telemetry.Snapshot{"g_load": 3.1}}, fakeRef{})
	assert.Equal(t, "G-load: 3.1", c.TelemetryOnlyResponse())
}

func TestContextMessages(t *testing.T) {
	c := NewComposer(fakeSource{snap: telemetry.Snapshot{
		"vehicle":      "P-51D-5",
		"fuel_percent": 50.0,
	}}, fakeRef{entries: map[string]refdata.Entry{
		"P-51D-5": {"flap_rip_speed_kmh": 400.0},
	}})

	msgs := c.ContextMessages()
	require.Len(t, msgs, 2)

	assert.Equal(t, "assistant", msgs[0].Role)
	assert.True(t, strings.HasPrefix(msgs[0].Content, "Telemetry: "))
	assert.Contains(t, msgs[0].Content, "vehicle: P-51D-5")
	assert.Contains(t, msgs[0].Content, "fuel_percent: 50")

	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, "Reference: flap_rip_speed_kmh: 400", msgs[1].Content)
}

func TestContextMessagesEmpty(t *testing.T) {
	c := NewComposer(fakeSource{snap: telemetry.Snapshot{}}, fakeRef{})

	msgs := c.ContextMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Telemetry: {}", msgs[0].Content)
	assert.Equal(t, "Reference: {}", msgs[1].Content)
}

func TestSerializeSnapshotOrder(t *testing.T) {
	// Canonical fields come first in schema order, extras alphabetically.
	got := serializeSnapshot(telemetry.Snapshot{
		"zz_custom":    1.0,
		"fuel_percent": 34.0,
		"vehicle":      "Yak-3",
	})
	assert.Equal(t, "vehicle: Yak-3, fuel_percent: 34, zz_custom: 1", got)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "34", formatValue(34.0))
	assert.Equal(t, "7.2", formatValue(7.2))
	assert.Equal(t, "down", formatValue("down"))
	assert.Equal(t, "5", formatValue(5))
	assert.Equal(t, "true", formatValue(true))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Left Wing", titleCase("left_wing"))
	assert.Equal(t, "Tail", titleCase("tail"))
	assert.Equal(t, "", titleCase(""))
}

func TestParseMode(t *testing.T) {
	mode, ok := ParseMode("crew_chief_mode")
	assert.True(t, ok)
	assert.Equal(t, ModeCrewChief, mode)

	mode, ok = ParseMode("instructor_mode")
	assert.True(t, ok)
	assert.Equal(t, ModeInstructor, mode)

	_, ok = ParseMode("bogus")
	assert.False(t, ok)
}

func TestPromptPerMode(t *testing.T) {
	crew := Prompt(ModeCrewChief)
	instr := Prompt(ModeInstructor)

	assert.NotEmpty(t, crew)
	assert.NotEqual(t, crew, instr)
	// Instructor extends the crew chief persona with teaching guidance.
	assert.True(t, strings.HasPrefix(instr, crew))
}
