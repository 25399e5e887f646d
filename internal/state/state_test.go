package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chief/internal/brain"
	"chief/internal/telemetry"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "chief_config.json"))
}

func TestNewAppliesDefaultsWhenFileMissing(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, "chief", s.WakeWord())
	assert.Equal(t, "ctrl+shift+q", s.Hotkey())
	assert.Equal(t, "whisper", s.STTBackend())
	assert.Equal(t, "elevenlabs", s.TTSBackend())

	mode, ok := s.PromptMode()
	assert.True(t, ok)
	assert.Equal(t, brain.ModeCrewChief, mode)
}

func TestNewAppliesDefaultsWhenFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chief_config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(path)
	assert.Equal(t, "chief", s.WakeWord())
}

func TestNewLoadsExistingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chief_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"wake_word": "tower",
		"hotkey": "ctrl+shift+t",
		"prompt_mode": "instructor_mode",
		"stt_backend": "elevenlabs",
		"tts_backend": "elevenlabs"
	}`), 0o644))

	s := New(path)
	assert.Equal(t, "tower", s.WakeWord())
	assert.Equal(t, "ctrl+shift+t", s.Hotkey())

	mode, ok := s.PromptMode()
	assert.True(t, ok)
	assert.Equal(t, brain.ModeInstructor, mode)
}

func TestSettersPersistSynchronously(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chief_config.json")
	s := New(path)

	require.NoError(t, s.SetWakeWord("tower"))

	// The file on disk already reflects the mutation when the setter returns.
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, "tower", cfg.WakeWord)
	assert.Equal(t, "ctrl+shift+q", cfg.Hotkey)
}

func TestToggleModeFromCommand(t *testing.T) {
	s := newTestStore(t)

	mode, err := s.ToggleModeFromCommand("switch to instructor mode")
	require.NoError(t, err)
	assert.Equal(t, brain.ModeInstructor, mode)

	// Full override: any other command resolves to crew chief, not a flip.
	mode, err = s.ToggleModeFromCommand("anything else")
	require.NoError(t, err)
	assert.Equal(t, brain.ModeCrewChief, mode)

	mode, err = s.ToggleModeFromCommand("INSTRUCTOR please")
	require.NoError(t, err)
	assert.Equal(t, brain.ModeInstructor, mode)
}

func TestPromptModeUnrecognizedValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chief_config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"prompt_mode": "pilot_mode"}`), 0o644))

	s := New(path)
	_, ok := s.PromptMode()
	assert.False(t, ok)
}

func TestSnapshotDefensiveCopy(t *testing.T) {
	s := newTestStore(t)

	in := telemetry.Snapshot{
		"fuel_percent": 50.0,
		"damage":       map[string]any{"left_wing": "Yellow"},
	}
	s.SetSnapshot(in)

	// Mutating the input after the set must not change the stored value.
	in["fuel_percent"] = 0.0
	in["damage"].(map[string]any)["left_wing"] = "Red"

	got := s.Snapshot()
	assert.Equal(t, 50.0, got["fuel_percent"])
	assert.Equal(t, "Yellow", got["damage"].(map[string]any)["left_wing"])

	// Mutating the returned value must not change the stored one either.
	got["fuel_percent"] = 10.0
	assert.Equal(t, 50.0, s.Snapshot()["fuel_percent"])
}

func TestConcurrentAccessNeverTearsSnapshot(t *testing.T) {
	s := newTestStore(t)

	// Writers alternate between two complete snapshots; readers must only
	// ever observe one of them, never a mix.
	a := telemetry.Snapshot{"fuel_percent": 10.0, "ias_kmh": 100.0}
	b := telemetry.Snapshot{"fuel_percent": 90.0, "ias_kmh": 900.0}
	s.SetSnapshot(a)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if (i+j)%2 == 0 {
					s.SetSnapshot(a)
				} else {
					s.SetSnapshot(b)
				}
			}
		}(i)
	}

	errs := make(chan string, 1)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := s.Snapshot()
				fuel := snap["fuel_percent"].(float64)
				ias := snap["ias_kmh"].(float64)
				if !(fuel == 10.0 && ias == 100.0) && !(fuel == 90.0 && ias == 900.0) {
					select {
					case errs <- "observed torn snapshot":
					default:
					}
					return
				}
			}
		}()
	}

	// Concurrent config setters exercise the same lock.
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.SetWakeWord("chief")
			}
		}()
	}

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				if (i+j)%2 == 0 {
					s.SetSnapshot(a)
				} else {
					s.SetSnapshot(b)
				}
			}
			if i == 3 {
				close(stop)
			}
		}(i)
	}

	wg.Wait()
	select {
	case msg := <-errs:
		t.Fatal(msg)
	default:
	}
}
