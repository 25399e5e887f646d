// Package state is the one mutable shared resource of the assistant: the
// latest telemetry snapshot and the user configuration. All access is
// serialized behind a single coarse lock, and every configuration mutation is
// persisted to disk before the setter returns.
package state

import (
	"encoding/json"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"chief/internal/brain"
	"chief/internal/telemetry"
)

// Config is the durable user configuration.
type Config struct {
	WakeWord   string `json:"wake_word"`
	Hotkey     string `json:"hotkey"`
	PromptMode string `json:"prompt_mode"`
	STTBackend string `json:"stt_backend"`
	TTSBackend string `json:"tts_backend"`
}

// DefaultConfig is applied when no config file exists or its content cannot
// be parsed.
func DefaultConfig() Config {
	return Config{
		WakeWord:   "chief",
		Hotkey:     "ctrl+shift+q",
		PromptMode: string(brain.ModeCrewChief),
		STTBackend: "whisper",
		TTSBackend: "elevenlabs",
	}
}

// Store holds the snapshot and configuration. Safe for arbitrary concurrent
// use from the poller, trigger sources and UI surfaces.
type Store struct {
	mu       sync.Mutex
	path     string
	config   Config
	snapshot telemetry.Snapshot
}

// New loads the configuration at path, falling back to defaults when the
// file is missing or malformed. Load problems are logged, never fatal.
func New(path string) *Store {
	s := &Store{
		path:     path,
		config:   DefaultConfig(),
		snapshot: telemetry.Snapshot{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("config not readable, using defaults", "path", path, "err", err)
		}
		return s
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Warn("config malformed, using defaults", "path", path, "err", err)
		return s
	}
	s.config = cfg
	return s
}

// Snapshot returns a defensive copy of the stored telemetry snapshot.
// Mutating the result never affects the store, and vice versa.
func (s *Store) Snapshot() telemetry.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// SetSnapshot atomically replaces the stored snapshot.
func (s *Store) SetSnapshot(snap telemetry.Snapshot) {
	clone := snap.Clone()
	s.mu.Lock()
	s.snapshot = clone
	s.mu.Unlock()
}

func (s *Store) WakeWord() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.WakeWord
}

func (s *Store) SetWakeWord(v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.WakeWord = v
	return s.persist()
}

func (s *Store) Hotkey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Hotkey
}

func (s *Store) SetHotkey(v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.Hotkey = v
	return s.persist()
}

// PromptMode returns the persona mode, with ok=false when the persisted
// value is empty or unrecognized.
func (s *Store) PromptMode() (brain.Mode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return brain.ParseMode(s.config.PromptMode)
}

func (s *Store) SetPromptMode(mode brain.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.PromptMode = string(mode)
	return s.persist()
}

// ToggleModeFromCommand resolves the persona mode named by a spoken command:
// any mention of "instructor" selects instructor mode, everything else
// selects crew chief. This is a full override of the previous mode, not a
// flip. The resolved mode is persisted before returning.
func (s *Store) ToggleModeFromCommand(text string) (brain.Mode, error) {
	mode := brain.ModeCrewChief
	if strings.Contains(strings.ToLower(text), "instructor") {
		mode = brain.ModeInstructor
	}
	return mode, s.SetPromptMode(mode)
}

func (s *Store) STTBackend() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.STTBackend
}

func (s *Store) SetSTTBackend(v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.STTBackend = v
	return s.persist()
}

func (s *Store) TTSBackend() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.TTSBackend
}

func (s *Store) SetTTSBackend(v string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config.TTSBackend = v
	return s.persist()
}

// persist writes the configuration synchronously. Callers hold the lock, so
// the in-memory and on-disk copy converge before any setter returns.
func (s *Store) persist() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(s.config, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
