package orchestrator

import (
	"sync"
	"time"
)

// Phase is one stage of an interaction.
type Phase int

const (
	Idle Phase = iota
	Capturing
	Transcribing
	Classifying
	Responding
	Synthesizing
	Playing
)

func (p Phase) String() string {
	switch p {
	case Capturing:
		return "capturing"
	case Transcribing:
		return "transcribing"
	case Classifying:
		return "classifying"
	case Responding:
		return "responding"
	case Synthesizing:
		return "synthesizing"
	case Playing:
		return "playing"
	default:
		return "idle"
	}
}

// validNext is the forward edge of the interaction pipeline. Every phase may
// additionally reset to Idle when an interaction aborts.
var validNext = map[Phase]Phase{
	Idle:         Capturing,
	Capturing:    Transcribing,
	Transcribing: Classifying,
	Classifying:  Responding,
	Responding:   Synthesizing,
	Synthesizing: Playing,
	Playing:      Idle,
}

// Machine tracks the phase of the current interaction.
type Machine struct {
	mu      sync.Mutex
	current Phase
	entered time.Time
}

func NewMachine() *Machine {
	return &Machine{current: Idle, entered: time.Now()}
}

func (m *Machine) Current() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// PhaseDuration reports how long the machine has been in the current phase.
func (m *Machine) PhaseDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.entered)
}

// Advance moves to the next phase. Returns false (and stays put) for any
// transition that is not the pipeline's forward edge or a reset to Idle.
func (m *Machine) Advance(next Phase) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if next != Idle && validNext[m.current] != next {
		return false
	}
	m.current = next
	m.entered = time.Now()
	return true
}

// Reset returns the machine to Idle.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.current = Idle
	m.entered = time.Now()
	m.mu.Unlock()
}
