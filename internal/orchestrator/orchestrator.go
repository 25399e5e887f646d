// Package orchestrator sequences one interaction per trigger: capture audio,
// transcribe, classify, resolve a response and speak it back. Collaborators
// are injected as narrow interfaces so any backend (or none) can stand in.
package orchestrator

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"chief/internal/brain"
	"chief/internal/intent"
	"chief/pkg/wave"
)

// Capturer records microphone audio until silence or timeout.
type Capturer interface {
	Capture(ctx context.Context) (wave.Chunk, error)
}

// Transcriber converts captured audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, chunk wave.Chunk) (string, error)
}

// Synthesizer converts response text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (wave.Chunk, error)
}

// Player sends audio to the output device, best-effort.
type Player interface {
	Play(chunk wave.Chunk) error
}

// Completer answers a free-form question through a language model.
type Completer interface {
	Complete(ctx context.Context, messages []brain.Message) (string, error)
}

// ModeStore is the slice of shared state the orchestrator touches.
type ModeStore interface {
	PromptMode() (brain.Mode, bool)
	ToggleModeFromCommand(text string) (brain.Mode, error)
}

// CannedQuery is spoken on behalf of the user when no STT backend is
// configured, so the rest of the pipeline can still be exercised.
const CannedQuery = "chief, what's my flap rip speed?"

// Config wires an orchestrator. Capturer and Composer are required; every
// other collaborator may be nil, which the pipeline treats as "backend not
// configured" rather than an error.
type Config struct {
	State       ModeStore
	Composer    *brain.Composer
	Capturer    Capturer
	Transcriber Transcriber
	Synthesizer Synthesizer
	Player      Player
	Completer   Completer

	// Chime, when set, is fired right before capture starts.
	Chime func()

	// DefaultMode applies when the store has no usable persona mode.
	DefaultMode brain.Mode

	// StepTimeout bounds each network collaborator call.
	StepTimeout time.Duration
}

// Orchestrator runs the trigger-to-response pipeline. Trigger callbacks may
// arrive concurrently from the hotkey, wake word and IPC goroutines; a
// single-slot admission gate serializes them by dropping any trigger that
// fires while an interaction is already in flight.
type Orchestrator struct {
	cfg     Config
	machine *Machine
	gate    sync.Mutex
}

func New(cfg Config) *Orchestrator {
	if cfg.DefaultMode == "" {
		cfg.DefaultMode = brain.ModeCrewChief
	}
	if cfg.StepTimeout <= 0 {
		cfg.StepTimeout = 60 * time.Second
	}
	return &Orchestrator{cfg: cfg, machine: NewMachine()}
}

// Phase reports the pipeline phase of the in-flight interaction, or Idle.
func (o *Orchestrator) Phase() Phase {
	return o.machine.Current()
}

// HandleTrigger runs one full interaction. It is the callback contract for
// every trigger source and never panics or propagates collaborator failures;
// a failed step logs and ends the interaction in silence.
func (o *Orchestrator) HandleTrigger() {
	if !o.gate.TryLock() {
		log.Info("interaction already in flight, dropping trigger")
		return
	}
	defer o.gate.Unlock()
	defer o.machine.Reset()

	log.Info("trigger received, capturing audio")

	mode, ok := o.cfg.State.PromptMode()
	if !ok {
		mode = o.cfg.DefaultMode
	}

	if o.cfg.Chime != nil {
		o.cfg.Chime()
	}

	o.machine.Advance(Capturing)
	chunk, err := o.cfg.Capturer.Capture(context.Background())
	if err != nil {
		log.Error("capture failed", "err", err)
		return
	}

	o.machine.Advance(Transcribing)
	text, ok := o.transcribe(chunk)
	if !ok {
		return
	}
	log.Info("recognized query", "text", text)
	if text == "" {
		// Nothing was said; not an error.
		return
	}

	o.machine.Advance(Classifying)
	it := intent.Classify(text)
	log.Debug("classified", "intent", it)

	o.machine.Advance(Responding)
	response, ok := o.respond(it, mode, text)
	if !ok {
		return
	}
	log.Info("response", "text", response)

	o.machine.Advance(Synthesizing)
	audio := o.synthesize(response)

	o.machine.Advance(Playing)
	if o.cfg.Player == nil {
		log.Warn("no playback backend configured", "response", response)
		return
	}
	if err := o.cfg.Player.Play(audio); err != nil {
		log.Error("playback failed", "err", err)
	}
}

func (o *Orchestrator) transcribe(chunk wave.Chunk) (string, bool) {
	if o.cfg.Transcriber == nil {
		log.Warn("no STT backend configured, using canned query")
		return CannedQuery, true
	}
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.StepTimeout)
	defer cancel()

	text, err := o.cfg.Transcriber.Transcribe(ctx, chunk)
	if err != nil {
		log.Error("transcription failed", "err", err)
		return "", false
	}
	return text, true
}

func (o *Orchestrator) respond(it intent.Intent, mode brain.Mode, text string) (string, bool) {
	switch it {
	case intent.ModeSwitch:
		mode, err := o.cfg.State.ToggleModeFromCommand(text)
		if err != nil {
			log.Error("failed to persist mode", "err", err)
		}
		return "Mode: " + string(mode), true

	case intent.Telemetry:
		return o.cfg.Composer.TelemetryOnlyResponse(), true

	default:
		if o.cfg.Completer == nil {
			log.Warn("no language model configured, dropping query", "text", text)
			return "", false
		}
		messages := make([]brain.Message, 0, 4)
		messages = append(messages, brain.Message{Role: "system", Content: brain.Prompt(mode)})
		messages = append(messages, o.cfg.Composer.ContextMessages()...)
		messages = append(messages, brain.Message{Role: "user", Content: text})

		ctx, cancel := context.WithTimeout(context.Background(), o.cfg.StepTimeout)
		defer cancel()

		response, err := o.cfg.Completer.Complete(ctx, messages)
		if err != nil {
			log.Error("language model call failed", "err", err)
			return "", false
		}
		return response, true
	}
}

func (o *Orchestrator) synthesize(text string) wave.Chunk {
	if o.cfg.Synthesizer == nil {
		log.Warn("no TTS backend configured, returning empty audio")
		return wave.NewChunk(nil, 16000)
	}
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.StepTimeout)
	defer cancel()

	chunk, err := o.cfg.Synthesizer.Synthesize(ctx, text)
	if err != nil {
		log.Error("synthesis failed", "err", err)
		return wave.NewChunk(nil, 16000)
	}
	return chunk
}
