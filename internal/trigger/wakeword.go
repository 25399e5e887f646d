package trigger

import (
	"context"
	log "log/slog"
	"strings"
	"time"

	"chief/pkg/wave"
)

type windowCapturer interface {
	CaptureWindow(ctx context.Context, window time.Duration) (wave.Chunk, error)
}

type transcriber interface {
	Transcribe(ctx context.Context, chunk wave.Chunk) (string, error)
}

// WakeWordConfig tunes the detection loop.
type WakeWordConfig struct {
	Window  time.Duration // audio window transcribed per check
	Backoff time.Duration // pause after a failed capture or transcription
}

func DefaultWakeWordConfig() WakeWordConfig {
	return WakeWordConfig{
		Window:  2 * time.Second,
		Backoff: time.Second,
	}
}

// WakeWordListener continuously transcribes short microphone windows and
// fires the trigger callback when the configured wake word appears in the
// text. Keyword spotting by full transcription is crude but reuses the STT
// backend already loaded for interactions.
type WakeWordListener struct {
	cfg         WakeWordConfig
	wakeWord    func() string // re-read each cycle so settings changes apply live
	capturer    windowCapturer
	transcriber transcriber
	onTrigger   func()
}

func NewWakeWordListener(cfg WakeWordConfig, wakeWord func() string, capturer windowCapturer, tr transcriber, onTrigger func()) *WakeWordListener {
	def := DefaultWakeWordConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	return &WakeWordListener{
		cfg:         cfg,
		wakeWord:    wakeWord,
		capturer:    capturer,
		transcriber: tr,
		onTrigger:   onTrigger,
	}
}

// Run blocks, listening until ctx is cancelled. Capture and transcription
// failures are logged and retried after a backoff; they never stop the loop.
func (l *WakeWordListener) Run(ctx context.Context) {
	log.Info("wake word listener running", "wake_word", l.wakeWord())
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		chunk, err := l.capturer.CaptureWindow(ctx, l.cfg.Window)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Debug("wake word capture failed", "err", err)
			sleepCtx(ctx, l.cfg.Backoff)
			continue
		}
		if chunk.Empty() {
			continue
		}

		text, err := l.transcriber.Transcribe(ctx, chunk)
		if err != nil {
			log.Debug("wake word transcription failed", "err", err)
			sleepCtx(ctx, l.cfg.Backoff)
			continue
		}

		word := strings.ToLower(l.wakeWord())
		if word != "" && strings.Contains(strings.ToLower(text), word) {
			log.Info("wake word detected", "text", text)
			l.onTrigger()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
