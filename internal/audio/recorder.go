// Package audio owns the portaudio capture and playback paths, the PulseAudio
// ducker and the trigger chime.
package audio

import (
	"context"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"

	"chief/pkg/audioconv"
	"chief/pkg/wave"
)

// Init must be called once before any capture or playback.
func Init() error { return portaudio.Initialize() }

// Terminate releases portaudio. Call on shutdown.
func Terminate() { portaudio.Terminate() }

// RecorderConfig tunes silence detection for a capture.
type RecorderConfig struct {
	SampleRate       int
	FrameSize        int           // samples per read
	SilenceThreshold float64       // RMS below this counts as silence
	SilenceDuration  time.Duration // trailing silence that ends a capture
	MaxDuration      time.Duration // hard cap independent of silence
}

// DefaultRecorderConfig matches a close-talk headset in a noisy cockpit.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		SampleRate:       audioconv.TargetRate,
		FrameSize:        320, // 20ms
		SilenceThreshold: 0.015,
		SilenceDuration:  600 * time.Millisecond,
		MaxDuration:      15 * time.Second,
	}
}

// Recorder captures mono PCM from the default input device.
type Recorder struct {
	cfg RecorderConfig
}

func NewRecorder(cfg RecorderConfig) *Recorder {
	def := DefaultRecorderConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = def.FrameSize
	}
	if cfg.SilenceThreshold <= 0 {
		cfg.SilenceThreshold = def.SilenceThreshold
	}
	if cfg.SilenceDuration <= 0 {
		cfg.SilenceDuration = def.SilenceDuration
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = def.MaxDuration
	}
	return &Recorder{cfg: cfg}
}

// Capture records until trailing silence is detected after speech, or until
// the configured maximum duration elapses. Returns a mono 16-bit chunk;
// the chunk is empty when nothing above the silence threshold was heard.
func (r *Recorder) Capture(ctx context.Context) (wave.Chunk, error) {
	buf := make([]float32, r.cfg.FrameSize)
	out := make([]float32, 0, r.cfg.SampleRate*3)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.cfg.SampleRate), len(buf), buf)
	if err != nil {
		return wave.Chunk{}, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return wave.Chunk{}, err
	}
	defer stream.Stop()

	frameDur := time.Duration(r.cfg.FrameSize) * time.Second / time.Duration(r.cfg.SampleRate)
	maxFrames := int(r.cfg.MaxDuration / frameDur)
	silenceFramesNeeded := int(r.cfg.SilenceDuration / frameDur)

	var (
		speaking      bool
		silenceFrames int
	)

	for i := 0; i < maxFrames; i++ {
		select {
		case <-ctx.Done():
			return wave.Chunk{}, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			return wave.Chunk{}, err
		}

		if frameRMS(buf) > r.cfg.SilenceThreshold {
			speaking = true
			silenceFrames = 0
			out = append(out, buf...)
			continue
		}
		if speaking {
			silenceFrames++
			if silenceFrames >= silenceFramesNeeded {
				break
			}
			out = append(out, buf...)
		}
	}

	return wave.NewChunk(audioconv.Float32ToPCM16(out), r.cfg.SampleRate), nil
}

// CaptureWindow records a fixed-length window with no silence detection.
// Used by the wake word listener.
func (r *Recorder) CaptureWindow(ctx context.Context, window time.Duration) (wave.Chunk, error) {
	if window <= 0 {
		window = 2 * time.Second
	}

	buf := make([]float32, r.cfg.FrameSize)
	out := make([]float32, 0, int(float64(r.cfg.SampleRate)*window.Seconds()))

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(r.cfg.SampleRate), len(buf), buf)
	if err != nil {
		return wave.Chunk{}, err
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return wave.Chunk{}, err
	}
	defer stream.Stop()

	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return wave.Chunk{}, ctx.Err()
		default:
		}
		if err := stream.Read(); err != nil {
			return wave.Chunk{}, err
		}
		out = append(out, buf...)
	}

	return wave.NewChunk(audioconv.Float32ToPCM16(out), r.cfg.SampleRate), nil
}

func frameRMS(f []float32) float64 {
	if len(f) == 0 {
		return 0
	}
	var s float64
	for _, x := range f {
		s += float64(x * x)
	}
	return math.Sqrt(s / float64(len(f)))
}
