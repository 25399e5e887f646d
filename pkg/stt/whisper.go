// Package stt wraps whisper.cpp as the local speech-to-text backend.
package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"chief/pkg/audioconv"
	"chief/pkg/wave"
)

type Options struct {
	Language      string // e.g. "auto", "en"
	TranslateToEn bool
	Threads       int // <=0 => NumCPU()
	InitialPrompt string
	BeamSize      int           // 0 = greedy
	Offset        time.Duration // start offset
	Duration      time.Duration // max duration
}

type Segment struct {
	Text     string
	StartSec float64
	EndSec   float64
}

type Result struct {
	Text     string
	Segments []Segment
	Language string // detected or forced
}

// Transcriber owns a loaded whisper model. One model serves all
// transcriptions; each call gets its own decoding context.
type Transcriber struct {
	model whisper.Model
	opt   Options
}

func NewTranscriber(modelPath string, opt Options) (*Transcriber, error) {
	if modelPath == "" {
		return nil, errors.New("empty model path")
	}
	m, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return &Transcriber{model: m, opt: opt}, nil
}

func (t *Transcriber) Close() error {
	if t.model == nil {
		return nil
	}
	return t.model.Close()
}

// Transcribe converts a PCM chunk to text. This is the orchestrator's
// Transcriber contract; the chunk is converted to mono 16 kHz float samples
// before decoding.
func (t *Transcriber) Transcribe(ctx context.Context, chunk wave.Chunk) (string, error) {
	samples, err := audioconv.ChunkToFloat32(chunk)
	if err != nil {
		return "", err
	}
	if chunk.SampleRate != audioconv.TargetRate {
		samples = audioconv.ResampleLinear(samples, chunk.SampleRate, audioconv.TargetRate)
	}
	res, err := t.TranscribePCM(ctx, samples)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Text), nil
}

// TranscribePCM decodes mono 16 kHz float32 samples in [-1, 1].
func (t *Transcriber) TranscribePCM(ctx context.Context, pcm16k []float32) (Result, error) {
	if t.model == nil {
		return Result{}, errors.New("nil model")
	}
	if len(pcm16k) == 0 {
		return Result{}, errors.New("no audio samples provided")
	}

	wctx, err := t.model.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("new context: %w", err)
	}

	lang := t.opt.Language
	if lang == "" {
		lang = "auto"
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return Result{}, fmt.Errorf("set language: %w", err)
	}
	wctx.SetTranslate(t.opt.TranslateToEn)

	if t.opt.Offset > 0 {
		wctx.SetOffset(t.opt.Offset)
	}
	if t.opt.Duration > 0 {
		wctx.SetDuration(t.opt.Duration)
	}

	threads := t.opt.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	wctx.SetThreads(uint(threads))

	if t.opt.BeamSize > 0 {
		wctx.SetBeamSize(t.opt.BeamSize)
	}
	if t.opt.InitialPrompt != "" {
		wctx.SetInitialPrompt(t.opt.InitialPrompt)
	}

	if err := wctx.Process(pcm16k, nil, nil, nil); err != nil {
		return Result{}, fmt.Errorf("process: %w", err)
	}

	var (
		segs     []Segment
		fullText string
	)
	for {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		s, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("next segment: %w", err)
		}
		segs = append(segs, Segment{
			Text:     s.Text,
			StartSec: s.Start.Seconds(),
			EndSec:   s.End.Seconds(),
		})
		if fullText == "" {
			fullText = s.Text
		} else {
			fullText += " " + s.Text
		}
	}

	detected := wctx.DetectedLanguage()
	if detected == "" {
		detected = wctx.Language()
	}

	return Result{
		Text:     fullText,
		Segments: segs,
		Language: detected,
	}, nil
}
