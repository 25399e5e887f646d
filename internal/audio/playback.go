package audio

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/gordonklaus/portaudio"

	"chief/pkg/audioconv"
	"chief/pkg/wave"
)

// Player writes PCM chunks to the default output device. When a Ducker is
// set, other applications are faded down for the duration of playback.
type Player struct {
	ducker *Ducker
}

func NewPlayer(ducker *Ducker) *Player {
	return &Player{ducker: ducker}
}

// Play writes the chunk synchronously. An empty chunk is a no-op; ducking
// and device failures are best-effort.
func (p *Player) Play(chunk wave.Chunk) error {
	if chunk.Empty() {
		log.Debug("empty audio chunk, nothing to play")
		return nil
	}

	samples, err := toInt16(chunk)
	if err != nil {
		return err
	}

	if p.ducker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := p.ducker.DuckOthers(ctx); err != nil {
			log.Debug("duck failed", "err", err)
		}
		cancel()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := p.ducker.RestoreOthers(ctx); err != nil {
				log.Debug("unduck failed", "err", err)
			}
		}()
	}

	const frameSize = 1024
	buf := make([]int16, frameSize)

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(chunk.SampleRate), len(buf), buf)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start output stream: %w", err)
	}
	defer stream.Stop()

	for off := 0; off < len(samples); off += frameSize {
		end := off + frameSize
		if end > len(samples) {
			end = len(samples)
		}
		n := copy(buf, samples[off:end])
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("write output stream: %w", err)
		}
	}
	return nil
}

func toInt16(chunk wave.Chunk) ([]int16, error) {
	if chunk.SampleWidth == 2 && chunk.Channels == 1 {
		return audioconv.PCM16ToInt16(chunk.Data), nil
	}
	samples, err := audioconv.ChunkToFloat32(chunk)
	if err != nil {
		return nil, err
	}
	return audioconv.PCM16ToInt16(audioconv.Float32ToPCM16(samples)), nil
}
