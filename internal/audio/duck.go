package audio

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var percentRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	id      int
	volume  int
	appName string
}

// Ducker lowers the volume of other PulseAudio streams (the simulator, music)
// while the assistant speaks, and restores them afterwards. Streams whose
// application name matches selfNames are left alone.
type Ducker struct {
	mu          sync.Mutex
	active      bool
	selfNames   []string
	originalVol map[int]int
	duckVolume  int // percent applied to others while active
}

func NewDucker(selfNames []string, duckVolume int) *Ducker {
	if duckVolume < 0 {
		duckVolume = 0
	}
	if duckVolume > 100 {
		duckVolume = 100
	}
	return &Ducker{
		selfNames:   append([]string(nil), selfNames...),
		originalVol: make(map[int]int),
		duckVolume:  duckVolume,
	}
}

// DuckOthers drops every foreign stream to the duck volume, remembering each
// stream's original level. Idempotent while active.
func (d *Ducker) DuckOthers(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active {
		return nil
	}

	streams, err := listSinkInputs(ctx)
	if err != nil {
		return err
	}

	for _, s := range streams {
		if d.isSelfStream(s) {
			continue
		}
		d.originalVol[s.id] = s.volume
		if err := setSinkInputVolume(ctx, s.id, d.duckVolume); err != nil {
			return err
		}
	}
	d.active = true
	return nil
}

// RestoreOthers puts every ducked stream back to its remembered volume.
// Streams that disappeared during playback are skipped.
func (d *Ducker) RestoreOthers(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.active {
		return nil
	}

	var firstErr error
	for id, vol := range d.originalVol {
		if err := setSinkInputVolume(ctx, id, vol); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	d.originalVol = make(map[int]int)
	d.active = false
	return firstErr
}

func (d *Ducker) isSelfStream(s sinkInput) bool {
	for _, name := range d.selfNames {
		if strings.EqualFold(s.appName, name) {
			return true
		}
	}
	return false
}

func listSinkInputs(ctx context.Context) ([]sinkInput, error) {
	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return nil, fmt.Errorf("pactl list: %w", err)
	}

	var (
		streams []sinkInput
		cur     *sinkInput
	)
	for _, line := range strings.Split(string(out), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Sink Input #"):
			if cur != nil {
				streams = append(streams, *cur)
			}
			id, err := strconv.Atoi(strings.TrimPrefix(trimmed, "Sink Input #"))
			if err != nil {
				cur = nil
				continue
			}
			cur = &sinkInput{id: id, volume: 100}
		case cur != nil && strings.HasPrefix(trimmed, "Volume:"):
			if m := percentRe.FindStringSubmatch(trimmed); m != nil {
				if v, err := strconv.Atoi(m[1]); err == nil {
					cur.volume = v
				}
			}
		case cur != nil && strings.HasPrefix(trimmed, "application.name"):
			if _, val, ok := strings.Cut(trimmed, "="); ok {
				cur.appName = strings.Trim(strings.TrimSpace(val), `"`)
			}
		}
	}
	if cur != nil {
		streams = append(streams, *cur)
	}
	return streams, nil
}

func setSinkInputVolume(ctx context.Context, id, percent int) error {
	arg := strconv.Itoa(percent) + "%"
	if err := exec.CommandContext(ctx, "pactl", "set-sink-input-volume", strconv.Itoa(id), arg).Run(); err != nil {
		return fmt.Errorf("pactl set-sink-input-volume %d: %w", id, err)
	}
	return nil
}
