// Package telemetry polls the simulator's local HTTP state endpoint and
// publishes normalized snapshots.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"net/http"
	"time"
)

// Config tunes the polling loop.
type Config struct {
	Endpoint string        // simulator state URL
	Interval time.Duration // fixed sleep between cycles, not latency-compensated
	Timeout  time.Duration // per-request timeout
}

// DefaultConfig returns the polling parameters for a simulator running on the
// same machine.
func DefaultConfig() Config {
	return Config{
		Endpoint: "http://127.0.0.1:8111/state",
		Interval: 250 * time.Millisecond,
		Timeout:  100 * time.Millisecond,
	}
}

// Poller fetches raw telemetry on a fixed interval and hands each normalized
// snapshot to the publish callbacks. The simulator endpoint is expected to be
// flaky; a failed cycle is logged at debug level and skipped.
type Poller struct {
	cfg     Config
	client  *http.Client
	publish []func(Snapshot)
}

func NewPoller(cfg Config, publish ...func(Snapshot)) *Poller {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultConfig().Endpoint
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Poller{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		publish: publish,
	}
}

// Run blocks, polling until ctx is cancelled. The daemon runs it on its own
// goroutine for the life of the process.
func (p *Poller) Run(ctx context.Context) {
	log.Info("starting telemetry poller", "endpoint", p.cfg.Endpoint, "interval", p.cfg.Interval)
	for {
		snap, err := p.fetch(ctx)
		if err != nil {
			log.Debug("telemetry poll failed", "err", err)
		} else if len(snap) > 0 {
			for _, fn := range p.publish {
				fn(snap)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.cfg.Interval):
		}
	}
}

func (p *Poller) fetch(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.Endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return Normalize(raw), nil
}
