// Package readiness polls an HTTP health endpoint with a bounded number of
// attempts and a fixed inter-attempt delay. Network errors and malformed
// bodies count as "not ready yet", never as failures in their own right.
package readiness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// State represents the poller's position in its bounded-retry lifecycle
type State string

const (
	StateWaiting   State = "waiting"
	StateMatched   State = "matched"
	StateExhausted State = "exhausted"
)

// ErrExhausted is returned when every attempt completed without a match.
var ErrExhausted = errors.New("health endpoint never matched")

// Probe is the outcome of a single polling attempt
type Probe struct {
	Attempt int    // 1-based attempt number
	Body    string // Raw response body, empty when the request itself failed
	Status  string // Decoded status field, empty unless Matched
	Matched bool
}

// healthBody is the structural shape a ready instance responds with. The
// instance is considered ready iff the body decodes and status is non-empty;
// raw substring matching is deliberately not used.
type healthBody struct {
	Status string `json:"status"`
}

// Doer issues a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Poller polls a health URL until it matches or attempts run out
type Poller struct {
	client      Doer
	maxAttempts int
	interval    time.Duration
	logger      *slog.Logger

	// sleep is swappable so tests can observe delays without waiting them out
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a poller with the given retry bound and inter-attempt
// interval. Both are injected rather than hardcoded so callers can tune them
// to the startup profile of the service under test.
func NewPoller(client Doer, maxAttempts int, interval time.Duration, logger *slog.Logger) *Poller {
	if client == nil {
		client = http.DefaultClient
	}
	return &Poller{
		client:      client,
		maxAttempts: maxAttempts,
		interval:    interval,
		logger:      logger,
		sleep:       sleepContext,
	}
}

// Poll issues up to maxAttempts GET requests against url, sleeping the
// configured interval between attempts (so an unmatched run blocks for
// maxAttempts-1 intervals, not maxAttempts). The first matching probe is
// returned immediately. On exhaustion the final probe is returned together
// with ErrExhausted so the caller can surface the last observed body.
// Context cancellation aborts the poll, including mid-sleep.
func (p *Poller) Poll(ctx context.Context, url string) (*Probe, error) {
	state := StateWaiting

	var last *Probe
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		probe := p.probe(ctx, url, attempt)
		last = probe

		if probe.Matched {
			state = StateMatched
			p.logger.Info("health endpoint matched",
				"attempt", probe.Attempt,
				"status", probe.Status,
				"state", state)
			return probe, nil
		}

		p.logger.Debug("health endpoint not ready",
			"attempt", attempt,
			"max_attempts", p.maxAttempts,
			"state", state)

		// No delay after the final attempt
		if attempt < p.maxAttempts {
			if err := p.sleep(ctx, p.interval); err != nil {
				return last, err
			}
		}
	}

	state = StateExhausted
	p.logger.Warn("health polling exhausted",
		"attempts", p.maxAttempts,
		"state", state)

	return last, fmt.Errorf("after %d attempts: %w", p.maxAttempts, ErrExhausted)
}

// probe performs one best-effort GET. Any transport or decode problem yields
// an unmatched probe rather than an error.
func (p *Poller) probe(ctx context.Context, url string, attempt int) *Probe {
	probe := &Probe{Attempt: attempt}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return probe
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("health request failed", "attempt", attempt, "error", err)
		return probe
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return probe
	}
	probe.Body = string(body)

	var health healthBody
	if err := json.Unmarshal(body, &health); err != nil {
		return probe
	}

	if health.Status != "" {
		probe.Status = health.Status
		probe.Matched = true
	}
	return probe
}

// sleepContext blocks for d or until ctx is cancelled, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
