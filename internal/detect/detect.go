// Package detect decides when the agent has finished responding.
//
// Two signals are combined: the end marker the agent was instructed to
// print (fast, precise), and output quiescence (fallback for when the
// UI wraps or truncates the marker). Polling is the only option — tmux
// has no push notification for pane changes — so the detector is a
// poll loop with injectable capture, clock, and sleep functions; tests
// drive it with scripted snapshots and a fake clock.
package detect

import (
	"errors"
	"fmt"
	"time"
)

// Default tunables, matching the timing the agent UI was measured with.
const (
	DefaultPollInterval  = 500 * time.Millisecond
	DefaultResponseDelay = 3 * time.Second
	DefaultIdleTimeout   = 5 * time.Second
	DefaultMarkerGrace   = 1 * time.Second
	DefaultMaxWait       = 300 * time.Second
)

// extendedIdleFactor is the multiple of the idle timeout after which
// quiescence alone completes the response, even if the input prompt
// never became visible (it may be scrolled out or restyled).
const extendedIdleFactor = 3

// ErrTimeout indicates the hard wait ceiling elapsed with no completion
// signal. The accompanying Result still carries the partial capture.
var ErrTimeout = errors.New("timed out waiting for response")

// Outcome tags how a response completed.
type Outcome int

const (
	// CompletedViaMarker: the agent printed the end marker.
	CompletedViaMarker Outcome = iota
	// CompletedViaIdle: pane content went quiet past the idle threshold.
	CompletedViaIdle
	// TimedOut: the hard ceiling elapsed first.
	TimedOut
)

// String returns the human-readable outcome.
func (o Outcome) String() string {
	switch o {
	case CompletedViaMarker:
		return "marker"
	case CompletedViaIdle:
		return "idle"
	case TimedOut:
		return "timeout"
	default:
		return "unknown"
	}
}

// Result is the final word on one response.
type Result struct {
	Outcome Outcome
	// Text is the final pane snapshot — or on timeout, whatever had
	// accumulated when the ceiling hit.
	Text string
	// Elapsed is the total wait from submission to the decision.
	Elapsed time.Duration
}

// CaptureFunc produces a fresh pane snapshot.
type CaptureFunc func() (string, error)

// Detector watches a pane for response completion.
type Detector struct {
	capture       CaptureFunc
	normalize     func(string) string
	promptVisible func(string) bool

	pollInterval  time.Duration
	responseDelay time.Duration
	idleTimeout   time.Duration
	markerGrace   time.Duration
	maxWait       time.Duration

	now   func() time.Time
	sleep func(time.Duration)
}

// Option configures a Detector.
type Option func(*Detector)

// WithPollInterval sets the pane capture cadence.
func WithPollInterval(d time.Duration) Option {
	return func(det *Detector) { det.pollInterval = d }
}

// WithResponseDelay sets the pause before the first poll.
func WithResponseDelay(d time.Duration) Option {
	return func(det *Detector) { det.responseDelay = d }
}

// WithIdleTimeout sets the quiescence threshold for idle completion.
func WithIdleTimeout(d time.Duration) Option {
	return func(det *Detector) { det.idleTimeout = d }
}

// WithMarkerGrace sets the pause between marker sighting and the final
// capture, letting trailing output flush.
func WithMarkerGrace(d time.Duration) Option {
	return func(det *Detector) { det.markerGrace = d }
}

// WithMaxWait sets the hard ceiling on one response.
func WithMaxWait(d time.Duration) Option {
	return func(det *Detector) { det.maxWait = d }
}

// WithNormalize sets the snapshot normalizer used for change
// comparison. Comparing normalized content is what keeps spinner
// animation from resetting the idle clock; comparing raw bytes would
// never go idle under an animated front-end.
func WithNormalize(f func(string) string) Option {
	return func(det *Detector) { det.normalize = f }
}

// WithPromptCheck sets the predicate for "the agent's input prompt is
// visible in this snapshot". Idle completion at the base threshold
// additionally requires the prompt; without the prompt, only the
// extended threshold completes.
func WithPromptCheck(f func(string) bool) Option {
	return func(det *Detector) { det.promptVisible = f }
}

// WithClock injects time functions for tests.
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(det *Detector) {
		det.now = now
		det.sleep = sleep
	}
}

// New creates a Detector polling the given capture function.
func New(capture CaptureFunc, opts ...Option) *Detector {
	d := &Detector{
		capture:       capture,
		normalize:     func(s string) string { return s },
		promptVisible: func(string) bool { return true },
		pollInterval:  DefaultPollInterval,
		responseDelay: DefaultResponseDelay,
		idleTimeout:   DefaultIdleTimeout,
		markerGrace:   DefaultMarkerGrace,
		maxWait:       DefaultMaxWait,
		now:           time.Now,
		sleep:         time.Sleep,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Wait blocks until the response completes or the ceiling elapses.
// baseline is the pane capture taken at submission time; marker
// occurrences already present there never count as completion.
//
// The marker check runs before the idle check on every tick, so a tick
// where both conditions hold reports completion via marker.
func (d *Detector) Wait(marker Marker, baseline string) (*Result, error) {
	baselineMarkers := marker.StandaloneCount(baseline)

	d.sleep(d.responseDelay)
	start := d.now()

	lastRaw := baseline
	lastNorm := d.normalize(baseline)
	lastChange := d.now()

	for {
		elapsed := d.now().Sub(start)
		if elapsed >= d.maxWait {
			break
		}

		content, err := d.capture()
		if err != nil {
			return nil, fmt.Errorf("capturing pane: %w", err)
		}
		lastRaw = content

		if marker.StandaloneCount(content) > baselineMarkers {
			// Give trailing output a moment to land, then take the
			// final snapshot.
			d.sleep(d.markerGrace)
			if final, err := d.capture(); err == nil {
				content = final
			}
			return &Result{
				Outcome: CompletedViaMarker,
				Text:    content,
				Elapsed: d.now().Sub(start),
			}, nil
		}

		norm := d.normalize(content)
		if norm != lastNorm {
			lastNorm = norm
			lastChange = d.now()
		}
		idle := d.now().Sub(lastChange)
		if (idle >= d.idleTimeout && d.promptVisible(content)) ||
			idle >= time.Duration(extendedIdleFactor)*d.idleTimeout {
			return &Result{
				Outcome: CompletedViaIdle,
				Text:    content,
				Elapsed: d.now().Sub(start),
			}, nil
		}

		d.sleep(d.pollInterval)
	}

	elapsed := d.now().Sub(start)
	return &Result{
			Outcome: TimedOut,
			Text:    lastRaw,
			Elapsed: elapsed,
		}, fmt.Errorf("%w: no completion signal within %s (waited %s)",
			ErrTimeout, d.maxWait, elapsed.Round(time.Second))
}
