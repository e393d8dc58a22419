// Package poller turns a single build request into a stream of build snapshots.
package poller

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"baobab/src/contracts"
	"baobab/src/logger"
	"baobab/src/provider"
	"baobab/src/teamcity"
)

// Fetcher retrieves the current state of a build. *teamcity.Client implements it.
type Fetcher interface {
	GetBuild(ctx context.Context, buildID uint64) (*teamcity.Build, error)
}

// Publisher hands snapshots to the consumer. broker.Broker implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, key string, value []byte) error
}

// State of the engine's state machine.
type State int32

const (
	Polling State = iota
	Terminal
)

func (s State) String() string {
	if s == Terminal {
		return "terminal"
	}
	return "polling"
}

// Config tunes the poll loop.
type Config struct {
	// Interval between successful polls.
	Interval time.Duration
	// MaxRetries is how many consecutive transient failures are retried before giving up.
	MaxRetries int
	// BackoffBase is the delay before the first retry; each further retry doubles it.
	BackoffBase time.Duration
	// BackoffMax caps the retry delay.
	BackoffMax time.Duration
}

// DefaultConfig polls every second and retries transient failures five times.
func DefaultConfig() Config {
	return Config{
		Interval:    1 * time.Second,
		MaxRetries:  5,
		BackoffBase: 500 * time.Millisecond,
		BackoffMax:  10 * time.Second,
	}
}

// Engine polls one build until it finishes. It is a single producer: Run must
// not be called concurrently.
type Engine struct {
	req     teamcity.BuildRequest
	fetcher Fetcher
	pub     Publisher
	cfg     Config
	log     logger.Logger

	state atomic.Int32

	// sleep waits for d or until ctx is done; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewEngine creates an engine in the Polling state. Zero fields of cfg take their defaults.
func NewEngine(req teamcity.BuildRequest, fetcher Fetcher, pub Publisher, cfg Config, log logger.Logger) *Engine {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = def.BackoffBase
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = def.BackoffMax
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}

	return &Engine{
		req:     req,
		fetcher: fetcher,
		pub:     pub,
		cfg:     cfg,
		log:     log,
		sleep:   sleepContext,
		now:     time.Now,
	}
}

// State reports where the engine is in its lifecycle.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Run polls until the build finishes, a fatal error occurs, the retry budget
// is exhausted, or ctx is cancelled. Every fetched snapshot, including the
// terminal one, is published to contracts.TopicSnapshots before the loop
// decides whether to stop. A nil return means the build finished.
func (e *Engine) Run(ctx context.Context) error {
	var seq uint64

	for {
		build, err := e.fetch(ctx)
		if err != nil {
			return err
		}

		seq++
		msg := contracts.NewSnapshotMessage(e.req, seq, *build, e.now())
		data, err := msg.Encode()
		if err != nil {
			return err
		}
		if err := e.pub.Publish(ctx, contracts.TopicSnapshots, msg.Key(), data); err != nil {
			return fmt.Errorf("failed to deliver snapshot %d: %w", seq, err)
		}

		if build.Finished() {
			e.state.Store(int32(Terminal))
			e.log.Info("build %d finished with status %s after %d polls", e.req.BuildID, build.Status, seq)
			return nil
		}

		if err := e.sleep(ctx, e.cfg.Interval); err != nil {
			return err
		}
	}
}

// fetch performs one poll, retrying transient failures with exponential backoff.
func (e *Engine) fetch(ctx context.Context) (*teamcity.Build, error) {
	for attempt := 0; ; attempt++ {
		build, err := e.fetcher.GetBuild(ctx, e.req.BuildID)
		if err == nil {
			return build, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		if !provider.IsTransient(err) {
			return nil, fmt.Errorf("failed to get build %d: %w", e.req.BuildID, err)
		}

		if attempt >= e.cfg.MaxRetries {
			return nil, fmt.Errorf("failed to get build %d after %d retries: %w", e.req.BuildID, attempt, err)
		}

		delay := e.Backoff(attempt)
		e.log.Warn("transient error fetching build %d (retry %d/%d in %s): %v",
			e.req.BuildID, attempt+1, e.cfg.MaxRetries, delay, err)

		if err := e.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// Backoff returns the delay before retry number attempt+1.
func (e *Engine) Backoff(attempt int) time.Duration {
	delay := e.cfg.BackoffBase
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= e.cfg.BackoffMax {
			return e.cfg.BackoffMax
		}
	}
	if delay > e.cfg.BackoffMax {
		return e.cfg.BackoffMax
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
