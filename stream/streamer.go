// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/tig/feed"
	"github.com/bureau-foundation/tig/lib/clock"
	"github.com/bureau-foundation/tig/lib/eventbus"
)

// ReconnectNotice is published to clients on every reconnect.
const ReconnectNotice = "Reconnecting stream"

const (
	DefaultStallTimeout = 60 * time.Second
	DefaultMaxBackoff   = 320 * time.Second
	DefaultDedupWindow  = 4096
)

// Session end causes, recorded as the session context's cancel cause.
var (
	ErrStalled         = errors.New("stream stalled")
	ErrManualReconnect = errors.New("manual reconnect requested")
	ErrDisconnected    = errors.New("feed sent disconnect")
	ErrStreamEnded     = errors.New("stream ended")
)

// Item is one bus delivery: either a feed event or a notice for
// clients.
type Item struct {
	Event  feed.Event
	Notice string
}

// Opener opens the feed stream. *feed.Client implements it.
type Opener interface {
	OpenStream(ctx context.Context) (io.ReadCloser, error)
}

// State is the Streamer's lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateStreaming
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateReconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Config holds configuration for creating a Streamer.
type Config struct {
	// Opener opens the stream. Required.
	Opener Opener

	// Bus receives published items. Required.
	Bus *eventbus.Bus[Item]

	// Clock drives the stall timer and backoff waits. Nil means
	// clock.Real().
	Clock clock.Clock

	// StallTimeout defaults to DefaultStallTimeout.
	StallTimeout time.Duration

	// MaxBackoff defaults to DefaultMaxBackoff.
	MaxBackoff time.Duration

	// DedupWindow is how many recent frames are remembered for duplicate
	// suppression. Defaults to DefaultDedupWindow.
	DedupWindow int

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Stats is a point-in-time view of the Streamer.
type Stats struct {
	State       State
	Attempt     int
	Published   uint64
	Duplicates  uint64
	Malformed   uint64
	LastFrameAt time.Time
}

// Streamer supervises stream sessions.
type Streamer struct {
	opener       Opener
	bus          *eventbus.Bus[Item]
	clock        clock.Clock
	stallTimeout time.Duration
	maxBackoff   time.Duration
	logger       *slog.Logger

	// dedup is touched only by the Run goroutine.
	dedup *window

	// manual carries at most one pending reconnect request.
	manual chan struct{}

	state      atomic.Int32
	attempt    atomic.Int64
	published  atomic.Uint64
	duplicates atomic.Uint64
	malformed  atomic.Uint64
	lastFrame  atomic.Int64
}

// New creates a Streamer. It does not connect until Run.
func New(config Config) (*Streamer, error) {
	if config.Opener == nil {
		return nil, errors.New("stream: Opener is required")
	}
	if config.Bus == nil {
		return nil, errors.New("stream: Bus is required")
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.StallTimeout <= 0 {
		config.StallTimeout = DefaultStallTimeout
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = DefaultMaxBackoff
	}
	if config.DedupWindow <= 0 {
		config.DedupWindow = DefaultDedupWindow
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Streamer{
		opener:       config.Opener,
		bus:          config.Bus,
		clock:        config.Clock,
		stallTimeout: config.StallTimeout,
		maxBackoff:   config.MaxBackoff,
		logger:       config.Logger,
		dedup:        newWindow(config.DedupWindow),
		manual:       make(chan struct{}, 1),
	}, nil
}

// Reconnect asks the Streamer to drop the current session and reconnect
// with the attempt counter reset. Requests made while one is already
// pending collapse into it.
func (s *Streamer) Reconnect() {
	select {
	case s.manual <- struct{}{}:
	default:
	}
}

// State returns the current lifecycle state.
func (s *Streamer) State() State {
	return State(s.state.Load())
}

// Attempt returns the backoff attempt counter.
func (s *Streamer) Attempt() int {
	return int(s.attempt.Load())
}

// Stats returns counters for the status socket.
func (s *Streamer) Stats() Stats {
	stats := Stats{
		State:      s.State(),
		Attempt:    s.Attempt(),
		Published:  s.published.Load(),
		Duplicates: s.duplicates.Load(),
		Malformed:  s.malformed.Load(),
	}
	if nanos := s.lastFrame.Load(); nanos != 0 {
		stats.LastFrameAt = time.Unix(0, nanos)
	}
	return stats
}

// Run connects and keeps the stream connected until ctx is cancelled.
// It always returns ctx's error.
func (s *Streamer) Run(ctx context.Context) error {
	defer s.setState(StateDisconnected)

	for {
		s.setState(StateConnecting)
		cause := s.runSession(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		manual := errors.Is(cause, ErrManualReconnect)
		if manual {
			s.attempt.Store(0)
		}
		s.logger.Info("stream session ended",
			"cause", cause,
			"manual", manual,
			"attempt", s.Attempt(),
		)

		if err := s.waitBackoff(ctx); err != nil {
			return err
		}
	}
}

// waitBackoff runs the Reconnecting state. A manual request during the
// wait resets the counter and reschedules.
func (s *Streamer) waitBackoff(ctx context.Context) error {
	s.setState(StateReconnecting)
	for {
		delay := backoffDelay(s.Attempt(), s.maxBackoff)
		s.attempt.Add(1)
		s.bus.Publish(Item{Notice: ReconnectNotice})
		s.logger.Info("reconnecting stream", "delay", delay, "attempt", s.Attempt())

		fired := make(chan struct{})
		timer := s.clock.AfterFunc(delay, func() { close(fired) })

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-fired:
			return nil
		case <-s.manual:
			timer.Stop()
			s.attempt.Store(0)
			s.logger.Info("manual reconnect during backoff, rescheduling")
		}
	}
}

// backoffDelay is min(2^attempt seconds, limit).
func backoffDelay(attempt int, limit time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 32 {
		return limit
	}
	delay := time.Duration(1<<attempt) * time.Second
	if delay > limit {
		return limit
	}
	return delay
}

func (s *Streamer) setState(state State) {
	s.state.Store(int32(state))
}
