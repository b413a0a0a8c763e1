// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/tig/feed"
	"github.com/bureau-foundation/tig/lib/frame"
)

const readBufferSize = 32 << 10

// runSession runs one connection from open to end and returns why it
// ended.
func (s *Streamer) runSession(parent context.Context) error {
	ctx, cancel := context.WithCancelCause(parent)

	// The watcher runs for the whole session, including the connect, so
	// a manual request aborts a hanging connect too. It must be gone
	// before the backoff wait starts reading s.manual.
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-s.manual:
			if ctx.Err() != nil {
				// The session ended on its own; hand the request to
				// the backoff wait.
				s.Reconnect()
				return
			}
			cancel(ErrManualReconnect)
		case <-ctx.Done():
		}
	}()
	defer func() {
		cancel(nil)
		<-watcherDone
	}()

	body, err := s.opener.OpenStream(ctx)
	if err != nil {
		if cause := context.Cause(ctx); cause != nil {
			return cause
		}
		s.logger.Warn("opening stream failed", "error", err)
		return err
	}
	defer body.Close()
	stopClose := context.AfterFunc(ctx, func() { body.Close() })
	defer stopClose()

	s.setState(StateStreaming)
	s.logger.Info("stream connected")

	stall := s.clock.AfterFunc(s.stallTimeout, func() { cancel(ErrStalled) })
	defer stall.Stop()

	var splitter frame.Splitter
	buffer := make([]byte, readBufferSize)
	for {
		n, readErr := body.Read(buffer)
		if n > 0 {
			stall.Reset(s.stallTimeout)
			s.lastFrame.Store(s.clock.Now().UnixNano())

			frames, overflow := splitter.Feed(buffer[:n])
			if overflow {
				s.logger.Warn("discarding oversized unterminated frame")
			}
			for _, data := range frames {
				if endErr := s.handleFrame(data); endErr != nil {
					cancel(endErr)
					return endErr
				}
			}
		}
		if readErr != nil {
			if cause := context.Cause(ctx); cause != nil {
				return cause
			}
			if errors.Is(readErr, io.EOF) {
				return ErrStreamEnded
			}
			return fmt.Errorf("reading stream: %w", readErr)
		}
	}
}

// handleFrame decodes and routes one frame. A non-nil error ends the
// session.
func (s *Streamer) handleFrame(data string) error {
	event, err := feed.ParseRecord([]byte(data))
	if err != nil {
		s.malformed.Add(1)
		s.logger.Warn("discarding malformed frame", "error", err, "length", len(data))
		return nil
	}

	switch event := event.(type) {
	case *feed.Disconnect:
		s.logger.Warn("feed sent disconnect", "code", event.Code, "reason", event.Reason, "stream_name", event.StreamName)
		return fmt.Errorf("%w: code %d: %s", ErrDisconnected, event.Code, event.Reason)
	case *feed.Warning:
		s.logger.Warn("feed warning", "code", event.Code, "message", event.Message, "percent_full", event.PercentFull)
		return nil
	case *feed.Limit:
		s.logger.Info("feed limit notice", "track", event.Track)
		return nil
	}

	if !event.Kind().Visible() {
		s.logger.Debug("ignoring record", "kind", event.Kind())
		return nil
	}
	if s.dedup.Seen([]byte(data)) {
		s.duplicates.Add(1)
		s.logger.Debug("suppressing duplicate record", "kind", event.Kind())
		return nil
	}

	s.published.Add(1)
	delivered := s.bus.Publish(Item{Event: event})
	s.logger.Debug("published record", "kind", event.Kind(), "subscribers", delivered)
	return nil
}
