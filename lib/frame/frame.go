// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import "bytes"

// Terminator ends every frame.
const Terminator = "\r\n"

// DefaultMaxPending bounds the unterminated fragment a Splitter retains.
const DefaultMaxPending = 1 << 20

var terminator = []byte(Terminator)

// Splitter accumulates bytes and emits complete frames. The zero value
// is ready to use with DefaultMaxPending. A Splitter is not safe for
// concurrent use; each connection owns its own.
type Splitter struct {
	// MaxPending is the largest unterminated fragment retained between
	// calls. Zero means DefaultMaxPending.
	MaxPending int

	pending []byte
}

// Feed appends data to the retained fragment and returns every complete
// non-empty frame, without terminators, in stream order. The returned
// overflow flag reports that the retained fragment exceeded MaxPending
// and was discarded; the next terminator then ends a frame that starts
// mid-line, which callers treat as one undecodable frame.
func (s *Splitter) Feed(data []byte) (frames []string, overflow bool) {
	s.pending = append(s.pending, data...)

	for {
		index := bytes.Index(s.pending, terminator)
		if index < 0 {
			break
		}
		if index > 0 {
			frames = append(frames, string(s.pending[:index]))
		}
		s.pending = s.pending[index+len(terminator):]
	}

	limit := s.MaxPending
	if limit <= 0 {
		limit = DefaultMaxPending
	}
	if len(s.pending) > limit {
		// Keep a trailing CR: it may be the first half of a terminator.
		if s.pending[len(s.pending)-1] == '\r' {
			s.pending = append(s.pending[:0], '\r')
		} else {
			s.pending = s.pending[:0]
		}
		overflow = true
	}

	// Compact so a long-lived connection does not pin an ever-growing
	// backing array behind a short tail.
	if len(s.pending) == 0 {
		s.pending = nil
	} else if cap(s.pending) > 4*len(s.pending) && cap(s.pending) > 4096 {
		s.pending = append([]byte(nil), s.pending...)
	}
	return frames, overflow
}

// Pending returns the number of buffered bytes not yet terminated.
func (s *Splitter) Pending() int {
	return len(s.pending)
}

// Reset discards the retained fragment.
func (s *Splitter) Reset() {
	s.pending = nil
}
