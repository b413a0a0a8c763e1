// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package stream

import "github.com/zeebo/blake3"

// window remembers the digests of the last size frames.
type window struct {
	ring [][32]byte
	next int
	full bool
	seen map[[32]byte]struct{}
}

func newWindow(size int) *window {
	return &window{
		ring: make([][32]byte, size),
		seen: make(map[[32]byte]struct{}, size),
	}
}

// Seen reports whether data is in the window, adding it if not. The
// oldest digest is evicted once the window is full.
func (w *window) Seen(data []byte) bool {
	digest := blake3.Sum256(data)
	if _, ok := w.seen[digest]; ok {
		return true
	}
	if w.full {
		delete(w.seen, w.ring[w.next])
	}
	w.ring[w.next] = digest
	w.seen[digest] = struct{}{}
	w.next++
	if w.next == len(w.ring) {
		w.next = 0
		w.full = true
	}
	return false
}
