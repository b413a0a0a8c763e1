// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package frame

import (
	"reflect"
	"strings"
	"testing"
)

func feedAll(splitter *Splitter, chunks ...string) []string {
	var frames []string
	for _, chunk := range chunks {
		got, _ := splitter.Feed([]byte(chunk))
		frames = append(frames, got...)
	}
	return frames
}

func TestFeedSingleCall(t *testing.T) {
	var splitter Splitter
	frames := feedAll(&splitter, "{\"a\":1}\r\n{\"b\":2}\r\n")
	want := []string{`{"a":1}`, `{"b":2}`}
	if !reflect.DeepEqual(frames, want) {
		t.Fatalf("frames = %q, want %q", frames, want)
	}
	if splitter.Pending() != 0 {
		t.Fatalf("Pending() = %d, want 0", splitter.Pending())
	}
}

func TestFeedRetainsPartialFrame(t *testing.T) {
	var splitter Splitter
	frames := feedAll(&splitter, "NICK alice\r\nUSER al")
	if !reflect.DeepEqual(frames, []string{"NICK alice"}) {
		t.Fatalf("frames = %q", frames)
	}
	if splitter.Pending() != len("USER al") {
		t.Fatalf("Pending() = %d, want %d", splitter.Pending(), len("USER al"))
	}

	frames = feedAll(&splitter, "ice 0 * :Alice\r\n")
	if !reflect.DeepEqual(frames, []string{"USER alice 0 * :Alice"}) {
		t.Fatalf("frames = %q", frames)
	}
}

func TestFeedFragmentationInvariant(t *testing.T) {
	input := "first frame\r\nsecond frame\r\n"
	want := []string{"first frame", "second frame"}

	// Every two-way split, including the split between CR and LF.
	for split := 0; split <= len(input); split++ {
		var splitter Splitter
		frames := feedAll(&splitter, input[:split], input[split:])
		if !reflect.DeepEqual(frames, want) {
			t.Fatalf("split at %d: frames = %q, want %q", split, frames, want)
		}
	}

	// Byte by byte.
	var splitter Splitter
	var chunks []string
	for index := range input {
		chunks = append(chunks, input[index:index+1])
	}
	if frames := feedAll(&splitter, chunks...); !reflect.DeepEqual(frames, want) {
		t.Fatalf("byte-by-byte: frames = %q, want %q", frames, want)
	}
}

func TestFeedDropsEmptyFrames(t *testing.T) {
	var splitter Splitter
	frames := feedAll(&splitter, "\r\n\r\nhello\r\n\r\n", "\r", "\n")
	if !reflect.DeepEqual(frames, []string{"hello"}) {
		t.Fatalf("frames = %q, want [hello]", frames)
	}
}

func TestFeedBareLineFeedIsContent(t *testing.T) {
	var splitter Splitter
	frames := feedAll(&splitter, "a\nb\rc\r\n")
	if !reflect.DeepEqual(frames, []string{"a\nb\rc"}) {
		t.Fatalf("frames = %q", frames)
	}
}

func TestFeedOverflowDiscardsFragment(t *testing.T) {
	splitter := Splitter{MaxPending: 8}
	frames, overflow := splitter.Feed([]byte(strings.Repeat("x", 20)))
	if len(frames) != 0 {
		t.Fatalf("frames = %q, want none", frames)
	}
	if !overflow {
		t.Fatal("expected overflow")
	}
	if splitter.Pending() != 0 {
		t.Fatalf("Pending() = %d after overflow, want 0", splitter.Pending())
	}

	frames, overflow = splitter.Feed([]byte("tail\r\nok\r\n"))
	if overflow {
		t.Fatal("unexpected overflow")
	}
	if !reflect.DeepEqual(frames, []string{"tail", "ok"}) {
		t.Fatalf("frames = %q", frames)
	}
}

func TestFeedOverflowKeepsTrailingCR(t *testing.T) {
	splitter := Splitter{MaxPending: 4}
	if _, overflow := splitter.Feed([]byte("xxxxxx\r")); !overflow {
		t.Fatal("expected overflow")
	}
	frames, _ := splitter.Feed([]byte("\nnext\r\n"))
	if !reflect.DeepEqual(frames, []string{"next"}) {
		t.Fatalf("frames = %q, want [next]", frames)
	}
}

func TestReset(t *testing.T) {
	var splitter Splitter
	splitter.Feed([]byte("partial"))
	splitter.Reset()
	frames, _ := splitter.Feed([]byte("line\r\n"))
	if !reflect.DeepEqual(frames, []string{"line"}) {
		t.Fatalf("frames = %q, want [line]", frames)
	}
}
