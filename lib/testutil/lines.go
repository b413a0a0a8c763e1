// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bufio"
	"net"
	"strings"
	"time"
)

// LineReader reads CR LF terminated lines from a connection.
type LineReader struct {
	conn   net.Conn
	reader *bufio.Reader
}

// NewLineReader wraps conn.
func NewLineReader(conn net.Conn) *LineReader {
	return &LineReader{conn: conn, reader: bufio.NewReader(conn)}
}

// Next returns the next line without its terminator, failing the test if
// none arrives within timeout or the line is not CR LF terminated.
func (r *LineReader) Next(t TB, timeout time.Duration) string {
	t.Helper()
	if err := r.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("setting read deadline: %v", err)
	}
	line, err := r.reader.ReadString('\n')
	if err != nil {
		t.Fatalf("reading line (partial %q): %v", line, err)
	}
	if !strings.HasSuffix(line, "\r\n") {
		t.Fatalf("line %q is not CR LF terminated", line)
	}
	return strings.TrimSuffix(line, "\r\n")
}

// Until reads lines until one satisfies match and returns it along with
// the lines skipped before it.
func (r *LineReader) Until(t TB, timeout time.Duration, match func(string) bool) (string, []string) {
	t.Helper()
	var skipped []string
	for {
		line := r.Next(t, timeout)
		if match(line) {
			return line, skipped
		}
		skipped = append(skipped, line)
	}
}
