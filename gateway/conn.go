// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/tig/lib/frame"
)

const (
	// maxLineLength bounds an unterminated client line.
	maxLineLength = 64 << 10

	writeTimeout = 10 * time.Second
)

// Conn is a line-oriented client connection. ReadLines and WriteLine are
// each called from a single goroutine; Close may be called from any.
type Conn interface {
	// ReadLines blocks until at least one complete line is available or
	// the connection fails.
	ReadLines() ([]string, error)

	// WriteLine sends one line. The terminator is added by the transport.
	WriteLine(line string) error

	Close() error

	// RemoteHost is the peer's host, used in the client's prefix.
	RemoteHost() string
}

// streamConn frames a byte stream with CR LF.
type streamConn struct {
	conn     net.Conn
	splitter frame.Splitter
	buffer   []byte
}

// NewStreamConn wraps a byte-stream connection such as TCP.
func NewStreamConn(conn net.Conn) Conn {
	return &streamConn{
		conn:     conn,
		splitter: frame.Splitter{MaxPending: maxLineLength},
		buffer:   make([]byte, 4096),
	}
}

func (c *streamConn) ReadLines() ([]string, error) {
	for {
		n, err := c.conn.Read(c.buffer)
		if n > 0 {
			// Oversized lines are dropped; the client sees no reply.
			lines, _ := c.splitter.Feed(c.buffer[:n])
			if len(lines) > 0 {
				return lines, nil
			}
		}
		if err != nil {
			return nil, err
		}
	}
}

func (c *streamConn) WriteLine(line string) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := c.conn.Write([]byte(line + frame.Terminator))
	return err
}

func (c *streamConn) Close() error {
	return c.conn.Close()
}

func (c *streamConn) RemoteHost() string {
	return hostOf(c.conn.RemoteAddr().String())
}

// webSocketConn carries one or more lines per text message inbound and
// exactly one line per message outbound.
type webSocketConn struct {
	conn       *websocket.Conn
	remoteHost string
}

// NewWebSocketConn wraps an upgraded WebSocket connection.
func NewWebSocketConn(conn *websocket.Conn, remoteAddr string) Conn {
	conn.SetReadLimit(maxLineLength)
	return &webSocketConn{conn: conn, remoteHost: hostOf(remoteAddr)}
}

func (c *webSocketConn) ReadLines() ([]string, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var lines []string
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSuffix(line, "\r")
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			return lines, nil
		}
	}
}

func (c *webSocketConn) WriteLine(line string) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (c *webSocketConn) Close() error {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *webSocketConn) RemoteHost() string {
	return c.remoteHost
}

func hostOf(address string) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return address
	}
	return host
}
