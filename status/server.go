// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package status

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/tig/lib/codec"
)

// Action names.
const (
	ActionStatus    = "status"
	ActionReconnect = "reconnect"
)

// Snapshot is the "status" action's payload.
type Snapshot struct {
	Version     string    `cbor:"version"`
	State       string    `cbor:"state"`
	Attempt     int       `cbor:"attempt"`
	Subscribers int       `cbor:"subscribers"`
	Clients     int       `cbor:"clients"`
	Registered  int       `cbor:"registered"`
	Published   uint64    `cbor:"published"`
	Duplicates  uint64    `cbor:"duplicates"`
	Malformed   uint64    `cbor:"malformed"`
	LastFrameAt time.Time `cbor:"last_frame_at"`
}

// Response is the envelope for every reply.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

type request struct {
	Action string `cbor:"action"`
}

// Config holds what a Server reports on and controls.
type Config struct {
	// SocketPath is where the Unix socket is created. A stale socket
	// file at the path is removed first.
	SocketPath string

	// Snapshot is called once per "status" request.
	Snapshot func() Snapshot

	// Reconnect is called for "reconnect" requests. Nil disables the
	// action.
	Reconnect func()

	// Logger receives structured log output. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// Server answers control requests on a Unix socket.
type Server struct {
	socketPath string
	snapshot   func() Snapshot
	reconnect  func()
	logger     *slog.Logger

	activeConnections sync.WaitGroup
}

// NewServer validates config.
func NewServer(config Config) (*Server, error) {
	if config.SocketPath == "" {
		return nil, errors.New("status: SocketPath is required")
	}
	if config.Snapshot == nil {
		return nil, errors.New("status: Snapshot is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Server{
		socketPath: config.SocketPath,
		snapshot:   config.Snapshot,
		reconnect:  config.Reconnect,
		logger:     config.Logger,
	}, nil
}

const (
	readTimeout    = 10 * time.Second
	writeTimeout   = 10 * time.Second
	maxRequestSize = 4096
)

// Serve accepts connections until ctx is cancelled, then waits for
// in-flight requests. The socket file is removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	stop := context.AfterFunc(ctx, func() { listener.Close() })
	defer stop()

	s.logger.Info("status socket listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var request request
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&request); err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		s.write(conn, Response{Error: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	switch request.Action {
	case ActionStatus:
		data, err := codec.Marshal(s.snapshot())
		if err != nil {
			s.write(conn, Response{Error: fmt.Sprintf("internal: marshaling snapshot: %v", err)})
			return
		}
		s.write(conn, Response{OK: true, Data: data})

	case ActionReconnect:
		if s.reconnect == nil {
			s.write(conn, Response{Error: "reconnect is not available"})
			return
		}
		s.logger.Info("reconnect requested over status socket")
		s.reconnect()
		s.write(conn, Response{OK: true})

	case "":
		s.write(conn, Response{Error: "missing required field: action"})

	default:
		s.write(conn, Response{Error: fmt.Sprintf("unknown action %q", request.Action)})
	}
}

func (s *Server) write(conn net.Conn, response Response) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}
