// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/tig/feed"
	"github.com/bureau-foundation/tig/lib/eventbus"
	"github.com/bureau-foundation/tig/stream"
	"github.com/bureau-foundation/tig/translate"
)

// DefaultQueueSize is the per-client outbound line queue.
const DefaultQueueSize = 512

// WebSocketPath is where the WebSocket transport is served.
const WebSocketPath = "/irc"

// Feed is the subset of the feed client sessions use.
type Feed interface {
	ShowUser(ctx context.Context, screenName string) (*feed.User, error)
	Update(ctx context.Context, text string) (*feed.Status, error)
}

// Reconnector restarts the feed stream. *stream.Streamer implements it.
type Reconnector interface {
	Reconnect()
}

// Config holds configuration for creating a Server.
type Config struct {
	// Name is the server prefix. Defaults to "tig".
	Name string

	// Channel is the timeline channel. Defaults to "#timeline".
	Channel string

	// ListenAddr is the TCP address for clients (e.g. "127.0.0.1:16668").
	ListenAddr string

	// WebSocketAddr, when set, also serves clients over WebSocket.
	WebSocketAddr string

	Bus         *eventbus.Bus[stream.Item]
	Feed        Feed
	Reconnector Reconnector

	// Translator renders events. Nil means a zero Translator.
	Translator *translate.Translator

	// QueueSize defaults to DefaultQueueSize.
	QueueSize int

	// Logger receives structured log output. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// Server accepts client connections and runs a session for each.
type Server struct {
	name          string
	channel       string
	listenAddr    string
	webSocketAddr string
	bus           *eventbus.Bus[stream.Item]
	feed          Feed
	reconnector   Reconnector
	translator    *translate.Translator
	queueSize     int
	logger        *slog.Logger

	listener   net.Listener
	wsListener net.Listener
	httpServer *http.Server
	cancel     context.CancelFunc
	done       chan struct{}

	connections sync.WaitGroup
	posts       sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*session
	draining bool
}

// NewServer validates config and returns an unstarted Server.
func NewServer(config Config) (*Server, error) {
	if config.Bus == nil {
		return nil, errors.New("gateway: Bus is required")
	}
	if config.Feed == nil {
		return nil, errors.New("gateway: Feed is required")
	}
	if config.Reconnector == nil {
		return nil, errors.New("gateway: Reconnector is required")
	}
	if config.Name == "" {
		config.Name = "tig"
	}
	if config.Channel == "" {
		config.Channel = "#timeline"
	}
	if config.Translator == nil {
		config.Translator = &translate.Translator{}
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Server{
		name:          config.Name,
		channel:       config.Channel,
		listenAddr:    config.ListenAddr,
		webSocketAddr: config.WebSocketAddr,
		bus:           config.Bus,
		feed:          config.Feed,
		reconnector:   config.Reconnector,
		translator:    config.Translator,
		queueSize:     config.QueueSize,
		logger:        config.Logger,
		sessions:      make(map[string]*session),
	}, nil
}

// Start binds the configured listeners and accepts in the background
// until Stop is called or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.listenAddr == "" {
		return fmt.Errorf("gateway: ListenAddr is required")
	}
	listener, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("gateway: failed to listen on %s: %w", s.listenAddr, err)
	}

	if s.webSocketAddr != "" {
		s.wsListener, err = net.Listen("tcp", s.webSocketAddr)
		if err != nil {
			listener.Close()
			return fmt.Errorf("gateway: failed to listen on %s: %w", s.webSocketAddr, err)
		}
	}
	s.listener = listener

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	var loops sync.WaitGroup
	loops.Add(1)
	go func() {
		defer loops.Done()
		s.acceptLoop(ctx)
	}()

	if s.wsListener != nil {
		mux := http.NewServeMux()
		mux.HandleFunc(WebSocketPath, func(w http.ResponseWriter, r *http.Request) {
			s.handleWebSocket(ctx, w, r)
		})
		s.httpServer = &http.Server{Handler: mux}
		loops.Add(1)
		go func() {
			defer loops.Done()
			if err := s.httpServer.Serve(s.wsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("websocket server failed", "error", err)
			}
		}()
	}

	go func() {
		defer close(s.done)
		loops.Wait()
		s.mu.Lock()
		s.draining = true
		s.mu.Unlock()
		s.connections.Wait()
		s.posts.Wait()
	}()

	context.AfterFunc(ctx, s.closeListeners)

	s.logger.Info("gateway started",
		"listen_addr", s.listener.Addr().String(),
		"websocket_addr", s.WebSocketAddr(),
		"channel", s.channel,
	)
	return nil
}

// Addr returns the TCP listener's address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// WebSocketAddr returns the WebSocket listener's address, or nil when
// not serving WebSocket.
func (s *Server) WebSocketAddr() net.Addr {
	if s.wsListener == nil {
		return nil
	}
	return s.wsListener.Addr()
}

// Stop closes the listeners, ends every session and waits for them and
// their pending posts to finish.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.closeListeners()
	if s.done != nil {
		<-s.done
	}
}

func (s *Server) closeListeners() {
	if s.listener != nil {
		s.listener.Close()
	}
	if s.httpServer != nil {
		s.httpServer.Close()
	}
}

// Clients reports how many sessions are connected and how many of them
// completed registration.
func (s *Server) Clients() (connected, registered int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		connected++
		if session.State() == StateRegistered {
			registered++
		}
	}
	return connected, registered
}

// Serve runs a session on conn until it ends. The accept loop and the
// WebSocket handler call it; it is exported for custom transports.
func (s *Server) Serve(ctx context.Context, conn Conn) {
	id := uuid.NewString()
	logger := s.logger.With("connection_id", id)
	logger.Debug("connection accepted", "remote_host", conn.RemoteHost())

	session := newSession(s, id, conn, logger)
	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	}()

	session.run(ctx)
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		connection, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		if !s.trackConnection() {
			connection.Close()
			return
		}
		go func() {
			defer s.connections.Done()
			s.Serve(ctx, NewStreamConn(connection))
		}()
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// trackConnection counts a new connection, or reports false once the
// server has begun draining.
func (s *Server) trackConnection() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draining {
		return false
	}
	s.connections.Add(1)
	return true
}

func (s *Server) handleWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if !s.trackConnection() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.connections.Done()

	connection, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	s.Serve(ctx, NewWebSocketConn(connection, r.RemoteAddr))
}
