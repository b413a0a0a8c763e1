// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/tig/feed"
	"github.com/bureau-foundation/tig/lib/eventbus"
	"github.com/bureau-foundation/tig/lib/netutil"
	"github.com/bureau-foundation/tig/stream"
)

// SessionState is a client session's registration state.
type SessionState int32

const (
	StateUnregistered SessionState = iota
	StateNickSet
	StateRegistered
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateNickSet:
		return "nick_set"
	case StateRegistered:
		return "registered"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

const (
	replyWelcome    = "001"
	sendQueueReason = "SendQ exceeded"

	// postTimeout bounds a status update, which outlives its session.
	postTimeout = 30 * time.Second
)

type session struct {
	id     string
	server *Server
	conn   Conn
	logger *slog.Logger

	state atomic.Int32

	// Owned by the run goroutine.
	nick         string
	username     string
	realname     string
	userReceived bool
	subscription *eventbus.Subscription[stream.Item]

	incoming   chan []string
	readErr    error
	outgoing   chan string
	async      chan func() bool
	closed     chan struct{}
	readerDone chan struct{}
	writerDone chan struct{}
}

func newSession(server *Server, id string, conn Conn, logger *slog.Logger) *session {
	return &session{
		id:         id,
		server:     server,
		conn:       conn,
		logger:     logger,
		incoming:   make(chan []string),
		outgoing:   make(chan string, server.queueSize),
		async:      make(chan func() bool),
		closed:     make(chan struct{}),
		readerDone: make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

func (s *session) State() SessionState {
	return SessionState(s.state.Load())
}

func (s *session) setState(state SessionState) {
	s.state.Store(int32(state))
}

// run owns the session until the connection ends or ctx is cancelled.
func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.readLoop()
	go s.writeLoop()
	defer s.teardown()

	for {
		var deliveries <-chan stream.Item
		if s.subscription != nil {
			deliveries = s.subscription.C()
		}

		select {
		case <-ctx.Done():
			s.closeLink("Server shutting down")
			return

		case lines, ok := <-s.incoming:
			if !ok {
				if s.readErr != nil && !netutil.IsExpectedCloseError(s.readErr) {
					s.logger.Warn("client read failed", "error", s.readErr)
				}
				return
			}
			for _, line := range lines {
				if !s.handleLine(ctx, line) {
					return
				}
			}

		case item, ok := <-deliveries:
			if !ok {
				if s.subscription.Overflowed() {
					s.logger.Warn("client fell behind the timeline, disconnecting")
					s.closeLink(sendQueueReason)
				}
				return
			}
			if !s.deliver(item) {
				return
			}

		case apply := <-s.async:
			if !apply() {
				return
			}

		case <-s.writerDone:
			return
		}
	}
}

func (s *session) readLoop() {
	defer close(s.readerDone)
	defer close(s.incoming)
	for {
		lines, err := s.conn.ReadLines()
		if err != nil {
			s.readErr = err
			return
		}
		select {
		case s.incoming <- lines:
		case <-s.closed:
			return
		}
	}
}

func (s *session) writeLoop() {
	defer close(s.writerDone)
	for line := range s.outgoing {
		if err := s.conn.WriteLine(line); err != nil {
			if !netutil.IsExpectedCloseError(err) {
				s.logger.Warn("client write failed", "error", err)
			}
			s.conn.Close()
			return
		}
	}
}

// teardown runs once, on the owner goroutine. Queued lines are flushed
// before the connection closes.
func (s *session) teardown() {
	s.setState(StateClosing)
	if s.subscription != nil {
		s.subscription.Close()
	}
	close(s.closed)
	close(s.outgoing)
	<-s.writerDone
	s.conn.Close()
	<-s.readerDone
	s.setState(StateClosed)
	s.logger.Debug("session closed", "nick", s.nick)
}

// send queues a message. A full queue ends the session.
func (s *session) send(message Message) bool {
	if message.Prefix == "" {
		message.Prefix = s.server.name
	}
	select {
	case s.outgoing <- message.String():
		return true
	default:
		s.logger.Warn("client send queue full, disconnecting")
		return false
	}
}

// closeLink queues a final ERROR line if there is room.
func (s *session) closeLink(reason string) {
	host := s.conn.RemoteHost()
	select {
	case s.outgoing <- Message{Command: "ERROR", Params: []string{"Closing Link: " + host + " (" + reason + ")"}}.String():
	default:
	}
}

// postAsync hands apply to the owner goroutine, or drops it if the
// session has ended.
func (s *session) postAsync(apply func() bool) {
	select {
	case s.async <- apply:
	case <-s.closed:
	}
}

// handleLine processes one client line and reports whether the session
// continues.
func (s *session) handleLine(ctx context.Context, line string) bool {
	message, err := ParseMessage(line)
	if err != nil {
		return true
	}
	command, err := ParseCommand(message)
	if err != nil {
		s.logger.Debug("ignoring malformed command", "error", err)
		return true
	}

	switch command := command.(type) {
	case NickCommand:
		if s.State() == StateRegistered {
			return true
		}
		s.nick = command.Nickname
		if s.State() == StateUnregistered {
			s.setState(StateNickSet)
		}
		return s.maybeRegister(ctx)

	case UserCommand:
		if s.State() == StateRegistered {
			return true
		}
		s.username = command.Username
		s.realname = command.Realname
		s.userReceived = true
		return s.maybeRegister(ctx)

	case PingCommand:
		return s.send(Message{Command: "PONG", Params: []string{s.server.name, command.Token}})

	case QuitCommand:
		reason := "Quit"
		if command.Reason != "" {
			reason = "Quit: " + command.Reason
		}
		s.closeLink(reason)
		return false

	case PrivmsgCommand:
		if s.State() != StateRegistered {
			return true
		}
		return s.privmsg(ctx, command)

	case UnknownCommand:
		s.logger.Debug("ignoring command", "command", command.Message.Command)
	}
	return true
}

func (s *session) maybeRegister(ctx context.Context) bool {
	if s.nick == "" || !s.userReceived {
		return true
	}
	s.setState(StateRegistered)
	s.logger.Info("client registered", "nick", s.nick, "username", s.username)

	channel := s.server.channel
	ident := strings.ReplaceAll(s.realname, " ", "_")
	if ident == "" {
		ident = s.username
	}
	if !s.send(Message{Command: replyWelcome, Params: []string{s.nick, "Welcome to " + s.server.name}}) ||
		!s.send(Message{Prefix: s.nick + "!" + ident + "@" + s.conn.RemoteHost(), Command: "JOIN", Params: []string{channel}}) ||
		!s.send(Message{Command: "MODE", Params: []string{channel, "+mot", s.nick}}) {
		return false
	}

	s.subscription = s.server.bus.Subscribe(s.writerDone)
	go s.fetchTopic(ctx, s.nick)
	return true
}

// fetchTopic seeds the channel topic with the viewer's latest status.
func (s *session) fetchTopic(ctx context.Context, nick string) {
	user, err := s.server.feed.ShowUser(ctx, nick)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("fetching last status failed", "error", err)
		}
		return
	}
	if user.Status == nil {
		return
	}
	status := *user.Status
	if status.User.ScreenName == "" {
		status.User = feed.User{ScreenName: user.ScreenName}
	}
	message, ok := s.server.translator.Translate(&status, nick)
	if !ok {
		return
	}
	s.postAsync(func() bool {
		return s.send(Message{Command: "TOPIC", Params: []string{s.server.channel, message.Text}})
	})
}

func (s *session) privmsg(ctx context.Context, command PrivmsgCommand) bool {
	if !strings.EqualFold(command.Target, s.server.channel) {
		s.logger.Debug("ignoring message to other target", "target", command.Target)
		return true
	}

	if verb, argument, isCTCP := ctcp(command.Text); isCTCP {
		if verb == "ACTION" && isReconnectAction(argument) {
			s.logger.Info("client requested stream reconnect")
			s.server.reconnector.Reconnect()
		}
		return true
	}

	s.server.posts.Add(1)
	go func() {
		defer s.server.posts.Done()
		s.postStatus(context.WithoutCancel(ctx), command.Text)
	}()
	return true
}

func (s *session) postStatus(ctx context.Context, text string) {
	ctx, cancel := context.WithTimeout(ctx, postTimeout)
	defer cancel()
	if _, err := s.server.feed.Update(ctx, text); err != nil {
		s.logger.Warn("posting status failed", "error", err)
		notice := "Post failed: " + singleLine(err.Error())
		s.postAsync(func() bool {
			return s.send(Message{Command: "NOTICE", Params: []string{s.server.channel, notice}})
		})
		return
	}
	s.logger.Debug("status posted")
}

func (s *session) deliver(item stream.Item) bool {
	if item.Notice != "" {
		return s.send(Message{Command: "NOTICE", Params: []string{s.server.channel, item.Notice}})
	}

	message, ok := s.server.translator.Translate(item.Event, s.nick)
	if !ok {
		return true
	}
	if message.Self {
		return s.send(Message{Command: "TOPIC", Params: []string{s.server.channel, message.Text}})
	}
	origin := message.Origin
	if origin == "" {
		origin = s.server.name
	}
	return s.send(Message{Prefix: origin, Command: "PRIVMSG", Params: []string{s.server.channel, message.Text}})
}

var lineFlattener = strings.NewReplacer("\r", " ", "\n", " ")

func singleLine(text string) string {
	return lineFlattener.Replace(text)
}
