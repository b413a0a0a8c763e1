// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway serves the timeline to chat clients over a minimal IRC
// subset.
//
// Each accepted connection gets a session that walks the registration
// handshake (NICK and USER, in either order), is joined to the single
// timeline channel, and then receives every bus item:
//
//   - feed events are translated; events authored by the session's own
//     nick become TOPIC changes, all others PRIVMSG from the author;
//   - stream notices become NOTICE.
//
// PRIVMSG to the channel posts a status update, except a CTCP ACTION of
// "r" or "reconnect", which asks the streamer to reconnect. PING is
// answered, QUIT closes the link, and everything else is ignored.
//
// Sessions run three goroutines: a reader, a writer draining a bounded
// queue, and an owner that holds all session state. A client too slow to
// keep its queue or bus mailbox drained is disconnected with
// "SendQ exceeded".
//
// Clients connect over TCP with CR LF framing, or optionally over
// WebSocket at /irc with one line per text message.
package gateway
