// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package stream keeps the feed's user stream connected and publishes
// its records to the event bus.
//
// A [Streamer] runs one session at a time. Each session opens the
// stream, splits it into CR LF frames, decodes each frame, and publishes
// visible events as [Item]s. A session ends when:
//
//   - no bytes arrive for StallTimeout (keep-alive CR LFs count),
//   - the body ends or fails,
//   - the feed sends a disconnect record, or
//   - [Streamer.Reconnect] is called.
//
// The Streamer then waits min(2^attempt seconds, MaxBackoff), increments
// attempt, and starts a fresh session. The attempt counter survives
// automatic reconnects and is reset to zero only by Reconnect, which also
// cuts short a wait that is already pending.
//
// Every reconnect publishes an Item carrying [ReconnectNotice] so clients
// see why the timeline paused.
package stream
