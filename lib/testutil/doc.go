// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive], [RequireSend] and [RequireClosed] wrap the
// select-with-timeout safety valve so tests never hang. They are the only
// place tests touch the wall clock; timing under test goes through
// lib/clock's fake.
//
// [SocketDir] returns a short temporary directory for Unix sockets,
// whose paths are limited to 108 bytes.
//
// [LineReader] reads CR LF terminated protocol lines from a connection
// with a bounded wait.
//
// All helpers call t.Fatalf on failure.
package testutil
