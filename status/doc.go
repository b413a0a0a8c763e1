// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package status serves the gateway's local control socket.
//
// The protocol is one CBOR request per Unix socket connection: the client
// writes {action: "..."} and the server answers with a [Response]
// envelope, then closes. Two actions exist:
//
//   - "status" returns a [Snapshot] of the stream supervisor and the
//     connected clients.
//   - "reconnect" asks the supervisor for a manual reconnect, the same
//     request a client makes with "/me r".
//
// [Query] and [Reconnect] are the client side, used by the tig-gateway
// status and reconnect subcommands.
package status
