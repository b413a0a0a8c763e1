// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration for tig's local wire
// formats. The feed itself speaks JSON; CBOR is used only on sockets the
// gateway serves to local tools, such as the status socket.
//
// Encoding uses Core Deterministic Encoding so the same snapshot always
// produces the same bytes. Decoding ignores unknown fields, which lets an
// older tig-gateway status command read a newer daemon's snapshot.
package codec
