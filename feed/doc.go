// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package feed talks to the remote timeline service: it opens the
// long-lived user stream, looks up users, and posts status updates. All
// requests are signed with OAuth 1.0a (HMAC-SHA1) using the secrets from
// lib/credential.
//
// The stream is a sequence of CR LF terminated JSON records. [ParseRecord]
// classifies one record into an [Event]. Only [*Status], [*Action] and
// [*DirectMessage] are user-visible; the remaining kinds are bookkeeping
// (the initial friends snapshot, deletion notices) or stream control
// (disconnect, warning, limit).
//
// HTTP failures are returned as [*APIError], which carries the status
// code and the response body:
//
//	var apiErr *feed.APIError
//	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests { ... }
package feed
