// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP response helpers and connection error
// classification shared by the feed client and the gateway listeners.
//
// ReadResponse, DecodeResponse and ErrorBody bound reads at
// MaxResponseSize. They are for REST responses only; the feed stream is
// read incrementally.
package netutil
