// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package frame splits a byte stream into CR LF terminated frames.
//
// Both sides of the gateway speak CR LF delimited text: the feed delivers
// one JSON record per line over a chunked HTTP response, and IRC clients
// send one command per line. Neither transport respects line boundaries
// when it hands bytes to a reader, so a [Splitter] buffers the trailing
// unterminated fragment between calls to [Splitter.Feed]. Splitting the
// same input at any byte position (including between the CR and the LF)
// yields the same sequence of frames.
//
// Empty frames (consecutive terminators, which the feed sends as
// keep-alives) are dropped. Content is otherwise passed through opaquely;
// decoding is the caller's concern.
package frame
