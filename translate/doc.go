// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package translate renders feed events as single-line chat text.
//
// [Translator.Translate] maps a [feed.Event] to a [Message] naming the
// originating user and the display text. The mapping is pure apart from
// the clock used for relative ages, and never mutates the event: events
// are shared by every session subscribed to the bus.
//
// Rendering order for each user-supplied fragment:
//
//  1. extended text replaces the truncated text and its entities;
//  2. every short link from the urls and media entities is replaced by
//     its expanded form;
//  3. HTML entities are unescaped;
//  4. terminal escape sequences are stripped and CR and LF become spaces.
//
// Step 4 is what keeps a hostile status from injecting protocol lines.
package translate
