// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventbus is an in-process publish/subscribe fanout with one
// producer and any number of consumers.
//
// Each [Subscription] owns a buffered mailbox. [Bus.Publish] enqueues the
// event into every live mailbox before returning, so every subscriber
// sees events in publish order and never sees one twice. Publish never
// blocks on a consumer:
//
//   - a subscription whose done channel is closed is removed during the
//     next Publish;
//   - a subscription whose mailbox is full is removed and its channel
//     closed, with [Subscription.Overflowed] reporting true. Events are
//     never dropped from a live subscription.
//
// Thread safety: all exported methods are safe for concurrent use.
package eventbus
