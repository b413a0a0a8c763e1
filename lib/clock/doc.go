// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source so that timer-driven
// code (the feed stall watchdog, reconnect backoff, relative timestamps)
// can be tested without sleeping.
//
// Production code holds a [Clock] and receives [Real] from main. Tests
// pass a [FakeClock], which never moves on its own:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	streamer := stream.New(stream.Config{Clock: fake, ...})
//	go streamer.Run(ctx)
//	fake.WaitForTimers(1)          // the stall timer is armed
//	fake.Advance(60 * time.Second) // and now it fires
//
// WaitForTimers closes the race between a goroutine registering a timer
// and the test advancing past it.
package clock
