// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync/atomic"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAfter(t *testing.T) {
	clock := Fake(epoch)
	channel := clock.After(5 * time.Second)

	clock.Advance(4 * time.Second)
	select {
	case <-channel:
		t.Fatal("After fired before its deadline")
	default:
	}

	clock.Advance(time.Second)
	select {
	case fired := <-channel:
		if !fired.Equal(epoch.Add(5 * time.Second)) {
			t.Fatalf("fired at %v", fired)
		}
	default:
		t.Fatal("After did not fire at its deadline")
	}
	if clock.PendingCount() != 0 {
		t.Fatalf("PendingCount() = %d, want 0", clock.PendingCount())
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	clock := Fake(epoch)
	select {
	case <-clock.After(0):
	default:
		t.Fatal("After(0) should deliver immediately")
	}
}

func TestFakeAfterFuncResetPostponesCall(t *testing.T) {
	clock := Fake(epoch)
	var calls atomic.Int32
	timer := clock.AfterFunc(60*time.Second, func() { calls.Add(1) })

	clock.Advance(59 * time.Second)
	if !timer.Reset(60 * time.Second) {
		t.Fatal("Reset should report the timer as pending")
	}
	clock.Advance(59 * time.Second)
	if calls.Load() != 0 {
		t.Fatal("callback ran before the reset deadline")
	}
	clock.Advance(time.Second)
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}

	// Fired timers can be revived.
	if timer.Reset(time.Second) {
		t.Fatal("Reset after firing should report not pending")
	}
	clock.Advance(time.Second)
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestFakeAfterFuncStop(t *testing.T) {
	clock := Fake(epoch)
	var called atomic.Bool
	timer := clock.AfterFunc(time.Second, func() { called.Store(true) })

	if !timer.Stop() {
		t.Fatal("Stop should report the timer as pending")
	}
	if timer.Stop() {
		t.Fatal("second Stop should report not pending")
	}
	clock.Advance(time.Hour)
	if called.Load() {
		t.Fatal("stopped timer fired")
	}
}

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	clock := Fake(epoch)
	var order []int
	clock.AfterFunc(3*time.Second, func() { order = append(order, 3) })
	clock.AfterFunc(1*time.Second, func() { order = append(order, 1) })
	clock.AfterFunc(2*time.Second, func() { order = append(order, 2) })

	clock.Advance(10 * time.Second)
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("order = %v, want [1 2 3]", order)
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	clock := Fake(epoch)
	registered := make(chan struct{})
	go func() {
		<-registered
		clock.After(time.Second)
	}()
	close(registered)
	clock.WaitForTimers(1)
	if clock.PendingCount() != 1 {
		t.Fatalf("PendingCount() = %d, want 1", clock.PendingCount())
	}
}

func TestClocksImplementInterface(t *testing.T) {
	var _ Clock = Fake(epoch)
	var _ Clock = Real()
}
