/*
 *
 * Copyright 2025 the ringbuffer authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package ringbuf

import (
	"errors"
	"testing"
)

func TestWatchLifecycle(t *testing.T) {
	m := newTestMapping(t, testConfig())
	r, _ := m.Allocate(1, 1)

	i, err := r.ArmWatch("$x + 1")
	if err != nil {
		t.Fatalf("ArmWatch: %v", err)
	}
	if got := r.WatchState(i); got != WatchArmed {
		t.Fatalf("state after ArmWatch = %v, want WatchArmed", got)
	}

	expr, armed := r.PendingWatch(i)
	if !armed || expr != "$x + 1" {
		t.Fatalf("PendingWatch = %q,%v want $x + 1,true", expr, armed)
	}

	r.PostWatchResult(i, 1, []byte("2"))
	if got := r.WatchState(i); got != WatchResolved {
		t.Fatalf("state after PostWatchResult = %v, want WatchResolved", got)
	}

	if _, armed := r.PendingWatch(i); armed {
		t.Fatalf("PendingWatch should report false once resolved")
	}

	n, result, ok := r.ReadWatchResult(i)
	if !ok || n != 1 || string(result) != "2" {
		t.Fatalf("ReadWatchResult = %d,%q,%v want 1,2,true", n, result, ok)
	}

	r.RearmWatch(i)
	if got := r.WatchState(i); got != WatchArmed {
		t.Fatalf("state after RearmWatch = %v, want WatchArmed", got)
	}

	r.ReleaseWatch(i)
	if got := r.WatchState(i); got != WatchReleasing {
		t.Fatalf("state after ReleaseWatch = %v, want WatchReleasing", got)
	}

	r.AckRelease(i)
	if got := r.WatchState(i); got != WatchFree {
		t.Fatalf("state after AckRelease = %v, want WatchFree", got)
	}
}

func TestWatchExhaustion(t *testing.T) {
	m := newTestMapping(t, testConfig())
	r, _ := m.Allocate(1, 1)

	for i := 0; i < watchesPerRing; i++ {
		if _, err := r.ArmWatch("e"); err != nil {
			t.Fatalf("ArmWatch %d: %v", i, err)
		}
	}
	if _, err := r.ArmWatch("overflow"); !errors.Is(err, ErrExhausted) {
		t.Fatalf("ArmWatch past capacity = %v, want ErrExhausted", err)
	}
}

func TestWatchPostResultIgnoredUnlessArmed(t *testing.T) {
	m := newTestMapping(t, testConfig())
	r, _ := m.Allocate(1, 1)

	// Slot 0 starts Free; posting a result must be a silent no-op.
	r.PostWatchResult(0, 1, []byte("x"))
	if got := r.WatchState(0); got != WatchFree {
		t.Fatalf("state after spurious PostWatchResult = %v, want WatchFree", got)
	}
}

func TestWatchExprTooLarge(t *testing.T) {
	m := newTestMapping(t, testConfig())
	r, _ := m.Allocate(1, 1)

	big := make([]byte, watchExprSize+1)
	for i := range big {
		big[i] = 'x'
	}
	if _, err := r.ArmWatch(string(big)); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("ArmWatch with oversized expr = %v, want ErrTooLarge", err)
	}
}

func TestWatchNilRing(t *testing.T) {
	var r *Ring
	if _, err := r.ArmWatch("x"); !errors.Is(err, ErrExhausted) {
		t.Fatalf("nil ring ArmWatch = %v, want ErrExhausted", err)
	}
	if _, armed := r.PendingWatch(0); armed {
		t.Fatalf("nil ring PendingWatch should report false")
	}
	r.PostWatchResult(0, 0, nil)
	r.RearmWatch(0)
	r.ReleaseWatch(0)
	r.AckRelease(0)
	if _, _, ok := r.ReadWatchResult(0); ok {
		t.Fatalf("nil ring ReadWatchResult should report false")
	}
}
