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

// The six scenarios below reproduce, with their literal configuration
// and values, the worked examples that motivated this package's
// design: an allocation/free sequence, a slot-wraparound sequence, a
// mailbox round trip, a watch-expression lifecycle, chunked transfer
// through the global message area, and non-fatal pool exhaustion.

func TestScenarioAllocationFree(t *testing.T) {
	cfg := Config{MaxBuffers: 3, Slots: 4, SlotSz: 64, MsgAreaSz: 64, GlobalSz: 1024}
	m := newTestMapping(t, cfg)

	r0, err := m.Allocate(1, 1)
	if err != nil || r0.Index() != 0 {
		t.Fatalf("first Allocate = %v, idx %d; want ring 0", err, r0.Index())
	}
	if m.IsFree(0) || !m.IsFree(1) || !m.IsFree(2) {
		t.Fatalf("free_map after first allocate: [%v %v %v], want [false true true]",
			m.IsFree(0), m.IsFree(1), m.IsFree(2))
	}

	r1, err := m.Allocate(2, 2)
	if err != nil || r1.Index() != 1 {
		t.Fatalf("second Allocate = %v, idx %d; want ring 1", err, r1.Index())
	}
	if m.IsFree(0) || m.IsFree(1) || !m.IsFree(2) {
		t.Fatalf("free_map after second allocate: [%v %v %v], want [false false true]",
			m.IsFree(0), m.IsFree(1), m.IsFree(2))
	}

	r0.Free()
	if !m.IsFree(0) || m.IsFree(1) || !m.IsFree(2) {
		t.Fatalf("free_map after free(0): [%v %v %v], want [true false true]",
			m.IsFree(0), m.IsFree(1), m.IsFree(2))
	}

	r2, err := m.Allocate(3, 3)
	if err != nil || r2.Index() != 0 {
		t.Fatalf("third Allocate = %v, idx %d; want lowest free index 0", err, r2.Index())
	}
}

func TestScenarioSlotWrap(t *testing.T) {
	cfg := Config{MaxBuffers: 1, Slots: 3, SlotSz: 64, MsgAreaSz: 64, GlobalSz: 64}
	m := newTestMapping(t, cfg)
	r, _ := m.Allocate(1, 1)

	r.Enter("a")
	r.Record(10, 1.0)
	r.Enter("b")
	r.Record(20, 2.0)
	r.Enter("c")
	r.Record(30, 3.0)
	r.Enter("d")
	r.Record(40, 4.0)

	if got := r.Depth(); got != 4 {
		t.Fatalf("depth = %d, want 4", got)
	}

	snap := r.Snapshot()
	want := []Slot{
		{LineNumber: 40, Timestamp: 4.0, Subroutine: "d"},
		{LineNumber: 30, Timestamp: 3.0, Subroutine: "c"},
		{LineNumber: 20, Timestamp: 2.0, Subroutine: "b"},
	}
	if len(snap) != len(want) {
		t.Fatalf("snapshot len = %d, want %d", len(snap), len(want))
	}
	for i := range want {
		if snap[i] != want[i] {
			t.Fatalf("snapshot[%d] = %+v, want %+v", i, snap[i], want[i])
		}
	}
}

func TestScenarioMailboxRoundTrip(t *testing.T) {
	m := newTestMapping(t, testConfig())
	r, _ := m.Allocate(1, 1)

	r.PostRequest([4]byte{'S', 'T', 'E', 'P'}, []byte(""))

	cmd, _, ok := r.TakeRequest()
	if !ok || cmd != [4]byte{'S', 'T', 'E', 'P'} {
		t.Fatalf("TakeRequest = %v,%v want STEP,true", cmd, ok)
	}

	r.PostResponse([]byte("OK"))

	msg, ok := r.ReadResponse()
	if !ok || string(msg) != "OK" {
		t.Fatalf("ReadResponse = %q,%v want OK,true", msg, ok)
	}
	if r.cmdready() != cmdIdle {
		t.Fatalf("cmdready = %d after final read, want idle", r.cmdready())
	}
}

func TestScenarioWatchLifecycle(t *testing.T) {
	m := newTestMapping(t, testConfig())
	r, _ := m.Allocate(1, 1)

	i, err := r.ArmWatch("$x")
	if err != nil {
		t.Fatalf("ArmWatch: %v", err)
	}

	r.PostWatchResult(i, 2, []byte("42"))

	n, result, ok := r.ReadWatchResult(i)
	if !ok || n != 2 || string(result) != "42" {
		t.Fatalf("ReadWatchResult = %d,%q,%v want 2,42,true", n, result, ok)
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

func TestScenarioGlobalChunking(t *testing.T) {
	cfg := testConfig()
	cfg.GlobalSz = 8
	m := newTestMapping(t, cfg)

	n, err := m.AppendGlobal([]byte("ABCDEFGHIJ"))
	if err != nil || n != 8 {
		t.Fatalf("AppendGlobal = %d,%v want 8,nil", n, err)
	}
	got, _ := m.ReadGlobal()
	if string(got) != "ABCDEFGH" {
		t.Fatalf("ReadGlobal = %q, want ABCDEFGH", got)
	}

	m.ClearGlobal()

	n, err = m.AppendGlobal([]byte("IJ"))
	if err != nil || n != 2 {
		t.Fatalf("AppendGlobal #2 = %d,%v want 2,nil", n, err)
	}
	got, _ = m.ReadGlobal()
	if string(got) != "IJ" {
		t.Fatalf("ReadGlobal after second append = %q, want IJ", got)
	}
}

func TestScenarioExhaustionNonFatal(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBuffers = 1
	m := newTestMapping(t, cfg)

	r1, err1 := m.Allocate(1, 1)
	r2, err2 := m.Allocate(2, 2)

	var ok, exhausted *Ring
	var okErr, exErr error
	if err1 == nil {
		ok, okErr = r1, err1
		exhausted, exErr = r2, err2
	} else {
		ok, okErr = r2, err2
		exhausted, exErr = r1, err1
	}

	if okErr != nil {
		t.Fatalf("exactly one Allocate should succeed, both failed")
	}
	if !errors.Is(exErr, ErrExhausted) {
		t.Fatalf("second Allocate = %v, want ErrExhausted", exErr)
	}
	if exhausted != nil {
		t.Fatalf("Exhausted handle must be nil")
	}

	// The process continues: every operation on the Exhausted handle is
	// a silent no-op, never a panic or a propagated error that would
	// force the caller to stop running uninstrumented.
	exhausted.Enter("x")
	exhausted.Record(1, 1.0)
	exhausted.Leave()
	if _, err := exhausted.ArmWatch("x"); !errors.Is(err, ErrExhausted) {
		t.Fatalf("exhausted handle ArmWatch = %v, want ErrExhausted", err)
	}

	_ = ok
}
