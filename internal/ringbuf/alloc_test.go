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

func TestAllocateAndFree(t *testing.T) {
	m := newTestMapping(t, testConfig())

	r, err := m.Allocate(111, 222)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if r.PID() != 111 || r.TID() != 222 {
		t.Fatalf("PID/TID = %d/%d, want 111/222", r.PID(), r.TID())
	}
	if m.IsFree(r.Index()) {
		t.Fatalf("ring %d reported free right after Allocate", r.Index())
	}

	if err := r.Free(); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if !m.IsFree(r.Index()) {
		t.Fatalf("ring %d not marked free after Free", r.Index())
	}

	// Freeing twice is a no-op, not an error.
	if err := r.Free(); err != nil {
		t.Fatalf("second Free: %v", err)
	}
}

func TestAllocateExhaustion(t *testing.T) {
	cfg := testConfig()
	m := newTestMapping(t, cfg)

	var rings []*Ring
	for i := 0; i < cfg.MaxBuffers; i++ {
		r, err := m.Allocate(int32(i), 0)
		if err != nil {
			t.Fatalf("Allocate %d: %v", i, err)
		}
		rings = append(rings, r)
	}

	_, err := m.Allocate(999, 0)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("Allocate after exhaustion: got %v, want ErrExhausted", err)
	}

	rings[0].Free()
	r, err := m.Allocate(999, 0)
	if err != nil {
		t.Fatalf("Allocate after Free: %v", err)
	}
	if r.Index() != rings[0].Index() {
		t.Fatalf("Allocate reused index %d, want %d", r.Index(), rings[0].Index())
	}
}

func TestNilRingIsNoOp(t *testing.T) {
	var r *Ring
	r.Enter("foo")
	r.Record(1, 2.0)
	r.Leave()
	r.SetTrace(1)
	r.SetSignal(1)
	if r.PID() != 0 || r.TID() != 0 || r.Depth() != 0 {
		t.Fatalf("nil ring returned non-zero fields")
	}
	if r.GetTrace() != 0 || r.GetSignal() != 0 {
		t.Fatalf("nil ring returned non-zero flags")
	}
	if r.Snapshot() != nil {
		t.Fatalf("nil ring Snapshot should be nil")
	}
	if err := r.Free(); err != nil {
		t.Fatalf("nil ring Free returned error: %v", err)
	}
	if _, err := r.ArmWatch("x"); !errors.Is(err, ErrExhausted) {
		t.Fatalf("nil ring ArmWatch = %v, want ErrExhausted", err)
	}
}

func TestRingAtAndMaxBuffers(t *testing.T) {
	cfg := testConfig()
	m := newTestMapping(t, cfg)

	if m.MaxBuffers() != cfg.MaxBuffers {
		t.Fatalf("MaxBuffers = %d, want %d", m.MaxBuffers(), cfg.MaxBuffers)
	}
	if m.RingAt(-1) != nil || m.RingAt(cfg.MaxBuffers) != nil {
		t.Fatalf("RingAt out of range should return nil")
	}
	if m.RingAt(0) == nil {
		t.Fatalf("RingAt(0) should return a handle")
	}
}
