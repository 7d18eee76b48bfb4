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

import "os"

// Allocate scans the free-map for the lowest free index, claims it,
// and initializes its ring fields. Callers MUST NOT block on the
// result: if the pool is exhausted, Allocate returns a nil *Ring
// alongside ErrExhausted and the AUT is expected to keep running
// uninstrumented.
func (m *Mapping) Allocate(pid, tid int32) (*Ring, error) {
	var ring *Ring
	err := m.WithGlobalLock(func(m *Mapping) error {
		for i := 0; i < m.l.cfg.MaxBuffers; i++ {
			if m.freeMapByte(i) != 1 {
				continue
			}
			m.setFreeMapByte(i, 0)
			r := &Ring{m: m, idx: i}
			m.storeInt32(r.off()+m.l.ringPidOff(), pid)
			m.storeInt32(r.off()+m.l.ringTidOff(), tid)
			r.setCurrSlot(0)
			r.setDepth(0)
			r.SetTrace(int32(m.l.cfg.TraceOnCreate))
			r.SetSignal(int32(m.l.cfg.StopOnCreate))
			m.storeInt32(r.off()+m.l.ringCmdreadyOff(), cmdIdle)
			for w := 0; w < watchesPerRing; w++ {
				wv := watchView{m: m, base: r.off() + m.l.ringWatchOff(w)}
				wv.reset()
			}
			ring = r
			return nil
		}
		return ErrExhausted
	})
	if err != nil {
		return nil, err
	}
	return ring, nil
}

// AllocateSelf is a convenience wrapper that allocates a ring for the
// calling OS thread/process, using os.Getpid for pid. Go does not
// expose a stable OS thread id for tid; callers that need one (e.g. a
// cgo-bound debug hook) should call Allocate directly.
func (m *Mapping) AllocateSelf(tid int32) (*Ring, error) {
	return m.Allocate(int32(os.Getpid()), tid)
}

// Free releases a ring back to the pool. It is safe to call twice:
// the second call is a no-op because free_map[i] is already 1.
func (r *Ring) Free() error {
	if r == nil {
		return nil
	}
	return r.m.WithGlobalLock(func(m *Mapping) error {
		if m.freeMapByte(r.idx) == 1 {
			return nil
		}
		m.storeInt32(r.off()+m.l.ringPidOff(), 0)
		m.storeInt32(r.off()+m.l.ringTidOff(), 0)
		m.setFreeMapByte(r.idx, 1)
		return nil
	})
}

// RingAt returns a handle to ring index i without allocating it,
// intended for Monitor-side iteration over the pool. It does not
// check whether the ring is currently in use.
func (m *Mapping) RingAt(i int) *Ring {
	if i < 0 || i >= m.l.cfg.MaxBuffers {
		return nil
	}
	return &Ring{m: m, idx: i}
}

// MaxBuffers returns the pool size.
func (m *Mapping) MaxBuffers() int { return m.l.cfg.MaxBuffers }

// IsFree reports whether ring i is currently marked free. Like any
// unlocked free-map read, this is a best-effort snapshot.
func (m *Mapping) IsFree(i int) bool {
	return m.freeMapByte(i) == 1
}
