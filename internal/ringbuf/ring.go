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
	"math"
	"sync/atomic"
	"unsafe"
)

// Ring is a per-thread facade bound to one allocated ring record. None
// of its methods take a lock: the owning AUT thread is the only
// writer of its slots, depth and currSlot, so no synchronization is
// required between those three for AUT correctness. Trace/signal are
// last-writer-wins by design.
//
// A nil *Ring is valid and every method on it is a no-op (zero value
// returned where one is expected). Allocate returns a nil *Ring
// together with ErrExhausted so the AUT's debug hook never has to
// special-case "instrumentation unavailable" at every call site.
type Ring struct {
	m   *Mapping
	idx int
}

// Slot is one recorded frame: a subroutine name, the line currently
// executing in it, and the timestamp of the last record.
type Slot struct {
	LineNumber int32
	Timestamp  float64
	Subroutine string
}

func (r *Ring) off() int { return r.m.l.ringOff(r.idx) }

// Index returns the ring's slot in the pool (its free-map index).
func (r *Ring) Index() int {
	if r == nil {
		return -1
	}
	return r.idx
}

// PID returns the owning process id recorded at allocation time.
func (r *Ring) PID() int32 {
	if r == nil {
		return 0
	}
	return r.m.loadInt32(r.off() + r.m.l.ringPidOff())
}

// TID returns the owning thread id recorded at allocation time.
func (r *Ring) TID() int32 {
	if r == nil {
		return 0
	}
	return r.m.loadInt32(r.off() + r.m.l.ringTidOff())
}

// Depth returns the logical stack depth, which may exceed the slot
// count once wrapping has occurred.
func (r *Ring) Depth() int32 {
	if r == nil {
		return 0
	}
	return r.m.loadInt32(r.off() + r.m.l.ringDepthOff())
}

func (r *Ring) currSlot() int32 {
	return r.m.loadInt32(r.off() + r.m.l.ringCurrSlotOff())
}

func (r *Ring) setCurrSlot(v int32) {
	r.m.storeInt32(r.off()+r.m.l.ringCurrSlotOff(), v)
}

func (r *Ring) setDepth(v int32) {
	r.m.storeInt32(r.off()+r.m.l.ringDepthOff(), v)
}

// Enter is called when a new call frame is pushed. It advances the
// stack window and writes the subroutine name into the new current
// slot, truncated to fit and NUL-terminated; line and timestamp are
// left for the next Record call.
func (r *Ring) Enter(subroutine string) {
	if r == nil {
		return
	}
	slots := int32(r.m.l.cfg.Slots)
	depth := r.Depth() + 1
	r.setDepth(depth)

	cur := r.currSlot()
	if depth > 1 {
		cur = (cur + 1) % slots
		r.setCurrSlot(cur)
	}

	r.writeSubroutine(int(cur), subroutine)
}

// Leave is called when a call frame is popped.
func (r *Ring) Leave() {
	if r == nil {
		return
	}
	slots := int32(r.m.l.cfg.Slots)
	depth := r.Depth() - 1
	if depth < 0 {
		depth = 0
	}
	r.setDepth(depth)
	if depth > 0 {
		cur := r.currSlot()
		cur = (cur - 1 + slots) % slots
		r.setCurrSlot(cur)
	}
}

// Record overwrites the current slot's line number and timestamp. It
// does not allocate and never takes a lock; the two field writes are
// not atomic with each other, and Monitor reads of them are
// best-effort snapshots that may observe a torn pair.
func (r *Ring) Record(line int32, timestamp float64) {
	if r == nil {
		return
	}
	if r.Depth() <= 0 {
		return
	}
	off := r.off() + r.m.l.ringSlotOff(int(r.currSlot()))
	r.m.storeInt32(off+r.m.l.slotLineOff(), line)
	atomic.StoreUint64((*uint64)(unsafe.Pointer(r.m.float64Ptr(off+r.m.l.slotTimestampOff()))), math.Float64bits(timestamp))
}

func (r *Ring) writeSubroutine(slotIdx int, name string) {
	off := r.off() + r.m.l.ringSlotOff(slotIdx) + r.m.l.slotSubroutineOff()
	buf := r.m.bytesAt(off, r.m.l.cfg.SlotSz)
	n := copy(buf, name)
	if n >= len(buf) {
		n = len(buf) - 1
	}
	buf[n] = 0
	for i := n + 1; i < len(buf); i++ {
		buf[i] = 0
	}
}

func (r *Ring) readSlot(slotIdx int) Slot {
	off := r.off() + r.m.l.ringSlotOff(slotIdx)
	line := r.m.loadInt32(off + r.m.l.slotLineOff())
	ts := math.Float64frombits(atomic.LoadUint64((*uint64)(unsafe.Pointer(r.m.float64Ptr(off + r.m.l.slotTimestampOff())))))
	buf := r.m.bytesAt(off+r.m.l.slotSubroutineOff(), r.m.l.cfg.SlotSz)
	end := indexByte(buf, 0)
	if end < 0 {
		end = len(buf)
	}
	return Slot{LineNumber: line, Timestamp: ts, Subroutine: string(buf[:end])}
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

// Snapshot returns the min(depth, slots) most recent slots, most
// recent first. This is a reader-side helper for the Monitor; AUT
// writes may be torn mid-snapshot, and callers must tolerate
// truncated names.
func (r *Ring) Snapshot() []Slot {
	if r == nil {
		return nil
	}
	slots := r.m.l.cfg.Slots
	depth := int(r.Depth())
	n := depth
	if n > slots {
		n = slots
	}
	if n <= 0 {
		return nil
	}
	out := make([]Slot, 0, n)
	cur := int(r.currSlot())
	for i := 0; i < n; i++ {
		idx := (cur - i + slots) % slots
		out = append(out, r.readSlot(idx))
	}
	return out
}

// SetTrace and SetSignal are writable by the Monitor or by the owning
// AUT thread; races between the two are last-writer-wins by design.
func (r *Ring) SetTrace(v int32) {
	if r == nil {
		return
	}
	r.m.storeInt32(r.off()+r.m.l.ringTraceOff(), v)
}

func (r *Ring) GetTrace() int32 {
	if r == nil {
		return 0
	}
	return r.m.loadInt32(r.off() + r.m.l.ringTraceOff())
}

func (r *Ring) SetSignal(v int32) {
	if r == nil {
		return
	}
	r.m.storeInt32(r.off()+r.m.l.ringSignalOff(), v)
}

func (r *Ring) GetSignal() int32 {
	if r == nil {
		return 0
	}
	return r.m.loadInt32(r.off() + r.m.l.ringSignalOff())
}
