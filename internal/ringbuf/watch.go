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

// Watch-expression channel: four lazy-concurrency slots per ring, each
// a tiny state machine over (inuse, resready):
//
//	Free       (0, 0)   —
//	Armed      (1, 0)   Monitor -> AUT
//	Resolved   (1, 1)   AUT -> Monitor
//	Releasing  (-2, *)  Monitor -> AUT
//
// The inuse=-2 transition is Monitor-initiated: ReleaseWatch (below)
// is the only method that writes it, and AckRelease only ever writes
// 0. ReleaseWatch is an exported *Ring method like the AUT-side ones,
// so keeping AUT callers away from it is a convention; nothing in the
// API enforces it.
const (
	watchFree      int32 = 0
	watchInUse     int32 = 1
	watchReleasing int32 = -2
)

// watchView is an unlocked accessor bound to one watch slot of one
// ring record.
type watchView struct {
	m    *Mapping
	base int // absolute offset of this watch record
}

func (w watchView) inuse() int32    { return w.m.loadInt32(w.base + w.m.l.watchInuseOff()) }
func (w watchView) resready() int32 { return w.m.loadInt32(w.base + w.m.l.watchResReadyOff()) }

func (w watchView) reset() {
	w.m.storeInt32(w.base+w.m.l.watchExprLenOff(), 0)
	w.m.storeInt32(w.base+w.m.l.watchResLenOff(), 0)
	w.m.storeInt32(w.base+w.m.l.watchResReadyOff(), 0)
	w.m.storeInt32(w.base+w.m.l.watchInuseOff(), watchFree)
}

func (r *Ring) watch(i int) watchView {
	return watchView{m: r.m, base: r.off() + r.m.l.ringWatchOff(i)}
}

// ArmWatch finds a Free slot, writes expr, and arms it (Free->Armed).
// It returns ErrExhausted if all four slots are in use.
func (r *Ring) ArmWatch(expr string) (int, error) {
	if r == nil {
		return -1, ErrExhausted
	}
	if len(expr) > watchExprSize {
		return -1, ErrTooLarge
	}
	for i := 0; i < watchesPerRing; i++ {
		w := r.watch(i)
		if w.inuse() != watchFree {
			continue
		}
		buf := r.m.bytesAt(w.base+r.m.l.watchExprOff(), watchExprSize)
		n := copy(buf, expr)
		for j := n; j < len(buf); j++ {
			buf[j] = 0
		}
		r.m.storeInt32(w.base+r.m.l.watchExprLenOff(), int32(n))
		r.m.storeInt32(w.base+r.m.l.watchResReadyOff(), 0)
		r.m.storeInt32(w.base+r.m.l.watchInuseOff(), watchInUse)
		return i, nil
	}
	return -1, ErrExhausted
}

// PendingWatch is called by the AUT. It reports the slot's expression
// if the slot is Armed (inuse=1, resready=0); armed is false
// otherwise, including for Resolved or Releasing slots.
func (r *Ring) PendingWatch(i int) (expr string, armed bool) {
	if r == nil {
		return "", false
	}
	w := r.watch(i)
	if w.inuse() != watchInUse || w.resready() != 0 {
		return "", false
	}
	n := int(r.m.loadInt32(w.base + r.m.l.watchExprLenOff()))
	if n < 0 || n > watchExprSize {
		return "", false
	}
	return string(r.m.bytesAt(w.base+r.m.l.watchExprOff(), n)), true
}

// PostWatchResult is called by the AUT after evaluating an armed
// expression exactly once (Armed->Resolved). reslength<0 denotes an
// evaluation failure, with the error text in result; reslength==0
// denotes a defined-but-empty or "undefined" result by convention
// with the caller. It is a no-op unless the slot is currently Armed.
func (r *Ring) PostWatchResult(i int, reslength int32, result []byte) {
	if r == nil {
		return
	}
	w := r.watch(i)
	if w.inuse() != watchInUse || w.resready() != 0 {
		return
	}
	n := len(result)
	if n > watchResultSize {
		n = watchResultSize
	}
	copy(r.m.bytesAt(w.base+r.m.l.watchResultOff(), watchResultSize), result[:n])
	r.m.storeInt32(w.base+r.m.l.watchResLenOff(), reslength)
	r.m.storeInt32(w.base+r.m.l.watchResReadyOff(), 1)
}

// ReadWatchResult is called by the Monitor. ok is false unless the
// slot is Resolved.
func (r *Ring) ReadWatchResult(i int) (reslength int32, result []byte, ok bool) {
	if r == nil {
		return 0, nil, false
	}
	w := r.watch(i)
	if w.inuse() != watchInUse || w.resready() != 1 {
		return 0, nil, false
	}
	reslength = r.m.loadInt32(w.base + r.m.l.watchResLenOff())
	n := int(reslength)
	if n < 0 || n > watchResultSize {
		n = watchResultSize
	}
	result = append([]byte(nil), r.m.bytesAt(w.base+r.m.l.watchResultOff(), n)...)
	return reslength, result, true
}

// RearmWatch resets resready, requesting re-evaluation of an already
// Resolved slot (Resolved->Armed). No-op on any other state.
func (r *Ring) RearmWatch(i int) {
	if r == nil {
		return
	}
	w := r.watch(i)
	if w.inuse() != watchInUse || w.resready() != 1 {
		return
	}
	r.m.storeInt32(w.base+r.m.l.watchResReadyOff(), 0)
}

// ReleaseWatch marks a slot for reclamation (Any->Releasing). The AUT
// observes this and completes the handshake with AckRelease.
func (r *Ring) ReleaseWatch(i int) {
	if r == nil {
		return
	}
	w := r.watch(i)
	r.m.storeInt32(w.base+r.m.l.watchInuseOff(), watchReleasing)
}

// AckRelease completes Releasing->Free. It is a no-op unless the slot
// is currently Releasing.
func (r *Ring) AckRelease(i int) {
	if r == nil {
		return
	}
	w := r.watch(i)
	if w.inuse() != watchReleasing {
		return
	}
	w.reset()
}

// WatchState reports which of the four named states a slot is in, for
// diagnostics and tests.
type WatchState int

const (
	WatchFree WatchState = iota
	WatchArmed
	WatchResolved
	WatchReleasing
)

func (r *Ring) WatchState(i int) WatchState {
	w := r.watch(i)
	switch w.inuse() {
	case watchFree:
		return WatchFree
	case watchReleasing:
		return WatchReleasing
	default:
		if w.resready() != 0 {
			return WatchResolved
		}
		return WatchArmed
	}
}
