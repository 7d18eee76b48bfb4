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

// Command/response mailbox: a 3-state protocol between the Monitor
// and one AUT thread, built on a single atomic word (cmdready) plus
// an unprotected payload region whose visibility is established by
// the state transitions on that word. Neither side ever takes a
// lock; cmdready's store/load pair stands in for the release/acquire
// ordering the protocol needs.
const (
	cmdIdle     int32 = 0
	cmdRequest  int32 = 1
	cmdResponse int32 = -2
)

func (r *Ring) cmdreadyOff() int { return r.off() + r.m.l.ringCmdreadyOff() }

func (r *Ring) cmdready() int32 { return r.m.loadInt32(r.cmdreadyOff()) }

// PostRequest is called by the Monitor. It is a silent no-op unless
// cmdready is currently idle: protocol misuse never corrupts state,
// it is simply ignored.
func (r *Ring) PostRequest(command [4]byte, msg []byte) error {
	if r == nil {
		return nil
	}
	if len(msg) > r.m.l.cfg.MsgAreaSz {
		return ErrTooLarge
	}
	if r.cmdready() != cmdIdle {
		return nil
	}
	copy(r.m.bytesAt(r.off()+r.m.l.ringCommandOff(), 4), command[:])
	r.writeMsgArea(msg)
	r.m.storeInt32(r.cmdreadyOff(), cmdRequest)
	return nil
}

// TakeRequest is called by the AUT on each pass through its debug
// hook. It returns ok=false if no request is pending.
func (r *Ring) TakeRequest() (command [4]byte, msg []byte, ok bool) {
	if r == nil || r.cmdready() != cmdRequest {
		return command, nil, false
	}
	copy(command[:], r.m.bytesAt(r.off()+r.m.l.ringCommandOff(), 4))
	msg = append([]byte(nil), r.readMsgArea()...)
	return command, msg, true
}

// PostResponse is called by the AUT after acting on a request taken
// with TakeRequest. It is a no-op if the mailbox is not in the
// request-pending state (e.g. the Monitor already abandoned it).
func (r *Ring) PostResponse(msg []byte) error {
	if r == nil {
		return nil
	}
	if len(msg) > r.m.l.cfg.MsgAreaSz {
		return ErrTooLarge
	}
	if r.cmdready() != cmdRequest {
		return nil
	}
	r.writeMsgArea(msg)
	r.m.storeInt32(r.cmdreadyOff(), cmdResponse)
	return nil
}

// ReadResponse is called by the Monitor. ok is false until the AUT has
// posted a response; on success the mailbox is returned to idle.
func (r *Ring) ReadResponse() (msg []byte, ok bool) {
	if r == nil || r.cmdready() != cmdResponse {
		return nil, false
	}
	msg = append([]byte(nil), r.readMsgArea()...)
	r.m.storeInt32(r.cmdreadyOff(), cmdIdle)
	return msg, true
}

// Abandon lets the Monitor give up on a pending request, tolerating
// the race where the AUT has already (or is about to) post its
// response: the AUT's eventual cmdResponse store is simply ignored by
// a Monitor that has moved on, since ReadResponse re-checks state
// before trusting it.
func (r *Ring) Abandon() {
	if r == nil {
		return
	}
	r.m.storeInt32(r.cmdreadyOff(), cmdIdle)
}

func (r *Ring) writeMsgArea(msg []byte) {
	n := r.m.storeInt32AndBytes(r.off()+r.m.l.ringMsglenOff(), r.off()+r.m.l.ringMsgareaOff(), msg, r.m.l.cfg.MsgAreaSz)
	_ = n
}

func (r *Ring) readMsgArea() []byte {
	n := int(r.m.loadInt32(r.off() + r.m.l.ringMsglenOff()))
	if n < 0 {
		n = 0
	}
	if n > r.m.l.cfg.MsgAreaSz {
		n = r.m.l.cfg.MsgAreaSz
	}
	return r.m.bytesAt(r.off()+r.m.l.ringMsgareaOff(), n)
}

// storeInt32AndBytes writes payload into the byte window at dataOff
// (capped to cap bytes) and records its length at lenOff. It is used
// by both the mailbox and, with different offsets, nothing else
// today, but is kept general because watch results follow the same
// "length then bytes" shape.
func (m *Mapping) storeInt32AndBytes(lenOff, dataOff int, payload []byte, capacity int) int {
	n := len(payload)
	if n > capacity {
		n = capacity
	}
	copy(m.bytesAt(dataOff, capacity), payload[:n])
	m.storeInt32(lenOff, int32(n))
	return n
}
