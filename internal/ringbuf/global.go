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

// Global message area (GMA): a single coarse-locked bulk buffer shared
// by every thread in every attached process. All four operations run
// under WithGlobalLock; there is no lock-free fast path here, unlike
// the per-ring mailbox and watch channels.

// ReadGlobal returns the first GlobMsgSz bytes of the global buffer.
func (m *Mapping) ReadGlobal() ([]byte, error) {
	var out []byte
	err := m.WithGlobalLock(func(m *Mapping) error {
		n := m.GlobMsgSz()
		out = append([]byte(nil), m.bytesAt(m.l.globalBufOff(), n)...)
		return nil
	})
	return out, err
}

// WriteGlobal replaces the global buffer's contents. It fails with
// ErrTooLarge, without mutating the buffer, if data does not fit.
func (m *Mapping) WriteGlobal(data []byte) error {
	if len(data) > m.l.cfg.GlobalSz {
		return ErrTooLarge
	}
	return m.WithGlobalLock(func(m *Mapping) error {
		copy(m.bytesAt(m.l.globalBufOff(), m.l.cfg.GlobalSz), data)
		m.setGlobMsgSz(len(data))
		return nil
	})
}

// AppendGlobal atomically appends as many bytes of data as fit after
// the current logical length, and returns how many were consumed.
// Chaining calls after the Monitor drains (via ReadGlobal followed by
// WriteGlobal(nil) or an explicit reset) enables chunked transfer of
// messages larger than GlobalSz.
func (m *Mapping) AppendGlobal(data []byte) (consumed int, err error) {
	err = m.WithGlobalLock(func(m *Mapping) error {
		cur := m.GlobMsgSz()
		room := m.l.cfg.GlobalSz - cur
		if room < 0 {
			room = 0
		}
		n := len(data)
		if n > room {
			n = room
		}
		copy(m.bytesAt(m.l.globalBufOff()+cur, n), data[:n])
		m.setGlobMsgSz(cur + n)
		consumed = n
		return nil
	})
	return consumed, err
}

// ClearGlobal resets the logical length to zero without touching the
// buffer's contents, letting the Monitor mark a region as drained
// before the next AppendGlobal chunk arrives.
func (m *Mapping) ClearGlobal() error {
	return m.WithGlobalLock(func(m *Mapping) error {
		m.setGlobMsgSz(0)
		return nil
	})
}
