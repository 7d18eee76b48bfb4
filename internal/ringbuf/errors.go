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

import "errors"

// Error kinds returned by this package. None of them are panics: a
// recoverable condition (an exhausted pool, an oversized payload) is
// reported through one of these and the caller decides what to do.
// Protocol misuse on the mailbox or watch channel (for example a
// request posted while one is pending) is not reported at all: the
// write is silently ignored. The AUT in particular is expected to
// keep running uninstrumented rather than fail when it sees
// ErrExhausted.
var (
	// ErrConfigMismatch is returned by Attach/Create when an existing
	// backing file's header sizes disagree with the requested Config.
	ErrConfigMismatch = errors.New("ringbuf: header does not match requested configuration")

	// ErrFileSystem is wrapped by the error returned for an open, stat,
	// truncate, mmap or lock failure. The underlying error's text is
	// included in the message; the underlying error itself is not
	// wrapped.
	ErrFileSystem = errors.New("ringbuf: filesystem error")

	// ErrExhausted is returned by Allocate when no free-map entry remains.
	ErrExhausted = errors.New("ringbuf: no free ring available")

	// ErrTooLarge is returned when a payload exceeds its configured bound.
	ErrTooLarge = errors.New("ringbuf: payload exceeds configured bound")

	// ErrNotOwner names a caller freeing a ring it does not own. Free
	// does not track ownership, so no function in this package
	// returns it.
	ErrNotOwner = errors.New("ringbuf: caller does not own this ring")

	// ErrTorn is reserved for reader-side snapshot validation.
	ErrTorn = errors.New("ringbuf: torn read detected")

	// ErrClosed is returned by WithGlobalLock, and so by every
	// operation that takes the global lock, once the mapping has been
	// closed. The lock-free ring, mailbox, watch and flag accessors do
	// not check for it.
	ErrClosed = errors.New("ringbuf: mapping is closed")
)
