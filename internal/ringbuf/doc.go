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

// Package ringbuf implements a shared-memory, memory-mapped ring-buffer
// facility for out-of-band diagnostic instrumentation of a multi-process,
// multi-threaded application under test (AUT) by a separate monitor
// process.
//
// The mapping is a single contiguous byte region: a fixed header, a
// global message buffer, a free-map byte array, and a run of fixed-size
// per-thread ring records. All fields are host byte order and host
// alignment; the backing file is not portable across architectures.
//
// Two locks protect the mapping. An OS advisory file lock serializes
// access across processes; a process-local mutex serializes access
// across threads of one process before that file lock is taken, in
// that order, always. Hot-path per-ring operations (Enter, Leave,
// Record, the mailbox, and the watch channel) never take either lock:
// they rely on atomic loads/stores with acquire/release ordering on a
// small set of publication flags (cmdready, watch.inuse, watch.resready),
// so a reader that observes a published flag also observes the payload
// written before it. The free-map is not one of these: its bytes are
// written with plain stores, only while the global lock is held, and an
// unlocked read of one (IsFree) is a best-effort snapshot with no
// ordering guarantee against the ring's other fields.
package ringbuf
