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
	"path/filepath"
	"testing"
)

// testConfig returns a small, fast-to-map configuration suitable for
// unit tests; every size is deliberately tiny so tests can exercise
// wraparound and exhaustion without large mappings.
func testConfig() Config {
	return Config{
		MaxBuffers:    4,
		Slots:         3,
		SlotSz:        32,
		MsgAreaSz:     64,
		GlobalSz:      128,
		StopOnCreate:  0,
		TraceOnCreate: 0,
	}
}

// newTestMapping creates a fresh mapping backed by a file under t's
// temp dir and arranges for it to be closed and unlinked at cleanup.
func newTestMapping(t *testing.T, cfg Config) *Mapping {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ring.shm")
	cfg.Path = path
	m, err := Create(path, cfg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { m.Close(true) })
	return m
}
