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
	"bytes"
	"errors"
	"testing"
)

func TestGlobalWriteRead(t *testing.T) {
	m := newTestMapping(t, testConfig())

	if err := m.WriteGlobal([]byte("hello world")); err != nil {
		t.Fatalf("WriteGlobal: %v", err)
	}
	got, err := m.ReadGlobal()
	if err != nil {
		t.Fatalf("ReadGlobal: %v", err)
	}
	if string(got) != "hello world" {
		t.Fatalf("ReadGlobal = %q, want %q", got, "hello world")
	}
}

func TestGlobalWriteTooLarge(t *testing.T) {
	cfg := testConfig() // GlobalSz: 128
	m := newTestMapping(t, cfg)

	big := make([]byte, cfg.GlobalSz+1)
	if err := m.WriteGlobal(big); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("WriteGlobal oversized = %v, want ErrTooLarge", err)
	}
	// A failed write must not mutate the buffer's length.
	got, _ := m.ReadGlobal()
	if len(got) != 0 {
		t.Fatalf("ReadGlobal after failed write = %d bytes, want 0", len(got))
	}
}

func TestGlobalAppendChunked(t *testing.T) {
	cfg := testConfig()
	cfg.GlobalSz = 10
	m := newTestMapping(t, cfg)

	n, err := m.AppendGlobal([]byte("12345"))
	if err != nil || n != 5 {
		t.Fatalf("AppendGlobal #1 = %d,%v want 5,nil", n, err)
	}
	n, err = m.AppendGlobal([]byte("67890X")) // only 5 bytes of room remain
	if err != nil || n != 5 {
		t.Fatalf("AppendGlobal #2 = %d,%v want 5,nil", n, err)
	}

	got, _ := m.ReadGlobal()
	if string(got) != "1234567890" {
		t.Fatalf("ReadGlobal = %q, want 1234567890", got)
	}

	if err := m.ClearGlobal(); err != nil {
		t.Fatalf("ClearGlobal: %v", err)
	}
	got, _ = m.ReadGlobal()
	if len(got) != 0 {
		t.Fatalf("ReadGlobal after ClearGlobal = %d bytes, want 0", len(got))
	}

	n, err = m.AppendGlobal([]byte("new"))
	if err != nil || n != 3 {
		t.Fatalf("AppendGlobal after clear = %d,%v want 3,nil", n, err)
	}
	got, _ = m.ReadGlobal()
	if !bytes.Equal(got, []byte("new")) {
		t.Fatalf("ReadGlobal after clear+append = %q, want new", got)
	}
}
