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
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Mapping is a bound, mapped region backing the ring-buffer facility.
// One process may hold several Mappings if it attaches to several
// distinct files, but each Mapping serializes its own thread traffic
// through mu before ever touching the OS file lock.
type Mapping struct {
	l    layout
	mem  []byte
	file *os.File
	path string

	// mu is the process-local lock taken before the OS file lock, so
	// that two threads of this process never race for the file lock
	// (which would otherwise let one of them "win" against its own
	// sibling instead of against another process).
	mu sync.Mutex

	log *logrus.Entry
}

// Create creates a new backing file at path sized per cfg and maps it,
// or attaches to an existing file of matching shape. It is idempotent
// in shape: an existing file whose header disagrees with cfg fails
// with ErrConfigMismatch.
func Create(path string, cfg Config) (*Mapping, error) {
	log := logrus.WithFields(logrus.Fields{"op": "create", "path": path})

	info, statErr := os.Stat(path)
	if statErr == nil && info.Size() > 0 {
		log.Debug("existing non-empty file, attaching instead")
		m, err := Attach(path)
		if err != nil {
			return nil, err
		}
		if !m.Config().sameShape(cfg) {
			m.Close(false)
			return nil, fmt.Errorf("%w: %s", ErrConfigMismatch, path)
		}
		return m, nil
	}

	l := newLayout(cfg)
	size := l.totalSize()

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrFileSystem, path, err)
	}
	cleanup := func() { f.Close(); os.Remove(path) }

	if err := f.Truncate(int64(size)); err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: truncate %s: %v", ErrFileSystem, path, err)
	}

	mem, err := mmapRegion(f, size)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: mmap %s: %v", ErrFileSystem, path, err)
	}

	m := &Mapping{l: l, mem: mem, file: f, path: path, log: log}

	if err := m.WithGlobalLock(func(m *Mapping) error {
		m.setHeader(cfg)
		for i := 0; i < cfg.MaxBuffers; i++ {
			m.setFreeMapByte(i, 1)
		}
		return nil
	}); err != nil {
		m.Close(true)
		return nil, err
	}

	log.Info("created ring-buffer mapping")
	return m, nil
}

// Attach opens an existing backing file and validates that its header
// sizes are self-consistent with the file's actual length.
func Attach(path string) (*Mapping, error) {
	log := logrus.WithFields(logrus.Fields{"op": "attach", "path": path})

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrFileSystem, path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrFileSystem, path, err)
	}

	// Map the whole file and read the declared sizes from its header.
	// They are checked against the file's length below; on success this
	// same mapping becomes the Mapping's memory.
	mem, err := mmapRegion(f, int(info.Size()))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: mmap %s: %v", ErrFileSystem, path, err)
	}

	cfg := readHeaderConfig(mem)
	cfg.Path = path
	l := newLayout(cfg)
	if l.totalSize() != len(mem) {
		munmapRegion(mem)
		f.Close()
		return nil, fmt.Errorf("%w: %s declares %d bytes, file is %d", ErrConfigMismatch, path, l.totalSize(), len(mem))
	}

	m := &Mapping{l: l, mem: mem, file: f, path: path, log: log}
	log.Debug("attached to existing ring-buffer mapping")
	return m, nil
}

// readHeaderConfig reads the sized fields directly out of a just-mapped
// region, without going through a *Mapping (which needs a layout
// first, and the layout needs these fields).
func readHeaderConfig(mem []byte) Config {
	at := func(off int) int32 {
		return *(*int32)(unsafe.Pointer(&mem[off]))
	}
	return Config{
		MsgAreaSz:     int(at(1 * int32Size)),
		MaxBuffers:    int(at(2 * int32Size)),
		Slots:         int(at(3 * int32Size)),
		SlotSz:        int(at(4 * int32Size)),
		StopOnCreate:  int(at(5 * int32Size)),
		TraceOnCreate: int(at(6 * int32Size)),
		GlobalSz:      int(at(7 * int32Size)),
	}
}

func (m *Mapping) setHeader(cfg Config) {
	m.storeInt32(m.l.msgareaSzOff(), int32(cfg.MsgAreaSz))
	m.storeInt32(m.l.maxBuffersOff(), int32(cfg.MaxBuffers))
	m.storeInt32(m.l.slotsOff(), int32(cfg.Slots))
	m.storeInt32(m.l.slotSzOff(), int32(cfg.SlotSz))
	m.storeInt32(m.l.stopOnCreateOff(), int32(cfg.StopOnCreate))
	m.storeInt32(m.l.traceOnCreateOff(), int32(cfg.TraceOnCreate))
	m.storeInt32(m.l.globalSzOff(), int32(cfg.GlobalSz))
	m.storeInt32(m.l.globmsgSzOff(), 0)
	m.storeInt32(m.l.singleOff(), 0)
}

// Config returns the configuration this mapping was built with.
func (m *Mapping) Config() Config {
	return Config{
		Path:          m.path,
		MsgAreaSz:     m.l.cfg.MsgAreaSz,
		MaxBuffers:    m.l.cfg.MaxBuffers,
		Slots:         m.l.cfg.Slots,
		SlotSz:        m.l.cfg.SlotSz,
		StopOnCreate:  m.l.cfg.StopOnCreate,
		TraceOnCreate: m.l.cfg.TraceOnCreate,
		GlobalSz:      m.l.cfg.GlobalSz,
	}
}

// Path returns the backing file path.
func (m *Mapping) Path() string { return m.path }

// Close unmaps the region and, if unlink is true, removes the backing
// file. The file may be left in place deliberately for post-mortem
// inspection.
func (m *Mapping) Close(unlink bool) error {
	var firstErr error
	if m.mem != nil {
		if err := munmapRegion(m.mem); err != nil && firstErr == nil {
			firstErr = err
		}
		m.mem = nil
	}
	if m.file != nil {
		if err := m.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		m.file = nil
	}
	if unlink {
		if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WithGlobalLock runs fn with the process-local mutex and then the OS
// advisory file lock held, in that order, and guarantees both are
// released on every exit path including a panic unwinding through fn.
func (m *Mapping) WithGlobalLock(fn func(*Mapping) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file == nil {
		return ErrClosed
	}
	if err := lockExclusive(m.file); err != nil {
		return fmt.Errorf("%w: lock %s: %v", ErrFileSystem, m.path, err)
	}
	defer unlockExclusive(m.file)

	return fn(m)
}

// Low-level field access. These are shared by every component file;
// none of them take a lock on their own, relying instead on the
// atomic protocols built on top of them for per-field access.

func (m *Mapping) int32Ptr(off int) *int32 {
	return (*int32)(unsafe.Pointer(&m.mem[off]))
}

func (m *Mapping) loadInt32(off int) int32 {
	return atomic.LoadInt32(m.int32Ptr(off))
}

func (m *Mapping) storeInt32(off int, v int32) {
	atomic.StoreInt32(m.int32Ptr(off), v)
}

func (m *Mapping) bytesAt(off, n int) []byte {
	return m.mem[off : off+n]
}

func (m *Mapping) float64Ptr(off int) *float64 {
	return (*float64)(unsafe.Pointer(&m.mem[off]))
}

// free-map access, byte granularity. Mutation only ever happens inside
// WithGlobalLock (Allocate/Free); reads may race a concurrent writer
// and are expected to be re-read by callers that care (the Monitor).
func (m *Mapping) freeMapByte(i int) byte {
	return m.mem[m.l.freeMapByteOff(i)]
}

func (m *Mapping) setFreeMapByte(i int, v byte) {
	m.mem[m.l.freeMapByteOff(i)] = v
}

// Single is the global single-step flag. See flags.go for the
// accessor-object facade the AUT's debug hook is meant to consume.
func (m *Mapping) Single() int32      { return m.loadInt32(m.l.singleOff()) }
func (m *Mapping) SetSingle(v int32)  { m.storeInt32(m.l.singleOff(), v) }

func (m *Mapping) GlobMsgSz() int     { return int(m.loadInt32(m.l.globmsgSzOff())) }
func (m *Mapping) setGlobMsgSz(v int) { m.storeInt32(m.l.globmsgSzOff(), int32(v)) }
