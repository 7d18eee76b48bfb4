//go:build unix

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

package main

import (
	"fmt"
	"syscall"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/spf13/cobra"
)

// livenessCache memoizes pid-liveness checks for a short window so a
// reclaim pass over hundreds of rings doesn't re-probe the same owner
// pid once per ring. Entries are not invalidated early: a pid that
// dies mid-window is simply caught on the next pass.
type livenessCache struct {
	cache *lru.Cache
}

func newLivenessCache(size int) (*livenessCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &livenessCache{cache: c}, nil
}

type livenessEntry struct {
	alive   bool
	checked time.Time
}

const livenessTTL = 2 * time.Second

func (c *livenessCache) alive(pid int32) bool {
	if v, ok := c.cache.Get(pid); ok {
		e := v.(livenessEntry)
		if time.Since(e.checked) < livenessTTL {
			return e.alive
		}
	}
	alive := pidAlive(pid)
	c.cache.Add(pid, livenessEntry{alive: alive, checked: time.Now()})
	return alive
}

// pidAlive reports whether pid names a running process, using signal
// 0 to probe without actually delivering anything (the same trick
// "kill -0" uses).
func pidAlive(pid int32) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(int(pid), syscall.Signal(0))
	if err == nil {
		return true
	}
	return err != syscall.ESRCH
}

func newReclaimCommand() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reclaim",
		Short: "free rings whose owning pid is no longer alive",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := attach()
			if err != nil {
				return err
			}
			defer m.Close(false)

			lc, err := newLivenessCache(256)
			if err != nil {
				return err
			}

			reclaimed := 0
			for i := 0; i < m.MaxBuffers(); i++ {
				if m.IsFree(i) {
					continue
				}
				r := m.RingAt(i)
				pid := r.PID()
				if lc.alive(pid) {
					continue
				}
				log.WithFields(map[string]interface{}{"ring": i, "pid": pid}).Info("reclaiming ring from dead pid")
				if dryRun {
					reclaimed++
					continue
				}
				if err := r.Free(); err != nil {
					return fmt.Errorf("free ring %d: %w", i, err)
				}
				reclaimed++
			}
			fmt.Printf("reclaimed %d ring(s)\n", reclaimed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be reclaimed without freeing")
	return cmd
}
