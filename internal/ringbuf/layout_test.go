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

import "testing"

func TestLayoutSlotStrideFitsSubroutineField(t *testing.T) {
	for _, slotSz := range []int{1, 7, 8, 9, 31, 32, 200} {
		cfg := testConfig()
		cfg.SlotSz = slotSz
		l := newLayout(cfg)

		need := l.slotSubroutineOff() + slotSz
		if l.slotStride < need {
			t.Fatalf("SlotSz=%d: slotStride=%d too small, need at least %d", slotSz, l.slotStride, need)
		}
		if l.slotStride%8 != 0 {
			t.Fatalf("SlotSz=%d: slotStride=%d not 8-aligned", slotSz, l.slotStride)
		}
	}
}

func TestLayoutRingStrideCoversAllSlots(t *testing.T) {
	cfg := testConfig()
	l := newLayout(cfg)

	lastSlotEnd := l.ringSlotOff(cfg.Slots-1) + l.slotStride
	if l.ringStride < lastSlotEnd {
		t.Fatalf("ringStride=%d does not cover last slot ending at %d", l.ringStride, lastSlotEnd)
	}
}

func TestLayoutNoOverlapBetweenRegions(t *testing.T) {
	cfg := testConfig()
	l := newLayout(cfg)

	if l.globalOff < l.headerSize {
		t.Fatalf("global region overlaps header")
	}
	if l.freeMapOff < l.globalOff+cfg.GlobalSz {
		t.Fatalf("free-map region overlaps global buffer")
	}
	if l.ringsOff < l.freeMapOff+cfg.MaxBuffers {
		t.Fatalf("rings region overlaps free-map")
	}
	if l.totalSize() < l.ringOff(cfg.MaxBuffers-1)+l.ringStride {
		t.Fatalf("totalSize does not cover the last ring record")
	}
}

func TestLayoutAdjacentSlotsDoNotOverlap(t *testing.T) {
	cfg := testConfig()
	cfg.SlotSz = 5 // deliberately awkward, non-8-aligned size
	l := newLayout(cfg)

	for i := 0; i < cfg.Slots-1; i++ {
		end := l.ringSlotOff(i) + l.slotSubroutineOff() + cfg.SlotSz
		next := l.ringSlotOff(i + 1)
		if end > next {
			t.Fatalf("slot %d (ends at %d) overlaps slot %d (starts at %d)", i, end, i+1, next)
		}
	}
}
