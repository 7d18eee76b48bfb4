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

// Byte layout of the mapping. Every other file in this package reads
// and writes exclusively through the offsets computed here; nothing
// else is allowed to assume a struct shape over the mapped bytes,
// since the mapping holds three runtime-sized trailing regions
// (global buffer, free-map, ring array) that Go cannot express as one
// struct with open-ended arrays.
//
// Field sizes: every int is a 4-byte int32; the slot timestamp is a
// float64. Padding is inserted so that every ring record, and every
// slot's timestamp field within it, lands on an 8-byte boundary.

const (
	int32Size   = 4
	float64Size = 8

	watchInuseSize      = int32Size
	watchExprLenSize    = int32Size
	watchExprSize       = 256
	watchResReadySize   = int32Size
	watchResLenSize     = int32Size
	watchResultSize     = 512
	watchRecordSize     = watchInuseSize + watchExprLenSize + watchExprSize +
		watchResReadySize + watchResLenSize + watchResultSize // 784, already 8-aligned
	watchesPerRing = 4

	// ring fixed fields up to and including msglen, before msgarea.
	ringHeadFieldsSize = int32Size /*pid*/ + int32Size /*tid*/ + int32Size /*currSlot*/ +
		int32Size /*depth*/ + int32Size /*trace*/ + int32Size /*signal*/ + int32Size /*baseoff*/
	ringTailFieldsSize = int32Size /*cmdready*/ + 4 /*command[4]*/ + int32Size /*msglen*/

	headerFieldCount = 9 // single, msgarea_sz, max_buffers, slots, slot_sz, stop_on_create, trace_on_create, global_sz, globmsg_sz
)

func alignTo8(n int) int {
	return (n + 7) &^ 7
}

// layout holds every byte offset derived from a Config. It never
// changes after construction; the mapping it describes cannot be
// resized.
type layout struct {
	cfg Config

	headerSize int // size of the fixed header region, 8-aligned
	globalOff  int
	freeMapOff int
	ringsOff   int

	ringStride        int // bytes per ring record, 8-aligned
	ringMsgAreaOff    int // offset of msgarea within a ring record
	ringSlotsOff      int // offset of the slots array within a ring record
	slotStride        int // bytes per slot, 8-aligned
}

func newLayout(cfg Config) layout {
	l := layout{cfg: cfg}

	l.headerSize = alignTo8(headerFieldCount * int32Size)
	l.globalOff = l.headerSize
	l.freeMapOff = l.globalOff + cfg.GlobalSz
	l.ringsOff = alignTo8(l.freeMapOff + cfg.MaxBuffers)

	preMsgArea := ringHeadFieldsSize + watchesPerRing*watchRecordSize + ringTailFieldsSize
	l.ringMsgAreaOff = preMsgArea
	l.ringSlotsOff = alignTo8(preMsgArea + cfg.MsgAreaSz)

	slotNameOff := alignTo8(int32Size) + float64Size // linenumber, pad, timestamp
	l.slotStride = alignTo8(slotNameOff + cfg.SlotSz)
	l.ringStride = alignTo8(l.ringSlotsOff + cfg.Slots*l.slotStride)

	return l
}

// totalSize is the number of bytes the mapping must occupy.
func (l layout) totalSize() int {
	return l.ringsOff + l.cfg.MaxBuffers*l.ringStride
}

// Header field offsets, all relative to the mapping base.
func (l layout) singleOff() int         { return 0 }
func (l layout) msgareaSzOff() int      { return 1 * int32Size }
func (l layout) maxBuffersOff() int     { return 2 * int32Size }
func (l layout) slotsOff() int          { return 3 * int32Size }
func (l layout) slotSzOff() int         { return 4 * int32Size }
func (l layout) stopOnCreateOff() int   { return 5 * int32Size }
func (l layout) traceOnCreateOff() int  { return 6 * int32Size }
func (l layout) globalSzOff() int       { return 7 * int32Size }
func (l layout) globmsgSzOff() int      { return 8 * int32Size }

func (l layout) globalBufOff() int { return l.globalOff }
func (l layout) freeMapByteOff(i int) int { return l.freeMapOff + i }

// ringOff returns the absolute offset of ring record i.
func (l layout) ringOff(i int) int {
	return l.ringsOff + i*l.ringStride
}

// Per-ring field offsets, relative to the start of a ring record.
func (l layout) ringPidOff() int       { return 0 }
func (l layout) ringTidOff() int       { return int32Size }
func (l layout) ringCurrSlotOff() int  { return 2 * int32Size }
func (l layout) ringDepthOff() int     { return 3 * int32Size }
func (l layout) ringTraceOff() int     { return 4 * int32Size }
func (l layout) ringSignalOff() int    { return 5 * int32Size }
func (l layout) ringBaseoffOff() int   { return 6 * int32Size }
func (l layout) ringWatchOff(i int) int {
	return ringHeadFieldsSize + i*watchRecordSize
}
func (l layout) ringCmdreadyOff() int {
	return ringHeadFieldsSize + watchesPerRing*watchRecordSize
}
func (l layout) ringCommandOff() int { return l.ringCmdreadyOff() + int32Size }
func (l layout) ringMsglenOff() int  { return l.ringCommandOff() + 4 }
func (l layout) ringMsgareaOff() int { return l.ringMsgAreaOff }
func (l layout) ringSlotsBaseOff() int { return l.ringSlotsOff }
func (l layout) ringSlotOff(i int) int {
	return l.ringSlotsOff + i*l.slotStride
}

// Per-watch field offsets, relative to the start of a watch record.
func (l layout) watchInuseOff() int      { return 0 }
func (l layout) watchExprLenOff() int    { return watchInuseSize }
func (l layout) watchExprOff() int       { return watchInuseSize + watchExprLenSize }
func (l layout) watchResReadyOff() int   { return watchInuseSize + watchExprLenSize + watchExprSize }
func (l layout) watchResLenOff() int {
	return l.watchResReadyOff() + watchResReadySize
}
func (l layout) watchResultOff() int {
	return l.watchResLenOff() + watchResLenSize
}

// Per-slot field offsets, relative to the start of a slot.
func (l layout) slotLineOff() int { return 0 }
func (l layout) slotTimestampOff() int {
	return alignTo8(int32Size)
}
func (l layout) slotSubroutineOff() int {
	return l.slotTimestampOff() + float64Size
}
