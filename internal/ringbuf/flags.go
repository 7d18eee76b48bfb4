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

// The "tied scalar" facade: single/trace/signal behave like plain
// scalar variables that transparently read and write through to the
// mapping. Go has no operator-overloaded scalar that can do that, so
// instead each is a tiny accessor object with Get/Set, which is what a
// debug hook's instrumentation point holds instead of a raw memory
// address.

// SingleFlag ties to the mapping-wide single-step request. The AUT
// must never write it; only the exported Get enforces that by
// omitting a Set method.
type SingleFlag struct{ m *Mapping }

func (m *Mapping) SingleTie() SingleFlag { return SingleFlag{m: m} }

func (f SingleFlag) Get() int32 { return f.m.Single() }

// TraceFlag and SignalFlag tie to one ring's per-thread flags. Both
// the Monitor and the owning AUT thread may write them; a race is
// last-writer-wins by design, not a bug.
type TraceFlag struct{ r *Ring }
type SignalFlag struct{ r *Ring }

func (r *Ring) TraceTie() TraceFlag   { return TraceFlag{r: r} }
func (r *Ring) SignalTie() SignalFlag { return SignalFlag{r: r} }

func (f TraceFlag) Get() int32  { return f.r.GetTrace() }
func (f TraceFlag) Set(v int32) { f.r.SetTrace(v) }

func (f SignalFlag) Get() int32  { return f.r.GetSignal() }
func (f SignalFlag) Set(v int32) { f.r.SetSignal(v) }
