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
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cosiner/argv"
	"github.com/derekparker/trie"
	"github.com/go-delve/liner"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/shmdbg/ringbuffer/internal/ringbuf"
)

// replCommands lists every verb the REPL understands, for completion
// and for the one-line help printed on "help". The alias "exit" (for
// "quit") is also accepted but is not listed.
var replCommands = []string{
	"status", "alloc", "free", "snapshot",
	"mailbox-post", "mailbox-read", "mailbox-abandon",
	"watch-arm", "watch-read", "watch-rearm", "watch-release",
	"global-read", "global-write", "global-append", "global-clear",
	"help", "quit",
}

func newReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "interactive session against a live mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := attach()
			if err != nil {
				return err
			}
			defer m.Close(false)
			return runRepl(m)
		},
	}
}

func runRepl(m *ringbuf.Mapping) error {
	completions := trie.New()
	for _, c := range replCommands {
		completions.Add(c, nil)
	}

	out := colorable.NewColorableStdout()
	interactive := isatty.IsTerminal(os.Stdout.Fd())

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) []string {
		var matches []string
		for _, k := range completions.Keys() {
			if strings.HasPrefix(k, prefix) {
				matches = append(matches, k)
			}
		}
		return matches
	})

	if interactive {
		fmt.Fprintln(out, "shm-inspect interactive session, type 'help' for commands")
	}

	for {
		input, err := line.Prompt("shm-inspect> ")
		if err == io.EOF || err == liner.ErrPromptAborted {
			return nil
		}
		if err != nil {
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		words, err := argv.Argv(input, nil, nil)
		if err != nil || len(words) == 0 || len(words[0]) == 0 {
			fmt.Fprintf(out, "parse error: %v\n", err)
			continue
		}
		tokens := words[0]
		if err := dispatchReplCommand(out, m, tokens[0], tokens[1:]); err != nil {
			if err == errReplQuit {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

var errReplQuit = fmt.Errorf("quit")

func dispatchReplCommand(out io.Writer, m *ringbuf.Mapping, verb string, args []string) error {
	switch verb {
	case "help":
		fmt.Fprintln(out, strings.Join(replCommands, ", "))
		return nil
	case "quit", "exit":
		return errReplQuit
	case "status":
		cfg := m.Config()
		fmt.Fprintf(out, "buffers=%d slots=%d slot_sz=%d msg_sz=%d global_sz=%d\n",
			cfg.MaxBuffers, cfg.Slots, cfg.SlotSz, cfg.MsgAreaSz, cfg.GlobalSz)
		return nil
	case "alloc":
		r, err := m.Allocate(0, 0)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "allocated ring %d\n", r.Index())
		return nil
	case "free":
		r, err := replRingArg(m, args)
		if err != nil {
			return err
		}
		return r.Free()
	case "snapshot":
		r, err := replRingArg(m, args)
		if err != nil {
			return err
		}
		for i, s := range r.Snapshot() {
			fmt.Fprintf(out, "  [%d] %s:%d @%.6f\n", i, s.Subroutine, s.LineNumber, s.Timestamp)
		}
		return nil
	case "mailbox-post":
		if len(args) < 2 {
			return fmt.Errorf("usage: mailbox-post <ring> <command> [msg]")
		}
		r, err := replRingArg(m, args[:1])
		if err != nil {
			return err
		}
		var command [4]byte
		copy(command[:], args[1])
		var msg []byte
		if len(args) > 2 {
			msg = []byte(strings.Join(args[2:], " "))
		}
		return r.PostRequest(command, msg)
	case "mailbox-read":
		r, err := replRingArg(m, args)
		if err != nil {
			return err
		}
		msg, ok := r.ReadResponse()
		if !ok {
			fmt.Fprintln(out, "(no response pending)")
			return nil
		}
		fmt.Fprintf(out, "%s\n", msg)
		return nil
	case "mailbox-abandon":
		r, err := replRingArg(m, args)
		if err != nil {
			return err
		}
		r.Abandon()
		return nil
	case "watch-arm":
		if len(args) < 2 {
			return fmt.Errorf("usage: watch-arm <ring> <expr>")
		}
		r, err := replRingArg(m, args[:1])
		if err != nil {
			return err
		}
		i, err := r.ArmWatch(strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "armed slot %d\n", i)
		return nil
	case "watch-read":
		r, slot, err := replRingSlotArg(m, args)
		if err != nil {
			return err
		}
		n, result, ok := r.ReadWatchResult(slot)
		if !ok {
			fmt.Fprintln(out, "(not resolved)")
			return nil
		}
		fmt.Fprintf(out, "reslength=%d result=%q\n", n, result)
		return nil
	case "watch-rearm":
		r, slot, err := replRingSlotArg(m, args)
		if err != nil {
			return err
		}
		r.RearmWatch(slot)
		return nil
	case "watch-release":
		r, slot, err := replRingSlotArg(m, args)
		if err != nil {
			return err
		}
		r.ReleaseWatch(slot)
		return nil
	case "global-read":
		data, err := m.ReadGlobal()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", data)
		return nil
	case "global-write":
		return m.WriteGlobal([]byte(strings.Join(args, " ")))
	case "global-append":
		n, err := m.AppendGlobal([]byte(strings.Join(args, " ")))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "appended %d bytes\n", n)
		return nil
	case "global-clear":
		return m.ClearGlobal()
	default:
		return fmt.Errorf("unknown command %q (try 'help')", verb)
	}
}

func replRingArg(m *ringbuf.Mapping, args []string) (*ringbuf.Ring, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("missing ring index")
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("invalid ring index %q: %w", args[0], err)
	}
	r := m.RingAt(idx)
	if r == nil {
		return nil, fmt.Errorf("ring index %d out of range", idx)
	}
	return r, nil
}

func replRingSlotArg(m *ringbuf.Mapping, args []string) (*ringbuf.Ring, int, error) {
	if len(args) < 2 {
		return nil, 0, fmt.Errorf("missing ring index or slot")
	}
	r, err := replRingArg(m, args[:1])
	if err != nil {
		return nil, 0, err
	}
	slot, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, 0, fmt.Errorf("invalid slot %q: %w", args[1], err)
	}
	return r, slot, nil
}
