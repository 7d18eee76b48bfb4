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

	"github.com/spf13/cobra"

	"github.com/shmdbg/ringbuffer/internal/ringbuf"
)

func newCreateCommand() *cobra.Command {
	var buffers, slots, slotSz, msgSz, globalSz int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "create a new backing file and mapping",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if buffers > 0 {
				cfg.MaxBuffers = buffers
			}
			if slots > 0 {
				cfg.Slots = slots
			}
			if slotSz > 0 {
				cfg.SlotSz = slotSz
			}
			if msgSz > 0 {
				cfg.MsgAreaSz = msgSz
			}
			if globalSz > 0 {
				cfg.GlobalSz = globalSz
			}
			m, err := ringbuf.Create(cfg.Path, cfg)
			if err != nil {
				return err
			}
			defer m.Close(false)
			fmt.Printf("created %s\n", m.Path())
			return nil
		},
	}
	cmd.Flags().IntVar(&buffers, "buffers", 0, "override configured buffer count")
	cmd.Flags().IntVar(&slots, "slots", 0, "override configured slot count per ring")
	cmd.Flags().IntVar(&slotSz, "slot-sz", 0, "override configured slot byte size")
	cmd.Flags().IntVar(&msgSz, "msg-sz", 0, "override configured mailbox message size")
	cmd.Flags().IntVar(&globalSz, "global-sz", 0, "override configured global buffer size")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "print the mapping's configuration and free-map",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := attach()
			if err != nil {
				return err
			}
			defer m.Close(false)

			cfg := m.Config()
			fmt.Printf("path:       %s\n", m.Path())
			fmt.Printf("buffers:    %d\n", cfg.MaxBuffers)
			fmt.Printf("slots:      %d\n", cfg.Slots)
			fmt.Printf("slot_sz:    %d\n", cfg.SlotSz)
			fmt.Printf("msg_sz:     %d\n", cfg.MsgAreaSz)
			fmt.Printf("global_sz:  %d\n", cfg.GlobalSz)
			fmt.Print("free_map:   ")
			for i := 0; i < cfg.MaxBuffers; i++ {
				if m.IsFree(i) {
					fmt.Print("1")
				} else {
					fmt.Print("0")
				}
			}
			fmt.Println()
			return nil
		},
	}
}

func newAllocCommand() *cobra.Command {
	var pid, tid int32
	cmd := &cobra.Command{
		Use:   "alloc",
		Short: "allocate a ring",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := attach()
			if err != nil {
				return err
			}
			defer m.Close(false)
			r, err := m.Allocate(pid, tid)
			if err != nil {
				return err
			}
			fmt.Printf("allocated ring %d\n", r.Index())
			return nil
		},
	}
	cmd.Flags().Int32Var(&pid, "pid", 0, "pid to record on the ring")
	cmd.Flags().Int32Var(&tid, "tid", 0, "tid to record on the ring")
	return cmd
}

func newFreeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "free <ring-index>",
		Short: "free a ring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := attach()
			if err != nil {
				return err
			}
			defer m.Close(false)
			r, err := ringArg(m, args[0])
			if err != nil {
				return err
			}
			return r.Free()
		},
	}
}

func newSnapshotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <ring-index>",
		Short: "print the call-stack window of a ring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := attach()
			if err != nil {
				return err
			}
			defer m.Close(false)
			r, err := ringArg(m, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("pid=%d tid=%d depth=%d\n", r.PID(), r.TID(), r.Depth())
			for i, s := range r.Snapshot() {
				fmt.Printf("  [%d] %s:%d @%.6f\n", i, s.Subroutine, s.LineNumber, s.Timestamp)
			}
			return nil
		},
	}
}

func newGlobalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "global",
		Short: "read, write, append or clear the global message area",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "read",
			Short: "print the global buffer's contents",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := attach()
				if err != nil {
					return err
				}
				defer m.Close(false)
				data, err := m.ReadGlobal()
				if err != nil {
					return err
				}
				fmt.Printf("%s\n", data)
				return nil
			},
		},
		&cobra.Command{
			Use:   "write <text>",
			Short: "replace the global buffer's contents",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := attach()
				if err != nil {
					return err
				}
				defer m.Close(false)
				return m.WriteGlobal([]byte(args[0]))
			},
		},
		&cobra.Command{
			Use:   "append <text>",
			Short: "append to the global buffer, chunking if necessary",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := attach()
				if err != nil {
					return err
				}
				defer m.Close(false)
				n, err := m.AppendGlobal([]byte(args[0]))
				if err != nil {
					return err
				}
				fmt.Printf("appended %d bytes\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "reset the global buffer's logical length to zero",
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := attach()
				if err != nil {
					return err
				}
				defer m.Close(false)
				return m.ClearGlobal()
			},
		},
	)
	return cmd
}
