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
)

func newMailboxCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mailbox",
		Short: "post a command, read a response, or abandon a pending one",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "post <ring-index> <4-char-command> [msg]",
			Short: "post a Monitor request to a ring's mailbox",
			Args:  cobra.RangeArgs(2, 3),
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
				var command [4]byte
				copy(command[:], args[1])
				var msg []byte
				if len(args) == 3 {
					msg = []byte(args[2])
				}
				return r.PostRequest(command, msg)
			},
		},
		&cobra.Command{
			Use:   "read <ring-index>",
			Short: "read a posted response, if any",
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
				msg, ok := r.ReadResponse()
				if !ok {
					fmt.Println("(no response pending)")
					return nil
				}
				fmt.Printf("%s\n", msg)
				return nil
			},
		},
		&cobra.Command{
			Use:   "abandon <ring-index>",
			Short: "give up on a pending request without waiting for a response",
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
				r.Abandon()
				return nil
			},
		},
	)
	return cmd
}

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "arm, read, rearm, or release a ring's watch expressions",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "arm <ring-index> <expr>",
			Short: "arm a free watch slot with an expression",
			Args:  cobra.ExactArgs(2),
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
				i, err := r.ArmWatch(args[1])
				if err != nil {
					return err
				}
				fmt.Printf("armed slot %d\n", i)
				return nil
			},
		},
		&cobra.Command{
			Use:   "read <ring-index> <slot>",
			Short: "read a resolved watch result",
			Args:  cobra.ExactArgs(2),
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
				var slot int
				fmt.Sscanf(args[1], "%d", &slot)
				n, result, ok := r.ReadWatchResult(slot)
				if !ok {
					fmt.Println("(not resolved)")
					return nil
				}
				fmt.Printf("reslength=%d result=%q\n", n, result)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rearm <ring-index> <slot>",
			Short: "request re-evaluation of a resolved slot",
			Args:  cobra.ExactArgs(2),
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
				var slot int
				fmt.Sscanf(args[1], "%d", &slot)
				r.RearmWatch(slot)
				return nil
			},
		},
		&cobra.Command{
			Use:   "release <ring-index> <slot>",
			Short: "mark a slot for reclamation",
			Args:  cobra.ExactArgs(2),
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
				var slot int
				fmt.Sscanf(args[1], "%d", &slot)
				r.ReleaseWatch(slot)
				return nil
			},
		},
	)
	return cmd
}
