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

// Command shm-inspect is a diagnostic front end for a ring-buffer
// mapping: it attaches to (or creates) one and drives the same
// allocate/free, mailbox, watch, and global-message operations a
// Monitor process would, either as one-shot subcommands or through an
// interactive REPL.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/shmdbg/ringbuffer/internal/ringbuf"
)

var (
	flagPath       string
	flagConfigFile string
	flagVerbose    bool

	mapping *ringbuf.Mapping
	log     = logrus.StandardLogger()
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "shm-inspect",
		Short: "inspect and drive a ring-buffer shared-memory mapping",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagVerbose {
				log.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&flagPath, "path", "", "backing file path (default from config/env)")
	root.PersistentFlags().StringVar(&flagConfigFile, "config", "", "YAML config file")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newCreateCommand(),
		newStatusCommand(),
		newAllocCommand(),
		newFreeCommand(),
		newSnapshotCommand(),
		newMailboxCommand(),
		newWatchCommand(),
		newGlobalCommand(),
		newReclaimCommand(),
		newReplCommand(),
	)
	return root
}

// loadConfig layers defaults, --config, environment variables, and
// finally --path, matching the precedence ringbuf.LoadConfig itself
// implements for everything below the command line.
func loadConfig() (ringbuf.Config, error) {
	cfg, err := ringbuf.LoadConfig(flagConfigFile)
	if err != nil {
		return ringbuf.Config{}, err
	}
	if flagPath != "" {
		cfg.Path = flagPath
	}
	return cfg, nil
}

// attach opens the mapping named by the resolved config, failing
// loudly: unlike the AUT side, a CLI invocation with nothing to attach
// to is a user error, not a condition to run around.
func attach() (*ringbuf.Mapping, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	m, err := ringbuf.Attach(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", cfg.Path, err)
	}
	return m, nil
}

// ringArg parses a positional ring-index argument.
func ringArg(m *ringbuf.Mapping, s string) (*ringbuf.Ring, error) {
	var idx int
	if _, err := fmt.Sscanf(s, "%d", &idx); err != nil {
		return nil, fmt.Errorf("invalid ring index %q: %w", s, err)
	}
	r := m.RingAt(idx)
	if r == nil {
		return nil, fmt.Errorf("ring index %d out of range", idx)
	}
	return r, nil
}
