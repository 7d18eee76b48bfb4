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
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Config carries every sized parameter of the mapping, plus the
// backing path. Sizes are fixed for the lifetime of a mapping once
// Create or Attach has been called; there is no resize operation.
type Config struct {
	MaxBuffers    int `yaml:"buffers"`
	Slots         int `yaml:"slots"`
	SlotSz        int `yaml:"slot_sz"`
	MsgAreaSz     int `yaml:"msg_sz"`
	GlobalSz      int `yaml:"global_sz"`
	StopOnCreate  int `yaml:"stop_on_create"`
	TraceOnCreate int `yaml:"trace_on_create"`
	Path          string `yaml:"file"`
}

// DefaultConfig returns the defaults of the configuration table.
func DefaultConfig() Config {
	return Config{
		MaxBuffers:    20,
		Slots:         10,
		SlotSz:        200,
		MsgAreaSz:     256,
		GlobalSz:      16384,
		StopOnCreate:  0,
		TraceOnCreate: 0,
	}
}

// envOverrides lists the named environment variables recognized per
// the configuration table, in the order their corresponding fields
// appear in Config.
var envOverrides = []struct {
	name string
	set  func(*Config, string) error
}{
	{"RINGBUF_BUFFERS", intField(func(c *Config) *int { return &c.MaxBuffers })},
	{"RINGBUF_SLOTS", intField(func(c *Config) *int { return &c.Slots })},
	{"RINGBUF_SLOT_SZ", intField(func(c *Config) *int { return &c.SlotSz })},
	{"RINGBUF_MSG_SZ", intField(func(c *Config) *int { return &c.MsgAreaSz })},
	{"RINGBUF_GLOBAL_SZ", intField(func(c *Config) *int { return &c.GlobalSz })},
	{"RINGBUF_STOP_ON_CREATE", intField(func(c *Config) *int { return &c.StopOnCreate })},
	{"RINGBUF_TRACE_ON_CREATE", intField(func(c *Config) *int { return &c.TraceOnCreate })},
	{"RINGBUF_FILE", func(c *Config, v string) error { c.Path = v; return nil }},
}

func intField(sel func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*sel(c) = n
		return nil
	}
}

// LoadConfig layers defaults, an optional YAML file at yamlPath (a
// zero value is treated as "no file"), and the named environment
// variables, each overriding the layer beneath it. This mirrors
// dlv's config.yml precedence model but keeps the final, highest-
// precedence override on environment variables, matching the
// configuration table's own framing ("each settable by a named
// environment variable and overridable at construction").
func LoadConfig(yamlPath string) (Config, error) {
	cfg := DefaultConfig()

	if yamlPath != "" {
		b, err := os.ReadFile(yamlPath)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("ringbuf: read config %s: %w", yamlPath, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("ringbuf: parse config %s: %w", yamlPath, err)
			}
		}
	}

	for _, e := range envOverrides {
		if v, ok := os.LookupEnv(e.name); ok {
			if err := e.set(&cfg, v); err != nil {
				return Config{}, fmt.Errorf("ringbuf: env %s: %w", e.name, err)
			}
		}
	}

	if cfg.Path == "" {
		cfg.Path = DefaultPath()
	}
	return cfg, nil
}

// DefaultPath builds <tmpdir>/<scriptname>.<pid>_<mon>_<day>_<HH:MM:SS>.
func DefaultPath() string {
	script := filepath.Base(os.Args[0])
	now := time.Now()
	name := fmt.Sprintf("%s.%d_%02d_%02d_%02d:%02d:%02d",
		script, os.Getpid(), int(now.Month()), now.Day(), now.Hour(), now.Minute(), now.Second())
	return filepath.Join(os.TempDir(), name)
}

// sameShape reports whether two configs describe mappings of the same
// byte layout, i.e. every field Attach must validate against an
// existing file agrees. Path is deliberately excluded.
func (c Config) sameShape(other Config) bool {
	return c.MaxBuffers == other.MaxBuffers &&
		c.Slots == other.Slots &&
		c.SlotSz == other.SlotSz &&
		c.MsgAreaSz == other.MsgAreaSz &&
		c.GlobalSz == other.GlobalSz
}
