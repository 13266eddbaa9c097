// Package config loads judged's single config.toml. On first run, when
// no file is present, a default is written to disk and the process
// exits so an operator can review it before the daemon actually binds
// a socket or touches cgroupfs.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Accounting selects the cgroup CPU accounting source: "cpuacct"
// forces the v1 backend and its cpuacct statistics, while "auto" and
// "cpu" follow the host's detected cgroup layout.
type Accounting string

const (
	AccountingAuto    Accounting = "auto"
	AccountingCPU     Accounting = "cpu"
	AccountingCpuacct Accounting = "cpuacct"
)

// Runtime groups the filesystem and accounting knobs for the sandbox
// engine itself.
type Runtime struct {
	Temp       string `toml:"temp"`
	Bind       string `toml:"bind"`
	AccuracyUs uint64 `toml:"accuracy"`
	RootCgroup string `toml:"root_cgroup"`
}

// Platform groups the host-specific normalisation knobs.
type Platform struct {
	CPUTimeMultiplier float64 `toml:"cpu_time_multiplier"`
	AvailableMemory   uint64  `toml:"available_memory"`
}

// Plugin groups plugin-discovery configuration.
type Plugin struct {
	Path string `toml:"path"`
}

// Config is the top-level shape of config.toml.
type Config struct {
	Runtime    Runtime    `toml:"runtime"`
	Platform   Platform   `toml:"platform"`
	Plugin     Plugin     `toml:"plugin"`
	LogLevel   uint8      `toml:"log_level"`
	Secret     string     `toml:"secret"`
	Accounting Accounting `toml:"accounting"`
	Rootless   bool       `toml:"rootless"`
}

// Default returns the configuration written when no config.toml is
// found, mirroring the field defaults called out in the external
// interface description: 1 GiB of judgeable memory, auto accounting,
// a 50 millisecond monitor interval, no shared secret.
func Default() Config {
	return Config{
		Runtime: Runtime{
			Temp:       "/var/lib/judged/sandboxes",
			Bind:       "0.0.0.0:7890",
			AccuracyUs: 50_000,
			RootCgroup: "judged",
		},
		Platform: Platform{
			CPUTimeMultiplier: 1.0,
			AvailableMemory:   1024 * 1024 * 1024,
		},
		Plugin: Plugin{
			Path: "/etc/judged/plugins",
		},
		LogLevel:   1,
		Accounting: AccountingAuto,
		Rootless:   false,
	}
}

// Load reads config.toml from path. If the file does not exist, it
// writes Default() to path and returns os.ErrNotExist so the caller
// can exit cleanly after reporting the written path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if writeErr := writeDefault(path); writeErr != nil {
			return Config{}, fmt.Errorf("writing default config: %w", writeErr)
		}
		return Config{}, os.ErrNotExist
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

func writeDefault(path string) error {
	data, err := toml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// applyDefaults fills any zero-valued field left unset by a partial
// config.toml, matching the source's per-field serde defaults.
func applyDefaults(cfg *Config) {
	d := Default()
	if cfg.Runtime.Temp == "" {
		cfg.Runtime.Temp = d.Runtime.Temp
	}
	if cfg.Runtime.Bind == "" {
		cfg.Runtime.Bind = d.Runtime.Bind
	}
	if cfg.Runtime.AccuracyUs == 0 {
		cfg.Runtime.AccuracyUs = d.Runtime.AccuracyUs
	}
	if cfg.Runtime.RootCgroup == "" {
		cfg.Runtime.RootCgroup = d.Runtime.RootCgroup
	}
	if cfg.Platform.CPUTimeMultiplier == 0 {
		cfg.Platform.CPUTimeMultiplier = d.Platform.CPUTimeMultiplier
	}
	if cfg.Platform.AvailableMemory == 0 {
		cfg.Platform.AvailableMemory = d.Platform.AvailableMemory
	}
	if cfg.Plugin.Path == "" {
		cfg.Plugin.Path = d.Plugin.Path
	}
	if cfg.Accounting == "" {
		cfg.Accounting = d.Accounting
	}
}
