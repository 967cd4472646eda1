// Package config loads rvtrap's TOML configuration.
package config

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"rvtrap/internal/sim"
	"rvtrap/internal/timer"
	"rvtrap/internal/trap"
)

// Config mirrors the configuration file. Every key is optional.
type Config struct {
	Timer Timer `toml:"timer"`
	Trap  Trap  `toml:"trap"`
	Sim   Sim   `toml:"sim"`
	Log   Log   `toml:"log"`
}

type Timer struct {
	// Interval is the distance between deadlines, in time-counter units.
	Interval     uint64 `toml:"interval"`
	StatusPeriod uint64 `toml:"status_period"`
	ShutdownAt   uint64 `toml:"shutdown_at"`
}

type Trap struct {
	// BreakpointOffset is 2 for c.ebreak, 4 for ebreak.
	BreakpointOffset uint64 `toml:"breakpoint_offset"`
}

type Sim struct {
	MemorySize  uint64 `toml:"memory_size"`
	StackSize   uint64 `toml:"stack_size"`
	TimePerStep uint64 `toml:"time_per_step"`
	MaxSteps    uint64 `toml:"max_steps"`
}

type Log struct {
	Level string `toml:"level"`
	// TraceEveryMS limits trap tracing to one entry per this many
	// milliseconds; 0 traces every trap.
	TraceEveryMS int64 `toml:"trace_every_ms"`
}

func Default() Config {
	return Config{
		Timer: Timer{
			Interval:     timer.DefaultInterval,
			StatusPeriod: timer.DefaultStatusPeriod,
			ShutdownAt:   timer.DefaultShutdownAt,
		},
		Trap: Trap{BreakpointOffset: trap.DefaultBreakpointOffset},
		Sim: Sim{
			MemorySize:  1 << 20,
			StackSize:   16 << 10,
			TimePerStep: 1000,
			MaxSteps:    10000000,
		},
		Log: Log{Level: "info", TraceEveryMS: 10},
	}
}

// Load reads the file at path over the defaults.
func Load(path string) (Config, error) {
	c := Default()
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("loading config %q: %w", path, err)
	}
	if err := check(md, c); err != nil {
		return Config{}, fmt.Errorf("config %q: %w", path, err)
	}
	return c, nil
}

// Decode reads configuration from r over the defaults.
func Decode(r io.Reader) (Config, error) {
	c := Default()
	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := check(md, c); err != nil {
		return Config{}, err
	}
	return c, nil
}

func check(md toml.MetaData, c Config) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		sort.Strings(names)
		return fmt.Errorf("unknown keys: %s", strings.Join(names, ", "))
	}
	return c.Validate()
}

// Validate reports the first value the subsystem cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Timer.Interval == 0:
		return fmt.Errorf("timer.interval must be positive")
	case c.Timer.StatusPeriod == 0:
		return fmt.Errorf("timer.status_period must be positive")
	case c.Timer.ShutdownAt == 0:
		return fmt.Errorf("timer.shutdown_at must be positive")
	case c.Trap.BreakpointOffset != 2 && c.Trap.BreakpointOffset != 4:
		return fmt.Errorf("trap.breakpoint_offset is %d, want 2 or 4", c.Trap.BreakpointOffset)
	case c.Sim.TimePerStep == 0:
		return fmt.Errorf("sim.time_per_step must be positive")
	case c.Sim.MemorySize&(c.Sim.MemorySize-1) != 0 || c.Sim.MemorySize == 0:
		return fmt.Errorf("sim.memory_size %#x is not a power of two", c.Sim.MemorySize)
	case c.Log.TraceEveryMS < 0:
		return fmt.Errorf("log.trace_every_ms is negative")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Machine returns the simulator configuration.
func (c Config) Machine() sim.Config {
	return sim.Config{
		MemorySize:  c.Sim.MemorySize,
		StackSize:   c.Sim.StackSize,
		TimePerStep: c.Sim.TimePerStep,
		MaxSteps:    c.Sim.MaxSteps,
		TraceEvery:  time.Duration(c.Log.TraceEveryMS) * time.Millisecond,
		Timer: timer.Config{
			Interval:     c.Timer.Interval,
			StatusPeriod: c.Timer.StatusPeriod,
			ShutdownAt:   c.Timer.ShutdownAt,
		},
		Trap: trap.Options{BreakpointOffset: c.Trap.BreakpointOffset},
	}
}

// Level returns the parsed log level. It is only valid after Validate.
func (c Config) Level() logrus.Level {
	l, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}
