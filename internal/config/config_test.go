package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"

	"rvtrap/internal/sim"
)

func TestDefaultMatchesSimulator(t *testing.T) {
	if diff := cmp.Diff(sim.DefaultConfig(), Default().Machine()); diff != "" {
		t.Errorf("Default().Machine() (-want +got):\n%s", diff)
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestDecodeOverridesDefaults(t *testing.T) {
	c, err := Decode(strings.NewReader(`
[timer]
interval = 5000
shutdown_at = 10

[trap]
breakpoint_offset = 4

[log]
level = "debug"
trace_every_ms = 0
`))
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Timer.Interval = 5000
	want.Timer.ShutdownAt = 10
	want.Trap.BreakpointOffset = 4
	want.Log = Log{Level: "debug"}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
	if c.Level() != logrus.DebugLevel {
		t.Errorf("level = %v", c.Level())
	}
	if got := c.Machine().TraceEvery; got != 0 {
		t.Errorf("TraceEvery = %v", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, tc := range []struct {
		name, in, want string
	}{
		{"unknown key", "[timer]\nperiod = 3\n", "timer.period"},
		{"unknown table", "[hart]\nid = 0\n", "hart.id"},
		{"zero interval", "[timer]\ninterval = 0\n", "timer.interval"},
		{"bad offset", "[trap]\nbreakpoint_offset = 3\n", "breakpoint_offset"},
		{"memory", "[sim]\nmemory_size = 3000\n", "power of two"},
		{"level", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"syntax", "[timer\n", "decoding"},
		{"type", "[timer]\ninterval = \"fast\"\n", "decoding"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tc.in))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rvtrap.toml")
	if err := os.WriteFile(path, []byte("[sim]\ntime_per_step = 250\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Sim.TimePerStep != 250 || c.Machine().TraceEvery != 10*time.Millisecond {
		t.Errorf("loaded %+v", c)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("Load of a missing file succeeded")
	}
}
