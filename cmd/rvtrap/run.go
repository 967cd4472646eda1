package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"rvtrap/internal/config"
	"rvtrap/internal/sim"
)

// runCmd implements subcommands.Command for the "run" command.
type runCmd struct {
	config   string
	logLevel string
	maxSteps uint64
}

// Name implements subcommands.Command.
func (*runCmd) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.
func (*runCmd) Synopsis() string {
	return "run guest programs on simulated harts"
}

// Usage implements subcommands.Command.
func (*runCmd) Usage() string {
	return `run [flags] program... - run each program on its own hart and print its console
`
}

// SetFlags implements subcommands.Command.
func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.config, "config", "", "path to a TOML configuration file")
	f.StringVar(&c.logLevel, "log-level", "", "log level, overrides the configuration")
	f.Uint64Var(&c.maxSteps, "max-steps", 0, "instruction budget per program, overrides the configuration")
}

// Execute implements subcommands.Command.
func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	cfg := config.Default()
	if c.config != "" {
		var err error
		if cfg, err = config.Load(c.config); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.maxSteps != 0 {
		cfg.Sim.MaxSteps = c.maxSteps
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	log := logrus.New()
	log.SetLevel(cfg.Level())
	log.SetOutput(os.Stderr)

	results, err := runAll(ctx, cfg.Machine(), f.Args(), os.Stdout, log)
	for _, r := range results {
		log.WithFields(logrus.Fields{
			"program": r.Program,
			"state":   r.State,
			"reason":  r.Reason,
			"steps":   r.Steps,
			"traps":   r.Traps,
			"ticks":   r.Ticks,
		}).Info("halted")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// runAll runs every named program on its own machine and writes the console
// transcripts to out in argument order.
func runAll(ctx context.Context, cfg sim.Config, names []string, out io.Writer, log *logrus.Logger) ([]sim.Result, error) {
	progs := make([]sim.Program, len(names))
	for i, name := range names {
		p, err := sim.Lookup(name)
		if err != nil {
			return nil, err
		}
		progs[i] = p
	}

	bufs := make([]bytes.Buffer, len(progs))
	machines := make([]*sim.Machine, len(progs))
	for i, p := range progs {
		m, err := sim.New(cfg, p, &bufs[i], log)
		if err != nil {
			return nil, err
		}
		machines[i] = m
	}

	results := make([]sim.Result, len(progs))
	g, ctx := errgroup.WithContext(ctx)
	for i, m := range machines {
		i, m := i, m
		g.Go(func() error {
			r, err := m.Run(ctx)
			results[i] = r
			return err
		})
	}
	err := g.Wait()

	for i := range bufs {
		if len(progs) > 1 {
			fmt.Fprintf(out, "==> %s <==\n", progs[i].Name)
		}
		if _, werr := bufs[i].WriteTo(out); werr != nil && err == nil {
			err = werr
		}
	}
	return results, err
}

// programsCmd implements subcommands.Command for the "programs" command.
type programsCmd struct{}

// Name implements subcommands.Command.
func (*programsCmd) Name() string {
	return "programs"
}

// Synopsis implements subcommands.Command.
func (*programsCmd) Synopsis() string {
	return "list the built-in guest programs"
}

// Usage implements subcommands.Command.
func (*programsCmd) Usage() string {
	return `programs - list the built-in guest programs
`
}

// SetFlags implements subcommands.Command.
func (*programsCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.
func (*programsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", f.Args())
		return subcommands.ExitUsageError
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	for _, p := range sim.Programs() {
		fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Description)
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
