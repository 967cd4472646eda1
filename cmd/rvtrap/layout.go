package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"rvtrap/internal/riscv"
	"rvtrap/internal/trap"
)

// layoutCmd implements subcommands.Command for the "layout" command.
type layoutCmd struct {
	out string
}

// Name implements subcommands.Command.
func (*layoutCmd) Name() string {
	return "layout"
}

// Synopsis implements subcommands.Command.
func (*layoutCmd) Synopsis() string {
	return "emit the trap frame layout as assembler constants"
}

// Usage implements subcommands.Command.
func (*layoutCmd) Usage() string {
	return `layout [-o file] - write the .equ constants included by kernel/asm/interrupt.S
`
}

// SetFlags implements subcommands.Command.
func (c *layoutCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "output file; stdout if empty")
}

// Execute implements subcommands.Command.
func (c *layoutCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", f.Args())
		return subcommands.ExitUsageError
	}
	w := io.Writer(os.Stdout)
	if c.out != "" {
		file, err := os.Create(c.out)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		w = file
	}
	if err := writeLayout(w); err != nil {
		fmt.Fprintf(os.Stderr, "writing layout: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func writeLayout(w io.Writer) error {
	var b strings.Builder
	b.WriteString("# Code generated by rvtrap layout. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, ".equ CONTEXT_SIZE, %d\n", trap.CONTEXT_SIZE)
	fmt.Fprintf(&b, ".equ CONTEXT_SSTATUS, %d\n", trap.CONTEXT_SSTATUS_OFF)
	fmt.Fprintf(&b, ".equ CONTEXT_SEPC, %d\n", trap.CONTEXT_SEPC_OFF)
	for i, name := range riscv.ABINames {
		fmt.Fprintf(&b, ".equ CONTEXT_X%d, %d # %s\n", i, trap.CONTEXT_X_OFF+8*i, name)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
