// Binary rvtrap runs the supervisor trap subsystem on a simulated RISC-V
// hart and generates the assembly layout the bare-metal stub needs.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(runCmd), "")
	subcommands.Register(new(programsCmd), "")
	subcommands.Register(new(layoutCmd), "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
