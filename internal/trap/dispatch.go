package trap

import (
	"rvtrap/internal/riscv"
)

// Printer receives diagnostics.
type Printer interface {
	Printf(format string, args ...any)
}

// Console is a Printer that can also flag a message as fatal.
type Console interface {
	Printer
	Panicf(format string, args ...any)
}

// Ticker is the timer service.
type Ticker interface {
	Tick()
}

// Aborter halts the machine after a fatal trap. Abort must not return.
type Aborter interface {
	Abort()
}

// DefaultBreakpointOffset skips a compressed c.ebreak.
const DefaultBreakpointOffset = riscv.CINSN_SIZE

// Options tunes the dispatcher.
type Options struct {
	// BreakpointOffset is how far a breakpoint trap advances sepc. It is 2
	// for c.ebreak and 4 for ebreak; the dispatcher cannot tell which one
	// trapped, so the caller decides.
	BreakpointOffset uint64
}

// Dispatcher routes a decoded trap to its handler.
type Dispatcher struct {
	con   Console
	timer Ticker
	abort Aborter
	opts  Options
}

// NewDispatcher returns a Dispatcher. A zero BreakpointOffset means
// DefaultBreakpointOffset.
func NewDispatcher(con Console, timer Ticker, abort Aborter, opts Options) *Dispatcher {
	if opts.BreakpointOffset == 0 {
		opts.BreakpointOffset = DefaultBreakpointOffset
	}
	return &Dispatcher{con: con, timer: timer, abort: abort, opts: opts}
}

// Handle is called by the entry stub with the saved context, the decoded
// scause and stval. It returns only for breakpoints, load access faults and
// supervisor timer interrupts; the stub then restores ctx and executes sret.
// Every other cause halts the machine.
func (d *Dispatcher) Handle(ctx *Context, cause riscv.Cause, stval uint64) {
	d.con.Printf("Interrupted: %v\n", cause)

	switch c := cause.(type) {
	case riscv.Exception:
		switch c {
		case riscv.Breakpoint:
			d.breakpoint(ctx, d.opts.BreakpointOffset)
			return
		case riscv.LoadFault:
			d.loadFault(ctx, stval)
			return
		}
	case riscv.Interrupt:
		if c == riscv.SupervisorTimer {
			d.timer.Tick()
			return
		}
	}
	d.fatal(ctx, cause, stval)
}

// breakpoint skips the trapping instruction.
func (d *Dispatcher) breakpoint(ctx *Context, offset uint64) {
	d.con.Printf("Breakpoint at 0x%x\n", ctx.Sepc())
	ctx.Advance(offset)
}

// loadFault demonstrates recovery from a read of the null page. Nothing is
// mapped or repaired; the faulting load is skipped.
func (d *Dispatcher) loadFault(ctx *Context, stval uint64) {
	if stval == 0 {
		d.con.Printf("SUCCESS!\n")
	}
	d.breakpoint(ctx, riscv.INSN_SIZE)
}

func (d *Dispatcher) fatal(ctx *Context, cause riscv.Cause, stval uint64) {
	d.con.Panicf("Unresolved interrupt: %v", cause)
	ctx.Dump(d.con)
	d.con.Printf("  stval = 0x%016x\n", stval)
	d.abort.Abort()
	panic("trap: abort returned")
}
