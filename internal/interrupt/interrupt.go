// Package interrupt wires the trap vector, the dispatcher and the timer
// into the kernel's interrupt subsystem.
//
// Bring-up is two steps, in this order:
//
//	s.Install()    // Idle -> Armed
//	s.StartTimer() // Armed -> Running
//
// After that the entry stub calls s.Handle for every trap. A fatal trap or
// the timer's shutdown moves the subsystem to Halted, which it never leaves.
package interrupt

import (
	"rvtrap/internal/riscv"
	"rvtrap/internal/timer"
	"rvtrap/internal/trap"
)

// Platform is everything the subsystem needs from the hart and firmware.
type Platform interface {
	trap.VectorWriter
	timer.Platform
}

type Console interface {
	Printf(format string, args ...any)
	Panicf(format string, args ...any)
}

type State int

const (
	Idle State = iota
	Armed
	Running
	Halted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Armed:
		return "Armed"
	case Running:
		return "Running"
	case Halted:
		return "Halted"
	}
	return "State(?)"
}

// HaltReason tells which path stopped the machine.
type HaltReason int

const (
	NotHalted HaltReason = iota
	FatalTrap
	TimerShutdown
)

func (r HaltReason) String() string {
	switch r {
	case NotHalted:
		return "not halted"
	case FatalTrap:
		return "fatal trap"
	case TimerShutdown:
		return "timer shutdown"
	}
	return "HaltReason(?)"
}

type Options struct {
	// Entry is the address of the assembly trap entry.
	Entry uintptr
	Timer timer.Config
	Trap  trap.Options
}

// Subsystem owns the interrupt state. One exists per hart, and this kernel
// has one hart.
type Subsystem struct {
	p     Platform
	con   Console
	state State
	why   HaltReason

	installer  *trap.Installer
	dispatcher *trap.Dispatcher
	timer      *timer.Timer
}

func New(p Platform, con Console, opts Options) *Subsystem {
	s := &Subsystem{p: p, con: con}
	s.installer = trap.NewInstaller(p, opts.Entry)
	s.timer = timer.New(haltingPlatform{p, s}, con, opts.Timer)
	s.dispatcher = trap.NewDispatcher(con, s.timer, aborter{s}, opts.Trap)
	return s
}

// Install points stvec at the entry stub. It does nothing unless the
// subsystem is Idle.
func (s *Subsystem) Install() {
	if s.state != Idle {
		return
	}
	s.installer.Install()
	s.state = Armed
	s.con.Printf("mod interrupt initialized\n")
}

// StartTimer enables timer interrupts. It does nothing unless the vector is
// installed and the timer is not already running.
func (s *Subsystem) StartTimer() {
	if s.state != Armed {
		return
	}
	s.timer.Init()
	s.state = Running
}

// Handle is the dispatch entry point for the trap stub. A halted subsystem
// dispatches nothing.
func (s *Subsystem) Handle(ctx *trap.Context, cause riscv.Cause, stval uint64) {
	if s.state == Halted {
		return
	}
	s.dispatcher.Handle(ctx, cause, stval)
}

func (s *Subsystem) State() State           { return s.state }
func (s *Subsystem) HaltReason() HaltReason { return s.why }
func (s *Subsystem) Timer() *timer.Timer    { return s.timer }

// Entry is the trap entry address Install writes to stvec.
func (s *Subsystem) Entry() uintptr { return s.installer.Entry() }

func (s *Subsystem) halt(why HaltReason) {
	if s.state == Halted {
		return
	}
	s.state = Halted
	s.why = why
}

// aborter ends the fatal path the way a kernel panic does: through the
// firmware's shutdown.
type aborter struct{ s *Subsystem }

func (a aborter) Abort() {
	a.s.halt(FatalTrap)
	a.s.p.Shutdown()
}

// haltingPlatform records the timer's shutdown before passing it on.
type haltingPlatform struct {
	Platform
	s *Subsystem
}

func (h haltingPlatform) Shutdown() {
	h.s.halt(TimerShutdown)
	h.Platform.Shutdown()
}
