// Package sim runs the interrupt subsystem on a simulated RV64 hart.
//
// The Go side of the kernel (trap vector installer, dispatcher, timer) runs
// natively and reaches the hart only through CSR accessors and SBI calls,
// the same seams the bare-metal image uses. Guest programs are real RISC-V
// machine code executed by a small interpreter, so every trap they take goes
// through hardware trap entry, the register-save boundary and sret.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"rvtrap/internal/console"
	"rvtrap/internal/interrupt"
	"rvtrap/internal/riscv"
	"rvtrap/internal/sbi"
	"rvtrap/internal/timer"
	"rvtrap/internal/trap"
)

var (
	// ErrStepBudget is returned when a program is still running after
	// Config.MaxSteps instructions.
	ErrStepBudget = errors.New("step budget exhausted")
	// ErrNoTrapVector is returned when the hart traps before stvec is set.
	ErrNoTrapVector = errors.New("trap taken with stvec unset")
	// ErrStackOverflow is returned when the trap frame does not fit in RAM.
	ErrStackOverflow = errors.New("trap frame outside RAM")
)

// Memory map, relative to riscv.KERNLOAD.
const (
	entryOffset = 0x0    // __interrupt
	textOffset  = 0x1000 // guest program
)

type Config struct {
	MemorySize  uint64
	StackSize   uint64
	TimePerStep uint64
	MaxSteps    uint64
	// TraceEvery limits per-trap debug logging to one entry per interval.
	TraceEvery time.Duration

	Timer timer.Config
	Trap  trap.Options
}

func DefaultConfig() Config {
	return Config{
		MemorySize:  1 << 20,
		StackSize:   16 << 10,
		TimePerStep: 1000,
		MaxSteps:    10000000,
		TraceEvery:  10 * time.Millisecond,
		Timer:       timer.DefaultConfig(),
		Trap:        trap.Options{BreakpointOffset: trap.DefaultBreakpointOffset},
	}
}

// Result describes how a run ended.
type Result struct {
	Program    string
	PoweredOff bool
	State      interrupt.State
	Reason     interrupt.HaltReason
	Steps      uint64
	Traps      uint64
	Ticks      uint64
	Time       uint64
	PC         uint64
}

// poweroff is what the firmware panics with on SBI shutdown; Run recovers it.
type poweroff struct{}

type Machine struct {
	cfg  Config
	prog Program
	h    hart
	mem  []byte
	base uint64

	out io.Writer
	in  io.Reader

	kernel *interrupt.Subsystem

	log   *logrus.Entry
	trace *traceLogger

	steps      uint64
	traps      uint64
	poweredOff bool
}

// New loads prog into a fresh machine. Console output goes to out.
func New(cfg Config, prog Program, out io.Writer, logger *logrus.Logger) (*Machine, error) {
	if cfg.MemorySize < textOffset+uint64(len(prog.Code))+cfg.StackSize {
		return nil, fmt.Errorf("memory size %d too small for program %q and %d byte stack", cfg.MemorySize, prog.Name, cfg.StackSize)
	}
	if cfg.TimePerStep == 0 {
		return nil, fmt.Errorf("time per step must be positive")
	}
	size := uint64(riscv.PGROUNDUP(uintptr(cfg.MemorySize)))
	m := &Machine{
		cfg:  cfg,
		prog: prog,
		mem:  make([]byte, size),
		base: uint64(riscv.KERNLOAD),
		out:  out,
		log:  logger.WithField("program", prog.Name),
	}
	m.trace = newTraceLogger(m.log, cfg.TraceEvery)
	copy(m.mem[textOffset:], prog.Code)

	m.h.priv = privSupervisor
	m.h.pc = m.base + textOffset
	m.h.x[riscv.SP] = uint64(riscv.PGROUNDDOWN(uintptr(m.base + size)))
	m.h.mtimecmp = ^uint64(0)

	trapOpts := cfg.Trap
	if prog.BreakpointOffset != 0 {
		trapOpts.BreakpointOffset = prog.BreakpointOffset
	}
	fw := sbi.New(firmware{m})
	m.kernel = interrupt.New(supervisor{m: m, sbi: fw}, console.New(fw), interrupt.Options{
		Entry: uintptr(m.base + entryOffset),
		Timer: cfg.Timer,
		Trap:  trapOpts,
	})
	return m, nil
}

// SetInput feeds SBI console_getchar.
func (m *Machine) SetInput(r io.Reader) { m.in = r }

func (m *Machine) Kernel() *interrupt.Subsystem { return m.kernel }

// Run boots the kernel and executes the guest until the machine powers off,
// ctx is cancelled or the step budget runs out.
func (m *Machine) Run(ctx context.Context) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(poweroff); !ok {
				panic(r)
			}
			m.poweredOff = true
			res, err = m.result(), nil
			m.log.WithFields(logrus.Fields{
				"reason": m.kernel.HaltReason(),
				"steps":  m.steps,
				"ticks":  m.kernel.Timer().Ticks(),
			}).Info("machine powered off")
		}
	}()

	m.boot()
	for {
		if m.steps >= m.cfg.MaxSteps {
			return m.result(), fmt.Errorf("%s: %w after %d steps", m.prog.Name, ErrStepBudget, m.steps)
		}
		if m.steps%4096 == 0 {
			select {
			case <-ctx.Done():
				return m.result(), ctx.Err()
			default:
			}
		}
		if err := m.step(); err != nil {
			return m.result(), fmt.Errorf("%s: %w", m.prog.Name, err)
		}
	}
}

// boot is the kernel's main before it falls into the guest program.
func (m *Machine) boot() {
	m.kernel.Install()
	m.kernel.StartTimer()
	m.log.WithFields(logrus.Fields{
		"pc":       fmt.Sprintf("%#x", m.h.pc),
		"vector":   fmt.Sprintf("%#x", m.kernel.Entry()),
		"interval": m.kernel.Timer().Interval(),
	}).Debug("booted")
}

func (m *Machine) step() error {
	h := &m.h
	m.steps++
	h.time += m.cfg.TimePerStep
	h.updateTimer()

	if irq, ok := h.pending(); ok {
		return m.raise(irq, 0)
	}
	if h.pc == m.base+entryOffset {
		return m.enterTrap()
	}
	return m.exec()
}

// raise takes a trap. The next step starts at the vector.
func (m *Machine) raise(cause riscv.Cause, stval uint64) error {
	if m.h.stvec == 0 {
		return fmt.Errorf("%v at pc %#x: %w", cause, m.h.pc, ErrNoTrapVector)
	}
	m.traps++
	m.trace.trap(cause, m.h.pc, stval)
	m.h.trap(cause, stval)
	return nil
}

func (m *Machine) result() Result {
	return Result{
		Program:    m.prog.Name,
		PoweredOff: m.poweredOff,
		State:      m.kernel.State(),
		Reason:     m.kernel.HaltReason(),
		Steps:      m.steps,
		Traps:      m.traps,
		Ticks:      m.kernel.Timer().Ticks(),
		Time:       m.h.time,
		PC:         m.h.pc,
	}
}

// slice returns the n bytes of RAM at addr, or false if any of them is
// outside RAM.
func (m *Machine) slice(addr, n uint64) ([]byte, bool) {
	if addr < m.base {
		return nil, false
	}
	off := addr - m.base
	if off >= uint64(len(m.mem)) || n > uint64(len(m.mem))-off {
		return nil, false
	}
	return m.mem[off : off+n], true
}
