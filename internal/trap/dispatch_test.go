package trap

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"rvtrap/internal/riscv"
)

type testConsole struct {
	strings.Builder
	panics []string
}

func (c *testConsole) Printf(format string, args ...any) {
	fmt.Fprintf(&c.Builder, format, args...)
}

func (c *testConsole) Panicf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.panics = append(c.panics, msg)
	c.WriteString(msg + "\n")
}

type testTicker struct{ ticks int }

func (t *testTicker) Tick() { t.ticks++ }

// halted is what testAborter panics with in place of powering off.
type halted struct{}

type testAborter struct{ aborts int }

func (a *testAborter) Abort() {
	a.aborts++
	panic(halted{})
}

type fixture struct {
	con   *testConsole
	timer *testTicker
	abort *testAborter
	d     *Dispatcher
}

func newFixture(opts Options) *fixture {
	f := &fixture{con: &testConsole{}, timer: &testTicker{}, abort: &testAborter{}}
	f.d = NewDispatcher(f.con, f.timer, f.abort, opts)
	return f
}

// handle runs Handle and reports whether it diverged through Abort.
func (f *fixture) handle(t *testing.T, ctx *Context, cause riscv.Cause, stval uint64) (diverged bool) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(halted); !ok {
				panic(r)
			}
			diverged = true
		}
	}()
	f.d.Handle(ctx, cause, stval)
	return false
}

func TestBreakpoint(t *testing.T) {
	for _, tc := range []struct {
		sepc, offset, want uint64
	}{
		{0x1000, 2, 0x1002},
		{0x1000, 4, 0x1004},
		{0x80200000, 2, 0x80200002},
		{^uint64(0) - 1, 2, 0},
	} {
		f := newFixture(Options{BreakpointOffset: tc.offset})
		ctx := sampleContext()
		ctx.SetSepc(tc.sepc)
		before := ctx

		if f.handle(t, &ctx, riscv.Breakpoint, 0) {
			t.Fatalf("breakpoint at %#x diverged", tc.sepc)
		}
		if ctx.Sepc() != tc.want {
			t.Errorf("sepc %#x + %d = %#x, want %#x", tc.sepc, tc.offset, ctx.Sepc(), tc.want)
		}
		if ctx.Regs() != before.Regs() || ctx.Sstatus() != before.Sstatus() {
			t.Errorf("breakpoint changed more than sepc")
		}
		if !strings.Contains(f.con.String(), fmt.Sprintf("Breakpoint at 0x%x\n", tc.sepc)) {
			t.Errorf("missing breakpoint message, got %q", f.con.String())
		}
	}
}

func TestBreakpointDefaultOffset(t *testing.T) {
	f := newFixture(Options{})
	ctx := sampleContext()
	ctx.SetSepc(0x1000)
	f.handle(t, &ctx, riscv.Breakpoint, 0)
	if ctx.Sepc() != 0x1002 {
		t.Errorf("sepc = %#x, want 0x1002", ctx.Sepc())
	}
}

func TestLoadFault(t *testing.T) {
	for _, tc := range []struct {
		stval   uint64
		success bool
	}{
		{0, true},
		{8, false},
		{0xdeadbeef, false},
	} {
		f := newFixture(Options{})
		ctx := sampleContext()
		ctx.SetSepc(0x2000)

		if f.handle(t, &ctx, riscv.LoadFault, tc.stval) {
			t.Fatalf("load fault at %#x diverged", tc.stval)
		}
		if ctx.Sepc() != 0x2004 {
			t.Errorf("stval %#x: sepc = %#x, want 0x2004", tc.stval, ctx.Sepc())
		}
		if got := strings.Contains(f.con.String(), "SUCCESS!"); got != tc.success {
			t.Errorf("stval %#x: success marker = %v, want %v", tc.stval, got, tc.success)
		}
	}
}

func TestTimerInterruptTicks(t *testing.T) {
	f := newFixture(Options{})
	ctx := sampleContext()
	before := ctx
	for i := 0; i < 3; i++ {
		if f.handle(t, &ctx, riscv.SupervisorTimer, 0) {
			t.Fatalf("timer interrupt diverged")
		}
	}
	if f.timer.ticks != 3 {
		t.Errorf("ticks = %d, want 3", f.timer.ticks)
	}
	if ctx != before {
		t.Errorf("timer interrupt changed the context: %v -> %v", before, ctx)
	}
}

func TestUnrecognizedCausesAreFatal(t *testing.T) {
	causes := []riscv.Cause{
		riscv.InstructionMisaligned,
		riscv.InstructionFault,
		riscv.IllegalInstruction,
		riscv.LoadMisaligned,
		riscv.StoreMisaligned,
		riscv.StoreFault,
		riscv.UserEnvCall,
		riscv.SupervisorEnvCall,
		riscv.InstructionPageFault,
		riscv.LoadPageFault,
		riscv.StorePageFault,
		riscv.Exception(11),
		riscv.Exception(63),
		riscv.UserSoft,
		riscv.SupervisorSoft,
		riscv.UserTimer,
		riscv.UserExternal,
		riscv.SupervisorExternal,
		riscv.Interrupt(17),
	}
	for _, cause := range causes {
		f := newFixture(Options{})
		ctx := sampleContext()
		if !f.handle(t, &ctx, cause, 0x55) {
			t.Errorf("%v: Handle returned", cause)
		}
		if f.abort.aborts != 1 {
			t.Errorf("%v: aborted %d times, want 1", cause, f.abort.aborts)
		}
		if f.timer.ticks != 0 {
			t.Errorf("%v: timer ticked", cause)
		}
	}
}

func TestIllegalInstructionDiagnostic(t *testing.T) {
	f := newFixture(Options{})
	ctx := sampleContext()
	if !f.handle(t, &ctx, riscv.IllegalInstruction, 0xffff) {
		t.Fatalf("illegal instruction did not halt")
	}
	out := f.con.String()
	for _, want := range []string{
		"Interrupted: Exception(IllegalInstruction)\n",
		"Unresolved interrupt: Exception(IllegalInstruction)",
		"  ra = 0x0000000000001001",
		"sepc = 0x0000000080200010",
		"stval = 0x000000000000ffff",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("diagnostic missing %q:\n%s", want, out)
		}
	}
	if diff := cmp.Diff([]string{"Unresolved interrupt: Exception(IllegalInstruction)"}, f.con.panics); diff != "" {
		t.Errorf("fatal messages (-want +got):\n%s", diff)
	}
}

func TestCauseLoggedFirst(t *testing.T) {
	for _, cause := range []riscv.Cause{riscv.Breakpoint, riscv.LoadFault, riscv.SupervisorTimer, riscv.StoreFault} {
		f := newFixture(Options{})
		ctx := sampleContext()
		f.handle(t, &ctx, cause, 0)
		want := fmt.Sprintf("Interrupted: %v\n", cause)
		if !strings.HasPrefix(f.con.String(), want) {
			t.Errorf("output %q does not start with %q", f.con.String(), want)
		}
	}
}

func TestAbortMustNotReturn(t *testing.T) {
	d := NewDispatcher(&testConsole{}, &testTicker{}, returningAborter{}, Options{})
	ctx := sampleContext()
	defer func() {
		if recover() == nil {
			t.Errorf("Handle returned after a fatal trap")
		}
	}()
	d.Handle(&ctx, riscv.IllegalInstruction, 0)
}

type returningAborter struct{}

func (returningAborter) Abort() {}
