package sbi

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type call struct {
	Which, A0, A1, A2 uint64
}

type recorder struct {
	calls []call
	ret   uint64
}

func (r *recorder) Ecall(which, arg0, arg1, arg2 uint64) uint64 {
	r.calls = append(r.calls, call{which, arg0, arg1, arg2})
	return r.ret
}

func TestCallNumbers(t *testing.T) {
	r := &recorder{}
	c := New(r)
	c.SetTimer(123456)
	c.ConsolePutchar('O')
	c.Putchar('K')

	want := []call{
		{SET_TIMER, 123456, 0, 0},
		{CONSOLE_PUTCHAR, 'O', 0, 0},
		{CONSOLE_PUTCHAR, 'K', 0, 0},
	}
	if diff := cmp.Diff(want, r.calls); diff != "" {
		t.Errorf("ecalls mismatch (-want +got):\n%s", diff)
	}
}

func TestConsoleGetcharEmpty(t *testing.T) {
	c := New(&recorder{ret: ^uint64(0)})
	if got := c.ConsoleGetchar(); got != -1 {
		t.Errorf("ConsoleGetchar() = %d, want -1", got)
	}
}

func TestShutdownDoesNotReturn(t *testing.T) {
	r := &recorder{}
	defer func() {
		if recover() == nil {
			t.Fatalf("Shutdown returned normally")
		}
		if len(r.calls) != 1 || r.calls[0].Which != SHUTDOWN {
			t.Errorf("calls = %+v, want a single SHUTDOWN", r.calls)
		}
	}()
	New(r).Shutdown()
}
