package trap

import (
	"encoding/binary"
	"fmt"
	"strings"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"

	"rvtrap/internal/riscv"
)

func sampleContext() Context {
	var x [32]uint64
	for i := range x {
		x[i] = 0x1000 + uint64(i)
	}
	x[0] = 0
	return NewContext(x, riscv.SSTATUS_SPP|riscv.SSTATUS_SPIE, 0x80200010)
}

func TestLayout(t *testing.T) {
	var c Context
	if got := unsafe.Sizeof(c); got != CONTEXT_SIZE {
		t.Errorf("sizeof(Context) = %d, want %d", got, CONTEXT_SIZE)
	}
	if got := unsafe.Offsetof(c.sstatus); got != 256 {
		t.Errorf("offsetof(sstatus) = %d, want 256", got)
	}
	if got := unsafe.Offsetof(c.sepc); got != 264 {
		t.Errorf("offsetof(sepc) = %d, want 264", got)
	}
}

func TestEncodeMatchesInMemoryLayout(t *testing.T) {
	c := sampleContext()
	b := make([]byte, CONTEXT_SIZE)
	c.Encode(b)

	// The stub sees the Go struct's bytes directly on a little-endian hart.
	raw := unsafe.Slice((*byte)(unsafe.Pointer(&c)), CONTEXT_SIZE)
	if littleEndianHost() && string(raw) != string(b) {
		t.Errorf("Encode does not match the in-memory layout")
	}

	if got := binary.LittleEndian.Uint64(b[8*riscv.SP:]); got != 0x1002 {
		t.Errorf("x2 at offset 16 = %#x", got)
	}
	if got := binary.LittleEndian.Uint64(b[CONTEXT_SEPC_OFF:]); got != 0x80200010 {
		t.Errorf("sepc at offset %d = %#x", CONTEXT_SEPC_OFF, got)
	}

	back := Decode(b)
	if diff := cmp.Diff(c.Regs(), back.Regs()); diff != "" {
		t.Errorf("registers changed across Encode/Decode (-want +got):\n%s", diff)
	}
	if back.Sstatus() != c.Sstatus() || back.Sepc() != c.Sepc() {
		t.Errorf("Decode = %v, want %v", back, c)
	}
}

func littleEndianHost() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}

func TestAdvance(t *testing.T) {
	c := sampleContext()
	c.Advance(2)
	c.Advance(4)
	if c.Sepc() != 0x80200016 {
		t.Errorf("sepc = %#x, want 0x80200016", c.Sepc())
	}
	c.SetSepc(0x1000)
	if c.Sepc() != 0x1000 {
		t.Errorf("sepc = %#x after SetSepc", c.Sepc())
	}
}

func TestDump(t *testing.T) {
	c := sampleContext()
	con := &testConsole{}
	c.Dump(con)
	out := con.String()
	for _, want := range []string{
		"zero = 0x0000000000000000",
		"  sp = 0x0000000000001002",
		" t6 = 0x000000000000101f",
		"SPP=S",
		"sepc = 0x0000000080200010",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 10 {
		t.Errorf("dump has %d lines, want 10", n)
	}
}

func TestContextString(t *testing.T) {
	c := sampleContext()
	want := "Context{sepc: 0x80200010, sstatus: 0x120, sp: 0x1002}"
	if got := fmt.Sprint(&c); got != want {
		t.Errorf("fmt.Sprint(&c) = %q, want %q", got, want)
	}
}
