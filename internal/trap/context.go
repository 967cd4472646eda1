// Package trap saves, classifies and resumes supervisor traps.
//
// The assembly entry stub and this package share one contract: a Context
// laid out as 32 general registers, then sstatus, then sepc, all 64 bits
// wide. The stub writes it with the CONTEXT_*_OFF offsets below and calls
// the dispatcher with a pointer to it; whatever the dispatcher leaves in the
// Context is restored on return.
package trap

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"rvtrap/internal/riscv"
)

// Context is the register snapshot of the interrupted program.
type Context struct {
	x       [32]uint64
	sstatus uint64
	sepc    uint64
}

// Layout shared with the entry stub. Do not reorder Context.
const (
	CONTEXT_X_OFF       = 0
	CONTEXT_SSTATUS_OFF = 32 * 8
	CONTEXT_SEPC_OFF    = 33 * 8
	CONTEXT_SIZE        = 34 * 8
)

// Compile-time layout checks: each array length underflows if the struct
// drifts from the constants.
var (
	_ [unsafe.Sizeof(Context{}) - CONTEXT_SIZE]struct{}
	_ [CONTEXT_SIZE - unsafe.Sizeof(Context{})]struct{}
	_ [unsafe.Offsetof(Context{}.sstatus) - CONTEXT_SSTATUS_OFF]struct{}
	_ [CONTEXT_SSTATUS_OFF - unsafe.Offsetof(Context{}.sstatus)]struct{}
	_ [unsafe.Offsetof(Context{}.sepc) - CONTEXT_SEPC_OFF]struct{}
	_ [CONTEXT_SEPC_OFF - unsafe.Offsetof(Context{}.sepc)]struct{}
)

// NewContext builds a Context from register values.
func NewContext(x [32]uint64, sstatus, sepc uint64) Context {
	return Context{x: x, sstatus: sstatus, sepc: sepc}
}

// Reg returns general register xi.
func (c *Context) Reg(i int) uint64 { return c.x[i] }

func (c *Context) Regs() [32]uint64 { return c.x }
func (c *Context) Sstatus() uint64  { return c.sstatus }
func (c *Context) Sepc() uint64     { return c.sepc }

// SetSepc redirects where execution resumes.
func (c *Context) SetSepc(pc uint64) { c.sepc = pc }

// Advance moves the resume address forward by n bytes.
func (c *Context) Advance(n uint64) { c.sepc += n }

// Encode writes c into b in the stub's layout. b must hold CONTEXT_SIZE bytes.
func (c *Context) Encode(b []byte) {
	_ = b[CONTEXT_SIZE-1]
	for i, v := range c.x {
		binary.LittleEndian.PutUint64(b[CONTEXT_X_OFF+8*i:], v)
	}
	binary.LittleEndian.PutUint64(b[CONTEXT_SSTATUS_OFF:], c.sstatus)
	binary.LittleEndian.PutUint64(b[CONTEXT_SEPC_OFF:], c.sepc)
}

// Decode reads a Context the stub saved into b.
func Decode(b []byte) Context {
	_ = b[CONTEXT_SIZE-1]
	var c Context
	for i := range c.x {
		c.x[i] = binary.LittleEndian.Uint64(b[CONTEXT_X_OFF+8*i:])
	}
	c.sstatus = binary.LittleEndian.Uint64(b[CONTEXT_SSTATUS_OFF:])
	c.sepc = binary.LittleEndian.Uint64(b[CONTEXT_SEPC_OFF:])
	return c
}

// Dump prints every register, four to a line, then the CSRs.
func (c *Context) Dump(out Printer) {
	for i := 0; i < 32; i += 4 {
		out.Printf("%4s = 0x%016x %4s = 0x%016x %4s = 0x%016x %4s = 0x%016x\n",
			riscv.ABINames[i], c.x[i], riscv.ABINames[i+1], c.x[i+1],
			riscv.ABINames[i+2], c.x[i+2], riscv.ABINames[i+3], c.x[i+3])
	}
	out.Printf("sstatus = 0x%016x (SIE=%d SPIE=%d SPP=%s)\n", c.sstatus,
		c.sstatus&riscv.SSTATUS_SIE>>1, c.sstatus&riscv.SSTATUS_SPIE>>5, spp(c.sstatus))
	out.Printf("   sepc = 0x%016x\n", c.sepc)
}

func spp(sstatus uint64) string {
	if sstatus&riscv.SSTATUS_SPP != 0 {
		return "S"
	}
	return "U"
}

func (c *Context) String() string {
	return fmt.Sprintf("Context{sepc: %#x, sstatus: %#x, sp: %#x}", c.sepc, c.sstatus, c.x[riscv.SP])
}
