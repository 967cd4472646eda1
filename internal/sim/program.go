package sim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"rvtrap/internal/riscv"
	"rvtrap/internal/sbi"
)

var ErrUnknownProgram = errors.New("unknown program")

// Program is guest machine code loaded at the start of text.
type Program struct {
	Name        string
	Description string
	Code        []byte
	// BreakpointOffset overrides the dispatcher's breakpoint skip when the
	// program traps with a full-width ebreak.
	BreakpointOffset uint64
}

type text []byte

func (t *text) w16(v uint16) { *t = binary.LittleEndian.AppendUint16(*t, v) }
func (t *text) w32(v uint32) { *t = binary.LittleEndian.AppendUint32(*t, v) }

// putchar emits an SBI console_putchar of c.
func (t *text) putchar(c byte) {
	t.w32(riscv.ADDI(riscv.A7, riscv.ZERO, sbi.CONSOLE_PUTCHAR))
	t.w32(riscv.ADDI(riscv.A0, riscv.ZERO, int32(c)))
	t.w32(riscv.ECALL)
}

// idle spins in wfi waiting for timer interrupts.
func (t *text) idle() {
	t.w32(riscv.WFI)
	t.w32(riscv.JAL(riscv.ZERO, -4))
}

// The programs below mirror what the kernel's main does after bring-up.
var programs = map[string]Program{}

func register(p Program) { programs[p.Name] = p }

func init() {
	var demo text
	demo.w16(riscv.C_EBREAK)
	demo.w16(riscv.C_NOP)
	demo.w32(riscv.LD(riscv.A0, riscv.ZERO, 0)) // load from the null page
	for _, c := range []byte("OK\n") {
		demo.putchar(c)
	}
	demo.idle()
	register(Program{
		Name:        "demo",
		Description: "c.ebreak, a load from address 0, then wait for 500 timer ticks",
		Code:        demo,
	})

	var ebreak text
	ebreak.w32(riscv.EBREAK)
	ebreak.idle()
	register(Program{
		Name:             "ebreak",
		Description:      "full-width ebreak skipped with a 4-byte breakpoint offset",
		Code:             ebreak,
		BreakpointOffset: riscv.INSN_SIZE,
	})

	var fault text
	fault.w32(riscv.LUI(riscv.A1, 0x1000))
	fault.w32(riscv.LD(riscv.A0, riscv.A1, 8)) // 0x1008 is not RAM
	fault.idle()
	register(Program{
		Name:        "fault",
		Description: "load from a non-null unmapped address: skipped, no success marker",
		Code:        fault,
	})

	var illegal text
	illegal.w32(0xc0001073) // unimp: csrrw zero, cycle, zero
	register(Program{
		Name:        "illegal",
		Description: "illegal instruction: fatal",
		Code:        illegal,
	})

	var store text
	store.w32(riscv.SD(riscv.A0, riscv.ZERO, 0))
	register(Program{
		Name:        "store",
		Description: "store to address 0: fatal",
		Code:        store,
	})
}

func Lookup(name string) (Program, error) {
	p, ok := programs[name]
	if !ok {
		return Program{}, fmt.Errorf("%w %q", ErrUnknownProgram, name)
	}
	return p, nil
}

// Programs lists the built-in programs by name.
func Programs() []Program {
	ps := make([]Program, 0, len(programs))
	for _, p := range programs {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
	return ps
}
