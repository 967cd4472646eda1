package trap

import (
	"fmt"

	"rvtrap/internal/riscv"
)

// VectorWriter writes the stvec CSR.
type VectorWriter interface {
	WriteStvec(stvec uint64)
}

// Installer points every trap at a single entry.
type Installer struct {
	w     VectorWriter
	entry uintptr
}

// NewInstaller takes the address of the assembly entry stub.
func NewInstaller(w VectorWriter, entry uintptr) *Installer {
	return &Installer{w: w, entry: entry}
}

// Install sets stvec to the entry in direct mode: exceptions and interrupts
// alike land on the same instruction and are sorted out by the Dispatcher.
// Call it once during bring-up, before any interrupt source is enabled.
func (in *Installer) Install() {
	if in.entry&3 != 0 {
		panic(fmt.Sprintf("trap: entry %#x is not 4-byte aligned", in.entry))
	}
	in.w.WriteStvec(riscv.STVEC(in.entry, riscv.Direct))
}

func (in *Installer) Entry() uintptr { return in.entry }
