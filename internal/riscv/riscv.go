package riscv

// Supervisor CSR numbers.
const (
	CSR_SSTATUS  = 0x100
	CSR_SIE      = 0x104
	CSR_STVEC    = 0x105
	CSR_SSCRATCH = 0x140
	CSR_SEPC     = 0x141
	CSR_SCAUSE   = 0x142
	CSR_STVAL    = 0x143
	CSR_SIP      = 0x144
	CSR_TIME     = 0xC01
)

// Supervisor Status Register, sstatus
const (
	SSTATUS_SIE  = 1 << 1 // Supervisor Interrupt Enable
	SSTATUS_SPIE = 1 << 5 // Supervisor Previous Interrupt Enable
	SSTATUS_SPP  = 1 << 8 // Previous mode, 1=Supervisor, 0=User
)

// Supervisor Interrupt Enable / Pending, sie and sip
const (
	SIE_SSIE = 1 << 1 // software
	SIE_STIE = 1 << 5 // timer
	SIE_SEIE = 1 << 9 // external

	SIP_SSIP = SIE_SSIE
	SIP_STIP = SIE_STIE
	SIP_SEIP = SIE_SEIE
)

// scause top bit is set for interrupts.
const SCAUSE_INTERRUPT = uint64(1) << 63

type TrapMode uint64

const (
	Direct   TrapMode = 0 // all traps set pc to BASE
	Vectored TrapMode = 1 // interrupts set pc to BASE+4*cause
)

func (m TrapMode) String() string {
	switch m {
	case Direct:
		return "Direct"
	case Vectored:
		return "Vectored"
	}
	return "Reserved"
}

// STVEC packs a trap entry and mode the way the stvec CSR holds them.
// The entry's low two bits must be clear.
func STVEC(base uintptr, mode TrapMode) uint64 { return uint64(base) | uint64(mode)&3 }
func STVEC_BASE(stvec uint64) uintptr          { return uintptr(stvec &^ 3) }
func STVEC_MODE(stvec uint64) TrapMode         { return TrapMode(stvec & 3) }
