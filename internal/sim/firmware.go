package sim

import (
	"rvtrap/internal/riscv"
	"rvtrap/internal/sbi"
)

const (
	sbiErrFailed       = ^uint64(0) // -1
	sbiErrNotSupported = ^uint64(1) // -2
)

// firmware answers SBI calls the way OpenSBI does for a supervisor kernel.
// Both the Go side of the kernel and guest ecall instructions land here.
type firmware struct{ m *Machine }

func (f firmware) Ecall(which, arg0, arg1, arg2 uint64) uint64 {
	m := f.m
	switch which {
	case sbi.SET_TIMER:
		m.h.mtimecmp = arg0
		m.h.updateTimer()
		return 0
	case sbi.CONSOLE_PUTCHAR:
		if _, err := m.out.Write([]byte{byte(arg0)}); err != nil {
			m.log.WithError(err).Warn("console write failed")
		}
		return 0
	case sbi.CONSOLE_GETCHAR:
		if m.in == nil {
			return sbiErrFailed
		}
		var b [1]byte
		if n, _ := m.in.Read(b[:]); n == 1 {
			return uint64(b[0])
		}
		return sbiErrFailed
	case sbi.CLEAR_IPI:
		m.h.sip &^= riscv.SIP_SSIP
		return 0
	case sbi.SEND_IPI, sbi.REMOTE_FENCE_I, sbi.REMOTE_SFENCE_VMA, sbi.REMOTE_SFENCE_VMA_ASID:
		// One hart, no TLB: nothing to do.
		return 0
	case sbi.SHUTDOWN:
		m.log.Debug("sbi shutdown")
		panic(poweroff{})
	}
	m.log.WithField("eid", which).Warn("unsupported SBI call")
	return sbiErrNotSupported
}

// supervisor is the kernel's view of the hart: CSR access plus the SBI
// client. It implements interrupt.Platform.
type supervisor struct {
	m   *Machine
	sbi *sbi.Client
}

func (s supervisor) WriteStvec(v uint64)   { s.m.h.stvec = v }
func (s supervisor) Time() uint64          { return s.m.h.time }
func (s supervisor) SetTimer(d uint64)     { s.sbi.SetTimer(d) }
func (s supervisor) EnableTimerInterrupt() { s.m.h.sie |= riscv.SIE_STIE }
func (s supervisor) EnableInterrupts()     { s.m.h.sstatus |= riscv.SSTATUS_SIE }
func (s supervisor) Shutdown()             { s.sbi.Shutdown() }
