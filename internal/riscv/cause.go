package riscv

import "fmt"

// Cause is the decoded scause register. It is either an Exception or an
// Interrupt; no other type implements it.
type Cause interface {
	// Code is the cause code without the interrupt bit.
	Code() uint64
	// Scause re-encodes the cause as the hardware reports it.
	Scause() uint64
	String() string

	isCause()
}

// Exception is a synchronous trap raised by the instruction stream.
type Exception uint64

const (
	InstructionMisaligned Exception = 0
	InstructionFault      Exception = 1
	IllegalInstruction    Exception = 2
	Breakpoint            Exception = 3
	LoadMisaligned        Exception = 4
	LoadFault             Exception = 5
	StoreMisaligned       Exception = 6
	StoreFault            Exception = 7
	UserEnvCall           Exception = 8
	SupervisorEnvCall     Exception = 9
	InstructionPageFault  Exception = 12
	LoadPageFault         Exception = 13
	StorePageFault        Exception = 15
)

var exceptionNames = map[Exception]string{
	InstructionMisaligned: "InstructionMisaligned",
	InstructionFault:      "InstructionFault",
	IllegalInstruction:    "IllegalInstruction",
	Breakpoint:            "Breakpoint",
	LoadMisaligned:        "LoadMisaligned",
	LoadFault:             "LoadFault",
	StoreMisaligned:       "StoreMisaligned",
	StoreFault:            "StoreFault",
	UserEnvCall:           "UserEnvCall",
	SupervisorEnvCall:     "SupervisorEnvCall",
	InstructionPageFault:  "InstructionPageFault",
	LoadPageFault:         "LoadPageFault",
	StorePageFault:        "StorePageFault",
}

func (e Exception) Code() uint64   { return uint64(e) }
func (e Exception) Scause() uint64 { return uint64(e) &^ SCAUSE_INTERRUPT }
func (Exception) isCause()         {}

// Known reports whether e is an exception code the privileged architecture defines.
func (e Exception) Known() bool {
	_, ok := exceptionNames[e]
	return ok
}

func (e Exception) String() string {
	if name, ok := exceptionNames[e]; ok {
		return "Exception(" + name + ")"
	}
	return fmt.Sprintf("Unknown exception %d", uint64(e))
}

// Interrupt is an asynchronous trap raised by a peripheral.
type Interrupt uint64

const (
	UserSoft           Interrupt = 0
	SupervisorSoft     Interrupt = 1
	UserTimer          Interrupt = 4
	SupervisorTimer    Interrupt = 5
	UserExternal       Interrupt = 8
	SupervisorExternal Interrupt = 9
)

var interruptNames = map[Interrupt]string{
	UserSoft:           "UserSoft",
	SupervisorSoft:     "SupervisorSoft",
	UserTimer:          "UserTimer",
	SupervisorTimer:    "SupervisorTimer",
	UserExternal:       "UserExternal",
	SupervisorExternal: "SupervisorExternal",
}

func (i Interrupt) Code() uint64   { return uint64(i) }
func (i Interrupt) Scause() uint64 { return uint64(i) | SCAUSE_INTERRUPT }
func (Interrupt) isCause()         {}

// Known reports whether i is an interrupt code the privileged architecture defines.
func (i Interrupt) Known() bool {
	_, ok := interruptNames[i]
	return ok
}

func (i Interrupt) String() string {
	if name, ok := interruptNames[i]; ok {
		return "Interrupt(" + name + ")"
	}
	return fmt.Sprintf("Unknown interrupt %d", uint64(i))
}

// DecodeCause splits a raw scause value into its tagged form.
func DecodeCause(scause uint64) Cause {
	if scause&SCAUSE_INTERRUPT != 0 {
		return Interrupt(scause &^ SCAUSE_INTERRUPT)
	}
	return Exception(scause)
}
