//go:build tinygo && riscv64

// Command kernel is the bare-metal supervisor image. OpenSBI jumps to
// _start in asm/entry.S, which sets up a stack and calls KMain.
package main

//go:generate go run ../cmd/rvtrap layout -o asm/layout.S

import (
	"unsafe"

	"rvtrap/internal/console"
	"rvtrap/internal/interrupt"
	"rvtrap/internal/sbi"
)

//go:extern __interrupt
var __interrupt [0]byte

//export KMain
func KMain() {
	fw := sbi.New(sbi.EcallFunc(sbi_call))
	con := console.New(fw)
	kernel = interrupt.New(hart{fw}, con, interrupt.Options{
		Entry: uintptr(unsafe.Pointer(&__interrupt)),
	})

	kernel.Install()
	con.Println("Hello from the supervisor!")
	ebreak()

	con.Println("Waiting for timer ticks...")
	kernel.StartTimer()
	for {
		wfi()
	}
}

func main() {}
