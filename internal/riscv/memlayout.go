package riscv

// Physical memory layout

// qemu -machine virt with OpenSBI is set up like this:
//
// 80000000 -- OpenSBI firmware, machine mode
// 80200000 -- firmware jumps here in supervisor mode
//             -kernel loads the kernel here
// PHYSTOP  -- end RAM used by the kernel

const (
	KERNBASE = uintptr(0x80000000)
	KERNLOAD = KERNBASE + 0x200000
	PHYSTOP  = KERNBASE + 128*1024*1024
)

const PGSIZE = uintptr(4096)

func PGROUNDUP(a uintptr) uintptr   { return (a + PGSIZE - 1) & ^(PGSIZE - 1) }
func PGROUNDDOWN(a uintptr) uintptr { return a & ^(PGSIZE - 1) }
