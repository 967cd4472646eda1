package riscv

// Instruction widths in bytes.
const (
	INSN_SIZE  = 4
	CINSN_SIZE = 2
)

// Fixed encodings.
const (
	ECALL    = uint32(0x00000073)
	EBREAK   = uint32(0x00100073)
	SRET     = uint32(0x10200073)
	WFI      = uint32(0x10500073)
	C_EBREAK = uint16(0x9002)
	C_NOP    = uint16(0x0001)
)

// Major opcodes, inst[6:0].
const (
	OP_LOAD   = 0x03
	OP_IMM    = 0x13
	OP_AUIPC  = 0x17
	OP_STORE  = 0x23
	OP_LUI    = 0x37
	OP_BRANCH = 0x63
	OP_JALR   = 0x67
	OP_JAL    = 0x6f
	OP_SYSTEM = 0x73
)

// Load/store widths, funct3.
const (
	F3_B  = 0
	F3_H  = 1
	F3_W  = 2
	F3_D  = 3
	F3_BU = 4
	F3_HU = 5
	F3_WU = 6
)

// Branch conditions, funct3.
const (
	F3_BEQ = 0
	F3_BNE = 1
)

// ABI register numbers used by the encoders' callers.
const (
	ZERO = 0
	RA   = 1
	SP   = 2
	GP   = 3
	TP   = 4
	T0   = 5
	A0   = 10
	A1   = 11
	A2   = 12
	A7   = 17
)

var ABINames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func Itype(op, rd, f3, rs1 uint32, imm int32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | f3<<12 | rd<<7 | op
}

func Stype(op, f3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7f)<<25 | rs2<<20 | rs1<<15 | f3<<12 | (u&0x1f)<<7 | op
}

func Btype(f3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>12&1)<<31 | (u>>5&0x3f)<<25 | rs2<<20 | rs1<<15 | f3<<12 |
		(u>>1&0xf)<<8 | (u>>11&1)<<7 | OP_BRANCH
}

func Utype(op, rd uint32, imm int32) uint32 {
	return uint32(imm)&0xfffff000 | rd<<7 | op
}

func Jtype(rd uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>20&1)<<31 | (u>>1&0x3ff)<<21 | (u>>11&1)<<20 | (u>>12&0xff)<<12 | rd<<7 | OP_JAL
}

func ADDI(rd, rs1 uint32, imm int32) uint32 { return Itype(OP_IMM, rd, 0, rs1, imm) }
func LD(rd, rs1 uint32, imm int32) uint32   { return Itype(OP_LOAD, rd, F3_D, rs1, imm) }
func SD(rs2, rs1 uint32, imm int32) uint32  { return Stype(OP_STORE, F3_D, rs1, rs2, imm) }
func JAL(rd uint32, imm int32) uint32       { return Jtype(rd, imm) }
func LUI(rd uint32, imm int32) uint32       { return Utype(OP_LUI, rd, imm) }

// Immediate decoders, sign-extended.
func ImmI(inst uint32) int64 { return int64(int32(inst) >> 20) }
func ImmS(inst uint32) int64 { return int64(int32(inst&0xfe000000)>>20 | int32(inst>>7&0x1f)) }
func ImmU(inst uint32) int64 { return int64(int32(inst & 0xfffff000)) }

func ImmB(inst uint32) int64 {
	imm := int32(inst&0x80000000)>>19 | int32(inst&0x80)<<4 |
		int32(inst>>20&0x7e0) | int32(inst>>7&0x1e)
	return int64(imm)
}

func ImmJ(inst uint32) int64 {
	imm := int32(inst&0x80000000)>>11 | int32(inst&0xff000) |
		int32(inst>>9&0x800) | int32(inst>>20&0x7fe)
	return int64(imm)
}
