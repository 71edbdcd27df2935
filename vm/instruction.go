package vm

// Op is the opcode byte. Values match the wire format exactly so the codec
// can use Op directly as the tag it reads/writes — no separate translation
// table between in-memory and on-disk opcode numbering.
type Op uint8

const (
	OpNoOp        Op = 0x00
	OpAlloc       Op = 0x01
	OpFree        Op = 0x02
	OpJump        Op = 0x03
	OpCall        Op = 0x04
	OpExtCall     Op = 0x05
	OpMov         Op = 0x06
	OpCpy         Op = 0x07
	OpRef         Op = 0x08
	OpStackPush   Op = 0x09
	OpStackPop    Op = 0x0A
	OpAdd         Op = 0x0B
	OpSub         Op = 0x0C
	OpMul         Op = 0x0D
	OpDiv         Op = 0x0E
	OpEqual       Op = 0x0F
	OpNotEqual    Op = 0x10
	OpGreater     Op = 0x11
	OpLess        Op = 0x12
	OpGreaterEqual Op = 0x13
	OpLessEqual   Op = 0x14
	OpFrameAlloc  Op = 0x15
	OpFrameFree   Op = 0x16
	OpStackMov    Op = 0x17
	OpMod         Op = 0x18
	OpRet         Op = 0x19
)

var opNames = map[Op]string{
	OpNoOp: "NoOp", OpAlloc: "Alloc", OpFree: "Free", OpJump: "Jump",
	OpCall: "Call", OpExtCall: "ExtCall", OpMov: "Mov", OpCpy: "Cpy",
	OpRef: "Ref", OpStackPush: "StackPush", OpStackPop: "StackPop",
	OpAdd: "Add", OpSub: "Sub", OpMul: "Mul", OpDiv: "Div",
	OpEqual: "Equal", OpNotEqual: "NotEqual", OpGreater: "Greater",
	OpLess: "Less", OpGreaterEqual: "GreaterEqual", OpLessEqual: "LessEqual",
	OpFrameAlloc: "FrameAlloc", OpFrameFree: "FrameFree", OpStackMov: "StackMov",
	OpMod: "Mod", OpRet: "Ret",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return "?op?"
}

func (o Op) valid() bool {
	_, ok := opNames[o]
	return ok
}

// RegRef is a (register, reference-mode) operand pair, the shape every
// Mov/Cpy/Ref/StackPush/StackMov operand uses.
type RegRef struct {
	Reg  Register
	Mode RefMode
}

// Instruction is a fixed-shape opcode plus the union of every operand shape
// the instruction set uses. Only the fields relevant to Op are meaningful;
// this mirrors the teacher's packed-struct-with-bit-flags approach but
// keeps fields named rather than bit-packed, since this instruction set's
// operand shapes vary more than a 0-2-arg scheme can express compactly.
type Instruction struct {
	Op Op

	// Alloc, Free, FrameAlloc, FrameFree
	N uint32
	// FrameAlloc, FrameFree
	FrameSpace Space

	// Jump
	Delta int64
	// Call
	Target uint64
	// ExtCall
	ImportIndex uint64

	// Mov, Cpy, Ref
	Dst RegRef
	Src RegRef

	// StackPush, StackMov
	Operand RegRef

	// Add, Sub, Mul, Div, Mod: DstReg, Lhs, Rhs
	// Equal..LessEqual: Lhs, Rhs (DstReg unused)
	DstReg Register
	Lhs    Register
	Rhs    Register
}

func NoOp() Instruction { return Instruction{Op: OpNoOp} }

func Alloc(n uint32) Instruction { return Instruction{Op: OpAlloc, N: n} }
func Free(n uint32) Instruction  { return Instruction{Op: OpFree, N: n} }

func FrameAlloc(n uint32, space Space) Instruction {
	return Instruction{Op: OpFrameAlloc, N: n, FrameSpace: space}
}
func FrameFree(n uint32, space Space) Instruction {
	return Instruction{Op: OpFrameFree, N: n, FrameSpace: space}
}

func Jump(delta int64) Instruction     { return Instruction{Op: OpJump, Delta: delta} }
func Call(target uint64) Instruction   { return Instruction{Op: OpCall, Target: target} }
func ExtCall(idx uint64) Instruction   { return Instruction{Op: OpExtCall, ImportIndex: idx} }
func Ret() Instruction                 { return Instruction{Op: OpRet} }

func Mov(dstReg Register, dstMode RefMode, srcReg Register, srcMode RefMode) Instruction {
	return Instruction{Op: OpMov, Dst: RegRef{dstReg, dstMode}, Src: RegRef{srcReg, srcMode}}
}
func Cpy(dstReg Register, dstMode RefMode, srcReg Register, srcMode RefMode) Instruction {
	return Instruction{Op: OpCpy, Dst: RegRef{dstReg, dstMode}, Src: RegRef{srcReg, srcMode}}
}
func Ref(dstReg Register, dstMode RefMode, srcReg Register, srcMode RefMode) Instruction {
	return Instruction{Op: OpRef, Dst: RegRef{dstReg, dstMode}, Src: RegRef{srcReg, srcMode}}
}

func StackPush(reg Register, mode RefMode) Instruction {
	return Instruction{Op: OpStackPush, Operand: RegRef{reg, mode}}
}
func StackPop() Instruction { return Instruction{Op: OpStackPop} }
func StackMov(reg Register, mode RefMode) Instruction {
	return Instruction{Op: OpStackMov, Operand: RegRef{reg, mode}}
}

func Add(dst, lhs, rhs Register) Instruction { return Instruction{Op: OpAdd, DstReg: dst, Lhs: lhs, Rhs: rhs} }
func Sub(dst, lhs, rhs Register) Instruction { return Instruction{Op: OpSub, DstReg: dst, Lhs: lhs, Rhs: rhs} }
func Mul(dst, lhs, rhs Register) Instruction { return Instruction{Op: OpMul, DstReg: dst, Lhs: lhs, Rhs: rhs} }
func Div(dst, lhs, rhs Register) Instruction { return Instruction{Op: OpDiv, DstReg: dst, Lhs: lhs, Rhs: rhs} }
func Mod(dst, lhs, rhs Register) Instruction { return Instruction{Op: OpMod, DstReg: dst, Lhs: lhs, Rhs: rhs} }

func Equal(lhs, rhs Register) Instruction        { return Instruction{Op: OpEqual, Lhs: lhs, Rhs: rhs} }
func NotEqual(lhs, rhs Register) Instruction     { return Instruction{Op: OpNotEqual, Lhs: lhs, Rhs: rhs} }
func Greater(lhs, rhs Register) Instruction      { return Instruction{Op: OpGreater, Lhs: lhs, Rhs: rhs} }
func Less(lhs, rhs Register) Instruction         { return Instruction{Op: OpLess, Lhs: lhs, Rhs: rhs} }
func GreaterEqual(lhs, rhs Register) Instruction { return Instruction{Op: OpGreaterEqual, Lhs: lhs, Rhs: rhs} }
func LessEqual(lhs, rhs Register) Instruction    { return Instruction{Op: OpLessEqual, Lhs: lhs, Rhs: rhs} }

func (i Instruction) isComparison() bool {
	switch i.Op {
	case OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		return true
	default:
		return false
	}
}

func (i Instruction) String() string {
	switch i.Op {
	case OpAlloc, OpFree:
		return i.Op.String()
	case OpFrameAlloc, OpFrameFree:
		return i.Op.String()
	case OpJump:
		return "Jump"
	case OpCall:
		return "Call"
	case OpExtCall:
		return "ExtCall"
	default:
		return i.Op.String()
	}
}
