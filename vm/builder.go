package vm

// Builder is a thin, ungenerated convenience layer over Program: one
// method per instruction, plus a label table so Jump/Call targets can be
// written symbolically and resolved to deltas/absolute indices at
// Finish() time, instead of hand-computing instruction offsets.
//
// This is the Go-native equivalent of a line-oriented assembler frontend:
// callers build a program the way they'd write assembly, without a text
// parser in between.
type Builder struct {
	program *Program
	labels  map[string]uint64

	pendingJumps []pendingRef
	pendingCalls []pendingRef
}

type pendingRef struct {
	instrIndex uint64
	label      string
}

func NewBuilder() *Builder {
	return &Builder{
		program: NewImage(),
		labels:  make(map[string]uint64),
	}
}

// Label marks the next instruction appended as the resolution target for
// the given name.
func (b *Builder) Label(name string) *Builder {
	b.labels[name] = uint64(b.program.Len())
	return b
}

func (b *Builder) Export(name string) *Builder {
	b.program.addExport(name, uint64(b.program.Len()))
	return b
}

func (b *Builder) ExportAt(name string, index uint64) *Builder {
	b.program.addExport(name, index)
	return b
}

func (b *Builder) ConstInt(v int64) Register        { return b.constReg(IntValue(v)) }
func (b *Builder) ConstDouble(v float64) Register    { return b.constReg(DoubleValue(v)) }
func (b *Builder) ConstString(v string) Register     { return b.constReg(StringValue(v)) }
func (b *Builder) ConstBool(v bool) Register         { return b.constReg(BoolValue(v)) }
func (b *Builder) ConstVec(elems []Value) Register   { return b.constReg(VecValue(elems)) }

func (b *Builder) constReg(v Value) Register {
	idx := b.program.addConstant(v)
	return Reg(idx, ConstantPool)
}

func (b *Builder) Import(name string) uint64 { return b.program.addImport(name) }

func (b *Builder) emit(ins Instruction) uint64 { return b.program.append(ins) }

func (b *Builder) NoOp() *Builder  { b.emit(NoOp()); return b }
func (b *Builder) Ret() *Builder   { b.emit(Ret()); return b }

func (b *Builder) Alloc(n uint32) *Builder { b.emit(Alloc(n)); return b }
func (b *Builder) Free(n uint32) *Builder  { b.emit(Free(n)); return b }

func (b *Builder) FrameAlloc(n uint32, space Space) *Builder {
	b.emit(FrameAlloc(n, space))
	return b
}
func (b *Builder) FrameFree(n uint32, space Space) *Builder {
	b.emit(FrameFree(n, space))
	return b
}

// JumpTo records an unresolved jump to a label, fixed up at Finish().
func (b *Builder) JumpTo(label string) *Builder {
	idx := b.emit(Jump(0))
	b.pendingJumps = append(b.pendingJumps, pendingRef{idx, label})
	return b
}

func (b *Builder) JumpDelta(delta int64) *Builder {
	b.emit(Jump(delta))
	return b
}

func (b *Builder) CallTo(label string) *Builder {
	idx := b.emit(Call(0))
	b.pendingCalls = append(b.pendingCalls, pendingRef{idx, label})
	return b
}

func (b *Builder) CallAbsolute(target uint64) *Builder {
	b.emit(Call(target))
	return b
}

func (b *Builder) ExtCall(importIndex uint64) *Builder {
	b.emit(ExtCall(importIndex))
	return b
}

func (b *Builder) Mov(dstReg Register, dstMode RefMode, srcReg Register, srcMode RefMode) *Builder {
	b.emit(Mov(dstReg, dstMode, srcReg, srcMode))
	return b
}
func (b *Builder) Cpy(dstReg Register, dstMode RefMode, srcReg Register, srcMode RefMode) *Builder {
	b.emit(Cpy(dstReg, dstMode, srcReg, srcMode))
	return b
}
func (b *Builder) Ref(dstReg Register, dstMode RefMode, srcReg Register, srcMode RefMode) *Builder {
	b.emit(Ref(dstReg, dstMode, srcReg, srcMode))
	return b
}

func (b *Builder) StackPush(reg Register, mode RefMode) *Builder {
	b.emit(StackPush(reg, mode))
	return b
}
func (b *Builder) StackPop() *Builder { b.emit(StackPop()); return b }
func (b *Builder) StackMov(reg Register, mode RefMode) *Builder {
	b.emit(StackMov(reg, mode))
	return b
}

func (b *Builder) Add(dst, lhs, rhs Register) *Builder { b.emit(Add(dst, lhs, rhs)); return b }
func (b *Builder) Sub(dst, lhs, rhs Register) *Builder { b.emit(Sub(dst, lhs, rhs)); return b }
func (b *Builder) Mul(dst, lhs, rhs Register) *Builder { b.emit(Mul(dst, lhs, rhs)); return b }
func (b *Builder) Div(dst, lhs, rhs Register) *Builder { b.emit(Div(dst, lhs, rhs)); return b }
func (b *Builder) Mod(dst, lhs, rhs Register) *Builder { b.emit(Mod(dst, lhs, rhs)); return b }

func (b *Builder) Equal(lhs, rhs Register) *Builder        { b.emit(Equal(lhs, rhs)); return b }
func (b *Builder) NotEqual(lhs, rhs Register) *Builder     { b.emit(NotEqual(lhs, rhs)); return b }
func (b *Builder) Greater(lhs, rhs Register) *Builder      { b.emit(Greater(lhs, rhs)); return b }
func (b *Builder) Less(lhs, rhs Register) *Builder         { b.emit(Less(lhs, rhs)); return b }
func (b *Builder) GreaterEqual(lhs, rhs Register) *Builder { b.emit(GreaterEqual(lhs, rhs)); return b }
func (b *Builder) LessEqual(lhs, rhs Register) *Builder    { b.emit(LessEqual(lhs, rhs)); return b }

// Finish resolves every pending label reference and returns the completed
// program image. It fails fast if a label was referenced but never
// defined — a builder mistake, not a runtime fault.
func (b *Builder) Finish() (*Program, error) {
	for _, ref := range b.pendingJumps {
		target, ok := b.labels[ref.label]
		if !ok {
			return nil, newErrorf(InvalidOperation, "undefined label %q referenced by Jump at %d", ref.label, ref.instrIndex)
		}
		delta := int64(target) - int64(ref.instrIndex)
		slot := b.program.instructions[ref.instrIndex]
		slot.Delta = delta
	}
	for _, ref := range b.pendingCalls {
		target, ok := b.labels[ref.label]
		if !ok {
			return nil, newErrorf(InvalidOperation, "undefined label %q referenced by Call at %d", ref.label, ref.instrIndex)
		}
		slot := b.program.instructions[ref.instrIndex]
		slot.Target = target
	}
	return b.program, nil
}
