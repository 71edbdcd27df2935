package vm

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
)

// WriteBytecodeFile serializes the program image to path in the wire
// format from §4.E, always emitting the current major/minor — the writer
// never produces the legacy no-minor header shape.
func (p *Program) WriteBytecodeFile(path string) error {
	buf, err := p.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// Encode renders the program image to its binary representation.
func (p *Program) Encode() ([]byte, error) {
	var buf bytes.Buffer

	writeU32(&buf, magicNumber)
	writeU16(&buf, CurrentMajor)
	writeU16(&buf, CurrentMinor)

	writeU32(&buf, uint32(len(p.constants)))
	for _, c := range p.constants {
		if err := encodeConstant(&buf, c); err != nil {
			return nil, err
		}
	}

	writeU64(&buf, uint64(len(p.imports)))
	for _, name := range p.imports {
		writeString(&buf, name)
	}

	writeU64(&buf, uint64(len(p.exports)))
	for name, idx := range p.exports {
		writeString(&buf, name)
		writeU64(&buf, idx)
	}

	for _, slot := range p.instructions {
		if slot == nil {
			return nil, newError(InvalidOperation, "cannot encode a program mid-dispatch (instruction slot is empty)")
		}
		encodeInstruction(&buf, *slot)
	}

	return buf.Bytes(), nil
}

func encodeConstant(buf *bytes.Buffer, v Value) error {
	switch v.Tag() {
	case TagInt:
		buf.WriteByte(constTagInt)
		writeU64(buf, uint64(v.Int()))
	case TagDouble:
		buf.WriteByte(constTagDouble)
		writeU64(buf, math.Float64bits(v.Double()))
	case TagString:
		buf.WriteByte(constTagString)
		writeString(buf, v.Str())
	case TagBool:
		buf.WriteByte(constTagBool)
		if v.Bool() {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case TagAddress:
		buf.WriteByte(constTagAddr)
		writeRegister(buf, v.Address())
	case TagVec:
		buf.WriteByte(constTagVec)
		elems := v.Vec()
		if len(elems) > 0xFF {
			return newError(InvalidOperation, "Vec constant exceeds 255 elements")
		}
		buf.WriteByte(byte(len(elems)))
		for _, e := range elems {
			if err := encodeConstant(buf, e); err != nil {
				return err
			}
		}
	default:
		return newError(InvalidOperation, "unknown value tag during encode")
	}
	return nil
}

func writeRegister(buf *bytes.Buffer, r Register) {
	writeU32(buf, r.Index)
	buf.WriteByte(spaceToByte(r.Space))
}

func writeRegRef(buf *bytes.Buffer, rr RegRef) {
	writeRegister(buf, rr.Reg)
	buf.WriteByte(refModeToByte(rr.Mode))
}

func encodeInstruction(buf *bytes.Buffer, ins Instruction) {
	buf.WriteByte(byte(ins.Op))
	switch ins.Op {
	case OpNoOp, OpStackPop, OpRet:
		// no operands
	case OpAlloc, OpFree:
		writeU32(buf, ins.N)
	case OpJump:
		writeU64(buf, uint64(ins.Delta))
	case OpCall:
		writeU64(buf, ins.Target)
	case OpExtCall:
		writeU64(buf, ins.ImportIndex)
	case OpMov, OpCpy, OpRef:
		writeRegRef(buf, ins.Dst)
		writeRegRef(buf, ins.Src)
	case OpStackPush, OpStackMov:
		writeRegRef(buf, ins.Operand)
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		writeRegister(buf, ins.DstReg)
		writeRegister(buf, ins.Lhs)
		writeRegister(buf, ins.Rhs)
	case OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		writeRegister(buf, ins.Lhs)
		writeRegister(buf, ins.Rhs)
	case OpFrameAlloc, OpFrameFree:
		writeU32(buf, ins.N)
		buf.WriteByte(spaceToByte(ins.FrameSpace))
	}
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeU64(buf, uint64(len(s)))
	buf.WriteString(s)
}
