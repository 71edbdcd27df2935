package vm

import (
	"fmt"
	"math"
)

// Tag discriminates the variants of Value. Kept as a plain byte tag plus a
// union-style payload rather than an interface, per the closed-set-of-shapes
// style the rest of this instruction set uses for opcodes and register
// spaces: a switch over a known-finite tag is cheaper and more exhaustive
// than dispatch through an interface method set.
type Tag uint8

const (
	TagInt Tag = iota + 1
	TagDouble
	TagString
	TagBool
	TagAddress
	TagVec
)

func (t Tag) String() string {
	switch t {
	case TagInt:
		return "int"
	case TagDouble:
		return "double"
	case TagString:
		return "string"
	case TagBool:
		return "bool"
	case TagAddress:
		return "address"
	case TagVec:
		return "vec"
	default:
		return "?tag?"
	}
}

// Value is the VM's tagged scalar/compound value. It is value-typed: Go's
// ordinary struct-copy-on-assignment semantics give us "copy clones, move
// transfers" for free, since a Go assignment of a Value already performs a
// shallow struct copy (the Vec field's backing array is shared until one
// side mutates it, but nothing in this instruction set ever mutates a Vec
// in place through a Value it doesn't own).
type Value struct {
	tag  Tag
	i    int64
	f    float64
	s    string
	addr Register
	vec  []Value
}

func IntValue(v int64) Value        { return Value{tag: TagInt, i: v} }
func DoubleValue(v float64) Value   { return Value{tag: TagDouble, f: v} }
func StringValue(v string) Value    { return Value{tag: TagString, s: v} }
func BoolValue(v bool) Value        { return Value{tag: TagBool, i: boolToInt(v)} }
func AddressValue(r Register) Value { return Value{tag: TagAddress, addr: r} }
func VecValue(v []Value) Value      { return Value{tag: TagVec, vec: v} }

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (v Value) Tag() Tag { return v.tag }

func (v Value) Int() int64       { return v.i }
func (v Value) Double() float64  { return v.f }
func (v Value) Str() string      { return v.s }
func (v Value) Bool() bool       { return v.i != 0 }
func (v Value) Address() Register { return v.addr }
func (v Value) Vec() []Value     { return v.vec }

func (v Value) String() string {
	switch v.tag {
	case TagInt:
		return fmt.Sprintf("%d", v.i)
	case TagDouble:
		return fmt.Sprintf("%g", v.f)
	case TagString:
		return v.s
	case TagBool:
		return fmt.Sprintf("%t", v.Bool())
	case TagAddress:
		return "&" + v.addr.String()
	case TagVec:
		return fmt.Sprintf("%v", v.vec)
	default:
		return "<invalid value>"
	}
}

func (v Value) numeric() bool { return v.tag == TagInt || v.tag == TagDouble }

func (v Value) asDouble() float64 {
	if v.tag == TagInt {
		return float64(v.i)
	}
	return v.f
}

// Add implements the `+` family from the value model, including the
// Address+Int / Int+Address pointer-arithmetic case. Integer overflow is
// checked; index-wrap on Address arithmetic is not (spec open question #2).
func (a Value) Add(b Value) (Value, *VMError) {
	if a.tag == TagAddress && b.tag == TagInt {
		return addrPlusOffset(a.addr, b.i), nil
	}
	if a.tag == TagInt && b.tag == TagAddress {
		return addrPlusOffset(b.addr, a.i), nil
	}
	if a.tag == TagInt && b.tag == TagInt {
		sum, ok := addInt64Checked(a.i, b.i)
		if !ok {
			return Value{}, newError(Overflow, "integer overflow in Add")
		}
		return IntValue(sum), nil
	}
	if a.numeric() && b.numeric() {
		return DoubleValue(a.asDouble() + b.asDouble()), nil
	}
	return Value{}, newError(InvalidOperation, "Add requires numeric operands (or Address+Int)")
}

func (a Value) Sub(b Value) (Value, *VMError) {
	if a.tag == TagAddress && b.tag == TagInt {
		return addrPlusOffset(a.addr, -b.i), nil
	}
	if a.tag == TagInt && b.tag == TagInt {
		diff, ok := subInt64Checked(a.i, b.i)
		if !ok {
			return Value{}, newError(Overflow, "integer overflow in Sub")
		}
		return IntValue(diff), nil
	}
	if a.numeric() && b.numeric() {
		return DoubleValue(a.asDouble() - b.asDouble()), nil
	}
	return Value{}, newError(InvalidOperation, "Sub requires numeric operands")
}

func (a Value) Mul(b Value) (Value, *VMError) {
	if a.tag == TagInt && b.tag == TagInt {
		prod, ok := mulInt64Checked(a.i, b.i)
		if !ok {
			return Value{}, newError(Overflow, "integer overflow in Mul")
		}
		return IntValue(prod), nil
	}
	if a.numeric() && b.numeric() {
		return DoubleValue(a.asDouble() * b.asDouble()), nil
	}
	return Value{}, newError(InvalidOperation, "Mul requires numeric operands")
}

func (a Value) Div(b Value) (Value, *VMError) {
	if a.tag == TagInt && b.tag == TagInt {
		if b.i == 0 {
			return Value{}, newError(Overflow, "division by zero")
		}
		if a.i == math.MinInt64 && b.i == -1 {
			return Value{}, newError(Overflow, "integer overflow in Div")
		}
		return IntValue(a.i / b.i), nil
	}
	if a.numeric() && b.numeric() {
		bd := b.asDouble()
		if bd == 0 {
			return Value{}, newError(Overflow, "division by zero")
		}
		return DoubleValue(a.asDouble() / bd), nil
	}
	return Value{}, newError(InvalidOperation, "Div requires numeric operands")
}

func (a Value) Mod(b Value) (Value, *VMError) {
	if a.tag == TagInt && b.tag == TagInt {
		if b.i == 0 {
			return Value{}, newError(Overflow, "modulo by zero")
		}
		if a.i == math.MinInt64 && b.i == -1 {
			return Value{}, newError(Overflow, "integer overflow in Mod")
		}
		return IntValue(a.i % b.i), nil
	}
	if a.numeric() && b.numeric() {
		bd := b.asDouble()
		if bd == 0 {
			return Value{}, newError(Overflow, "modulo by zero")
		}
		return DoubleValue(math.Mod(a.asDouble(), bd)), nil
	}
	return Value{}, newError(InvalidOperation, "Mod requires numeric operands")
}

// Equal implements structural equality with Int/Double widening. Mixed
// pairs that aren't both numeric and don't share a tag fail rather than
// panicking or silently returning false (open question #5; spec.md's prose
// is explicit that this case fails InvalidOperation).
func (a Value) Equal(b Value) (bool, *VMError) {
	switch {
	case a.tag == TagInt && b.tag == TagInt:
		return a.i == b.i, nil
	case a.numeric() && b.numeric():
		return a.asDouble() == b.asDouble(), nil
	case a.tag != b.tag:
		return false, newError(InvalidOperation, fmt.Sprintf("can't compare %s to %s", a.tag, b.tag))
	}
	switch a.tag {
	case TagString:
		return a.s == b.s, nil
	case TagBool:
		return a.i == b.i, nil
	case TagAddress:
		return a.addr == b.addr, nil
	case TagVec:
		return vecsEqual(a.vec, b.vec)
	default:
		return false, newError(InvalidOperation, "unsupported equality comparison")
	}
}

func vecsEqual(a, b []Value) (bool, *VMError) {
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		eq, err := a[i].Equal(b[i])
		if err != nil {
			return false, err
		}
		if !eq {
			return false, nil
		}
	}
	return true, nil
}

// Compare implements the ordering operators. Defined only for numeric pairs.
func (a Value) Compare(b Value) (int, *VMError) {
	if !a.numeric() || !b.numeric() {
		return 0, newError(InvalidOperation, fmt.Sprintf("ordering undefined for %s vs %s", a.tag, b.tag))
	}
	ad, bd := a.asDouble(), b.asDouble()
	switch {
	case ad < bd:
		return -1, nil
	case ad > bd:
		return 1, nil
	default:
		return 0, nil
	}
}

func addrPlusOffset(base Register, offset int64) Value {
	// Index wrap at the 32-bit boundary is intentionally unchecked (spec §9,
	// open question #2) — this mirrors raw pointer arithmetic, not a
	// bounds-checked slice index.
	return AddressValue(Reg(uint32(int64(base.Index)+offset), base.Space))
}

func addInt64Checked(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

func subInt64Checked(a, b int64) (int64, bool) {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, false
	}
	return diff, true
}

func mulInt64Checked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a == math.MinInt64 && b == -1 {
		return 0, false
	}
	prod := a * b
	if prod/b != a {
		return 0, false
	}
	return prod, true
}
