package vm

// Program is the in-memory program image: instructions, an immutable
// constant pool, an ordered import list, and a name→index export table.
//
// Instructions live behind pointers purely so Builder can patch a Jump's
// delta or a Call's target in place when a forward label resolves; see
// Program.take for how the engine reads them during dispatch. The
// constant pool, imports and exports are fixed at construction;
// resolvedImports and importResolution are the only fields that change
// across the image's lifetime, once execution has begun resolving
// imports.
type Program struct {
	instructions []*Instruction
	constants    []Value
	imports      []string
	exports      map[string]uint64

	resolvedImports  bool
	importResolution []int
}

// NewImage starts an empty program image. Host code (or the Builder)
// appends instructions, constants, imports and exports before handing it
// to NewInterpreter.
func NewImage() *Program {
	return &Program{exports: make(map[string]uint64)}
}

func (p *Program) Len() int { return len(p.instructions) }

// Instructions returns a read-only snapshot of the instruction sequence,
// for disassembly and inspection tooling. Slots stay populated during
// dispatch (see take), so the snapshot is complete at any time; an empty
// slot, should one exist, reads as the zero Instruction.
func (p *Program) Instructions() []Instruction {
	out := make([]Instruction, len(p.instructions))
	for i, slot := range p.instructions {
		if slot != nil {
			out[i] = *slot
		}
	}
	return out
}

func (p *Program) Constants() []Value { return p.constants }

func (p *Program) Imports() []string { return p.imports }

func (p *Program) Exports() map[string]uint64 {
	out := make(map[string]uint64, len(p.exports))
	for k, v := range p.exports {
		out[k] = v
	}
	return out
}

func (p *Program) addConstant(v Value) uint32 {
	p.constants = append(p.constants, v)
	return uint32(len(p.constants) - 1)
}

func (p *Program) addImport(name string) uint64 {
	for i, existing := range p.imports {
		if existing == name {
			return uint64(i)
		}
	}
	p.imports = append(p.imports, name)
	return uint64(len(p.imports) - 1)
}

func (p *Program) addExport(name string, index uint64) {
	p.exports[name] = index
}

func (p *Program) append(ins Instruction) uint64 {
	insCopy := ins
	p.instructions = append(p.instructions, &insCopy)
	return uint64(len(p.instructions) - 1)
}

// constant reads a constant-pool slot; ConstantPool-space registers address
// this sequence directly and it is never mutated after construction.
func (p *Program) constant(index uint32) (Value, *VMError) {
	if int(index) >= len(p.constants) {
		return Value{}, newError(RegisterOutOfBounds, "constant pool index out of bounds")
	}
	return p.constants[index], nil
}

// take gives the dispatcher its own copy of the instruction at ip. The
// original "take-and-restore" discipline this mirrors existed to satisfy a
// systems language's ownership rules (hand the handler an owned value
// without cloning, then put it back before anything recurses); since
// Instruction is a small, cheaply-copyable Go struct, there is nothing to
// hand off and nothing to restore — the design notes explicitly license
// this ("implementations with cheap cloning may skip the take"), and the
// slot is observably populated at every instant, recursion included. The
// restore func is kept as a no-op so call sites still read as
// take/dispatch/restore and a future non-trivial Instruction payload could
// reintroduce real slot-clearing without changing engine.go.
func (p *Program) take(ip uint64) (Instruction, func(), *VMError) {
	if ip >= uint64(len(p.instructions)) {
		return Instruction{}, func() {}, newError(InvalidOperation, "instruction pointer out of range")
	}
	slot := p.instructions[ip]
	if slot == nil {
		return Instruction{}, func() {}, newError(InvalidOperation, "instruction slot is empty")
	}
	return *slot, func() {}, nil
}

// lookupExport resolves an export name to its instruction index.
func (p *Program) lookupExport(name string) (uint64, *VMError) {
	idx, ok := p.exports[name]
	if !ok {
		e := newError(FunctionDoesNotExist, "no such exported function")
		e.Name = name
		return 0, e
	}
	return idx, nil
}
