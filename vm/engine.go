package vm

import "github.com/sirupsen/logrus"

// Config holds the tunables an embedding host can set before running a
// program: how deep recursive Call chains may nest, and whether the
// engine should emit step-by-step trace logging.
type Config struct {
	RecursionLimit int
	Debug          bool
}

// DefaultConfig matches the spec's stated default recursion depth.
func DefaultConfig() Config {
	return Config{RecursionLimit: 1000}
}

// Interpreter owns one program's execution state: the global register
// file, call stack, value stack, accumulator, callback table and runtime
// seal. It consumes a *Program at construction and is not safe to share
// across goroutines — a single VM instance is single-threaded by design.
type Interpreter struct {
	program   *Program
	config    Config
	seal      runtimeSeal
	callbacks callbackTable

	globals        globalFile
	calls          callStack
	values         valueStack
	accumulator    float64
	accumulatorSet bool

	depth int
	log   *logrus.Entry
}

func NewInterpreter(p *Program) *Interpreter {
	return &Interpreter{
		program: p,
		config:  DefaultConfig(),
		log:     logrus.WithField("component", "vm"),
	}
}

// WithConfig overrides the default recursion limit / debug toggle before
// the first ExecuteFunction call.
func (in *Interpreter) WithConfig(c Config) *Interpreter {
	in.config = c
	return in
}

func (in *Interpreter) RegisterManaged(name string, fn ManagedFunc) error {
	if in.seal.state == Untampered {
		in.seal.tamper()
	}
	in.callbacks.register(CallbackRecord{Name: name, Kind: Managed, Managed: fn})
	return nil
}

func (in *Interpreter) RegisterNative(name string, fn NativeFunc) error {
	if in.seal.state == Untampered {
		in.seal.tamper()
	}
	in.callbacks.register(CallbackRecord{Name: name, Kind: Native, Native: fn})
	return nil
}

// ResolveImports eagerly resolves every import to a callback-table index.
// ExecuteFunction calls this itself on first entry if it hasn't run yet,
// but a host may call it up front to fail fast on a MissingImport.
func (in *Interpreter) ResolveImports() error {
	if err := resolveImports(in.program, &in.callbacks); err != nil {
		return err
	}
	return nil
}

// ExecuteFunction looks up name in the program's exports and runs it.
func (in *Interpreter) ExecuteFunction(name string) error {
	if !in.seal.canExecute() {
		return newError(InvalidOperation, "runtime seal is Tampered; refusing to execute")
	}
	start, err := in.program.lookupExport(name)
	if err != nil {
		return err
	}
	in.seal.executionStarted()
	if !in.program.resolvedImports {
		if err := in.ResolveImports(); err != nil {
			return err
		}
	}
	if verr := in.execute(start); verr != nil {
		in.log.WithError(verr).Warn("execution faulted")
		return verr
	}
	return nil
}

// execute runs the instruction stream starting at ip until Ret or normal
// falloff at the end of the instruction sequence. Each recursive Call
// opcode invokes this method again; the recursion-depth guard lives here.
func (in *Interpreter) execute(start uint64) *VMError {
	in.depth++
	defer func() { in.depth-- }()
	if in.depth > in.config.RecursionLimit {
		return newError(RecursionLimit, "Call recursion depth exceeded")
	}

	ip := start
	total := uint64(in.program.Len())

	for {
		if ip == total {
			return nil
		}
		if ip > total {
			return newError(InvalidOperation, "instruction pointer past end of program")
		}

		ins, restore, err := in.program.take(ip)
		if err != nil {
			return err
		}
		if in.config.Debug {
			in.log.WithFields(logrus.Fields{"ip": ip, "op": ins.Op.String()}).Debug("step")
		}

		nextIP := ip + 1
		var faultErr *VMError
		var didReturn bool

		switch ins.Op {
		case OpNoOp:
			// fall through to nextIP

		case OpAlloc:
			in.calls.push(ins.N)
		case OpFree:
			in.calls.pop(ins.N)

		case OpFrameAlloc:
			faultErr = in.frameAlloc(ins.N, ins.FrameSpace)
		case OpFrameFree:
			faultErr = in.frameFree(ins.N, ins.FrameSpace)

		case OpJump:
			nextIP = uint64(int64(ip) + ins.Delta)

		case OpCall:
			faultErr = in.execute(ins.Target)
			if faultErr == nil {
				nextIP = ip + 1
			}

		case OpExtCall:
			faultErr = invoke(in.program, &in.callbacks, ins.ImportIndex, &in.values)

		case OpRet:
			didReturn = true

		case OpMov:
			faultErr = in.doMov(ins.Dst, ins.Src)
		case OpCpy:
			faultErr = in.doCpy(ins.Dst, ins.Src)
		case OpRef:
			faultErr = in.doRef(ins.Dst, ins.Src)

		case OpStackPush:
			faultErr = in.doStackPush(ins.Operand)
		case OpStackPop:
			faultErr = in.values.discard()
		case OpStackMov:
			faultErr = in.doStackMov(ins.Operand)

		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			faultErr = in.doArith(ins.Op, ins.DstReg, ins.Lhs, ins.Rhs)

		case OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
			var skip bool
			skip, faultErr = in.doCompare(ins.Op, ins.Lhs, ins.Rhs)
			if faultErr == nil {
				if skip {
					nextIP = ip + 2
				} else {
					nextIP = ip + 1
				}
			}

		default:
			faultErr = newErrorf(InvalidOperation, "unknown opcode 0x%02X", byte(ins.Op))
		}

		if faultErr != nil {
			if faultErr.Ctx.Instruction == nil {
				faultErr.Ctx = in.buildContext(&ins, ip)
			} else {
				faultErr.Propagate()
			}
			restore()
			return faultErr
		}
		restore()

		if didReturn {
			return nil
		}
		ip = nextIP
	}
}

func (in *Interpreter) buildContext(ins *Instruction, idx uint64) Context {
	return Context{
		Instruction:   ins,
		InstrIndex:    idx,
		CallDepth:     in.depth,
		Frames:        in.calls.clone(),
		ValueStack:    in.values.clone(),
		CallbackTable: append([]CallbackRecord(nil), in.callbacks.records...),
	}
}

func (in *Interpreter) frameAlloc(n uint32, space Space) *VMError {
	switch space {
	case Local:
		frame, err := in.calls.top()
		if err != nil {
			return err
		}
		frame.grow(n)
		return nil
	case Global:
		in.globals.grow(n)
		return nil
	default:
		return newError(InvalidOperation, "FrameAlloc only supports Global or Local")
	}
}

func (in *Interpreter) frameFree(n uint32, space Space) *VMError {
	switch space {
	case Local:
		frame, err := in.calls.top()
		if err != nil {
			return err
		}
		frame.shrink(n)
		return nil
	case Global:
		in.globals.shrink(n)
		return nil
	default:
		return newError(InvalidOperation, "FrameFree only supports Global or Local")
	}
}

// readRegister implements the read half of 4.B with no dereference step —
// used directly by arithmetic/comparison operands, which this instruction
// set shapes as bare registers, never (register, mode) pairs.
func (in *Interpreter) readRegister(r Register) (Value, *VMError) {
	switch r.Space {
	case ConstantPool:
		return in.program.constant(r.Index)
	case Accumulator:
		if !in.accumulatorSet {
			return Value{}, newError(MemoryAddressUninitialized, "read of uninitialized accumulator")
		}
		return DoubleValue(in.accumulator), nil
	case Global:
		return in.globals.read(r.Index)
	case Local:
		frame, err := in.calls.top()
		if err != nil {
			return Value{}, err
		}
		return frame.read(r.Index)
	default:
		return Value{}, newError(InvalidOperation, "invalid register space")
	}
}

func (in *Interpreter) writeRegister(r Register, v Value) *VMError {
	switch r.Space {
	case ConstantPool:
		return newError(InvalidOperation, "write to ConstantPool is forbidden")
	case Accumulator:
		if v.Tag() != TagInt && v.Tag() != TagDouble {
			return newError(InvalidOperation, "accumulator only accepts numeric writes")
		}
		in.accumulator = v.asDouble()
		in.accumulatorSet = true
		return nil
	case Global:
		return in.globals.set(r.Index, v)
	case Local:
		frame, err := in.calls.top()
		if err != nil {
			return err
		}
		return frame.set(r.Index, v)
	default:
		return newError(InvalidOperation, "invalid register space")
	}
}

// clearRegister leaves a slot uninitialized, used by Mov's consuming half.
// ConstantPool is never cleared — Mov from ConstantPool degrades to copy.
func (in *Interpreter) clearRegister(r Register) *VMError {
	switch r.Space {
	case ConstantPool:
		return nil
	case Accumulator:
		in.accumulatorSet = false
		return nil
	case Global:
		return in.globals.clear(r.Index)
	case Local:
		frame, err := in.calls.top()
		if err != nil {
			return err
		}
		return frame.clear(r.Index)
	default:
		return newError(InvalidOperation, "invalid register space")
	}
}

// evaluateOperand applies the dereference rule (4.B step 2): AsIs returns
// the register unchanged; Dereference reads the slot, requires it to hold
// Address(inner), and substitutes inner. Dereference applies at most once.
func (in *Interpreter) evaluateOperand(rr RegRef) (Register, *VMError) {
	if rr.Mode == AsIs {
		return rr.Reg, nil
	}
	v, err := in.readRegister(rr.Reg)
	if err != nil {
		return Register{}, err
	}
	if v.Tag() != TagAddress {
		return Register{}, newError(InvalidOperation, "Dereference requires the slot to hold an Address")
	}
	return v.Address(), nil
}

func (in *Interpreter) doMov(dst, src RegRef) *VMError {
	srcReg, err := in.evaluateOperand(src)
	if err != nil {
		return err
	}
	dstReg, err := in.evaluateOperand(dst)
	if err != nil {
		return err
	}
	v, err := in.readRegister(srcReg)
	if err != nil {
		return err
	}
	if err := in.writeRegister(dstReg, v); err != nil {
		return err
	}
	// Move from ConstantPool degrades to copy: the pool can't be cleared.
	return in.clearRegister(srcReg)
}

func (in *Interpreter) doCpy(dst, src RegRef) *VMError {
	srcReg, err := in.evaluateOperand(src)
	if err != nil {
		return err
	}
	dstReg, err := in.evaluateOperand(dst)
	if err != nil {
		return err
	}
	v, err := in.readRegister(srcReg)
	if err != nil {
		return err
	}
	return in.writeRegister(dstReg, v)
}

func (in *Interpreter) doRef(dst, src RegRef) *VMError {
	srcReg, err := in.evaluateOperand(src)
	if err != nil {
		return err
	}
	dstReg, err := in.evaluateOperand(dst)
	if err != nil {
		return err
	}
	if dstReg.Space != Global && dstReg.Space != Local {
		return newError(InvalidOperation, "Ref destination must be Global or Local")
	}
	return in.writeRegister(dstReg, AddressValue(srcReg))
}

func (in *Interpreter) doStackPush(operand RegRef) *VMError {
	reg, err := in.evaluateOperand(operand)
	if err != nil {
		return err
	}
	v, err := in.readRegister(reg)
	if err != nil {
		return err
	}
	in.values.push(v)
	return nil
}

func (in *Interpreter) doStackMov(operand RegRef) *VMError {
	reg, err := in.evaluateOperand(operand)
	if err != nil {
		return err
	}
	v, err := in.values.pop()
	if err != nil {
		return err
	}
	return in.writeRegister(reg, v)
}

func (in *Interpreter) doArith(op Op, dst, lhs, rhs Register) *VMError {
	l, err := in.readRegister(lhs)
	if err != nil {
		return err
	}
	r, err := in.readRegister(rhs)
	if err != nil {
		return err
	}
	var result Value
	var verr *VMError
	switch op {
	case OpAdd:
		result, verr = l.Add(r)
	case OpSub:
		result, verr = l.Sub(r)
	case OpMul:
		result, verr = l.Mul(r)
	case OpDiv:
		result, verr = l.Div(r)
	case OpMod:
		result, verr = l.Mod(r)
	}
	if verr != nil {
		return verr
	}
	return in.writeRegister(dst, result)
}

func (in *Interpreter) doCompare(op Op, lhsReg, rhsReg Register) (bool, *VMError) {
	l, err := in.readRegister(lhsReg)
	if err != nil {
		return false, err
	}
	r, err := in.readRegister(rhsReg)
	if err != nil {
		return false, err
	}
	switch op {
	case OpEqual:
		return l.Equal(r)
	case OpNotEqual:
		eq, verr := l.Equal(r)
		return !eq, verr
	case OpGreater:
		c, verr := l.Compare(r)
		return c > 0, verr
	case OpLess:
		c, verr := l.Compare(r)
		return c < 0, verr
	case OpGreaterEqual:
		c, verr := l.Compare(r)
		return c >= 0, verr
	case OpLessEqual:
		c, verr := l.Compare(r)
		return c <= 0, verr
	default:
		return false, newError(InvalidOperation, "not a comparison opcode")
	}
}
