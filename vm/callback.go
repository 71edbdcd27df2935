package vm

// CallbackKind distinguishes managed callbacks (Go-style, return an error)
// from native callbacks (C-ABI-style, return a nonzero status code).
type CallbackKind uint8

const (
	Managed CallbackKind = iota + 1
	Native
)

// ManagedFunc is a host callback that reports failure the idiomatic Go
// way, by returning a non-nil error.
type ManagedFunc func(*State) error

// NativeFunc is a host callback that reports failure via a nonzero status
// code, mirroring a C-ABI extern function's calling convention.
type NativeFunc func(*State) int

// CallbackRecord is one entry in the host-callback table: a name the
// program's imports can reference, the calling convention it uses, and the
// entry point itself (exactly one of the two func fields is set).
type CallbackRecord struct {
	Name    string
	Kind    CallbackKind
	Managed ManagedFunc
	Native  NativeFunc
}

// State is the handle a callback receives to interact with the value
// stack: typed pops read arguments top-down (top of stack is the most
// recently pushed argument), typed pushes return results the same way a
// StackPush instruction would.
type State struct {
	stack *valueStack
}

func (s *State) PopInt() (int64, *VMError) {
	v, err := s.stack.pop()
	if err != nil {
		return 0, err
	}
	if v.Tag() != TagInt {
		return 0, typeMismatch(TagInt, v.Tag())
	}
	return v.Int(), nil
}

func (s *State) PopFloat() (float64, *VMError) {
	v, err := s.stack.pop()
	if err != nil {
		return 0, err
	}
	if v.Tag() != TagDouble {
		return 0, typeMismatch(TagDouble, v.Tag())
	}
	return v.Double(), nil
}

func (s *State) PopString() (string, *VMError) {
	v, err := s.stack.pop()
	if err != nil {
		return "", err
	}
	if v.Tag() != TagString {
		return "", typeMismatch(TagString, v.Tag())
	}
	return v.Str(), nil
}

func (s *State) PopBool() (bool, *VMError) {
	v, err := s.stack.pop()
	if err != nil {
		return false, err
	}
	if v.Tag() != TagBool {
		return false, typeMismatch(TagBool, v.Tag())
	}
	return v.Bool(), nil
}

func (s *State) PushInt(v int64)      { s.stack.push(IntValue(v)) }
func (s *State) PushFloat(v float64)  { s.stack.push(DoubleValue(v)) }
func (s *State) PushString(v string)  { s.stack.push(StringValue(v)) }
func (s *State) PushBool(v bool)      { s.stack.push(BoolValue(v)) }

func typeMismatch(expected, actual Tag) *VMError {
	e := newErrorf(InvalidOperation, "type mismatch: expected %s, got %s", expected, actual)
	return e
}

// callbackTable is the append-only set of registered callbacks. The
// per-import resolution cache built on first execution entry lives in
// Program.importResolution, not here.
type callbackTable struct {
	records []CallbackRecord
}

func (t *callbackTable) register(rec CallbackRecord) {
	t.records = append(t.records, rec)
}

func (t *callbackTable) indexOf(name string) (int, bool) {
	for i, rec := range t.records {
		if rec.Name == name {
			return i, true
		}
	}
	return -1, false
}

// resolveImports scans the callback table once per import name and caches
// the resulting callback-table index in program.importResolution, keyed by
// import slot rather than by name, so ExtCall's hot path is array indexing.
func resolveImports(p *Program, table *callbackTable) *VMError {
	if p.resolvedImports {
		return nil
	}
	resolution := make([]int, len(p.imports))
	for i, name := range p.imports {
		idx, ok := table.indexOf(name)
		if !ok {
			e := newError(MissingImport, "no registered callback for import")
			e.Name = name
			return e
		}
		resolution[i] = idx
	}
	p.importResolution = resolution
	p.resolvedImports = true
	return nil
}

// invoke dispatches ExtCall(importIndex) to its resolved callback record.
func invoke(p *Program, table *callbackTable, importIndex uint64, stack *valueStack) *VMError {
	if importIndex >= uint64(len(p.importResolution)) {
		return newError(InvalidOperation, "import index out of range")
	}
	recIdx := p.importResolution[importIndex]
	rec := table.records[recIdx]
	state := &State{stack: stack}

	switch rec.Kind {
	case Managed:
		if err := rec.Managed(state); err != nil {
			if verr, ok := err.(*VMError); ok {
				return verr
			}
			e := newError(CallbackFailed, err.Error())
			e.Name = rec.Name
			return e
		}
		return nil
	case Native:
		code := rec.Native(state)
		if code != 0 {
			e := newErrorf(CallbackFailed, "native callback returned status %d", code)
			e.Name = rec.Name
			e.Code = code
			return e
		}
		return nil
	default:
		return newError(InvalidOperation, "callback record has no recognized kind")
	}
}
