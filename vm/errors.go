package vm

import (
	"fmt"
	"runtime"
)

// Kind enumerates the VM's typed fault taxonomy. Every engine-raised error
// carries one of these rather than being distinguished only by message
// text, so callers can branch on kind with errors.Is against the sentinel
// values below instead of string-matching.
type Kind uint8

const (
	InvalidOperation Kind = iota + 1
	MemoryAddressUninitialized
	RegisterOutOfBounds
	Overflow
	MissingImport
	FunctionDoesNotExist
	CallbackFailed
	RecursionLimit
	BytecodeFormatError
)

func (k Kind) String() string {
	switch k {
	case InvalidOperation:
		return "InvalidOperation"
	case MemoryAddressUninitialized:
		return "MemoryAddressUninitialized"
	case RegisterOutOfBounds:
		return "RegisterOutOfBounds"
	case Overflow:
		return "Overflow"
	case MissingImport:
		return "MissingImport"
	case FunctionDoesNotExist:
		return "FunctionDoesNotExist"
	case CallbackFailed:
		return "CallbackFailed"
	case RecursionLimit:
		return "RecursionLimit"
	case BytecodeFormatError:
		return "BytecodeFormatError"
	default:
		return "UnknownKind"
	}
}

// traceEntry is one hop of the call-path traceback appended as a fault
// unwinds through nested Call frames.
type traceEntry struct {
	File string
	Line int
}

// Context is the interpreter snapshot captured at the moment a fault is
// raised: enough state for a host to explain the failure without having to
// re-run the program under a debugger.
type Context struct {
	Instruction   *Instruction
	InstrIndex    uint64
	CallDepth     int
	Frames        []StackFrame
	ValueStack    []Value
	CallbackTable []CallbackRecord
}

// VMError is the concrete, inspectable error type every engine fault is
// reported through. Kind-based matching works via errors.Is against the
// Err* sentinel values declared below.
type VMError struct {
	Kind    Kind
	Message string
	Ctx     Context
	Trace   []traceEntry
	Name    string // import/export/callback name, when the kind names one
	Code    int    // native-callback status code, for CallbackFailed

	// sub is the bytecode-reader sub-kind string for BytecodeFormatError,
	// and Offset its byte offset in the stream.
	sub    string
	Offset int64
}

func newError(kind Kind, message string) *VMError {
	e := &VMError{Kind: kind, Message: message}
	e.addTrace(2)
	return e
}

func newErrorf(kind Kind, format string, args ...interface{}) *VMError {
	return newError(kind, fmt.Sprintf(format, args...))
}

func newCodecError(sub string, offset int64, message string) *VMError {
	e := &VMError{Kind: BytecodeFormatError, Message: message, sub: sub, Offset: offset}
	e.addTrace(2)
	return e
}

// addTrace appends one (file, line) hop to the traceback. Called once at
// construction and again each time a fault is re-wrapped while unwinding
// through a nested Call.
func (e *VMError) addTrace(skip int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return
	}
	e.Trace = append(e.Trace, traceEntry{File: file, Line: line})
}

// Propagate records one more unwinding hop without altering the original
// kind, message, or captured Context — used as a fault passes back through
// an enclosing Call's execute invocation.
func (e *VMError) Propagate() *VMError {
	e.addTrace(2)
	return e
}

func (e *VMError) Error() string {
	if e.Kind == BytecodeFormatError {
		return fmt.Sprintf("%s: %s (%s @ offset %d)", e.Kind, e.Message, e.sub, e.Offset)
	}
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is lets errors.Is(err, vm.ErrOverflow) match on Kind by way of a tiny
// adapter — see the sentinel vars below.
func (e *VMError) Is(target error) bool {
	other, ok := target.(*kindSentinel)
	if !ok {
		return false
	}
	return e.Kind == other.kind
}

type kindSentinel struct{ kind Kind }

func (s *kindSentinel) Error() string { return s.kind.String() }

// Sentinels for errors.Is(err, vm.ErrOverflow)-style matching.
var (
	ErrInvalidOperation           = &kindSentinel{InvalidOperation}
	ErrMemoryAddressUninitialized = &kindSentinel{MemoryAddressUninitialized}
	ErrRegisterOutOfBounds        = &kindSentinel{RegisterOutOfBounds}
	ErrOverflow                   = &kindSentinel{Overflow}
	ErrMissingImport               = &kindSentinel{MissingImport}
	ErrFunctionDoesNotExist        = &kindSentinel{FunctionDoesNotExist}
	ErrCallbackFailed              = &kindSentinel{CallbackFailed}
	ErrRecursionLimit              = &kindSentinel{RecursionLimit}
	ErrBytecodeFormatError         = &kindSentinel{BytecodeFormatError}
)
