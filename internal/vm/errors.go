package vm

import (
	"github.com/pkg/errors"

	"github.com/lineCode/floyd/internal/xlog"
)

// ErrReentrantCall is returned when an outward-facing entry point
// (CallFunction, CallFunctionValue) is invoked while this Interpreter
// is already running a call — typically a host function calling back
// into its own interpreter. The guard fails fast instead of
// deadlocking; check with errors.Is.
var ErrReentrantCall = errors.New("interpreter is already running a call")

// RuntimeErrorKind distinguishes the handful of runtime faults that
// aren't already excluded by pass-3 type-checking and so can only
// surface while a program is running.
type RuntimeErrorKind int

const (
	DivideByZero RuntimeErrorKind = iota
	LookupOutOfBounds
	DictKeyMissing
	StringIndexOutOfBounds
	JSONTypeMismatch
	HostFunctionError
)

func (k RuntimeErrorKind) String() string {
	switch k {
	case DivideByZero:
		return "divide_by_zero"
	case LookupOutOfBounds:
		return "lookup_out_of_bounds"
	case DictKeyMissing:
		return "dict_key_missing"
	case StringIndexOutOfBounds:
		return "string_index_out_of_bounds"
	case JSONTypeMismatch:
		return "json_type_mismatch"
	case HostFunctionError:
		return "host_function_error"
	default:
		return "unknown_runtime_error"
	}
}

// RuntimeError is a tagged runtime fault, letting an embedder branch on
// Kind without parsing the message (the embedder API surfaces these
// directly from CallFunction/RunMain).
type RuntimeError struct {
	Kind RuntimeErrorKind

	// Instr is the index, within the raising function's instruction
	// stream, of the opcode that faulted — stamped by the dispatch loop
	// (which knows the program counter), not by the operation that
	// detected the fault. -1 until stamped, or for faults raised outside
	// any instruction (an unregistered host function id, a reentrant
	// call).
	Instr int

	msg string
}

func (e *RuntimeError) Error() string { return e.msg }

func newRuntimeError(kind RuntimeErrorKind, format string, args ...interface{}) error {
	msg := errors.Wrapf(errors.Errorf(format, args...), "%s", kind).Error()
	xlog.Errorf("vm", "%s", msg)
	return &RuntimeError{Kind: kind, Instr: -1, msg: msg}
}

// AsRuntimeError reports whether err (or something it wraps) is a
// *RuntimeError, mirroring the errors.As idiom the rest of the module
// uses via github.com/pkg/errors.
func AsRuntimeError(err error) (*RuntimeError, bool) {
	re, ok := errors.Cause(err).(*RuntimeError)
	return re, ok
}
