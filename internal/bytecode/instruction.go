// Package bytecode lowers the typed AST internal/semantic produces into
// a linear, register-addressed instruction stream — the bc_program the
// interpreter (internal/vm) executes.
//
// There are no basic blocks and no SSA values here, only a flat
// []Instruction per function body addressed by frame slot: control
// flow is relative jumps over a linear stream, not a CFG.
package bytecode

// Opcode is one bytecode instruction kind.
type Opcode uint8

const (
	OpStoreResolve Opcode = iota // reg1 <- reg2 (type-generic copy, RC bump/drop via dest ext-bit)
	OpReturn                     // return reg1
	OpPush                       // push reg1 (argument marshalling temp)
	OpPopN                       // popn reg1.Index=count (balances Push)
	OpBranchZero                 // if !reg1 jump by offset (reg2.Index)
	OpJump                       // jump by offset (reg1.Index)
	OpResolveMember              // reg1 <- reg2.<member at reg3.Index>
	OpLookupElement              // reg1 <- reg2[reg3]
	OpCall                       // reg1 <- Funcs[reg2.Index](); args are the reg3.Index most recently Pushed values
	OpConstructValue             // reg1 <- TYPE(instr_type)(); args are the reg3.Index most recently Pushed values
	OpCmpLess
	OpCmpLessEqual
	OpCmpGreater
	OpCmpGreaterEqual
	OpLogicalEqual
	OpLogicalNotEqual
	OpArithAdd
	OpArithSubtract
	OpArithMultiply
	OpArithDivide
	OpArithRemainder
	OpLogicalAnd
	OpLogicalOr
	OpUnaryNegate
	OpUnaryNot
)

func (op Opcode) String() string {
	switch op {
	case OpStoreResolve:
		return "store_resolve"
	case OpReturn:
		return "return"
	case OpPush:
		return "push"
	case OpPopN:
		return "popn"
	case OpBranchZero:
		return "branch_zero"
	case OpJump:
		return "jump"
	case OpResolveMember:
		return "resolve_member"
	case OpLookupElement:
		return "lookup_element"
	case OpCall:
		return "call"
	case OpConstructValue:
		return "construct_value"
	case OpCmpLess:
		return "comparison_<"
	case OpCmpLessEqual:
		return "comparison_<="
	case OpCmpGreater:
		return "comparison_>"
	case OpCmpGreaterEqual:
		return "comparison_>="
	case OpLogicalEqual:
		return "logical_equal"
	case OpLogicalNotEqual:
		return "logical_nonequal"
	case OpArithAdd:
		return "arithmetic_add"
	case OpArithSubtract:
		return "arithmetic_subtract"
	case OpArithMultiply:
		return "arithmetic_multiply"
	case OpArithDivide:
		return "arithmetic_divide"
	case OpArithRemainder:
		return "arithmetic_remainder"
	case OpLogicalAnd:
		return "logical_and"
	case OpLogicalOr:
		return "logical_or"
	case OpUnaryNegate:
		return "unary_negate"
	case OpUnaryNot:
		return "unary_not"
	default:
		return "<invalid-opcode>"
	}
}

// RegRef is a variable address: a (parent_steps, index) pair.
// ParentSteps is -1 for globals, 0 for the current frame — Floyd has no
// nested function definitions, so no other value ever occurs (see
// internal/symtab.Address, which this mirrors exactly so the generator
// can convert one into the other with a plain field copy).
type RegRef struct {
	ParentSteps int16
	Index       int16
}

// Instruction is one bytecode instruction.
//
// A packed 64-bit encoding (`opcode:u8, instr_type:u16,
// reg1/2/3:(i16,i16)`) cannot literally hold these fields — they sum
// to 120 bits — so they stay a plain Go struct instead of bit-packed
// into a machine word: nothing here needs an instruction to fit one
// word (no SIMD dispatch, no mmap'd instruction array), and a struct
// keeps every opcode handler's field access type-safe instead of
// masking/shifting a uint64. The on-disk bytecode layout still
// serializes these fields with encoding/binary (see encode.go).
type Instruction struct {
	Op        Opcode
	InstrType uint16 // index into the program's type table
	Reg1      RegRef
	Reg2      RegRef
	Reg3      RegRef

	// Keys holds the static member/key names for an OpConstructValue
	// building a dict value, one per argument in push order. Nil for
	// every other construction and every other opcode. Dict keys are
	// always compile-time string literals,
	// so they travel as a generator-only side table rather than through
	// a register — there is no dynamic "construct a dict with a
	// runtime-computed key" form to encode.
	Keys []string
}

// CALLING CONVENTION (an args-at-reg2..,count=reg3 shape doesn't fit a
// register-addressed, non-contiguous temp allocator without either a
// second allocation pass or a dedicated arg area; the Push/PopN pair
// the instruction set already defines serves exactly this purpose):
// the generator emits one OpPush per argument,
// left to right, immediately before OpCall/OpConstructValue. Reg3.Index
// on the call/construct itself is the *total* number of values pushed
// (which can exceed the Floyd-level argument count — see the `dynamic`
// host parameter convention below), and the interpreter pops exactly
// that many values off the temporary area above the current frame.
//
// A `dynamic`-typed host parameter (host functions only — Floyd source
// has no surface syntax for it) is marshalled as two pushes: a typeid
// value for the argument's static type, then the argument value itself.
//
// OpCall's Reg2 carries the target function's Funcs-slice index directly
// as an immediate (like OpResolveMember's Reg3), not a loaded register:
// a call's callee is always a bare function name the analyser already
// resolved to one specific FuncDef, so there is nothing to load — Floyd
// has no syntax for calling through a variable holding a function value
// (see internal/semantic.VisitCallExpr).
