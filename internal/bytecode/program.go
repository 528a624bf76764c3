package bytecode

import (
	"github.com/lineCode/floyd/internal/types"
)

// FuncDef is one compiled function: its signature, frame layout, and
// instruction stream.
type FuncDef struct {
	Name string
	Type *types.TypeID // KindFunction: Return + Args

	// FrameSize is the number of slots this function's frame needs,
	// including the reserved back-pointer slot at index 0.
	FrameSize int

	// ExtBits has one entry per frame slot (index-aligned, so ExtBits[0]
	// is always false — the back-pointer slot is never RC'd); true marks
	// a slot whose payload is a reference-counted heap object, so frame
	// teardown knows which slots to RC-drop without inspecting runtime
	// type tags.
	ExtBits []bool

	// Consts holds the precomputed literal value for every frame slot
	// the generator populated at compile time, keyed by slot index — the
	// interpreter's open-frame step initializes these directly
	// instead of the function ever executing an instruction to produce
	// them. Slots with no entry here are either arguments (caller-
	// supplied) or start from a placeholder.
	Consts map[int]interface{}

	Instructions []Instruction

	// HostFunctionID is nonzero if this definition is a host function
	// stub: the VM looks it up in internal/host's dispatch table instead
	// of running Instructions (which is empty for host functions).
	HostFunctionID int
}

// TypeConst is a Consts entry for a slot holding a `typeid` value — used
// for the leading type-tag slot of a `dynamic` host argument.
type TypeConst struct {
	Index uint16 // index into the program's type table
}

// VoidConst is a Consts entry for a slot holding the single value of
// type void, e.g. the implicit trailing return a void function's body
// falls off into.
type VoidConst struct{}

// FuncConst is a Consts entry for a slot holding a function value —
// every top-level function name is a global of function type, and its
// value (which function, by Funcs index) is known at compile time, so
// it is seeded the same way any other constant slot is rather than
// computed by an instruction.
type FuncConst struct {
	ID int
}

// GlobalsDef is the program-wide globals frame: the top-level binds'
// layout plus the instruction stream that initializes them, run once
// when an interpreter is constructed, before anything else executes.
type GlobalsDef struct {
	FrameSize    int
	ExtBits      []bool
	Consts       map[int]interface{}
	Instructions []Instruction

	// Names maps every named global binding (top-level `bind`s and
	// function names) to its slot index, for FindGlobal — the VM itself
	// never looks a global up by name. Struct names have no global slot
	// and do not appear here.
	Names map[string]int
}

// Program is a bc_program: a deduplicated type table, the globals
// frame + instruction stream, and every compiled function definition.
type Program struct {
	Types   *types.Table
	Globals *GlobalsDef

	// Funcs is ordered by declaration so a stable "function value" can be
	// represented as an index into this slice (see internal/value's
	// planned function payload, {id: int}).
	Funcs []*FuncDef

	// FuncIndex maps a function's source name to its position in Funcs.
	FuncIndex map[string]int
}

// FuncByName looks up a compiled function definition by its Floyd name.
func (p *Program) FuncByName(name string) (*FuncDef, bool) {
	idx, ok := p.FuncIndex[name]
	if !ok {
		return nil, false
	}
	return p.Funcs[idx], true
}
