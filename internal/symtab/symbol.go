// Package symtab implements Floyd's symbol table: the scope tree pass-2
// and pass-3 use to resolve names, and the flat per-function slot
// assignment the bytecode generator turns into stack-frame addresses.
//
// DESIGN PHILOSOPHY:
// - Lexical scoping: inner scopes see outer names, and shadowing is
//   allowed without error.
// - Floyd has no closures over nested function definitions (the grammar
//   doesn't nest def-func), so a symbol's runtime address is only ever
//   one of two shapes: a slot in the currently executing function's
//   frame, or a slot in the permanent globals frame. Scope nesting
//   inside one function (blocks, if, while, for) never changes which
//   frame a name lives in — it only changes what's visible.
package symtab

import (
	"github.com/pkg/errors"

	"github.com/lineCode/floyd/internal/lexer"
	"github.com/lineCode/floyd/internal/types"
)

// SymbolKind distinguishes the two mutability classes bind/assign need
// plus function arguments, which are always immutable per the grammar
// (Floyd has no argument reassignment syntax).
type SymbolKind int

const (
	// ImmutableLocal is a `bind`-introduced local; `assign` to it is a
	// Pass-3 error.
	ImmutableLocal SymbolKind = iota
	// MutableLocal is introduced by Floyd's mutable-binding form and may
	// be the target of `assign`.
	MutableLocal
	// ImmutableArg is a function parameter.
	ImmutableArg
)

func (k SymbolKind) String() string {
	switch k {
	case ImmutableLocal:
		return "immutable_local"
	case MutableLocal:
		return "mutable_local"
	case ImmutableArg:
		return "immutable_arg"
	default:
		return "unknown"
	}
}

// IsMutable reports whether a symbol of this kind may be assign's target.
func (k SymbolKind) IsMutable() bool {
	return k == MutableLocal
}

// Symbol is one named binding: a local, an argument, or (at the global
// scope) a top-level `bind` or function definition.
type Symbol struct {
	Name string
	Kind SymbolKind
	Type *types.TypeID
	Pos  lexer.Position

	// Global is true when this symbol lives in the permanent globals
	// frame rather than the current function's frame.
	Global bool

	// Index is this symbol's slot within its owning frame (globals frame
	// if Global, else the current function's frame). Slot 0 in every
	// frame is the frame's back-pointer, so the first symbol gets index 1.
	Index int

	// Used tracks whether anything referenced this symbol; purely
	// informational (Floyd has no "declared and not used" error).
	Used bool
}

func (s *Symbol) String() string {
	return s.Kind.String() + " " + s.Name + ": " + s.Type.String() + " at " + s.Pos.String()
}

func (s *Symbol) MarkUsed() { s.Used = true }

// Address is the (parent_steps, index) pair every identifier resolves
// to. ParentSteps is -1 for a global, 0 for a slot in the
// frame currently executing — there is no other value, since Floyd's
// grammar never nests one function's frame inside another's.
type Address struct {
	ParentSteps int16
	Index       int16
}

// AddressOf returns sym's runtime address.
func AddressOf(sym *Symbol) Address {
	if sym.Global {
		return Address{ParentSteps: -1, Index: int16(sym.Index)}
	}
	return Address{ParentSteps: 0, Index: int16(sym.Index)}
}

// errRedeclared builds the error DefineSymbol returns when it finds an
// existing symbol of the same name already in the same scope.
func errRedeclared(name string, existing *Symbol) error {
	return errors.Errorf("%s already declared at %s", name, existing.Pos.String())
}
