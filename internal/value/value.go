// Package value implements Floyd's runtime value representation: a
// tagged container pairing a *types.TypeID with either an inline
// primitive payload or a pointer to a reference-counted heap object
// (an "ext" value).
//
// DESIGN PHILOSOPHY (the same tagged-union style as internal/types,
// generalized to runtime values): one struct with a Kind-driven
// payload rather than an interface-per-kind hierarchy, because a Value
// has to travel through the value stack, dict keys, and struct fields
// uniformly — value polymorphism without inheritance.
package value

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lineCode/floyd/internal/types"
)

// Ext is a reference-counted heap object: the payload for every Value
// whose type is not an inline primitive. Exactly one of the fields
// below is meaningful, selected by Type.Kind.
//
// Go has no manual free, so the reference count here is bookkeeping
// rather than an allocator signal — Retain/Release still enforce the
// discipline (the sum of RCs must equal the number of live slots and
// members holding the object) so a double-release or an imbalanced
// frame teardown fails loudly in tests instead of silently relying on
// the garbage collector to paper over it.
type Ext struct {
	rc int32

	Str    string          // Kind == KindString
	JSON   interface{}     // Kind == KindJSONValue: nil, bool, float64, string, []interface{}, map[string]interface{}
	Struct []Value         // Kind == KindStruct, positional by the type's Members
	Vector []Value         // Kind == KindVector
	Dict   map[string]Value // Kind == KindDict
	FuncID int             // Kind == KindFunction: index into bc_program's Funcs
	TypeVal *types.TypeID  // Kind == KindTypeID
}

// RC returns the current strong reference count, for tests asserting
// the RC invariant.
func (e *Ext) RC() int32 { return atomic.LoadInt32(&e.rc) }

// Retain bumps e's reference count. Called whenever an ext value is
// copied into a new slot (store_resolve, argument marshalling).
func (e *Ext) Retain() {
	if e == nil {
		return
	}
	atomic.AddInt32(&e.rc, 1)
}

// Release drops e's reference count. The interpreter calls this
// whenever a slot holding e is overwritten or its frame is torn down.
// Dropping to zero has no allocator effect in Go (the GC reclaims e
// once nothing references it), but a release below zero indicates a
// double-release bug in the generator or VM, so it is reported rather
// than silently clamped.
func (e *Ext) Release() error {
	if e == nil {
		return nil
	}
	if n := atomic.AddInt32(&e.rc, -1); n < 0 {
		return errors.Errorf("internal error: ext refcount underflow (kind payload %#v)", e)
	}
	return nil
}

// Value is one Floyd runtime value: a type tag plus either an
// inline primitive payload or a pointer to an Ext heap object.
type Value struct {
	Type *types.TypeID

	// Inline payload, meaningful when Type.Kind is KindBool/KindInt/
	// KindFloat; zero otherwise.
	B bool
	I int64
	// F holds Floyd's `float` as a float64; truncating user-visible
	// float arithmetic to 32 bits would lose precision for nothing —
	// the payload occupies a word either way.
	F float64

	// Ext is non-nil when Type.Kind is one of the reference-counted
	// kinds (string, json_value, struct, vector, dict, function, typeid).
	Ext *Ext
}

// IsExt reports whether a value of kind k is reference-counted — the
// runtime counterpart of the bytecode generator's per-slot ext-bit.
func IsExt(k types.Kind) bool {
	switch k {
	case types.KindString, types.KindJSONValue, types.KindStruct, types.KindVector, types.KindDict, types.KindFunction, types.KindTypeID:
		return true
	default:
		return false
	}
}

// Bool, Int, Float, Str construct inline-or-ext primitive values.
func Bool(b bool) Value  { return Value{Type: types.Bool, B: b} }
func Int(i int64) Value  { return Value{Type: types.Int, I: i} }
func Float(f float64) Value { return Value{Type: types.Float, F: f} }

func Str(s string) Value {
	return Value{Type: types.String, Ext: &Ext{rc: 1, Str: s}}
}

// Void returns the single representable value of type void, produced by
// a void function's implicit return.
func Void() Value { return Value{Type: types.Void} }

// Struct constructs a struct value; members must already match st's
// declared member types and count — enforced by the analyser and the
// bytecode generator's construct_value lowering, not re-checked here.
func Struct(st *types.TypeID, members []Value) Value {
	return Value{Type: st, Ext: &Ext{rc: 1, Struct: members}}
}

// Vector constructs a vector value over elements, which must all share
// element type et.
func Vector(et *types.TypeID, elements []Value) Value {
	return Value{Type: types.NewVector(et), Ext: &Ext{rc: 1, Vector: elements}}
}

// Dict constructs a dict value; entries must all have value type vt.
// Keys are plain strings (Floyd dicts always key on string).
func Dict(vt *types.TypeID, entries map[string]Value) Value {
	return Value{Type: types.NewDict(vt), Ext: &Ext{rc: 1, Dict: entries}}
}

// Function constructs a function value: a reference to program-level
// function id id of type ft.
func Function(ft *types.TypeID, id int) Value {
	return Value{Type: ft, Ext: &Ext{rc: 1, FuncID: id}}
}

// TypeIDValue constructs a `typeid` value: a type used as a first-class
// Floyd value (typeid is both a type kind and a value payload variant).
func TypeIDValue(t *types.TypeID) Value {
	return Value{Type: types.TypeIDType, Ext: &Ext{rc: 1, TypeVal: t}}
}

// JSON constructs a json_value wrapping an already-decoded JSON tree
// (nil, bool, float64, string, []interface{}, or map[string]interface{},
// matching encoding/json's decode shape).
func JSON(v interface{}) Value {
	return Value{Type: types.JSONValue, Ext: &Ext{rc: 1, JSON: v}}
}

// Retain bumps v's ext refcount, if it has one. Safe to call on inline
// values (no-op).
func (v Value) Retain() {
	if v.Ext != nil {
		v.Ext.Retain()
	}
}

// Release drops v's ext refcount, if it has one.
func (v Value) Release() error {
	if v.Ext != nil {
		return v.Ext.Release()
	}
	return nil
}

// Equals reports deep value equality (structs/vectors/dicts compare by
// value, not identity).
func (v Value) Equals(other Value) bool {
	if !v.Type.Equals(other.Type) {
		return false
	}
	switch v.Type.Kind {
	case types.KindBool:
		return v.B == other.B
	case types.KindInt:
		return v.I == other.I
	case types.KindFloat:
		return v.F == other.F
	case types.KindVoid, types.KindUndefined:
		return true
	case types.KindString:
		return v.Ext.Str == other.Ext.Str
	case types.KindTypeID:
		return v.Ext.TypeVal.Equals(other.Ext.TypeVal)
	case types.KindFunction:
		return v.Ext.FuncID == other.Ext.FuncID
	case types.KindStruct:
		if len(v.Ext.Struct) != len(other.Ext.Struct) {
			return false
		}
		for i := range v.Ext.Struct {
			if !v.Ext.Struct[i].Equals(other.Ext.Struct[i]) {
				return false
			}
		}
		return true
	case types.KindVector:
		if len(v.Ext.Vector) != len(other.Ext.Vector) {
			return false
		}
		for i := range v.Ext.Vector {
			if !v.Ext.Vector[i].Equals(other.Ext.Vector[i]) {
				return false
			}
		}
		return true
	case types.KindDict:
		if len(v.Ext.Dict) != len(other.Ext.Dict) {
			return false
		}
		for k, ev := range v.Ext.Dict {
			ov, ok := other.Ext.Dict[k]
			if !ok || !ev.Equals(ov) {
				return false
			}
		}
		return true
	case types.KindJSONValue:
		return jsonEquals(v.Ext.JSON, other.Ext.JSON)
	default:
		return false
	}
}

func jsonEquals(a, b interface{}) bool {
	switch av := a.(type) {
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jsonEquals(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, ev := range av {
			ov, ok := bv[k]
			if !ok || !jsonEquals(ev, ov) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// Truthy reports whether v is considered true for `&&`/`||`/branch_zero
// purposes. Floyd's analyser requires bool operands for the logical
// operators, but branch_zero is also used to lower non-bool
// conditions the generator never actually emits today — Truthy stays
// total over every kind instead of panicking on an unexpected one, so a
// VM bug surfaces as a wrong answer during testing rather than a crash
// in a release build.
func (v Value) Truthy() bool {
	switch v.Type.Kind {
	case types.KindBool:
		return v.B
	case types.KindInt:
		return v.I != 0
	case types.KindFloat:
		return v.F != 0
	default:
		return true
	}
}
