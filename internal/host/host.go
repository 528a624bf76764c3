// Package host implements Floyd's host-function dispatch table: the
// fixed set of externally-supplied functions `call` may invoke when a
// bc_program.FuncDef carries a nonzero HostFunctionID, keyed by
// integer id.
//
// The actual host *library* (print/update/size/etc. as a product
// surface) belongs to the embedder; this package defines the dispatch
// mechanism plus a minimal set sufficient to exercise the calling
// convention end to end, not a production host-function library.
package host

import (
	"github.com/pkg/errors"

	"github.com/lineCode/floyd/internal/types"
	"github.com/lineCode/floyd/internal/value"
)

// VM is the slice of interpreter state a host function is allowed to
// touch. internal/vm.Interpreter implements this; the
// interface lives here (not in internal/vm) so internal/host never
// imports internal/vm — only internal/vm imports internal/host.
type VM interface {
	AppendPrintOutput(line string)
}

// Impl is a host function's Go-side implementation. args are already
// resolved Floyd values — the VM has stripped off the duplicate typeid
// slot every `dynamic`-typed parameter carries on the wire, since a
// value.Value is already self-describing.
type Impl func(vm VM, args []value.Value) (value.Value, error)

// Signature is one host function's declaration: the integer id the
// bytecode's FuncDef.HostFunctionID carries, paired with the
// function's typeid as Floyd source sees it.
type Signature struct {
	ID   int
	Name string
	Type *types.TypeID
}

// Entry pairs a Signature with its Go implementation — get_host_functions()'s
// host_function_t.
type Entry struct {
	Signature
	Impl Impl
}

// Table is the dispatch table: map[int]host_function_t, plus a by-name
// index the analyser uses to pre-declare host functions as typed
// globals before checking any Floyd source (see internal/semantic).
type Table struct {
	byID   map[int]Entry
	byName map[string]Entry
}

// NewTable builds the dispatch table with Floyd's minimal host-function
// set (print, size, update) — enough to exercise every
// calling-convention case there is (a plain argument, a `dynamic`
// argument, and a function returning `dynamic`), not a complete
// standard library.
func NewTable() *Table {
	t := &Table{byID: make(map[int]Entry), byName: make(map[string]Entry)}
	t.register(1, "print", types.NewFunction(types.Void, []*types.TypeID{types.String}, false), hostPrint)
	t.register(2, "size", types.NewFunction(types.Int, []*types.TypeID{types.Dynamic}, true), hostSize)
	t.register(3, "update", types.NewFunction(types.Dynamic, []*types.TypeID{types.Dynamic, types.Dynamic, types.Dynamic}, false), hostUpdate)
	return t
}

func (t *Table) register(id int, name string, fnType *types.TypeID, impl Impl) {
	e := Entry{Signature: Signature{ID: id, Name: name, Type: fnType}, Impl: impl}
	t.byID[id] = e
	t.byName[name] = e
}

// Lookup finds a host function entry by its dispatch id (what
// bc_program.FuncDef.HostFunctionID carries).
func (t *Table) Lookup(id int) (Entry, bool) {
	e, ok := t.byID[id]
	return e, ok
}

// Signatures returns every host function's name and signature, for the
// analyser to pre-declare as typed globals.
func (t *Table) Signatures() map[string]Signature {
	out := make(map[string]Signature, len(t.byName))
	for name, e := range t.byName {
		out[name] = e.Signature
	}
	return out
}

func hostPrint(vm VM, args []value.Value) (value.Value, error) {
	vm.AppendPrintOutput(args[0].Ext.Str)
	return value.Void(), nil
}

func hostSize(vm VM, args []value.Value) (value.Value, error) {
	v := args[0]
	switch v.Type.Kind {
	case types.KindString:
		return value.Int(int64(len([]rune(v.Ext.Str)))), nil
	case types.KindVector:
		return value.Int(int64(len(v.Ext.Vector))), nil
	case types.KindDict:
		return value.Int(int64(len(v.Ext.Dict))), nil
	case types.KindJSONValue:
		switch j := v.Ext.JSON.(type) {
		case []interface{}:
			return value.Int(int64(len(j))), nil
		case map[string]interface{}:
			return value.Int(int64(len(j))), nil
		case string:
			return value.Int(int64(len([]rune(j)))), nil
		}
		return value.Value{}, errors.Errorf("size: json_value has no length")
	default:
		return value.Value{}, errors.Errorf("size: unsupported type %s", v.Type)
	}
}

// hostUpdate implements Floyd's functional collection update: given a
// collection, a key (an int index for vectors, a string key for dicts
// and structs), and a replacement value, it returns a *new* collection
// with that one slot replaced — update never mutates its argument
// (values are immutable once constructed; updates produce new values).
// Every
// value entering the new collection is retained — membership holds a
// reference, the same ownership rule construct_value follows.
func hostUpdate(vm VM, args []value.Value) (value.Value, error) {
	coll, key, newVal := args[0], args[1], args[2]
	switch coll.Type.Kind {
	case types.KindVector:
		if key.Type.Kind != types.KindInt {
			return value.Value{}, errors.Errorf("update: vector key must be int, got %s", key.Type)
		}
		idx := int(key.I)
		if idx < 0 || idx >= len(coll.Ext.Vector) {
			return value.Value{}, errors.Errorf("update: vector index %d out of bounds (len %d)", idx, len(coll.Ext.Vector))
		}
		next := make([]value.Value, len(coll.Ext.Vector))
		copy(next, coll.Ext.Vector)
		next[idx] = newVal
		retainAll(next)
		return value.Vector(coll.Type.Element, next), nil
	case types.KindDict:
		if key.Type.Kind != types.KindString {
			return value.Value{}, errors.Errorf("update: dict key must be string, got %s", key.Type)
		}
		next := make(map[string]value.Value, len(coll.Ext.Dict)+1)
		for k, v := range coll.Ext.Dict {
			next[k] = v
		}
		next[key.Ext.Str] = newVal
		for _, v := range next {
			v.Retain()
		}
		return value.Dict(coll.Type.Element, next), nil
	case types.KindStruct:
		if key.Type.Kind != types.KindString {
			return value.Value{}, errors.Errorf("update: struct member key must be string, got %s", key.Type)
		}
		idx := -1
		for i, m := range coll.Type.Members {
			if m.Name == key.Ext.Str {
				idx = i
				break
			}
		}
		if idx < 0 {
			return value.Value{}, errors.Errorf("update: %s has no member %q", coll.Type, key.Ext.Str)
		}
		next := make([]value.Value, len(coll.Ext.Struct))
		copy(next, coll.Ext.Struct)
		next[idx] = newVal
		retainAll(next)
		return value.Struct(coll.Type, next), nil
	default:
		return value.Value{}, errors.Errorf("update: unsupported collection type %s", coll.Type)
	}
}

func retainAll(vs []value.Value) {
	for _, v := range vs {
		v.Retain()
	}
}
