// Package types implements Floyd's typeid sum type: the closed set of
// types the analyser, bytecode generator and interpreter all share.
//
// DESIGN PHILOSOPHY:
// - Every TypeID knows how to compare itself structurally (Equals) and
//   hash itself (Hash), because typeid values are themselves first-class
//   Floyd values that must be comparable, and the type table dedups
//   types by hash.
// - Named structs are nominal (two named structs are equal only if they
//   carry the same name; their member lists are not compared); anonymous
//   structs, vectors, dicts and function types are structural.
// - There is no implicit conversion between types: AssignableTo is
//   strict identity except for the host-only "dynamic" escape hatch.
package types

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spaolacci/murmur3"
)

// Kind enumerates the closed set of type constructors in Floyd's typeid.
type Kind int

const (
	KindUndefined Kind = iota
	KindDynamic
	KindVoid
	KindBool
	KindInt
	KindFloat
	KindString
	KindJSONValue
	KindTypeID
	KindStruct
	KindVector
	KindDict
	KindFunction
	KindUnresolvedName
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindDynamic:
		return "dynamic"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindJSONValue:
		return "json_value"
	case KindTypeID:
		return "typeid"
	case KindStruct:
		return "struct"
	case KindVector:
		return "vector"
	case KindDict:
		return "dict"
	case KindFunction:
		return "function"
	case KindUnresolvedName:
		return "unresolved_name"
	default:
		return "<invalid-kind>"
	}
}

// Member is one named, ordered field of a struct type.
type Member struct {
	Name string
	Type *TypeID
}

// TypeID is Floyd's typeid: a closed sum type rather than a Go interface,
// because typeid values need to be serialized into the bytecode
// program's type table and hashed/compared as ordinary Floyd values
// (typeid is itself one of the primitive kinds).
//
// DESIGN CHOICE: one struct with a Kind discriminant and kind-specific
// payload fields, rather than an interface with one implementation per
// kind. A typeid travels through the type table, the value representation
// and JSON round-tripping; a flat struct makes all three uniform instead
// of needing a type switch at every boundary.
type TypeID struct {
	Kind Kind

	// Struct payload.
	StructName string
	Members    []Member

	// Vector / Dict payload.
	Element *TypeID // vector element type, or dict value type

	// Function payload.
	Return  *TypeID
	Args    []*TypeID
	IsPure  bool

	// UnresolvedName payload: the name as written in source, before
	// pass-2 resolves it against declared struct names.
	Name string
}

// Singletons for the types with no payload. Shared instances avoid
// reallocating the common cases (every int literal, every bool
// expression) while still comparing correctly via Equals for the table's
// dedup.
var (
	Undefined = &TypeID{Kind: KindUndefined}
	Dynamic   = &TypeID{Kind: KindDynamic}
	Void      = &TypeID{Kind: KindVoid}
	Bool      = &TypeID{Kind: KindBool}
	Int       = &TypeID{Kind: KindInt}
	Float     = &TypeID{Kind: KindFloat}
	String    = &TypeID{Kind: KindString}
	JSONValue = &TypeID{Kind: KindJSONValue}
	TypeIDType = &TypeID{Kind: KindTypeID}
)

// NewStruct builds a nominal struct type.
func NewStruct(name string, members []Member) *TypeID {
	return &TypeID{Kind: KindStruct, StructName: name, Members: members}
}

// NewVector builds a vector type with the given element type.
func NewVector(element *TypeID) *TypeID {
	return &TypeID{Kind: KindVector, Element: element}
}

// NewDict builds a dict type; Floyd dicts always key on string, so only
// the value type varies.
func NewDict(value *TypeID) *TypeID {
	return &TypeID{Kind: KindDict, Element: value}
}

// NewFunction builds a function type.
func NewFunction(ret *TypeID, args []*TypeID, isPure bool) *TypeID {
	return &TypeID{Kind: KindFunction, Return: ret, Args: args, IsPure: isPure}
}

// NewUnresolvedName builds a placeholder produced by the parser for a
// type name it can't yet resolve (struct names used before pass-2 runs).
func NewUnresolvedName(name string) *TypeID {
	return &TypeID{Kind: KindUnresolvedName, Name: name}
}

// String renders the type the way Floyd source would spell it.
func (t *TypeID) String() string {
	if t == nil {
		return "<nil type>"
	}
	switch t.Kind {
	case KindStruct:
		if t.StructName != "" {
			return t.StructName
		}
		parts := make([]string, len(t.Members))
		for i, m := range t.Members {
			parts[i] = m.Type.String() + " " + m.Name
		}
		return "struct {" + strings.Join(parts, "; ") + "}"
	case KindVector:
		return "[" + t.Element.String() + "]"
	case KindDict:
		return "[string:" + t.Element.String() + "]"
	case KindFunction:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		prefix := ""
		if t.IsPure {
			prefix = "pure "
		}
		return prefix + t.Return.String() + "(" + strings.Join(args, ", ") + ")"
	case KindUnresolvedName:
		return "unresolved<" + t.Name + ">"
	default:
		return t.Kind.String()
	}
}

// Equals reports whether two typeids are structurally identical.
//
// DESIGN CHOICE: structs are nominal — same name
// required, even if the member lists happen to match — while vector,
// dict and function types compare structurally. An unresolved_name never
// equals anything, including another unresolved_name with the same
// text: pass-2 must replace it before it participates in equality.
func (t *TypeID) Equals(other *TypeID) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindStruct:
		if t.StructName == "" || other.StructName == "" {
			return membersEqual(t.Members, other.Members)
		}
		return t.StructName == other.StructName
	case KindVector, KindDict:
		return t.Element.Equals(other.Element)
	case KindFunction:
		if t.IsPure != other.IsPure || !t.Return.Equals(other.Return) || len(t.Args) != len(other.Args) {
			return false
		}
		for i := range t.Args {
			if !t.Args[i].Equals(other.Args[i]) {
				return false
			}
		}
		return true
	case KindUnresolvedName:
		return false
	default:
		return true
	}
}

func membersEqual(a, b []Member) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || !a[i].Type.Equals(b[i].Type) {
			return false
		}
	}
	return true
}

// AssignableTo reports whether a value of type t may be stored where a
// value of type other is expected.
//
// Floyd has no implicit conversions (conversions go through explicit
// construct_value calls), so this is identity except for the host-only
// "dynamic" escape hatch: anything is assignable to dynamic, and dynamic
// is assignable nowhere in Floyd source (only the host VM bridges it).
func (t *TypeID) AssignableTo(other *TypeID) bool {
	if other != nil && other.Kind == KindDynamic {
		return true
	}
	return t.Equals(other)
}

// Hash returns a structural hash of the type, used as Table.Intern's
// dedup key.
//
// The type's shape is folded into a byte stream and summed with
// murmur3 rather than a hand-rolled FNV mix.
func (t *TypeID) Hash() uint64 {
	h := murmur3.New64()
	writeTypeHash(h, t, nil)
	return h.Sum64()
}

// writeTypeHash folds t into h. open holds the named structs whose
// members are being hashed further up; a struct found there again (a
// self-referencing struct type) contributes only its name.
func writeTypeHash(h interface{ Write([]byte) (int, error) }, t *TypeID, open map[string]bool) {
	if t == nil {
		h.Write([]byte{0xff})
		return
	}
	h.Write([]byte{byte(t.Kind)})
	switch t.Kind {
	case KindStruct:
		h.Write([]byte(t.StructName))
		if t.StructName != "" {
			if open[t.StructName] {
				return
			}
			if open == nil {
				open = map[string]bool{}
			}
			open[t.StructName] = true
			defer delete(open, t.StructName)
		}
		for _, m := range t.Members {
			h.Write([]byte(m.Name))
			writeTypeHash(h, m.Type, open)
		}
	case KindVector, KindDict:
		writeTypeHash(h, t.Element, open)
	case KindFunction:
		writeTypeHash(h, t.Return, open)
		for _, a := range t.Args {
			writeTypeHash(h, a, open)
		}
	case KindUnresolvedName:
		h.Write([]byte(t.Name))
	}
}

// IsNumeric reports whether t is int or float.
func IsNumeric(t *TypeID) bool {
	return t != nil && (t.Kind == KindInt || t.Kind == KindFloat)
}

// IsComparable reports whether values of t support == and !=.
//
// Structs/vectors/dicts compare by deep value equality (not
// identity), so they're comparable too; functions are not.
func IsComparable(t *TypeID) bool {
	return t != nil && t.Kind != KindFunction && t.Kind != KindUndefined && t.Kind != KindUnresolvedName
}

// IsOrdered reports whether values of t support <, <=, >, >=.
func IsOrdered(t *TypeID) bool {
	return t != nil && (t.Kind == KindInt || t.Kind == KindFloat || t.Kind == KindString)
}

// Table is the deduplicated type table a bc_program carries:
// every distinct TypeID used anywhere in a compiled program is assigned
// a single 16-bit index, and instructions reference types by that index
// rather than embedding a type pointer.
type Table struct {
	types  []*TypeID
	bucket map[uint64][]uint16 // Hash() -> candidate indices sharing that hash
}

// NewTable creates an empty type table.
func NewTable() *Table {
	return &Table{bucket: make(map[uint64][]uint16)}
}

// Intern returns the table index for t, adding it if this is the first
// occurrence of this exact structural shape. The dedup key is t.Hash():
// a bucket lookup followed by an Equals check on the (rare) colliding
// candidates, rather than building t.String() for every type interned.
func (tt *Table) Intern(t *TypeID) (uint16, error) {
	if len(tt.types) >= 1<<16 {
		return 0, errors.Errorf("type table overflow: more than %d distinct types", 1<<16)
	}
	h := t.Hash()
	for _, idx := range tt.bucket[h] {
		if tt.types[idx].Equals(t) {
			return idx, nil
		}
	}
	idx := uint16(len(tt.types))
	tt.types = append(tt.types, t)
	tt.bucket[h] = append(tt.bucket[h], idx)
	return idx, nil
}

// At returns the type stored at index idx.
func (tt *Table) At(idx uint16) *TypeID {
	return tt.types[int(idx)]
}

// Len returns the number of distinct types interned so far.
func (tt *Table) Len() int {
	return len(tt.types)
}
