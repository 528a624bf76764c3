package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeID_PrimitiveEquals(t *testing.T) {
	assert.True(t, Int.Equals(Int))
	assert.False(t, Int.Equals(Float))
	assert.False(t, Int.Equals(nil))
}

func TestTypeID_StructNominal(t *testing.T) {
	a := NewStruct("pixel", []Member{{Name: "r", Type: Int}, {Name: "g", Type: Int}})
	b := NewStruct("pixel", []Member{{Name: "r", Type: Int}, {Name: "g", Type: Int}})
	c := NewStruct("other", []Member{{Name: "r", Type: Int}, {Name: "g", Type: Int}})

	assert.True(t, a.Equals(b), "same name and members")
	assert.False(t, a.Equals(c), "nominal typing: different name, same shape")
}

func TestTypeID_VectorDictStructural(t *testing.T) {
	v1 := NewVector(Int)
	v2 := NewVector(Int)
	v3 := NewVector(String)
	assert.True(t, v1.Equals(v2))
	assert.False(t, v1.Equals(v3))

	d1 := NewDict(String)
	d2 := NewDict(String)
	assert.True(t, d1.Equals(d2))
	assert.False(t, d1.Equals(NewDict(Int)))
}

func TestTypeID_FunctionStructural(t *testing.T) {
	f1 := NewFunction(Int, []*TypeID{Int, String}, true)
	f2 := NewFunction(Int, []*TypeID{Int, String}, true)
	f3 := NewFunction(Int, []*TypeID{Int, String}, false)
	assert.True(t, f1.Equals(f2))
	assert.False(t, f1.Equals(f3), "purity is part of the function type")
}

func TestTypeID_UnresolvedNameNeverEqual(t *testing.T) {
	a := NewUnresolvedName("pixel")
	b := NewUnresolvedName("pixel")
	assert.False(t, a.Equals(b))
}

func TestTypeID_DynamicAssignable(t *testing.T) {
	assert.True(t, Int.AssignableTo(Dynamic))
	assert.True(t, NewVector(String).AssignableTo(Dynamic))
	assert.False(t, Dynamic.AssignableTo(Int))
}

func TestTypeID_Hash(t *testing.T) {
	a := NewStruct("pixel", []Member{{Name: "r", Type: Int}})
	b := NewStruct("pixel", []Member{{Name: "r", Type: Int}})
	c := NewStruct("pixel", []Member{{Name: "g", Type: Int}})
	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestTable_InternDedup(t *testing.T) {
	tbl := NewTable()
	i1, err := tbl.Intern(Int)
	assert.NoError(t, err)
	i2, err := tbl.Intern(Int)
	assert.NoError(t, err)
	assert.Equal(t, i1, i2)

	i3, err := tbl.Intern(Float)
	assert.NoError(t, err)
	assert.NotEqual(t, i1, i3)
	assert.Equal(t, 2, tbl.Len())
	assert.Same(t, Int, tbl.At(i1))
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsNumeric(Int))
	assert.True(t, IsNumeric(Float))
	assert.False(t, IsNumeric(String))

	assert.True(t, IsOrdered(String))
	assert.False(t, IsOrdered(Bool))

	fn := NewFunction(Void, nil, true)
	assert.False(t, IsComparable(fn))
	assert.True(t, IsComparable(NewVector(Int)))
}
