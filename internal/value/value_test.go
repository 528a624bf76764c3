package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineCode/floyd/internal/types"
)

func TestValue_EqualsPrimitives(t *testing.T) {
	assert.True(t, Int(7).Equals(Int(7)))
	assert.False(t, Int(7).Equals(Int(8)))
	assert.True(t, Str("hi").Equals(Str("hi")))
	assert.False(t, Str("hi").Equals(Str("bye")))
}

func TestValue_EqualsStructDeep(t *testing.T) {
	st := types.NewStruct("pixel", []types.Member{{Name: "name", Type: types.String}})
	a := Struct(st, []Value{Str("red")})
	b := Struct(st, []Value{Str("red")})
	c := Struct(st, []Value{Str("blue")})
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestValue_RetainReleaseBalanced(t *testing.T) {
	v := Str("hi")
	require.EqualValues(t, 1, v.Ext.RC())
	v.Retain()
	require.EqualValues(t, 2, v.Ext.RC())
	require.NoError(t, v.Release())
	require.EqualValues(t, 1, v.Ext.RC())
	require.NoError(t, v.Release())
	require.EqualValues(t, 0, v.Ext.RC())
}

func TestValue_ReleaseUnderflowErrors(t *testing.T) {
	v := Str("hi")
	require.NoError(t, v.Release())
	assert.Error(t, v.Release())
}

func TestValue_Truthy(t *testing.T) {
	assert.True(t, Int(1).Truthy())
	assert.False(t, Int(0).Truthy())
	assert.True(t, Bool(true).Truthy())
	assert.False(t, Bool(false).Truthy())
}

func TestCoerceConstruct_StringFromInt(t *testing.T) {
	v, err := CoerceConstruct(types.String, Int(123))
	require.NoError(t, err)
	assert.Equal(t, "123", v.Ext.Str)
}

func TestCoerceConstruct_JSONFromString(t *testing.T) {
	v, err := CoerceConstruct(types.JSONValue, Str(`{"a":1}`))
	require.NoError(t, err)
	m, ok := v.Ext.JSON.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1.0, m["a"])
}

func TestCoerceConstruct_StringFromJSONStringScalar(t *testing.T) {
	v, err := CoerceConstruct(types.String, JSON("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", v.Ext.Str)
}

func TestCoerceConstruct_StringFromJSONObjectFails(t *testing.T) {
	_, err := CoerceConstruct(types.String, JSON(map[string]interface{}{"a": 1.0}))
	assert.Error(t, err)
}

func TestCoerceConstruct_BoolFromIntRejected(t *testing.T) {
	_, err := CoerceConstruct(types.Bool, Int(1))
	assert.Error(t, err)
}
