package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineCode/floyd/internal/types"
	"github.com/lineCode/floyd/internal/value"
)

type fakeVM struct {
	lines []string
}

func (f *fakeVM) AppendPrintOutput(line string) { f.lines = append(f.lines, line) }

func TestTable_LookupByID(t *testing.T) {
	tbl := NewTable()
	for _, name := range []string{"print", "size", "update"} {
		sig := tbl.Signatures()[name]
		entry, ok := tbl.Lookup(sig.ID)
		require.True(t, ok)
		assert.Equal(t, name, entry.Name)
	}
}

func TestHostPrint_AppendsToVM(t *testing.T) {
	vm := &fakeVM{}
	_, err := NewTable().byName["print"].Impl(vm, []value.Value{value.Str("hi")})
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, vm.lines)
}

func TestHostSize_VariantsByKind(t *testing.T) {
	impl := NewTable().byName["size"].Impl
	vm := &fakeVM{}

	v, err := impl(vm, []value.Value{value.Str("hello")})
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.I)

	v, err = impl(vm, []value.Value{value.Vector(types.Int, []value.Value{value.Int(1), value.Int(2)})})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.I)

	v, err = impl(vm, []value.Value{value.Dict(types.Int, map[string]value.Value{"a": value.Int(1)})})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.I)
}

func TestHostUpdate_VectorIsFunctional(t *testing.T) {
	impl := NewTable().byName["update"].Impl
	vm := &fakeVM{}
	original := value.Vector(types.Int, []value.Value{value.Int(1), value.Int(2), value.Int(3)})

	updated, err := impl(vm, []value.Value{original, value.Int(1), value.Int(99)})
	require.NoError(t, err)

	assert.Equal(t, int64(2), original.Ext.Vector[1].I, "update must not mutate its argument")
	assert.Equal(t, int64(99), updated.Ext.Vector[1].I)
}

func TestHostUpdate_StructByMemberName(t *testing.T) {
	impl := NewTable().byName["update"].Impl
	vm := &fakeVM{}
	st := types.NewStruct("pixel", []types.Member{{Name: "s", Type: types.String}})
	original := value.Struct(st, []value.Value{value.Str("red")})

	updated, err := impl(vm, []value.Value{original, value.Str("s"), value.Str("blue")})
	require.NoError(t, err)

	assert.Equal(t, "red", original.Ext.Struct[0].Ext.Str)
	assert.Equal(t, "blue", updated.Ext.Struct[0].Ext.Str)
}

func TestHostUpdate_VectorOutOfBoundsErrors(t *testing.T) {
	impl := NewTable().byName["update"].Impl
	vm := &fakeVM{}
	v := value.Vector(types.Int, []value.Value{value.Int(1)})
	_, err := impl(vm, []value.Value{v, value.Int(5), value.Int(0)})
	assert.Error(t, err)
}
