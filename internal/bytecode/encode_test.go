package bytecode_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineCode/floyd/internal/bytecode"
	"github.com/lineCode/floyd/internal/host"
	"github.com/lineCode/floyd/internal/parser"
	"github.com/lineCode/floyd/internal/semantic"
	"github.com/lineCode/floyd/internal/value"
	"github.com/lineCode/floyd/internal/vm"
)

func compileSrc(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	file, err := parser.ParseFile(src, "test.floyd")
	require.NoError(t, err)
	res, err := semantic.NewWithHost(host.NewTable()).Analyze(file)
	require.NoError(t, err)
	prog, err := bytecode.Generate(res)
	require.NoError(t, err)
	return prog
}

func roundTrip(t *testing.T, prog *bytecode.Program) *bytecode.Program {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, prog.Encode(&buf))
	decoded, err := bytecode.Decode(&buf)
	require.NoError(t, err)
	return decoded
}

// A decoded program must execute identically to the one it was encoded
// from — the source below exercises every persisted structure: the type
// table (struct, vector, dict, function types), const slots, ext bits,
// dict-construction key side tables, branch offsets, and a
// host-function stub with a `dynamic` parameter.
func TestEncode_DecodedProgramExecutesIdentically(t *testing.T) {
	src := `
		struct pixel { string name; int brightness; }
		int weight(pixel p) {
			if (p.brightness > 100) {
				return p.brightness * 2;
			}
			return p.brightness;
		}
		int main(string a) {
			pixel p = pixel(a, 120);
			[string:int] lookup = {"base": weight(p)};
			[int] padded = [1] + [2, 3];
			print(p.name);
			return lookup["base"] + size(padded);
		}
	`
	decoded := roundTrip(t, compileSrc(t, src))

	machine, err := vm.New(decoded, host.NewTable())
	require.NoError(t, err)
	result, err := machine.CallFunction("main", []value.Value{value.Str("px")})
	require.NoError(t, err)
	assert.Equal(t, int64(243), result.I)
	assert.Equal(t, []string{"px"}, machine.PrintOutput())
}

func TestEncode_RoundTripPreservesLayout(t *testing.T) {
	prog := compileSrc(t, `
		int counter = 41;
		string greet(string who) { return "hi " + who; }
	`)
	decoded := roundTrip(t, prog)

	assert.Equal(t, prog.Globals.FrameSize, decoded.Globals.FrameSize)
	assert.Equal(t, prog.Globals.ExtBits, decoded.Globals.ExtBits)
	assert.Equal(t, prog.Globals.Names, decoded.Globals.Names)
	assert.Equal(t, prog.FuncIndex, decoded.FuncIndex)
	require.Equal(t, prog.Types.Len(), decoded.Types.Len())
	for i := 0; i < prog.Types.Len(); i++ {
		assert.True(t, prog.Types.At(uint16(i)).Equals(decoded.Types.At(uint16(i))),
			"type %d must survive the round trip", i)
	}
	require.Len(t, decoded.Funcs, len(prog.Funcs))
	for i, fd := range prog.Funcs {
		assert.Equal(t, fd.Name, decoded.Funcs[i].Name)
		assert.Equal(t, fd.FrameSize, decoded.Funcs[i].FrameSize)
		assert.Equal(t, fd.HostFunctionID, decoded.Funcs[i].HostFunctionID)
		assert.Equal(t, fd.Instructions, decoded.Funcs[i].Instructions)
		assert.True(t, fd.Type.Equals(decoded.Funcs[i].Type))
	}
}

func TestDecode_RejectsBadMagicAndVersion(t *testing.T) {
	_, err := bytecode.Decode(bytes.NewReader([]byte("JUNKJUNKJUNK")))
	assert.Error(t, err)

	var buf bytes.Buffer
	require.NoError(t, compileSrc(t, `int x = 1;`).Encode(&buf))
	raw := buf.Bytes()
	raw[4] = 0xff // corrupt the version field
	_, err = bytecode.Decode(bytes.NewReader(raw))
	assert.Error(t, err)
}
