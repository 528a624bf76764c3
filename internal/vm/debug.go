package vm

import (
	"github.com/lineCode/floyd/internal/types"
	"github.com/lineCode/floyd/internal/value"
)

// ToJSON is a pure snapshot of VM state: the compiled program's
// function table and the calls currently in progress. It never touches
// accumulated print output — see (*Interpreter).PrintOutput for that —
// since the snapshot describes the interpreter itself, not what it has
// printed.
func (vm *Interpreter) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"ast":       vm.functionTable(),
		"callstack": vm.callstackSnapshot(),
	}
}

// functionTable lists every compiled function by name, type and
// whether it dispatches to a host implementation.
func (vm *Interpreter) functionTable() []interface{} {
	out := make([]interface{}, len(vm.prog.Funcs))
	for i, fd := range vm.prog.Funcs {
		out[i] = map[string]interface{}{
			"name": fd.Name,
			"type": fd.Type.String(),
			"host": fd.HostFunctionID != 0,
		}
	}
	return out
}

// callstackSnapshot describes every call currently in progress,
// outermost first, including each bytecode frame's live local values.
// Called the way an embedder normally would — after CallFunction has
// already returned — every frame has unwound and this is empty.
func (vm *Interpreter) callstackSnapshot() []interface{} {
	out := make([]interface{}, len(vm.frames))
	for i, f := range vm.frames {
		if f.size == 0 {
			out[i] = map[string]interface{}{"function": f.name, "host": true}
			continue
		}
		values := make([]interface{}, 0, f.size-1)
		for slot := 1; slot < f.size; slot++ {
			values = append(values, describeValue(vm.stack[f.base+slot]))
		}
		out[i] = map[string]interface{}{"function": f.name, "values": values}
	}
	return out
}

// describeValue renders v as a JSON-friendly tree, recursing through
// ext containers; used only by callstackSnapshot, never by the
// interpreter's own execution path.
func describeValue(v value.Value) interface{} {
	if v.Type == nil {
		return nil
	}
	switch {
	case v.Ext == nil:
		switch v.Type.Kind {
		case types.KindBool:
			return v.B
		case types.KindInt:
			return v.I
		case types.KindFloat:
			return v.F
		default:
			return nil
		}
	case v.Type.Kind == types.KindString:
		return v.Ext.Str
	case v.Ext.Vector != nil:
		out := make([]interface{}, len(v.Ext.Vector))
		for i, e := range v.Ext.Vector {
			out[i] = describeValue(e)
		}
		return out
	case v.Ext.Dict != nil:
		out := make(map[string]interface{}, len(v.Ext.Dict))
		for k, e := range v.Ext.Dict {
			out[k] = describeValue(e)
		}
		return out
	case v.Ext.Struct != nil:
		out := make([]interface{}, len(v.Ext.Struct))
		for i, m := range v.Ext.Struct {
			out[i] = describeValue(m)
		}
		return out
	case v.Ext.JSON != nil:
		return v.Ext.JSON
	case v.Ext.TypeVal != nil:
		return v.Ext.TypeVal.String()
	default:
		return v.Ext.FuncID
	}
}
