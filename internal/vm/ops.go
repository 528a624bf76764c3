package vm

import (
	"github.com/lineCode/floyd/internal/bytecode"
	"github.com/lineCode/floyd/internal/types"
	"github.com/lineCode/floyd/internal/value"
)

// step executes one instruction against the frame at frameBase.
//
// Return values: (ip delta, return value if done, done, error). done is
// true only for OpReturn; every other opcode falls through to the next
// instruction (delta 1), except OpJump/OpBranchZero which compute their
// own delta from the instruction's relative offset.
func (vm *Interpreter) step(instr bytecode.Instruction, frameBase int) (int, value.Value, bool, error) {
	switch instr.Op {
	case OpStoreResolve:
		vm.store(frameBase, instr.Reg1, vm.load(frameBase, instr.Reg2), true)
		return 1, value.Value{}, false, nil

	case OpReturn:
		retVal := vm.load(frameBase, instr.Reg1)
		retVal.Retain()
		return 0, retVal, true, nil

	case OpPush:
		v := vm.load(frameBase, instr.Reg1)
		v.Retain()
		vm.pushArea = append(vm.pushArea, v)
		return 1, value.Value{}, false, nil

	case OpPopN:
		for _, v := range vm.popN(int(instr.Reg1.Index)) {
			v.Release()
		}
		return 1, value.Value{}, false, nil

	case OpBranchZero:
		if !vm.load(frameBase, instr.Reg1).Truthy() {
			return 1 + int(instr.Reg2.Index), value.Value{}, false, nil
		}
		return 1, value.Value{}, false, nil

	case OpJump:
		return 1 + int(instr.Reg1.Index), value.Value{}, false, nil

	case OpResolveMember:
		obj := vm.load(frameBase, instr.Reg2)
		idx := int(instr.Reg3.Index)
		vm.store(frameBase, instr.Reg1, obj.Ext.Struct[idx], true)
		return 1, value.Value{}, false, nil

	case OpLookupElement:
		coll := vm.load(frameBase, instr.Reg2)
		key := vm.load(frameBase, instr.Reg3)
		elem, err := vm.lookupElement(coll, key)
		if err != nil {
			return 0, value.Value{}, false, err
		}
		vm.store(frameBase, instr.Reg1, elem, true)
		return 1, value.Value{}, false, nil

	case OpCall:
		result, err := vm.doCall(instr, frameBase)
		if err != nil {
			return 0, value.Value{}, false, err
		}
		vm.store(frameBase, instr.Reg1, result, false)
		return 1, value.Value{}, false, nil

	case OpConstructValue:
		result, err := vm.doConstruct(instr, frameBase)
		if err != nil {
			return 0, value.Value{}, false, err
		}
		vm.store(frameBase, instr.Reg1, result, false)
		return 1, value.Value{}, false, nil

	case OpCmpLess, OpCmpLessEqual, OpCmpGreater, OpCmpGreaterEqual:
		result, err := vm.compare(instr.Op, vm.load(frameBase, instr.Reg2), vm.load(frameBase, instr.Reg3))
		if err != nil {
			return 0, value.Value{}, false, err
		}
		vm.store(frameBase, instr.Reg1, result, false)
		return 1, value.Value{}, false, nil

	case OpLogicalEqual:
		l, r := vm.load(frameBase, instr.Reg2), vm.load(frameBase, instr.Reg3)
		vm.store(frameBase, instr.Reg1, value.Bool(l.Equals(r)), false)
		return 1, value.Value{}, false, nil

	case OpLogicalNotEqual:
		l, r := vm.load(frameBase, instr.Reg2), vm.load(frameBase, instr.Reg3)
		vm.store(frameBase, instr.Reg1, value.Bool(!l.Equals(r)), false)
		return 1, value.Value{}, false, nil

	case OpArithAdd, OpArithSubtract, OpArithMultiply, OpArithDivide, OpArithRemainder:
		result, err := vm.arith(instr.Op, vm.load(frameBase, instr.Reg2), vm.load(frameBase, instr.Reg3))
		if err != nil {
			return 0, value.Value{}, false, err
		}
		vm.store(frameBase, instr.Reg1, result, false)
		return 1, value.Value{}, false, nil

	case OpLogicalAnd:
		l, r := vm.load(frameBase, instr.Reg2), vm.load(frameBase, instr.Reg3)
		vm.store(frameBase, instr.Reg1, value.Bool(l.Truthy() && r.Truthy()), false)
		return 1, value.Value{}, false, nil

	case OpLogicalOr:
		l, r := vm.load(frameBase, instr.Reg2), vm.load(frameBase, instr.Reg3)
		vm.store(frameBase, instr.Reg1, value.Bool(l.Truthy() || r.Truthy()), false)
		return 1, value.Value{}, false, nil

	case OpUnaryNegate:
		operand := vm.load(frameBase, instr.Reg2)
		var result value.Value
		if operand.Type.Kind == types.KindFloat {
			result = value.Float(-operand.F)
		} else {
			result = value.Int(-operand.I)
		}
		vm.store(frameBase, instr.Reg1, result, false)
		return 1, value.Value{}, false, nil

	case OpUnaryNot:
		operand := vm.load(frameBase, instr.Reg2)
		vm.store(frameBase, instr.Reg1, value.Bool(!operand.Truthy()), false)
		return 1, value.Value{}, false, nil

	default:
		return 0, value.Value{}, false, newRuntimeError(HostFunctionError, "unknown opcode %v", instr.Op)
	}
}

// Opcode aliases so this package reads naturally against
// internal/bytecode's definitions without a qualifier on every case arm.
const (
	OpStoreResolve   = bytecode.OpStoreResolve
	OpReturn         = bytecode.OpReturn
	OpPush           = bytecode.OpPush
	OpPopN           = bytecode.OpPopN
	OpBranchZero     = bytecode.OpBranchZero
	OpJump           = bytecode.OpJump
	OpResolveMember  = bytecode.OpResolveMember
	OpLookupElement  = bytecode.OpLookupElement
	OpCall           = bytecode.OpCall
	OpConstructValue = bytecode.OpConstructValue
	OpCmpLess        = bytecode.OpCmpLess
	OpCmpLessEqual   = bytecode.OpCmpLessEqual
	OpCmpGreater     = bytecode.OpCmpGreater
	OpCmpGreaterEqual = bytecode.OpCmpGreaterEqual
	OpLogicalEqual    = bytecode.OpLogicalEqual
	OpLogicalNotEqual = bytecode.OpLogicalNotEqual
	OpArithAdd        = bytecode.OpArithAdd
	OpArithSubtract   = bytecode.OpArithSubtract
	OpArithMultiply   = bytecode.OpArithMultiply
	OpArithDivide     = bytecode.OpArithDivide
	OpArithRemainder  = bytecode.OpArithRemainder
	OpLogicalAnd      = bytecode.OpLogicalAnd
	OpLogicalOr       = bytecode.OpLogicalOr
	OpUnaryNegate     = bytecode.OpUnaryNegate
	OpUnaryNot        = bytecode.OpUnaryNot
)

// doCall pops this call's marshalled arguments off vm.pushArea and
// dispatches to the target function (user-defined or host), per the
// push-then-call convention documented in internal/bytecode/instruction.go.
//
// Reference ownership: every pushed slot carries the +1 OpPush added.
// For a Floyd callee those references transfer into the new frame and
// are dropped by closeFrame; a host call never opens a frame, so the
// pushed references (including the typeid slot of every `dynamic`
// parameter) are dropped here once the host implementation returns.
func (vm *Interpreter) doCall(instr bytecode.Instruction, frameBase int) (value.Value, error) {
	funcID := int(instr.Reg2.Index)
	total := int(instr.Reg3.Index)
	def := vm.prog.Funcs[funcID]

	raw := vm.popN(total)
	args := vm.demarshalArgs(def.Type.Args, raw)
	if def.HostFunctionID != 0 {
		result, err := vm.callFunc(def, args, frameBase)
		for _, v := range raw {
			v.Release()
		}
		return result, err
	}
	return vm.callFunc(def, args, frameBase)
}

// demarshalArgs walks paramTypes positionally against the raw pushed
// values, discarding the leading typeid slot a `dynamic`-typed host
// parameter carries (the two-slot convention) — a value.Value is
// already self-describing, so only the trailing value slot is kept.
func (vm *Interpreter) demarshalArgs(paramTypes []*types.TypeID, raw []value.Value) []value.Value {
	args := make([]value.Value, len(paramTypes))
	ri := 0
	for i, pt := range paramTypes {
		if pt.Kind == types.KindDynamic {
			ri++ // skip the duplicate typeid slot
		}
		args[i] = raw[ri]
		ri++
	}
	return args
}

func (vm *Interpreter) popN(n int) []value.Value {
	out := vm.pushArea[len(vm.pushArea)-n:]
	vm.pushArea = vm.pushArea[:len(vm.pushArea)-n]
	return out
}

// doConstruct pops this construction's marshalled arguments and builds
// the value instr.InstrType names: a struct, a vector, a dict, or a
// primitive coercion per the closed table in value.CoerceConstruct.
// The popped references transfer into the constructed container's
// members; for a primitive coercion the single popped reference either
// transfers to the passthrough result or is dropped with the consumed
// source value.
func (vm *Interpreter) doConstruct(instr bytecode.Instruction, frameBase int) (value.Value, error) {
	target := vm.prog.Types.At(instr.InstrType)
	args := vm.popN(int(instr.Reg3.Index))

	switch target.Kind {
	case types.KindStruct:
		members := make([]value.Value, len(args))
		copy(members, args)
		return value.Struct(target, members), nil
	case types.KindVector:
		elems := make([]value.Value, len(args))
		copy(elems, args)
		return value.Vector(target.Element, elems), nil
	case types.KindDict:
		entries := make(map[string]value.Value, len(args))
		for i, a := range args {
			entries[instr.Keys[i]] = a
		}
		return value.Dict(target.Element, entries), nil
	default:
		result, err := value.CoerceConstruct(target, args[0])
		if err != nil {
			return value.Value{}, newRuntimeError(JSONTypeMismatch, "%s(%s): %s", target, args[0].Type, err)
		}
		if result.Ext != args[0].Ext {
			args[0].Release()
		}
		return result, nil
	}
}

func (vm *Interpreter) lookupElement(coll, key value.Value) (value.Value, error) {
	switch coll.Type.Kind {
	case types.KindVector:
		idx := int(key.I)
		if idx < 0 || idx >= len(coll.Ext.Vector) {
			return value.Value{}, newRuntimeError(LookupOutOfBounds, "vector index %d out of bounds (len %d)", idx, len(coll.Ext.Vector))
		}
		return coll.Ext.Vector[idx], nil
	case types.KindDict:
		v, ok := coll.Ext.Dict[key.Ext.Str]
		if !ok {
			return value.Value{}, newRuntimeError(DictKeyMissing, "dict has no key %q", key.Ext.Str)
		}
		return v, nil
	case types.KindString:
		runes := []rune(coll.Ext.Str)
		idx := int(key.I)
		if idx < 0 || idx >= len(runes) {
			return value.Value{}, newRuntimeError(StringIndexOutOfBounds, "string index %d out of bounds (len %d)", idx, len(runes))
		}
		return value.Str(string(runes[idx])), nil
	case types.KindJSONValue:
		return vm.lookupJSONElement(coll.Ext.JSON, key)
	default:
		return value.Value{}, newRuntimeError(LookupOutOfBounds, "cannot index into %s", coll.Type)
	}
}

func (vm *Interpreter) lookupJSONElement(j interface{}, key value.Value) (value.Value, error) {
	switch container := j.(type) {
	case []interface{}:
		idx := int(key.I)
		if idx < 0 || idx >= len(container) {
			return value.Value{}, newRuntimeError(LookupOutOfBounds, "json_value array index %d out of bounds (len %d)", idx, len(container))
		}
		return value.JSON(container[idx]), nil
	case map[string]interface{}:
		v, ok := container[key.Ext.Str]
		if !ok {
			return value.Value{}, newRuntimeError(DictKeyMissing, "json_value object has no key %q", key.Ext.Str)
		}
		return value.JSON(v), nil
	default:
		return value.Value{}, newRuntimeError(JSONTypeMismatch, "json_value is not indexable")
	}
}

func (vm *Interpreter) compare(op bytecode.Opcode, l, r value.Value) (value.Value, error) {
	lf, rf, isFloat := numericOperands(l, r)
	var cmp bool
	switch op {
	case OpCmpLess:
		cmp = less(lf, rf, isFloat, l, r)
	case OpCmpLessEqual:
		cmp = lessEqual(lf, rf, isFloat, l, r)
	case OpCmpGreater:
		cmp = !lessEqual(lf, rf, isFloat, l, r)
	case OpCmpGreaterEqual:
		cmp = !less(lf, rf, isFloat, l, r)
	}
	return value.Bool(cmp), nil
}

func less(lf, rf float64, isFloat bool, l, r value.Value) bool {
	if l.Type.Kind == types.KindString {
		return l.Ext.Str < r.Ext.Str
	}
	if isFloat {
		return lf < rf
	}
	return l.I < r.I
}

func lessEqual(lf, rf float64, isFloat bool, l, r value.Value) bool {
	if l.Type.Kind == types.KindString {
		return l.Ext.Str <= r.Ext.Str
	}
	if isFloat {
		return lf <= rf
	}
	return l.I <= r.I
}

func numericOperands(l, r value.Value) (float64, float64, bool) {
	if l.Type.Kind == types.KindFloat || r.Type.Kind == types.KindFloat {
		lf, rf := l.F, r.F
		if l.Type.Kind == types.KindInt {
			lf = float64(l.I)
		}
		if r.Type.Kind == types.KindInt {
			rf = float64(r.I)
		}
		return lf, rf, true
	}
	return 0, 0, false
}

func (vm *Interpreter) arith(op bytecode.Opcode, l, r value.Value) (value.Value, error) {
	if l.Type.Kind == types.KindString {
		if op != OpArithAdd {
			return value.Value{}, newRuntimeError(JSONTypeMismatch, "operator not defined for string")
		}
		return value.Str(l.Ext.Str + r.Ext.Str), nil
	}

	if l.Type.Kind == types.KindVector {
		if op != OpArithAdd {
			return value.Value{}, newRuntimeError(JSONTypeMismatch, "operator not defined for %s", l.Type)
		}
		elems := make([]value.Value, 0, len(l.Ext.Vector)+len(r.Ext.Vector))
		elems = append(elems, l.Ext.Vector...)
		elems = append(elems, r.Ext.Vector...)
		for _, e := range elems {
			e.Retain()
		}
		return value.Vector(l.Type.Element, elems), nil
	}

	if l.Type.Kind == types.KindFloat || r.Type.Kind == types.KindFloat {
		lf, rf, _ := numericOperands(l, r)
		switch op {
		case OpArithAdd:
			return value.Float(lf + rf), nil
		case OpArithSubtract:
			return value.Float(lf - rf), nil
		case OpArithMultiply:
			return value.Float(lf * rf), nil
		case OpArithDivide:
			if rf == 0 {
				return value.Value{}, newRuntimeError(DivideByZero, "division by zero")
			}
			return value.Float(lf / rf), nil
		default:
			return value.Value{}, newRuntimeError(JSONTypeMismatch, "remainder not defined for float")
		}
	}

	switch op {
	case OpArithAdd:
		return value.Int(l.I + r.I), nil
	case OpArithSubtract:
		return value.Int(l.I - r.I), nil
	case OpArithMultiply:
		return value.Int(l.I * r.I), nil
	case OpArithDivide:
		if r.I == 0 {
			return value.Value{}, newRuntimeError(DivideByZero, "division by zero")
		}
		return value.Int(l.I / r.I), nil
	case OpArithRemainder:
		if r.I == 0 {
			return value.Value{}, newRuntimeError(DivideByZero, "division by zero")
		}
		return value.Int(l.I % r.I), nil
	default:
		return value.Value{}, newRuntimeError(JSONTypeMismatch, "unknown arithmetic operator")
	}
}
