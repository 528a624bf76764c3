// Package vm implements Floyd's stack-based interpreter: the final
// stage of the execution pipeline, running a *bytecode.Program
// produced by internal/bytecode.
//
// EXECUTION MODEL: one shared value slice (Interpreter.stack) holds
// every live frame contiguously — globals permanently occupy
// stack[0:globalsFrameSize], and each call's frame is appended above
// whatever is currently on top. Call recursion is ordinary Go function
// recursion (callFunc calling itself through the instruction dispatch
// loop); Interpreter.frames is a parallel, debug-only list of which
// calls are in progress (see debug.go's ToJSON), not something the
// dispatch loop itself reads.
package vm

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/lineCode/floyd/internal/bytecode"
	"github.com/lineCode/floyd/internal/host"
	"github.com/lineCode/floyd/internal/types"
	"github.com/lineCode/floyd/internal/value"
	"github.com/lineCode/floyd/internal/xlog"
)

// Interpreter is one running Floyd program: a compiled *bytecode.Program
// plus all the runtime state a call into it touches.
type Interpreter struct {
	prog      *bytecode.Program
	hostTable *host.Table

	stack       []value.Value
	pushArea    []value.Value
	printOutput []string

	// frames records the calls currently in progress, outermost first —
	// ToJSON's callstack snapshot (see debug.go).
	frames []frame

	// reentry guards the outward-facing call entry points (CallFunction,
	// CallFunctionValue) against being invoked again while one of them
	// is already running on this Interpreter — Floyd's execution model is
	// single-threaded per interpreter instance. The globals initializer,
	// which New runs once, does not take it.
	reentry *semaphore.Weighted
}

// frame describes one active call for debug.go's callstack snapshot.
// size is 0 for a host-function call, which never opens a VM frame.
type frame struct {
	name string
	base int
	size int
}

// New creates an Interpreter for prog, bound to hostTable for
// host-function dispatch, and runs the globals initializer once.
func New(prog *bytecode.Program, hostTable *host.Table) (*Interpreter, error) {
	vm := &Interpreter{
		prog:      prog,
		hostTable: hostTable,
		stack:     make([]value.Value, prog.Globals.FrameSize),
		reentry:   semaphore.NewWeighted(1),
	}
	if err := vm.runGlobals(); err != nil {
		return nil, err
	}
	return vm, nil
}

// AppendPrintOutput implements internal/host.VM.
func (vm *Interpreter) AppendPrintOutput(line string) {
	vm.printOutput = append(vm.printOutput, line)
}

// PrintOutput returns every line print has accumulated so far, in order.
func (vm *Interpreter) PrintOutput() []string {
	return vm.printOutput
}

// FindGlobal looks up a top-level binding by name in the globals
// frame, reading directly off stack[0:Globals.FrameSize]
// since that range is permanently reserved for globals and never
// reused by a call frame.
func (vm *Interpreter) FindGlobal(name string) (value.Value, bool) {
	slot, ok := vm.prog.Globals.Names[name]
	if !ok {
		return value.Value{}, false
	}
	return vm.stack[slot], true
}

func (vm *Interpreter) acquire() error {
	if !vm.reentry.TryAcquire(1) {
		return ErrReentrantCall
	}
	return nil
}

func (vm *Interpreter) release() {
	vm.reentry.Release(1)
}

// runGlobals executes the globals frame's initializer instructions
// directly against stack[0:FrameSize] — the globals frame never gets a
// fresh frameBase the way a function call does, since it IS frame 0.
func (vm *Interpreter) runGlobals() error {
	def := vm.prog.Globals
	vm.openFrame(def.Consts, def.FrameSize, 0, -1, nil)
	_, err := vm.run(def.Instructions, 0)
	return err
}

// CallFunction calls a top-level Floyd function by name with already-
// constructed argument values.
func (vm *Interpreter) CallFunction(name string, args []value.Value) (value.Value, error) {
	if err := vm.acquire(); err != nil {
		return value.Value{}, err
	}
	defer vm.release()

	def, ok := vm.prog.FuncByName(name)
	if !ok {
		return value.Value{}, errors.Errorf("no such function %q", name)
	}
	return vm.callFunc(def, args, -1)
}

// CallFunctionValue calls a function value — typically one FindGlobal
// returned — with already-constructed argument values; CallFunction is
// the by-name convenience over this.
func (vm *Interpreter) CallFunctionValue(fn value.Value, args []value.Value) (value.Value, error) {
	if fn.Type == nil || fn.Type.Kind != types.KindFunction || fn.Ext == nil {
		return value.Value{}, errors.Errorf("not a function value: %s", fn.Type)
	}
	if err := vm.acquire(); err != nil {
		return value.Value{}, err
	}
	defer vm.release()

	id := fn.Ext.FuncID
	if id < 0 || id >= len(vm.prog.Funcs) {
		return value.Value{}, errors.Errorf("function value references unknown function %d", id)
	}
	return vm.callFunc(vm.prog.Funcs[id], args, -1)
}

// callFunc runs def with args already resolved, opening a fresh frame
// on top of vm.stack (or dispatching to the host table if def is a host
// function stub). callerBase is the frameBase of the Floyd frame making
// this call, or -1 if none (a top-level CallFunction/RunMain entry) —
// threaded explicitly rather than inferred from adjacent stack content,
// since Go's own call recursion (not a position in vm.stack) is what
// tracks "current frame" here.
func (vm *Interpreter) callFunc(def *bytecode.FuncDef, args []value.Value, callerBase int) (value.Value, error) {
	xlog.Debugf("vm", "call %s (%d args, depth %d)", def.Name, len(args), len(vm.frames)+1)

	if def.HostFunctionID != 0 {
		entry, ok := vm.hostTable.Lookup(def.HostFunctionID)
		if !ok {
			return value.Value{}, newRuntimeError(HostFunctionError, "unregistered host function %q (id %d)", def.Name, def.HostFunctionID)
		}
		vm.frames = append(vm.frames, frame{name: def.Name})
		result, err := entry.Impl(vm, args)
		vm.frames = vm.frames[:len(vm.frames)-1]
		if err != nil {
			return value.Value{}, newRuntimeError(HostFunctionError, "%s: %s", def.Name, err)
		}
		return result, nil
	}

	frameBase := len(vm.stack)
	vm.stack = append(vm.stack, make([]value.Value, def.FrameSize)...)
	vm.openFrame(def.Consts, def.FrameSize, frameBase, callerBase, args)
	vm.frames = append(vm.frames, frame{name: def.Name, base: frameBase, size: def.FrameSize})

	retVal, err := vm.run(def.Instructions, frameBase)

	vm.frames = vm.frames[:len(vm.frames)-1]
	vm.closeFrame(def.ExtBits, frameBase)
	vm.stack = vm.stack[:frameBase]

	if err != nil {
		return value.Value{}, err
	}
	return retVal, nil
}

// openFrame fills frame slots 1..FrameSize-1 with, in priority order: a
// caller-supplied argument, a compile-time constant, or the slot's zero
// value — and sets slot 0 to callerBase, the frame's back-pointer.
// Nothing reads slot 0 back: returns unwind through Go's own call
// recursion, and ToJSON's call-stack dump works from vm.frames.
func (vm *Interpreter) openFrame(consts map[int]interface{}, frameSize, frameBase, callerBase int, args []value.Value) {
	vm.stack[frameBase] = value.Value{Type: types.Int, I: int64(callerBase)}

	for slot := 1; slot < frameSize; slot++ {
		addr := frameBase + slot
		if argIdx := slot - 1; argIdx < len(args) {
			vm.stack[addr] = args[argIdx]
			continue
		}
		if cv, ok := consts[slot]; ok {
			vm.stack[addr] = vm.materializeConst(cv)
			continue
		}
		vm.stack[addr] = value.Value{}
	}
}

func (vm *Interpreter) materializeConst(cv interface{}) value.Value {
	switch c := cv.(type) {
	case bool:
		return value.Bool(c)
	case int64:
		return value.Int(c)
	case float64:
		return value.Float(c)
	case string:
		return value.Str(c)
	case bytecode.VoidConst:
		return value.Void()
	case bytecode.TypeConst:
		return value.TypeIDValue(vm.prog.Types.At(c.Index))
	case bytecode.FuncConst:
		fd := vm.prog.Funcs[c.ID]
		return value.Function(fd.Type, c.ID)
	default:
		panic(errors.Errorf("vm: unrecognized const value %#v", cv))
	}
}

// closeFrame releases every ext-bit frame slot. The return value's own
// extra retain (added by the OpReturn handler, before this call) is what
// keeps it alive through this uniform pass even when it lives in one of
// this very frame's slots.
func (vm *Interpreter) closeFrame(extBits []bool, frameBase int) {
	for slot := 1; slot < len(extBits); slot++ {
		if !extBits[slot] {
			continue
		}
		if v := vm.stack[frameBase+slot]; v.Ext != nil {
			v.Release()
		}
	}
}

func resolveAddr(ref bytecode.RegRef, frameBase int) int {
	if ref.ParentSteps < 0 {
		return int(ref.Index)
	}
	return frameBase + int(ref.Index)
}

// store writes val into ref's slot, releasing whatever ext value was
// there before. retain controls whether val itself needs an extra
// Retain first: true when val is an *existing* value being aliased into
// a second slot (a plain copy, a struct-member/element read, or an
// argument being pushed for marshalling); false when val was just
// freshly produced (arithmetic/comparison results, a fresh
// construct_value, or a call's/host call's return value, all of which
// already carry exactly the reference count their new owner needs).
func (vm *Interpreter) store(frameBase int, ref bytecode.RegRef, val value.Value, retain bool) {
	if retain {
		val.Retain()
	}
	addr := resolveAddr(ref, frameBase)
	if old := vm.stack[addr]; old.Ext != nil {
		old.Release()
	}
	vm.stack[addr] = val
}

func (vm *Interpreter) load(frameBase int, ref bytecode.RegRef) value.Value {
	return vm.stack[resolveAddr(ref, frameBase)]
}

// run executes instrs against the frame at frameBase until an
// OpReturn, returning the retained return value. A runtime fault is
// stamped with the faulting instruction's index here, in the
// innermost frame that raised it — a fault propagating up through
// callers keeps the index of the callee opcode that actually faulted.
func (vm *Interpreter) run(instrs []bytecode.Instruction, frameBase int) (value.Value, error) {
	ip := 0
	for ip < len(instrs) {
		next, retVal, done, err := vm.step(instrs[ip], frameBase)
		if err != nil {
			if re, ok := err.(*RuntimeError); ok && re.Instr < 0 {
				re.Instr = ip
			}
			return value.Value{}, err
		}
		if done {
			return retVal, nil
		}
		ip += next
	}
	return value.Void(), nil
}
