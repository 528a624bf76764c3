// Package floyd is the embedder API: the boundary the host-callable
// entry points (compile, new_interpreter, call_function, run_main,
// find_global, interpreter_to_json) present to whatever surrounds the
// execution core — a CLI, a test harness, an embedding application.
// Everything under internal/ is a private implementation detail of this
// one package's surface.
package floyd

import (
	"github.com/pkg/errors"

	"github.com/lineCode/floyd/internal/bytecode"
	"github.com/lineCode/floyd/internal/host"
	"github.com/lineCode/floyd/internal/parser"
	"github.com/lineCode/floyd/internal/semantic"
	"github.com/lineCode/floyd/internal/value"
	"github.com/lineCode/floyd/internal/vm"
)

// Program is a compiled bc_program, ready to be loaded into one or
// more interpreters via NewInterpreter.
type Program struct {
	prog *bytecode.Program
}

// Compile runs the full front end — parse, pass-2/pass-3 analysis,
// bytecode generation — over source and returns the resulting
// bc_program, or the first compile error encountered (always a
// positioned parse/type/name/arity error, never a RuntimeError).
// filename is used only for error positions.
func Compile(source, filename string) (*Program, error) {
	file, err := parser.ParseFile(source, filename)
	if err != nil {
		return nil, errors.Wrap(err, "parse error")
	}

	analyzer := semantic.NewWithHost(host.NewTable())
	result, err := analyzer.Analyze(file)
	if err != nil {
		return nil, errors.Wrap(err, "semantic error")
	}

	prog, err := bytecode.Generate(result)
	if err != nil {
		return nil, errors.Wrap(err, "bytecode generation error")
	}
	return &Program{prog: prog}, nil
}

// Interpreter is a running Floyd VM instance bound to one compiled
// Program.
type Interpreter struct {
	vm *vm.Interpreter
}

// NewInterpreter constructs an Interpreter for prog and runs its
// top-level bind statements once, surfacing any runtime error raised
// while doing so.
func NewInterpreter(prog *Program) (*Interpreter, error) {
	machine, err := vm.New(prog.prog, host.NewTable())
	if err != nil {
		return nil, err
	}
	return &Interpreter{vm: machine}, nil
}

// CallFunction calls a top-level Floyd function by name with already-
// constructed argument values, returning its result or a *vm.RuntimeError.
func (vmi *Interpreter) CallFunction(name string, args []value.Value) (value.Value, error) {
	return vmi.vm.CallFunction(name, args)
}

// CallFunctionValue calls a function value — typically one FindGlobal
// returned — with already-constructed argument values; CallFunction is
// the by-name convenience over this.
func (vmi *Interpreter) CallFunctionValue(fn value.Value, args []value.Value) (value.Value, error) {
	return vmi.vm.CallFunctionValue(fn, args)
}

// FindGlobal looks up a top-level binding (a `bind` global, or a
// function name) by its source name, returning NotFoundError if no such
// global exists. Struct names are not globals and are not found.
func (vmi *Interpreter) FindGlobal(name string) (value.Value, error) {
	v, ok := vmi.vm.FindGlobal(name)
	if !ok {
		return value.Value{}, &NotFoundError{Name: name}
	}
	return v, nil
}

// InterpreterToJSON returns a debug snapshot of vmi's compiled program
// and in-progress calls — VM state only, not
// anything main or a host call has printed; use PrintOutput for that.
func (vmi *Interpreter) InterpreterToJSON() map[string]interface{} {
	return vmi.vm.ToJSON()
}

// PrintOutput returns every line print has accumulated so far, in the
// order the program produced them.
func (vmi *Interpreter) PrintOutput() []string {
	return vmi.vm.PrintOutput()
}

// NotFoundError is returned by FindGlobal when name names no top-level
// binding in the program.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "no such global: " + e.Name
}

// RunMain is the convenience entry point: compile source, run its
// globals, look up `main`, and call it with args, each wrapped as a
// Floyd string value to match the conventional `int main(string a)`
// shape. It returns the constructed Interpreter (so the embedder can
// inspect print output or other globals afterward) alongside main's
// result.
func RunMain(source, filename string, args []string) (*Interpreter, value.Value, error) {
	prog, err := Compile(source, filename)
	if err != nil {
		return nil, value.Value{}, err
	}
	vmi, err := NewInterpreter(prog)
	if err != nil {
		return vmi, value.Value{}, err
	}
	if _, ok := prog.prog.FuncByName("main"); !ok {
		return vmi, value.Value{}, errors.New("no such function \"main\"")
	}
	callArgs := make([]value.Value, len(args))
	for i, a := range args {
		callArgs[i] = value.Str(a)
	}
	result, err := vmi.CallFunction("main", callArgs)
	return vmi, result, err
}
