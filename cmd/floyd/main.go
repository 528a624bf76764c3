// Command floyd is the CLI embedder for the Floyd execution core: it
// reads a source file, drives compile -> NewInterpreter -> RunMain,
// and maps the outcome to an exit code (0 success, 1 compile error,
// 2 runtime error, 3 usage error).
//
// Usage: floyd <source-file> [program-args...]
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/lineCode/floyd"
	"github.com/lineCode/floyd/internal/types"
	"github.com/lineCode/floyd/internal/value"
	"github.com/lineCode/floyd/internal/vm"
)

const (
	exitSuccess = 0
	exitCompile = 1
	exitRuntime = 2
	exitUsage   = 3
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <source-file> [program-args...]\n", args[0])
		return exitUsage
	}
	filename := args[1]
	programArgs := args[2:]

	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %v\n", filename, err)
		return exitUsage
	}

	vmi, result, err := floyd.RunMain(string(source), filename, programArgs)
	if err != nil {
		if _, isRuntime := vm.AsRuntimeError(err); isRuntime {
			fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
			return exitRuntime
		}
		fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
		return exitCompile
	}

	for _, line := range vmi.PrintOutput() {
		fmt.Println(line)
	}
	fmt.Printf("main returned: %s\n", formatValue(result))
	return exitSuccess
}

// formatValue renders a top-level result for CLI output; it is
// intentionally shallow (no nested container formatting) since that is
// what interpreter_to_json's recursive describeValue is for.
func formatValue(v value.Value) string {
	switch v.Type.Kind {
	case types.KindBool:
		return strconv.FormatBool(v.B)
	case types.KindInt:
		return strconv.FormatInt(v.I, 10)
	case types.KindFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case types.KindString:
		return v.Ext.Str
	case types.KindVoid:
		return "<void>"
	default:
		return fmt.Sprintf("<%s>", v.Type)
	}
}
