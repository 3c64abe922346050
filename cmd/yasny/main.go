// Command yasny drives the lexer→parser→module resolver→checker→
// optimizer→compiler→bytecode→VM pipeline from the shell.
//
// Grounded on the *shape* of cmd/sentra/main.go (flat os.Args dispatch, one
// function per verb, recover-and-pretty-print around each pipeline stage)
// but reduced to the four verbs SPEC_FULL.md §2 actually calls for: the
// sub-command framework, project-runner, installer, and dependency fetcher
// the teacher carries are explicitly out of scope.
package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"yasny/internal/bytecode"
	"yasny/internal/checker"
	"yasny/internal/compiler"
	"yasny/internal/diagnostics"
	"yasny/internal/module"
	"yasny/internal/optimizer"
	"yasny/internal/vm"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	switch args[0] {
	case "run":
		cmdRun(args[1:])
	case "build":
		cmdBuild(args[1:])
	case "run-app":
		cmdRunApp(args[1:])
	case "call":
		cmdCall(args[1:])
	case "--help", "-h", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "yasny: неизвестная команда '%s'\n", args[0])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  yasny run <file>                  compile and execute a source file")
	fmt.Println("  yasny build <file> [-o out.yapp]  compile a source file into an application bundle")
	fmt.Println("  yasny run-app <bundle.yapp>        execute a previously built application bundle")
	fmt.Println("  yasny call <file> <func> [args]    compile a file and invoke one function, printing JSON")
}

// withDiagnostics recovers a *diagnostics.Error (or any other panic) raised
// by a pipeline stage, prints it to stderr, and exits 1 — the one place in
// this binary that catches what every stage panics with (SPEC_FULL.md §2).
func withDiagnostics(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if de, ok := r.(*diagnostics.Error); ok {
				fmt.Fprintln(os.Stderr, de.Error())
			} else {
				fmt.Fprintf(os.Stderr, "yasny: %v\n", r)
			}
			os.Exit(1)
		}
	}()
	fn()
}

// buildProgram runs every stage up to and including the compiler, producing
// a bytecode.Program ready for the VM.
func buildProgram(path string) *bytecode.Program {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "yasny: не удалось прочитать файл: %v\n", err)
		os.Exit(1)
	}
	linked := module.NewResolver().ResolveEntry(string(source), path)
	checker.New(path).Check(linked)
	optimized := optimizer.Optimize(linked)
	return compiler.Compile(optimized)
}

func cmdRun(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "yasny run: требуется файл")
		os.Exit(1)
	}
	path := args[0]
	withDiagnostics(func() {
		program := buildProgram(path)
		machine := vm.New(program, path)
		if err := machine.Run(); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	})
}

func cmdBuild(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "yasny build: требуется файл")
		os.Exit(1)
	}
	path := args[0]
	out := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".yapp"
	for i := 1; i < len(args); i++ {
		if args[i] == "-o" && i+1 < len(args) {
			out = args[i+1]
			i++
		}
	}
	appName := strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))

	withDiagnostics(func() {
		start := time.Now()
		program := buildProgram(path)
		bundle := bytecode.EncodeBundle(appName, program)
		elapsed := time.Since(start)

		if err := os.WriteFile(out, bundle, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "yasny: не удалось записать бандл: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s: собрано %s за %s\n", out, humanize.Bytes(uint64(len(bundle))), elapsed.Round(time.Millisecond))
	})
}

func cmdRunApp(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "yasny run-app: требуется файл приложения")
		os.Exit(1)
	}
	path := args[0]
	withDiagnostics(func() {
		blob, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "yasny: не удалось прочитать бандл: %v\n", err)
			os.Exit(1)
		}
		_, program := bytecode.DecodeBundle(blob, path)
		machine := vm.New(program, path)
		if err := machine.Run(); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	})
}

// cmdCall is a local stand-in for spec.md §6's `POST /call` HTTP
// collaborator: it performs one VM.CallFunction and prints the same
// `{ok, data|error}` shape the out-of-scope HTTP server would return.
func cmdCall(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "yasny call: требуется файл и имя функции")
		os.Exit(1)
	}
	path, name := args[0], args[1]
	var rawArgs []interface{}
	if len(args) > 2 {
		if err := json.Unmarshal([]byte(args[2]), &rawArgs); err != nil {
			fmt.Fprintf(os.Stderr, "yasny call: аргументы должны быть JSON-массивом: %v\n", err)
			os.Exit(1)
		}
	}

	withDiagnostics(func() {
		program := buildProgram(path)
		machine := vm.New(program, path)
		callArgs := make([]vm.Value, len(rawArgs))
		for i, raw := range rawArgs {
			callArgs[i] = jsonToValue(raw)
		}

		result, err := machine.CallFunction(name, callArgs, true)
		out := map[string]interface{}{}
		if err != nil {
			out["ok"] = false
			out["error"] = err.Error()
		} else {
			out["ok"] = true
			out["data"] = vm.ToJSON(result)
		}
		enc, _ := json.Marshal(out)
		fmt.Println(string(enc))
	})
}

// jsonToValue converts one JSON-decoded argument into a runtime Value. A
// whole-valued JSON number becomes Цел (*big.Int); anything with a
// fractional part becomes Дробь (float64) — the `call` verb has no static
// signature to consult, so it picks the closer of the two numeric kinds
// from the literal's own shape.
func jsonToValue(raw interface{}) vm.Value {
	switch v := raw.(type) {
	case float64:
		if v == float64(int64(v)) {
			return big.NewInt(int64(v))
		}
		return v
	case []interface{}:
		out := make(vm.List, len(v))
		for i, el := range v {
			out[i] = jsonToValue(el)
		}
		return out
	default:
		return raw
	}
}
