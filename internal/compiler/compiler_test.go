package compiler

import (
	"fmt"
	"testing"

	"yasny/internal/bytecode"
	"yasny/internal/checker"
	"yasny/internal/lexer"
	"yasny/internal/optimizer"
	"yasny/internal/parser"
)

func compileString(input string) (prog *bytecode.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("compiler panic: %v", r)
			}
			prog = nil
		}
	}()
	toks := lexer.New(input, "").Tokenize()
	parsed := parser.New(toks, "").Parse()
	checker.New("").Check(parsed)
	optimized := optimizer.Optimize(parsed)
	prog = Compile(optimized)
	return
}

func mustCompile(t *testing.T, input string) *bytecode.Program {
	t.Helper()
	prog, err := compileString(input)
	if err != nil {
		t.Fatalf("expected successful compilation, got error: %v", err)
	}
	return prog
}

func lastOp(instrs []bytecode.Instruction) string {
	if len(instrs) == 0 {
		return ""
	}
	return instrs[len(instrs)-1].Op
}

func countOp(instrs []bytecode.Instruction, op string) int {
	n := 0
	for _, in := range instrs {
		if in.Op == op {
			n++
		}
	}
	return n
}

func TestEntryWithoutMainJustHalts(t *testing.T) {
	prog := mustCompile(t, "пусть x = 1\n")
	if lastOp(prog.Entry.Instructions) != bytecode.OpHalt {
		t.Fatalf("expected entry to end in HALT, got %q", lastOp(prog.Entry.Instructions))
	}
	if countOp(prog.Entry.Instructions, bytecode.OpCall) != 0 {
		t.Fatalf("expected no CALL instruction without main")
	}
}

func TestEntryWithMainCallsItThenHalts(t *testing.T) {
	prog := mustCompile(t, "функция main() -> Пусто:\n    вернуть пусто\n")
	instrs := prog.Entry.Instructions
	if lastOp(instrs) != bytecode.OpHalt {
		t.Fatalf("expected HALT last, got %q", lastOp(instrs))
	}
	if instrs[len(instrs)-2].Op != bytecode.OpPop {
		t.Fatalf("expected POP before HALT, got %q", instrs[len(instrs)-2].Op)
	}
	if instrs[len(instrs)-3].Op != bytecode.OpCall {
		t.Fatalf("expected CALL before POP, got %q", instrs[len(instrs)-3].Op)
	}
}

func TestFunctionWithoutExplicitReturnGetsImplicitNullReturn(t *testing.T) {
	prog := mustCompile(t, "экспорт функция f() -> Пусто:\n    пусть x = 1\n")
	fn := prog.Functions["f"]
	instrs := fn.Instructions
	if lastOp(instrs) != bytecode.OpRet {
		t.Fatalf("expected implicit RET, got %q", lastOp(instrs))
	}
	if instrs[len(instrs)-2].Op != bytecode.OpConstNull {
		t.Fatalf("expected CONST_NULL before implicit RET, got %q", instrs[len(instrs)-2].Op)
	}
}

func TestGlobalVarDeclUsesGStore(t *testing.T) {
	prog := mustCompile(t, "пусть x = 1\nпусть y = x + 1\n")
	found := false
	for _, in := range prog.Entry.Instructions {
		if in.Op == bytecode.OpGStore {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected at least one GSTORE in entry, got %+v", prog.Entry.Instructions)
	}
	if countOp(prog.Entry.Instructions, bytecode.OpStore) != 0 {
		t.Fatalf("top-level let must never use STORE")
	}
}

func TestFunctionParamsAndLocalsUseStoreLoad(t *testing.T) {
	prog := mustCompile(t, "экспорт функция f(n: Цел) -> Цел:\n    пусть y = n + 1\n    вернуть y\n")
	fn := prog.Functions["f"]
	if countOp(fn.Instructions, bytecode.OpGLoad) != 0 || countOp(fn.Instructions, bytecode.OpGStore) != 0 {
		t.Fatalf("function locals must never use GLOAD/GSTORE, got %+v", fn.Instructions)
	}
	if countOp(fn.Instructions, bytecode.OpLoad) == 0 {
		t.Fatalf("expected at least one LOAD for parameter n")
	}
}

func TestFunctionCanReferenceTopLevelGlobal(t *testing.T) {
	prog := mustCompile(t, "пусть x = 1\nэкспорт функция f() -> Цел:\n    вернуть x\n")
	fn := prog.Functions["f"]
	if countOp(fn.Instructions, bytecode.OpGLoad) == 0 {
		t.Fatalf("expected function body to GLOAD the top-level global x, got %+v", fn.Instructions)
	}
}

func TestNestedTopLevelLetIsNotExposedAsGlobal(t *testing.T) {
	prog := mustCompile(t, "если истина:\n    пусть x = 1\nфункция f() -> Цел:\n    вернуть 1\n")
	// x is declared inside the if's own block scope; it must not leak into
	// the cross-function globals table used to resolve f's body.
	_ = prog
}

func TestIfElseEmitsJumpOverElse(t *testing.T) {
	prog := mustCompile(t, "экспорт функция f(b: Лог) -> Цел:\n    если b:\n        вернуть 1\n    иначе:\n        вернуть 2\n")
	fn := prog.Functions["f"]
	if countOp(fn.Instructions, bytecode.OpJmpFalse) != 1 || countOp(fn.Instructions, bytecode.OpJmp) != 1 {
		t.Fatalf("expected one JMP_FALSE and one JMP for if/else, got %+v", fn.Instructions)
	}
}

func TestWhileLoopContinueTargetsConditionRecheck(t *testing.T) {
	prog := mustCompile(t, "экспорт функция f() -> Пусто:\n    пока истина:\n        продолжить\n        прервать\n")
	fn := prog.Functions["f"]
	if countOp(fn.Instructions, bytecode.OpJmp) < 2 {
		t.Fatalf("expected at least two JMPs (continue + loop-back), got %+v", fn.Instructions)
	}
	for _, in := range fn.Instructions {
		if in.Op == bytecode.OpJmp && in.Args[0] != 0 {
			t.Fatalf("expected every JMP to target the condition at 0, got %+v", fn.Instructions)
		}
	}
}

func TestForLoopUsesLenAndIndexGet(t *testing.T) {
	prog := mustCompile(t, "экспорт функция f() -> Пусто:\n    для x в [1, 2, 3]:\n        печать(x)\n")
	fn := prog.Functions["f"]
	if countOp(fn.Instructions, bytecode.OpLen) == 0 {
		t.Fatalf("expected LEN in for-loop bound check, got %+v", fn.Instructions)
	}
	if countOp(fn.Instructions, bytecode.OpIndexGet) == 0 {
		t.Fatalf("expected INDEX_GET to read each element, got %+v", fn.Instructions)
	}
}

func TestCallEmitsCallWithArgc(t *testing.T) {
	prog := mustCompile(t, "функция g(a: Цел, b: Цел) -> Цел:\n    вернуть a + b\nэкспорт функция f() -> Цел:\n    вернуть g(1, 2)\n")
	fn := prog.Functions["f"]
	found := false
	for _, in := range fn.Instructions {
		if in.Op == bytecode.OpCall && in.Args[0] == "g" && in.Args[1] == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected CALL g 2, got %+v", fn.Instructions)
	}
}

func TestAwaitLowersToWaitCall(t *testing.T) {
	prog := mustCompile(t, "экспорт функция f() -> Пусто:\n    пусть t: Задача = запустить(\"g\")\n    пусть x = ждать t\nфункция g() -> Цел:\n    вернуть 1\n")
	fn := prog.Functions["f"]
	found := false
	for _, in := range fn.Instructions {
		if in.Op == bytecode.OpCall && in.Args[0] == "ожидать" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected `ждать t` to lower to CALL ожидать 1, got %+v", fn.Instructions)
	}
}

func TestIndexAssignEmitsIndexSetThenPop(t *testing.T) {
	prog := mustCompile(t, "пусть x = [1, 2, 3]\nx[0] = 9\n")
	instrs := prog.Entry.Instructions
	found := false
	for i, in := range instrs {
		if in.Op == bytecode.OpIndexSet {
			found = true
			if i+1 >= len(instrs) || instrs[i+1].Op != bytecode.OpPop {
				t.Fatalf("expected POP right after INDEX_SET, got %+v", instrs)
			}
		}
	}
	if !found {
		t.Fatalf("expected INDEX_SET for indexed assignment, got %+v", instrs)
	}
}

func TestUnreachableFunctionIsTreeShakenBeforeCompile(t *testing.T) {
	prog := mustCompile(t, "функция unused() -> Цел:\n    вернуть 1\nфункция main() -> Пусто:\n    вернуть пусто\n")
	if _, ok := prog.Functions["unused"]; ok {
		t.Fatalf("expected tree-shaking to have already dropped `unused` before compilation")
	}
}
