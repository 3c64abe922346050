package vm

import (
	"math/big"
	"testing"

	"yasny/internal/checker"
	"yasny/internal/compiler"
	"yasny/internal/lexer"
	"yasny/internal/optimizer"
	"yasny/internal/parser"
)

func buildVM(t *testing.T, source string) *VM {
	t.Helper()
	toks := lexer.New(source, "").Tokenize()
	prog := parser.New(toks, "").Parse()
	checker.New("").Check(prog)
	optimized := optimizer.Optimize(prog)
	compiled := compiler.Compile(optimized)
	return New(compiled, "")
}

// callF builds source and calls its exported function f. main itself cannot
// be used here: the checker only accepts a main that returns Пусто.
func callF(t *testing.T, source string) Value {
	t.Helper()
	machine := buildVM(t, source)
	result, err := machine.CallFunction("f", nil, true)
	if err != nil {
		t.Fatalf("unexpected error calling f: %v", err)
	}
	return result
}

func bigInt(n int64) *big.Int { return big.NewInt(n) }

func TestArithmeticTruncatesDivisionTowardZero(t *testing.T) {
	result := callF(t, "экспорт функция f() -> Цел:\n    вернуть (0 - 7) / 2\n")
	got, ok := result.(*big.Int)
	if !ok || got.Cmp(bigInt(-3)) != 0 {
		t.Fatalf("expected -3 (truncation toward zero), got %v", result)
	}
}

func TestModuloOnNegativeIntFloorsTowardDivisor(t *testing.T) {
	// vm.py:102-104's `a % b` is Python's floor-mod: -7 % 2 == 1, taking
	// the divisor's sign, not the dividend's.
	result := callF(t, "экспорт функция f() -> Цел:\n    вернуть 0 - 7 % 2\n")
	got, ok := result.(*big.Int)
	if !ok || got.Cmp(bigInt(-1)) != 0 {
		t.Fatalf("expected -(7%%2)=-1, got %v", result)
	}
	result = callF(t, "экспорт функция f() -> Цел:\n    пусть a = 0 - 7\n    вернуть a % 2\n")
	got, ok = result.(*big.Int)
	if !ok || got.Cmp(bigInt(1)) != 0 {
		t.Fatalf("expected -7%%2=1 (floor-mod), got %v", result)
	}
}

func TestModuloOnFloatKeepsFractionalPart(t *testing.T) {
	result := callF(t, "экспорт функция f() -> Дроб:\n    вернуть 7.5 % 2.0\n")
	got, ok := result.(float64)
	if !ok || got != 1.5 {
		t.Fatalf("expected 7.5%%2.0=1.5, got %v", result)
	}
}

func TestIfElseSelectsBranch(t *testing.T) {
	result := callF(t, "экспорт функция f() -> Цел:\n    если 1 < 2:\n        вернуть 10\n    иначе:\n        вернуть 20\n")
	if got, ok := result.(*big.Int); !ok || got.Cmp(bigInt(10)) != 0 {
		t.Fatalf("expected 10, got %v", result)
	}
}

func TestWhileLoopAccumulates(t *testing.T) {
	src := "экспорт функция f() -> Цел:\n" +
		"    пусть total = 0\n" +
		"    пусть i = 0\n" +
		"    пока i < 5:\n" +
		"        total = total + i\n" +
		"        i = i + 1\n" +
		"    вернуть total\n"
	result := callF(t, src)
	if got, ok := result.(*big.Int); !ok || got.Cmp(bigInt(10)) != 0 {
		t.Fatalf("expected 0+1+2+3+4=10, got %v", result)
	}
}

func TestForLoopSumsListElements(t *testing.T) {
	src := "экспорт функция f() -> Цел:\n" +
		"    пусть total = 0\n" +
		"    для x в [1, 2, 3, 4]:\n" +
		"        total = total + x\n" +
		"    вернуть total\n"
	result := callF(t, src)
	if got, ok := result.(*big.Int); !ok || got.Cmp(bigInt(10)) != 0 {
		t.Fatalf("expected 10, got %v", result)
	}
}

func TestBreakAndContinueInsideWhile(t *testing.T) {
	src := "экспорт функция f() -> Цел:\n" +
		"    пусть total = 0\n" +
		"    пусть i = 0\n" +
		"    пока i < 10:\n" +
		"        i = i + 1\n" +
		"        если i == 5:\n" +
		"            прервать\n" +
		"        если i == 2:\n" +
		"            продолжить\n" +
		"        total = total + i\n" +
		"    вернуть total\n"
	// i goes 1,2,3,4,5: at i==2 `continue` skips adding 2; at i==5 `break`
	// happens before adding 5. Sum = 1 + 3 + 4 = 8.
	result := callF(t, src)
	if got, ok := result.(*big.Int); !ok || got.Cmp(bigInt(8)) != 0 {
		t.Fatalf("expected 8, got %v", result)
	}
}

func TestListIndexGetAndSet(t *testing.T) {
	src := "экспорт функция f() -> Цел:\n" +
		"    пусть xs = [1, 2, 3]\n" +
		"    xs[1] = 99\n" +
		"    вернуть xs[1]\n"
	result := callF(t, src)
	if got, ok := result.(*big.Int); !ok || got.Cmp(bigInt(99)) != 0 {
		t.Fatalf("expected 99, got %v", result)
	}
}

func TestDictIndexGetAndSet(t *testing.T) {
	src := "экспорт функция f() -> Цел:\n" +
		"    пусть d: Словарь[Строка, Цел] = {\"a\": 1}\n" +
		"    d[\"a\"] = 42\n" +
		"    вернуть d[\"a\"]\n"
	result := callF(t, src)
	if got, ok := result.(*big.Int); !ok || got.Cmp(bigInt(42)) != 0 {
		t.Fatalf("expected 42, got %v", result)
	}
}

func TestShortCircuitAndNeverEvaluatesRight(t *testing.T) {
	src := "пусть calls = 0\n" +
		"функция правда_со_счётчиком() -> Лог:\n" +
		"    calls = calls + 1\n" +
		"    вернуть истина\n" +
		"экспорт функция f() -> Цел:\n" +
		"    пусть r = ложь и правда_со_счётчиком()\n" +
		"    вернуть calls\n"
	result := callF(t, src)
	if got, ok := result.(*big.Int); !ok || got.Cmp(bigInt(0)) != 0 {
		t.Fatalf("expected right side of `и` to never run, calls=%v", result)
	}
}

func TestShortCircuitOrNeverEvaluatesRight(t *testing.T) {
	src := "пусть calls = 0\n" +
		"функция ложь_со_счётчиком() -> Лог:\n" +
		"    calls = calls + 1\n" +
		"    вернуть ложь\n" +
		"экспорт функция f() -> Цел:\n" +
		"    пусть r = истина или ложь_со_счётчиком()\n" +
		"    вернуть calls\n"
	result := callF(t, src)
	if got, ok := result.(*big.Int); !ok || got.Cmp(bigInt(0)) != 0 {
		t.Fatalf("expected right side of `или` to never run, calls=%v", result)
	}
}

func TestStringEqualityAndConcat(t *testing.T) {
	src := "экспорт функция f() -> Строка:\n    вернуть \"a\" + \"b\"\n"
	result := callF(t, src)
	if got, ok := result.(string); !ok || got != "ab" {
		t.Fatalf("expected \"ab\", got %v", result)
	}
	result = callF(t, "экспорт функция f() -> Лог:\n    вернуть \"a\" + \"b\" == \"ab\"\n")
	if got, ok := result.(bool); !ok || !got {
		t.Fatalf("expected \"a\" + \"b\" == \"ab\" to be истина, got %v", result)
	}
}

func TestAwaitLowersToBlockingWaitForSpawnedTask(t *testing.T) {
	src := "экспорт функция worker() -> Цел:\n    вернуть 41\n" +
		"экспорт функция f() -> Цел:\n" +
		"    пусть t: Задача = запустить(\"worker\")\n" +
		"    пусть x: Цел = ждать t\n" +
		"    вернуть x + 1\n"
	machine := buildVM(t, src)
	result, err := machine.CallFunction("f", nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := result.(*big.Int); !ok || got.Cmp(bigInt(42)) != 0 {
		t.Fatalf("expected 42, got %v", result)
	}
}

func TestCallingAnAsyncFunctionDirectlySpawnsATask(t *testing.T) {
	// spec.md §4.4: a direct call to an async function does not run
	// synchronously — it spawns the function and evaluates to the
	// resulting Task handle.
	src := "асинхронная функция медленно(n: Цел) -> Цел:\n    вернуть n * 2\n" +
		"экспорт функция f() -> Цел:\n" +
		"    пусть t: Задача = медленно(21)\n" +
		"    пусть x = ждать t\n" +
		"    вернуть x\n"
	machine := buildVM(t, src)
	result, err := machine.CallFunction("f", nil, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := result.(*big.Int); !ok || got.Cmp(bigInt(42)) != 0 {
		t.Fatalf("expected 42, got %v", result)
	}
}

func TestTaskDoneAndCancelAfterCompletion(t *testing.T) {
	src := "экспорт функция worker() -> Цел:\n    вернуть 7\n"
	machine := buildVM(t, src)
	task, err := machine.spawn("worker", nil)
	if err != nil {
		t.Fatalf("spawn failed: %v", err)
	}
	result, err := task.wait("", false, 0)
	if err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if got, ok := result.(*big.Int); !ok || got.Cmp(bigInt(7)) != 0 {
		t.Fatalf("expected 7, got %v", result)
	}
	if !task.isDone() {
		t.Fatalf("expected task to be done")
	}
	if task.tryCancel() {
		t.Fatalf("cancel on an already-finished task must return false")
	}
}

func TestUnknownFunctionCallIsRuntimeFatal(t *testing.T) {
	machine := buildVM(t, "функция main() -> Пусто:\n    вернуть пусто\n")
	if _, err := machine.CallFunction("нет_такой_функции", nil, true); err == nil {
		t.Fatalf("expected a runtime error for an unknown function")
	}
}

func TestArityMismatchAtCallTimeIsFatal(t *testing.T) {
	machine := buildVM(t, "экспорт функция f(a: Цел) -> Цел:\n    вернуть a\n")
	if _, err := machine.CallFunction("f", nil, true); err == nil {
		t.Fatalf("expected a runtime error for an arity mismatch")
	}
}

func TestFormatValueMatchesLanguageRenderings(t *testing.T) {
	if FormatValue(true) != "истина" {
		t.Fatalf("expected истина for true")
	}
	if FormatValue(false) != "ложь" {
		t.Fatalf("expected ложь for false")
	}
	if FormatValue(nil) != "пусто" {
		t.Fatalf("expected пусто for nil")
	}
	if FormatValue(List{bigInt(1), bigInt(2)}) != "[1, 2]" {
		t.Fatalf("expected bracketed list rendering")
	}
}
