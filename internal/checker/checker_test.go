package checker

import (
	"fmt"
	"testing"

	"yasny/internal/ast"
	"yasny/internal/lexer"
	"yasny/internal/parser"
)

func checkString(input string) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("checker panic: %v", r)
			}
			res = nil
		}
	}()
	toks := lexer.New(input, "").Tokenize()
	prog := parser.New(toks, "").Parse()
	res = New("").Check(prog)
	return
}

func assertChecks(t *testing.T, input, description string) *Result {
	t.Helper()
	res, err := checkString(input)
	if err != nil {
		t.Errorf("%s: expected success, got error: %v", description, err)
	}
	return res
}

func assertCheckError(t *testing.T, input, description string) {
	t.Helper()
	if _, err := checkString(input); err == nil {
		t.Errorf("%s: expected a type error, got none", description)
	}
}

func TestSimpleVarDeclInference(t *testing.T) {
	assertChecks(t, "пусть x = 1\nпусть y: Дроб = 1.5\n", "basic var decls")
}

func TestVarDeclTypeMismatch(t *testing.T) {
	assertCheckError(t, "пусть x: Цел = \"a\"\n", "string assigned to Цел")
}

func TestFunctionReturnTypeEnforced(t *testing.T) {
	assertChecks(t, "функция f() -> Цел:\n    вернуть 1\n", "matching return")
	assertCheckError(t, "функция f() -> Цел:\n    вернуть \"a\"\n", "mismatched return")
}

func TestFunctionMustGuaranteeReturn(t *testing.T) {
	assertCheckError(t, "функция f() -> Цел:\n    если истина:\n        вернуть 1\n", "if without else doesn't guarantee return")
	assertChecks(t, "функция f() -> Цел:\n    если истина:\n        вернуть 1\n    иначе:\n        вернуть 2\n", "if/else both return")
}

func TestMainMustBeVoidNiladicSync(t *testing.T) {
	assertChecks(t, "функция main() -> Пусто:\n    вернуть пусто\n", "valid main")
	assertCheckError(t, "функция main(x: Цел) -> Пусто:\n    вернуть пусто\n", "main with params")
	assertCheckError(t, "функция main() -> Цел:\n    вернуть 1\n", "main not void")
	assertCheckError(t, "асинхронная функция main() -> Пусто:\n    вернуть пусто\n", "async main")
}

func TestBreakContinueOutsideLoopIsError(t *testing.T) {
	assertCheckError(t, "прервать\n", "break at top level")
	assertCheckError(t, "продолжить\n", "continue at top level")
	assertChecks(t, "пока ложь:\n    прервать\n    продолжить\n", "break/continue inside loop")
}

func TestForLoopOverListBindsElementType(t *testing.T) {
	assertChecks(t, "для x в диапазон(0, 10):\n    печать(x)\n", "for over List[Цел]")
	assertCheckError(t, "для x в 1:\n    печать(x)\n", "for over non-list")
}

func TestArithmeticRequiresSameNumericType(t *testing.T) {
	assertChecks(t, "пусть x = 1 + 2\n", "int + int")
	assertCheckError(t, "пусть x = 1 + 1.5\n", "int + float mismatch")
	assertChecks(t, "пусть x = \"a\" + \"b\"\n", "string + string")
	assertCheckError(t, "пусть x = \"a\" - \"b\"\n", "string minus not allowed")
}

func TestComparisonOperators(t *testing.T) {
	assertChecks(t, "пусть x = 1 < 2\n", "int <")
	assertChecks(t, "пусть x = \"a\" < \"b\"\n", "string <")
	assertCheckError(t, "пусть x = истина < ложь\n", "bool < not allowed")
}

func TestLogicalOperatorsRequireBool(t *testing.T) {
	assertChecks(t, "пусть x = истина и ложь\n", "bool and")
	assertCheckError(t, "пусть x = 1 и 2\n", "int and not allowed")
}

func TestAwaitRequiresTaskAndYieldsAny(t *testing.T) {
	assertChecks(t, "пусть t: Задача = запустить(\"f\")\nпусть x = ждать t\n", "await a task")
	assertCheckError(t, "пусть x = ждать 1\n", "await a non-task")
}

func TestIndexingListDictString(t *testing.T) {
	assertChecks(t, "пусть x = [1, 2, 3]\nпусть y = x[0]\n", "list index")
	assertChecks(t, "пусть x = {\"a\": 1}\nпусть y = x[\"a\"]\n", "dict index")
	assertChecks(t, "пусть x = \"abc\"\nпусть y = x[0]\n", "string index")
	assertCheckError(t, "пусть x = 1\nпусть y = x[0]\n", "index into Цел")
}

func TestListLiteralElementsMustMatch(t *testing.T) {
	assertCheckError(t, "пусть x = [1, \"a\"]\n", "mixed-type list")
	assertCheckError(t, "пусть x = []\n", "empty list literal without annotation")
}

func TestBuiltinCallArity(t *testing.T) {
	assertChecks(t, "печать(1, 2, 3)\n", "печать varargs")
	assertChecks(t, "пусть x = длина(\"abc\")\n", "длина on string")
	assertChecks(t, "пусть x = длина([1, 2])\n", "длина on list")
	assertCheckError(t, "пусть x = длина(1)\n", "длина on int")
	assertCheckError(t, "пусть x = диапазон(1)\n", "диапазон wrong arity")
}

func TestSpawnAndTaskBuiltins(t *testing.T) {
	assertChecks(t, "пусть t: Задача = запустить(\"имя\", 1, 2)\n", "запустить with extra args")
	assertCheckError(t, "пусть t = запустить(1)\n", "запустить requires string first arg")
	assertChecks(t, "пусть t: Задача = запустить(\"f\")\nпусть b = готово(t)\n", "готово on task")
	assertChecks(t, "пусть t: Задача = запустить(\"f\")\nпусть v = ожидать(t, 100)\n", "ожидать with timeout")
	assertChecks(t, "пусть lst: Список[Задача] = [запустить(\"f\")]\nпусть results = ожидать_все(lst)\n", "ожидать_все")
	assertChecks(t, "пусть t: Задача = запустить(\"f\")\nпусть c = отменить(t)\n", "отменить")
}

func TestUnknownVariableIsError(t *testing.T) {
	assertCheckError(t, "пусть x = y\n", "undefined variable reference")
}

func TestDuplicateFunctionDeclarationIsError(t *testing.T) {
	assertCheckError(t, "функция f() -> Цел:\n    вернуть 1\nфункция f() -> Цел:\n    вернуть 2\n", "duplicate function")
}

func TestNestedFunctionDeclarationIsError(t *testing.T) {
	assertCheckError(t, "функция f() -> Пусто:\n    функция g() -> Пусто:\n        вернуть пусто\n    вернуть пусто\n", "nested func decl")
}

func TestCheckResultExposesFunctionSignatures(t *testing.T) {
	res := assertChecks(t, "функция удвоить(x: Цел) -> Цел:\n    вернуть x * 2\n", "signature capture")
	if res == nil {
		return
	}
	sig, ok := res.FunctionSignatures["удвоить"]
	if !ok {
		t.Fatal("expected 'удвоить' in FunctionSignatures")
	}
	if len(sig.Params) != 1 {
		t.Fatalf("expected 1 param, got %d", len(sig.Params))
	}
}

func TestFromTypeNodeRoundTripsOptional(t *testing.T) {
	toks := lexer.New("пусть x: Цел? = пусто\n", "").Tokenize()
	prog := parser.New(toks, "").Parse()
	decl := prog.Statements[0].(*ast.VarDecl)
	tt := FromTypeNode(decl.Annotation, "")
	if tt.String() != "Int | Void" {
		t.Fatalf("expected Int | Void, got %s", tt.String())
	}
}
