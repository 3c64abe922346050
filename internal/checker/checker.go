// Package checker implements the two-pass static type checker: pass one
// registers every top-level function signature and checks top-level
// statements to build the global symbol table; pass two checks each
// function body against that table in a fresh two-level scope.
//
// Grounded on _examples/original_source/yasny/checker.py (`TypeChecker`,
// `_install_builtins`, `check`, `_check_function`, `_check_block`,
// `_check_stmt`, `_check_expr`, `_check_builtin_call`,
// `_index_access_type`) for exact semantics; Go idiom (explicit struct +
// methods, panic-based error signaling) follows this toolchain's other
// stages.
package checker

import (
	"fmt"

	"yasny/internal/ast"
	"yasny/internal/diagnostics"
	"yasny/internal/types"
)

// FunctionSignature is a resolved, arity-checked function shape: either a
// user-declared function or one of the fixed builtins installed at
// checker construction.
type FunctionSignature struct {
	Name       string
	Params     []types.Type
	ReturnType types.Type
	Builtin    bool
	IsAsync    bool
	Varargs    bool
}

// Result is everything downstream stages need out of a successful check:
// every function's resolved signature, keyed by name (builtins included).
type Result struct {
	FunctionSignatures map[string]FunctionSignature
}

// Checker holds the mutable state of one type-checking pass over one
// linked program. Not reused across programs.
type Checker struct {
	path     string
	sigs     map[string]FunctionSignature
	scopes   []map[string]types.Type
	globals  map[string]types.Type
	loopDepth int
}

func New(path string) *Checker {
	c := &Checker{
		path:    path,
		sigs:    make(map[string]FunctionSignature),
		globals: make(map[string]types.Type),
	}
	c.installBuiltins()
	return c
}

func (c *Checker) installBuiltins() {
	c.sigs["печать"] = FunctionSignature{Name: "печать", ReturnType: types.TVoid, Builtin: true, Varargs: true}
	c.sigs["длина"] = FunctionSignature{Name: "длина", ReturnType: types.TInt, Builtin: true}
	c.sigs["диапазон"] = FunctionSignature{Name: "диапазон", Params: []types.Type{types.TInt, types.TInt}, ReturnType: types.ListOf(types.TInt), Builtin: true}
	c.sigs["ввод"] = FunctionSignature{Name: "ввод", ReturnType: types.TString, Builtin: true}
	c.sigs["пауза"] = FunctionSignature{Name: "пауза", Params: []types.Type{types.TInt}, ReturnType: types.TVoid, Builtin: true}
	c.sigs["строка"] = FunctionSignature{Name: "строка", Params: []types.Type{types.TAny}, ReturnType: types.TString, Builtin: true}
	c.sigs["число"] = FunctionSignature{Name: "число", Params: []types.Type{types.TAny}, ReturnType: types.TInt, Builtin: true}
	c.sigs["запустить"] = FunctionSignature{Name: "запустить", Params: []types.Type{types.TString}, ReturnType: types.TTask, Builtin: true, Varargs: true}
	c.sigs["готово"] = FunctionSignature{Name: "готово", Params: []types.Type{types.TTask}, ReturnType: types.TBool, Builtin: true}
	c.sigs["ожидать"] = FunctionSignature{Name: "ожидать", Params: []types.Type{types.TTask}, ReturnType: types.TAny, Builtin: true}
	c.sigs["ожидать_все"] = FunctionSignature{Name: "ожидать_все", Params: []types.Type{types.ListOf(types.TTask)}, ReturnType: types.ListOf(types.TAny), Builtin: true}
	c.sigs["отменить"] = FunctionSignature{Name: "отменить", Params: []types.Type{types.TTask}, ReturnType: types.TBool, Builtin: true}
}

// Check type-checks program and returns every function's resolved
// signature. Panics with a *diagnostics.Error on any violation.
func (c *Checker) Check(program *ast.Program) *Result {
	var funcNodes []*ast.FuncDecl
	funcPos := make(map[string][2]int)

	for _, stmt := range program.Statements {
		fd, ok := stmt.(*ast.FuncDecl)
		if !ok {
			continue
		}
		if _, exists := c.sigs[fd.Name]; exists {
			panic(c.err(fmt.Sprintf("Функция '%s' уже объявлена", fd.Name), fd.Line, fd.Col))
		}
		paramTypes := make([]types.Type, len(fd.Params))
		for i, p := range fd.Params {
			paramTypes[i] = FromTypeNode(p.TypeNode, c.path)
		}
		returnType := FromTypeNode(fd.ReturnType, c.path)
		c.sigs[fd.Name] = FunctionSignature{
			Name: fd.Name, Params: paramTypes, ReturnType: returnType,
			Builtin: false, IsAsync: fd.IsAsync,
		}
		funcNodes = append(funcNodes, fd)
		funcPos[fd.Name] = [2]int{fd.Line, fd.Col}
	}

	c.pushScope()
	for _, stmt := range program.Statements {
		if _, ok := stmt.(*ast.FuncDecl); ok {
			continue
		}
		if c.checkStmt(stmt, nil) {
			line, col := stmt.Pos()
			panic(c.err("Возврат из функции вне контекста функции", line, col))
		}
	}
	for k, v := range c.scopes[len(c.scopes)-1] {
		c.globals[k] = v
	}
	c.popScope()

	for _, fn := range funcNodes {
		c.checkFunction(fn, c.sigs[fn.Name])
	}

	if mainSig, ok := c.sigs["main"]; ok {
		line, col := 1, 1
		if p, ok := funcPos["main"]; ok {
			line, col = p[0], p[1]
		}
		if len(mainSig.Params) > 0 {
			panic(c.err("Функция main должна быть без параметров", line, col))
		}
		if !types.Equal(mainSig.ReturnType, types.TVoid) {
			panic(c.err("Функция main должна возвращать Пусто", line, col))
		}
		if mainSig.IsAsync {
			panic(c.err("Функция main не может быть асинхронной", line, col))
		}
	}

	out := make(map[string]FunctionSignature, len(c.sigs))
	for k, v := range c.sigs {
		out[k] = v
	}
	return &Result{FunctionSignatures: out}
}

func (c *Checker) checkFunction(fn *ast.FuncDecl, sig FunctionSignature) {
	c.pushScope()
	for k, v := range c.globals {
		c.scopes[len(c.scopes)-1][k] = v
	}
	c.pushScope()
	for i, param := range fn.Params {
		c.defineVar(param.Name, sig.Params[i], param.Line, param.Col)
	}
	mustReturn := c.checkBlock(fn.Body, &sig.ReturnType)
	c.popScope()
	c.popScope()
	if !types.Equal(sig.ReturnType, types.TVoid) && !mustReturn {
		panic(c.err(fmt.Sprintf("Функция '%s' должна гарантированно возвращать %s", fn.Name, sig.ReturnType.String()), fn.Line, fn.Col))
	}
}

// checkBlock type-checks each statement in order and reports whether the
// block is guaranteed to return on every path.
func (c *Checker) checkBlock(body []ast.Stmt, currentReturnType *types.Type) bool {
	for _, stmt := range body {
		if c.checkStmt(stmt, currentReturnType) {
			return true
		}
	}
	return false
}

// checkStmt type-checks stmt and reports whether it guarantees a return on
// every path through it.
func (c *Checker) checkStmt(stmt ast.Stmt, currentReturnType *types.Type) bool {
	line, col := stmt.Pos()

	switch s := stmt.(type) {
	case *ast.ImportAll, *ast.ImportFrom:
		panic(c.err("Операторы подключения должны быть разрешены до типизации", line, col))

	case *ast.VarDecl:
		valueT := c.checkExpr(s.Value)
		if s.Annotation != nil {
			declaredT := FromTypeNode(s.Annotation, c.path)
			if !types.IsAssignable(declaredT, valueT) {
				panic(c.err(fmt.Sprintf("Тип переменной '%s' ожидается %s, получен %s", s.Name, declaredT, valueT), line, col))
			}
			c.defineVar(s.Name, declaredT, line, col)
		} else {
			c.defineVar(s.Name, valueT, line, col)
		}
		return false

	case *ast.AssignStmt:
		varT := c.resolveVar(s.Name, line, col)
		valueT := c.checkExpr(s.Value)
		if !types.IsAssignable(varT, valueT) {
			panic(c.err(fmt.Sprintf("Нельзя присвоить %s в переменную '%s' типа %s", valueT, s.Name, varT), line, col))
		}
		return false

	case *ast.IndexAssignStmt:
		targetT := c.checkExpr(s.Target)
		indexT := c.checkExpr(s.Index)
		valueT := c.checkExpr(s.Value)
		slotT := c.indexAccessType(targetT, indexT, line, col)
		if !types.IsAssignable(slotT, valueT) {
			panic(c.err(fmt.Sprintf("Нельзя записать %s в элемент типа %s", valueT, slotT), line, col))
		}
		return false

	case *ast.IfStmt:
		condLine, condCol := s.Condition.Pos()
		condT := c.checkExpr(s.Condition)
		if !types.Equal(condT, types.TBool) {
			panic(c.err("Условие 'если' должно иметь тип Лог", condLine, condCol))
		}
		c.pushScope()
		thenReturns := c.checkBlock(s.ThenBody, currentReturnType)
		c.popScope()
		elseReturns := false
		if s.ElseBody != nil {
			c.pushScope()
			elseReturns = c.checkBlock(s.ElseBody, currentReturnType)
			c.popScope()
		}
		return thenReturns && elseReturns && s.ElseBody != nil

	case *ast.WhileStmt:
		condLine, condCol := s.Condition.Pos()
		condT := c.checkExpr(s.Condition)
		if !types.Equal(condT, types.TBool) {
			panic(c.err("Условие 'пока' должно иметь тип Лог", condLine, condCol))
		}
		c.loopDepth++
		c.pushScope()
		c.checkBlock(s.Body, currentReturnType)
		c.popScope()
		c.loopDepth--
		return false

	case *ast.ForStmt:
		iterLine, iterCol := s.Iterable.Pos()
		itT := c.checkExpr(s.Iterable)
		var elemTypes []types.Type
		for _, variant := range types.Variants(itT) {
			if variant.Head != types.List {
				panic(c.err("Цикл 'для' поддерживает только Список[Т]", iterLine, iterCol))
			}
			elemTypes = append(elemTypes, variant.Args[0])
		}
		c.loopDepth++
		c.pushScope()
		c.defineVar(s.VarName, types.UnionOf(elemTypes...), line, col)
		c.checkBlock(s.Body, currentReturnType)
		c.popScope()
		c.loopDepth--
		return false

	case *ast.BreakStmt:
		if c.loopDepth <= 0 {
			panic(c.err("'прервать' допустим только внутри цикла", line, col))
		}
		return false

	case *ast.ContinueStmt:
		if c.loopDepth <= 0 {
			panic(c.err("'продолжить' допустим только внутри цикла", line, col))
		}
		return false

	case *ast.ReturnStmt:
		if currentReturnType == nil {
			panic(c.err("Оператор 'вернуть' разрешён только внутри функции", line, col))
		}
		valueT := c.checkExpr(s.Value)
		if !types.IsAssignable(*currentReturnType, valueT) {
			panic(c.err(fmt.Sprintf("Тип возвращаемого значения %s, ожидается %s", valueT, *currentReturnType), line, col))
		}
		return true

	case *ast.ExprStmt:
		c.checkExpr(s.Expr)
		return false

	case *ast.FuncDecl:
		panic(c.err("Вложенные объявления функций не поддерживаются", line, col))
	}

	panic(c.err("Неизвестный тип оператора", line, col))
}

func (c *Checker) checkExpr(expr ast.Expr) types.Type {
	line, col := expr.Pos()

	switch e := expr.(type) {
	case *ast.Literal:
		var t types.Type
		switch e.Kind {
		case ast.LitInt:
			t = types.TInt
		case ast.LitFloat:
			t = types.TFloat
		case ast.LitString:
			t = types.TString
		case ast.LitBool:
			t = types.TBool
		case ast.LitNull:
			t = types.TVoid
		default:
			panic(c.err("Неизвестный литерал", line, col))
		}
		e.SetType(t)
		return t

	case *ast.Identifier:
		t := c.resolveVar(e.Name, line, col)
		e.SetType(t)
		return t

	case *ast.MemberExpr:
		panic(c.err("Оператор '.' допустим только для пространств модулей и должен быть разрешён до типизации", line, col))

	case *ast.ListLiteral:
		if len(e.Elements) == 0 {
			panic(c.err("Пустой список без аннотации типа недопустим", line, col))
		}
		firstT := c.checkExpr(e.Elements[0])
		for _, item := range e.Elements[1:] {
			itemLine, itemCol := item.Pos()
			t := c.checkExpr(item)
			if !types.Equal(t, firstT) {
				panic(c.err(fmt.Sprintf("Элементы списка должны быть одного типа: %s и %s", firstT, t), itemLine, itemCol))
			}
		}
		result := types.ListOf(firstT)
		e.SetType(result)
		return result

	case *ast.DictLiteral:
		if len(e.Entries) == 0 {
			panic(c.err("Пустой словарь без аннотации типа недопустим", line, col))
		}
		firstKeyT := c.checkExpr(e.Entries[0].Key)
		firstValT := c.checkExpr(e.Entries[0].Value)
		for _, entry := range e.Entries[1:] {
			keyLine, keyCol := entry.Key.Pos()
			valLine, valCol := entry.Value.Pos()
			keyT := c.checkExpr(entry.Key)
			valT := c.checkExpr(entry.Value)
			if !types.Equal(keyT, firstKeyT) {
				panic(c.err(fmt.Sprintf("Ключи словаря должны быть одного типа: %s и %s", firstKeyT, keyT), keyLine, keyCol))
			}
			if !types.Equal(valT, firstValT) {
				panic(c.err(fmt.Sprintf("Значения словаря должны быть одного типа: %s и %s", firstValT, valT), valLine, valCol))
			}
		}
		result := types.DictOf(firstKeyT, firstValT)
		e.SetType(result)
		return result

	case *ast.UnaryExpr:
		operandT := c.checkExpr(e.Operand)
		switch e.Op {
		case "not":
			if !types.Equal(operandT, types.TBool) {
				panic(c.err("Оператор 'не' принимает только Лог", line, col))
			}
			e.SetType(types.TBool)
			return types.TBool
		case "neg":
			if !isNumericLike(operandT) {
				panic(c.err("Унарный '-' принимает только Цел/Дроб", line, col))
			}
			e.SetType(operandT)
			return operandT
		case "await":
			if !types.IsAssignable(types.TTask, operandT) {
				panic(c.err("Оператор 'ждать' принимает только Задача", line, col))
			}
			e.SetType(types.TAny)
			return types.TAny
		}
		panic(c.err(fmt.Sprintf("Неизвестный унарный оператор: %s", e.Op), line, col))

	case *ast.BinaryExpr:
		leftT := c.checkExpr(e.Left)
		rightT := c.checkExpr(e.Right)
		switch e.Op {
		case "+", "-", "*", "/", "%":
			if e.Op == "+" && types.Equal(leftT, types.TString) && types.Equal(rightT, types.TString) {
				e.SetType(types.TString)
				return types.TString
			}
			if !types.Equal(leftT, rightT) {
				panic(c.err(fmt.Sprintf("Операнды '%s' должны быть одного типа, получены %s и %s", e.Op, leftT, rightT), line, col))
			}
			if !isNumericLike(leftT) {
				panic(c.err(fmt.Sprintf("Оператор '%s' поддерживает только Цел/Дроб", e.Op), line, col))
			}
			e.SetType(leftT)
			return leftT
		case "==", "!=":
			if !types.Equal(leftT, rightT) {
				panic(c.err(fmt.Sprintf("Сравнение '%s' требует одинаковые типы, получены %s и %s", e.Op, leftT, rightT), line, col))
			}
			e.SetType(types.TBool)
			return types.TBool
		case "<", "<=", ">", ">=":
			if !types.Equal(leftT, rightT) {
				panic(c.err(fmt.Sprintf("Сравнение '%s' требует одинаковые типы, получены %s и %s", e.Op, leftT, rightT), line, col))
			}
			for _, variant := range types.Variants(leftT) {
				if !types.Equal(variant, types.TInt) && !types.Equal(variant, types.TFloat) && !types.Equal(variant, types.TString) {
					panic(c.err(fmt.Sprintf("Сравнение '%s' поддерживает Цел/Дроб/Строка", e.Op), line, col))
				}
			}
			e.SetType(types.TBool)
			return types.TBool
		case "и", "или":
			if !types.Equal(leftT, types.TBool) || !types.Equal(rightT, types.TBool) {
				panic(c.err("Операторы 'и/или' требуют Лог", line, col))
			}
			e.SetType(types.TBool)
			return types.TBool
		}
		panic(c.err(fmt.Sprintf("Неизвестный бинарный оператор: %s", e.Op), line, col))

	case *ast.IndexExpr:
		targetT := c.checkExpr(e.Target)
		indexT := c.checkExpr(e.Index)
		result := c.indexAccessType(targetT, indexT, line, col)
		e.SetType(result)
		return result

	case *ast.CallExpr:
		callee, ok := e.Callee.(*ast.Identifier)
		if !ok {
			panic(c.err("Вызов возможен только по имени функции", line, col))
		}
		argTypes := make([]types.Type, len(e.Args))
		for i, arg := range e.Args {
			argTypes[i] = c.checkExpr(arg)
		}
		sig, ok := c.sigs[callee.Name]
		if !ok {
			panic(c.err(fmt.Sprintf("Неизвестная функция: %s", callee.Name), line, col))
		}

		if sig.Builtin {
			result := c.checkBuiltinCall(e, callee.Name, argTypes)
			e.SetType(result)
			return result
		}

		if !sig.Varargs && len(argTypes) != len(sig.Params) {
			panic(c.err(fmt.Sprintf("Функция '%s' ожидает %d аргументов, передано %d", callee.Name, len(sig.Params), len(argTypes)), line, col))
		}
		for i, expected := range sig.Params {
			if i >= len(argTypes) {
				break
			}
			if !types.IsAssignable(expected, argTypes[i]) {
				panic(c.err(fmt.Sprintf("Аргумент %d функции '%s': ожидался %s, получен %s", i+1, callee.Name, expected, argTypes[i]), line, col))
			}
		}
		if sig.IsAsync {
			e.SetType(types.TTask)
			return types.TTask
		}
		e.SetType(sig.ReturnType)
		return sig.ReturnType
	}

	panic(c.err("Неизвестный тип выражения", line, col))
}

func (c *Checker) indexAccessType(targetT, indexT types.Type, line, col int) types.Type {
	var resultTypes []types.Type
	for _, variant := range types.Variants(targetT) {
		switch {
		case variant.Head == types.List:
			if !types.IsAssignable(types.TInt, indexT) {
				panic(c.err("Индекс списка должен иметь тип Цел", line, col))
			}
			resultTypes = append(resultTypes, variant.Args[0])
		case variant.Head == types.Dict:
			keyT, valueT := variant.Args[0], variant.Args[1]
			if !types.IsAssignable(keyT, indexT) {
				panic(c.err(fmt.Sprintf("Тип ключа словаря ожидается %s, получен %s", keyT, indexT), line, col))
			}
			resultTypes = append(resultTypes, valueT)
		case types.Equal(variant, types.TString):
			if !types.IsAssignable(types.TInt, indexT) {
				panic(c.err("Индекс строки должен иметь тип Цел", line, col))
			}
			resultTypes = append(resultTypes, types.TString)
		default:
			panic(c.err("Индексирование поддерживается только для Список/Словарь/Строка", line, col))
		}
	}
	return types.UnionOf(resultTypes...)
}

func (c *Checker) checkBuiltinCall(expr *ast.CallExpr, name string, argTypes []types.Type) types.Type {
	line, col := expr.Pos()
	switch name {
	case "печать":
		return types.TVoid
	case "длина":
		if len(argTypes) != 1 {
			panic(c.err("длина(x) принимает ровно 1 аргумент", line, col))
		}
		for _, variant := range types.Variants(argTypes[0]) {
			if !types.Equal(variant, types.TString) && variant.Head != types.List {
				panic(c.err("длина(x) поддерживает только Строка или Список[Т]", line, col))
			}
		}
		return types.TInt
	case "диапазон":
		if len(argTypes) != 2 {
			panic(c.err("диапазон(нач, конец) принимает 2 аргумента", line, col))
		}
		if !types.IsAssignable(types.TInt, argTypes[0]) || !types.IsAssignable(types.TInt, argTypes[1]) {
			panic(c.err("диапазон(нач, конец) принимает только Цел", line, col))
		}
		return types.ListOf(types.TInt)
	case "ввод":
		if len(argTypes) != 0 {
			panic(c.err("ввод() не принимает аргументы", line, col))
		}
		return types.TString
	case "пауза":
		if len(argTypes) != 1 {
			panic(c.err("пауза(мс) принимает ровно 1 аргумент", line, col))
		}
		if !types.IsAssignable(types.TInt, argTypes[0]) {
			panic(c.err("пауза(мс) принимает только Цел", line, col))
		}
		return types.TVoid
	case "строка":
		if len(argTypes) != 1 {
			panic(c.err("строка(x) принимает ровно 1 аргумент", line, col))
		}
		return types.TString
	case "число":
		if len(argTypes) != 1 {
			panic(c.err("число(x) принимает ровно 1 аргумент", line, col))
		}
		return types.TInt
	case "запустить":
		if len(argTypes) < 1 {
			panic(c.err("запустить(имя, ...args) требует минимум 1 аргумент", line, col))
		}
		if !types.IsAssignable(types.TString, argTypes[0]) {
			panic(c.err("Первый аргумент запустить(...) должен быть Строка", line, col))
		}
		return types.TTask
	case "готово":
		if len(argTypes) != 1 {
			panic(c.err("готово(задача) принимает ровно 1 аргумент", line, col))
		}
		if !types.IsAssignable(types.TTask, argTypes[0]) {
			panic(c.err("готово(задача) принимает только Задача", line, col))
		}
		return types.TBool
	case "ожидать":
		if len(argTypes) != 1 && len(argTypes) != 2 {
			panic(c.err("ожидать(задача[, таймаут_мс]) принимает 1 или 2 аргумента", line, col))
		}
		if !types.IsAssignable(types.TTask, argTypes[0]) {
			panic(c.err("Первый аргумент ожидать(...) должен быть Задача", line, col))
		}
		if len(argTypes) == 2 && !types.IsAssignable(types.TInt, argTypes[1]) {
			panic(c.err("Второй аргумент ожидать(...) должен быть Цел", line, col))
		}
		return types.TAny
	case "ожидать_все":
		if len(argTypes) != 1 && len(argTypes) != 2 {
			panic(c.err("ожидать_все(список_задач[, таймаут_мс]) принимает 1 или 2 аргумента", line, col))
		}
		expectedTasks := types.ListOf(types.TTask)
		if !types.IsAssignable(expectedTasks, argTypes[0]) {
			panic(c.err("Первый аргумент ожидать_все(...) должен быть Список[Задача]", line, col))
		}
		if len(argTypes) == 2 && !types.IsAssignable(types.TInt, argTypes[1]) {
			panic(c.err("Второй аргумент ожидать_все(...) должен быть Цел", line, col))
		}
		return types.ListOf(types.TAny)
	case "отменить":
		if len(argTypes) != 1 {
			panic(c.err("отменить(задача) принимает ровно 1 аргумент", line, col))
		}
		if !types.IsAssignable(types.TTask, argTypes[0]) {
			panic(c.err("отменить(задача) принимает только Задача", line, col))
		}
		return types.TBool
	}
	panic(c.err(fmt.Sprintf("Неизвестная встроенная функция: %s", name), line, col))
}

func (c *Checker) pushScope() { c.scopes = append(c.scopes, make(map[string]types.Type)) }
func (c *Checker) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) defineVar(name string, t types.Type, line, col int) {
	scope := c.scopes[len(c.scopes)-1]
	if _, ok := scope[name]; ok {
		panic(c.err(fmt.Sprintf("Переменная '%s' уже объявлена в этой области", name), line, col))
	}
	scope[name] = t
}

func (c *Checker) resolveVar(name string, line, col int) types.Type {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i][name]; ok {
			return t
		}
	}
	panic(c.err(fmt.Sprintf("Неизвестная переменная: %s", name), line, col))
}

func (c *Checker) err(message string, line, col int) *diagnostics.Error {
	return diagnostics.NewTypeError(message, c.path, line, col)
}

// isNumericLike reports whether t is Int or Float (spec.md §4.4): the only
// two heads the arithmetic operators and unary `-` accept.
func isNumericLike(t types.Type) bool {
	return t.Head == types.Int || t.Head == types.Float
}

// FromTypeNode resolves parsed type syntax into the checker's type
// algebra.
func FromTypeNode(node ast.TypeNode, path string) types.Type {
	line, col := node.Pos()
	switch n := node.(type) {
	case *ast.PrimitiveTypeNode:
		switch n.Name {
		case "Цел":
			return types.TInt
		case "Дроб":
			return types.TFloat
		case "Лог":
			return types.TBool
		case "Строка":
			return types.TString
		case "Пусто":
			return types.TVoid
		case "Любой":
			return types.TAny
		case "Задача":
			return types.TTask
		}
		panic(diagnostics.NewTypeError(fmt.Sprintf("Неизвестный примитивный тип: %s", n.Name), path, line, col))
	case *ast.ListTypeNode:
		return types.ListOf(FromTypeNode(n.Element, path))
	case *ast.DictTypeNode:
		return types.DictOf(FromTypeNode(n.Key, path), FromTypeNode(n.Value, path))
	case *ast.UnionTypeNode:
		variants := make([]types.Type, len(n.Variants))
		for i, v := range n.Variants {
			variants[i] = FromTypeNode(v, path)
		}
		return types.UnionOf(variants...)
	}
	panic(diagnostics.NewTypeError("Неизвестный узел типа", path, line, col))
}
