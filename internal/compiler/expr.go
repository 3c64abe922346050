package compiler

import (
	"yasny/internal/ast"
	"yasny/internal/bytecode"
)

var binaryOpcode = map[string]string{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul, "/": bytecode.OpDiv, "%": bytecode.OpMod,
	"==": bytecode.OpEq, "!=": bytecode.OpNe, "<": bytecode.OpLt, "<=": bytecode.OpLe, ">": bytecode.OpGt, ">=": bytecode.OpGe,
}

func (fc *funcCompiler) compileExpr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Literal:
		switch e.Kind {
		case ast.LitNull:
			fc.emit(bytecode.OpConstNull)
		default:
			fc.emit(bytecode.OpConst, e.Value)
		}

	case *ast.Identifier:
		line, col := e.Pos()
		slot, isGlobal := fc.resolve(e.Name, line, col)
		if isGlobal {
			fc.emit(bytecode.OpGLoad, slot)
		} else {
			fc.emit(bytecode.OpLoad, slot)
		}

	case *ast.ListLiteral:
		for _, el := range e.Elements {
			fc.compileExpr(el)
		}
		fc.emit(bytecode.OpMakeList, len(e.Elements))

	case *ast.DictLiteral:
		for _, entry := range e.Entries {
			fc.compileExpr(entry.Key)
			fc.compileExpr(entry.Value)
		}
		fc.emit(bytecode.OpMakeDict, len(e.Entries))

	case *ast.IndexExpr:
		fc.compileExpr(e.Target)
		fc.compileExpr(e.Index)
		fc.emit(bytecode.OpIndexGet)

	case *ast.MemberExpr:
		panic("compiler: MemberExpr must be rewritten away before compilation")

	case *ast.UnaryExpr:
		fc.compileExpr(e.Operand)
		switch e.Op {
		case "not":
			fc.emit(bytecode.OpNot)
		case "neg":
			fc.emit(bytecode.OpNeg)
		case "await":
			// `await e` blocks until the task handle e resolves and
			// yields its payload — exactly the "ожидать" (wait)
			// built-in's semantics (spec.md §4.8/§6), so it is lowered
			// as a call rather than given its own opcode.
			fc.emit(bytecode.OpCall, "ожидать", 1)
		}

	case *ast.BinaryExpr:
		switch e.Op {
		case "и":
			fc.compileShortCircuitAnd(e)
		case "или":
			fc.compileShortCircuitOr(e)
		default:
			fc.compileExpr(e.Left)
			fc.compileExpr(e.Right)
			op, ok := binaryOpcode[e.Op]
			if !ok {
				panic("compiler: unknown binary operator " + e.Op)
			}
			fc.emit(op)
		}

	case *ast.CallExpr:
		callee, ok := e.Callee.(*ast.Identifier)
		if !ok {
			panic("compiler: call target must be a resolved identifier")
		}
		if fc.asyncFuncs[callee.Name] {
			// A direct call to an async function spawns it and evaluates
			// to the resulting Task handle rather than running it
			// synchronously (spec.md §4.4) — lowered onto the existing
			// `запустить` builtin rather than inventing a second spawn
			// mechanism.
			fc.emit(bytecode.OpConst, callee.Name)
			for _, arg := range e.Args {
				fc.compileExpr(arg)
			}
			fc.emit(bytecode.OpCall, "запустить", len(e.Args)+1)
			return
		}
		for _, arg := range e.Args {
			fc.compileExpr(arg)
		}
		fc.emit(bytecode.OpCall, callee.Name, len(e.Args))

	default:
		panic("compiler: unhandled expression type")
	}
}

// compileShortCircuitAnd lowers `left и right` to branches that push a
// literal true/false and skip to a common end, never evaluating right when
// left is already false (spec.md §4.6).
func (fc *funcCompiler) compileShortCircuitAnd(e *ast.BinaryExpr) {
	fc.compileExpr(e.Left)
	leftFalse := fc.emit(bytecode.OpJmpFalse, 0)
	fc.compileExpr(e.Right)
	rightFalse := fc.emit(bytecode.OpJmpFalse, 0)
	fc.emit(bytecode.OpConst, true)
	jmpEnd := fc.emit(bytecode.OpJmp, 0)
	falseLabel := fc.here()
	fc.emit(bytecode.OpConst, false)
	fc.patch(leftFalse, falseLabel)
	fc.patch(rightFalse, falseLabel)
	fc.patch(jmpEnd, fc.here())
}

// compileShortCircuitOr lowers `left или right`, never evaluating right when
// left is already true (spec.md §4.6).
func (fc *funcCompiler) compileShortCircuitOr(e *ast.BinaryExpr) {
	fc.compileExpr(e.Left)
	checkRight := fc.emit(bytecode.OpJmpFalse, 0)
	fc.emit(bytecode.OpConst, true)
	leftTrueEnd := fc.emit(bytecode.OpJmp, 0)

	fc.patch(checkRight, fc.here())
	fc.compileExpr(e.Right)
	rightFalse := fc.emit(bytecode.OpJmpFalse, 0)
	fc.emit(bytecode.OpConst, true)
	rightTrueEnd := fc.emit(bytecode.OpJmp, 0)
	falseLabel := fc.here()
	fc.emit(bytecode.OpConst, false)
	end := fc.here()

	fc.patch(rightFalse, falseLabel)
	fc.patch(leftTrueEnd, end)
	fc.patch(rightTrueEnd, end)
}
