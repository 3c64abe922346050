package compiler

import (
	"math/big"

	"yasny/internal/ast"
	"yasny/internal/bytecode"
)

// compileBlock lowers a statement list in the current lexical scope; callers
// that need a nested scope push and pop it around the call.
func (fc *funcCompiler) compileBlock(statements []ast.Stmt) {
	for _, stmt := range statements {
		fc.compileStmt(stmt)
	}
}

func (fc *funcCompiler) compileStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		fc.compileExpr(s.Value)
		slot := fc.define(s.Name)
		if fc.isEntry {
			fc.emit(bytecode.OpGStore, slot)
		} else {
			fc.emit(bytecode.OpStore, slot)
		}

	case *ast.AssignStmt:
		fc.compileExpr(s.Value)
		line, col := s.Pos()
		slot, isGlobal := fc.resolve(s.Name, line, col)
		if isGlobal {
			fc.emit(bytecode.OpGStore, slot)
		} else {
			fc.emit(bytecode.OpStore, slot)
		}

	case *ast.IndexAssignStmt:
		fc.compileExpr(s.Target)
		fc.compileExpr(s.Index)
		fc.compileExpr(s.Value)
		fc.emit(bytecode.OpIndexSet)
		fc.emit(bytecode.OpPop)

	case *ast.FuncDecl:
		// Top-level function declarations are compiled separately by
		// Compile; nested function declarations don't exist in this
		// language (spec.md Non-goals), so this case is unreachable in
		// practice but kept for defensive completeness.

	case *ast.IfStmt:
		fc.compileExpr(s.Condition)
		jumpToElse := fc.emit(bytecode.OpJmpFalse, 0)
		fc.pushScope()
		fc.compileBlock(s.ThenBody)
		fc.popScope()
		if len(s.ElseBody) == 0 {
			fc.patch(jumpToElse, fc.here())
			return
		}
		jumpOverElse := fc.emit(bytecode.OpJmp, 0)
		fc.patch(jumpToElse, fc.here())
		fc.pushScope()
		fc.compileBlock(s.ElseBody)
		fc.popScope()
		fc.patch(jumpOverElse, fc.here())

	case *ast.WhileStmt:
		head := fc.here()
		fc.compileExpr(s.Condition)
		exitJump := fc.emit(bytecode.OpJmpFalse, 0)
		fc.loops = append(fc.loops, &loopCtx{})
		fc.pushScope()
		fc.compileBlock(s.Body)
		fc.popScope()
		loop := fc.loops[len(fc.loops)-1]
		fc.loops = fc.loops[:len(fc.loops)-1]
		// continue targets the condition re-check (spec.md §4.6).
		for _, p := range loop.continuePatches {
			fc.patch(p, head)
		}
		fc.emit(bytecode.OpJmp, head)
		fc.patch(exitJump, fc.here())
		for _, p := range loop.breakPatches {
			fc.patch(p, fc.here())
		}

	case *ast.ForStmt:
		// `для x в iterable`: desugars to index-walking the evaluated
		// iterable once. Iterable is evaluated and stored to a hidden
		// slot; LEN gives the upper bound; a hidden index slot counts
		// up; each iteration reads iterable[index] into x.
		fc.compileExpr(s.Iterable)
		iterSlot := fc.define("<for-iter>")
		fc.storeSlot(iterSlot)
		fc.emit(bytecode.OpConst, big.NewInt(0))
		idxSlot := fc.define("<for-idx>")
		fc.storeSlot(idxSlot)

		head := fc.here()
		fc.loadSlot(idxSlot)
		fc.loadSlot(iterSlot)
		fc.emit(bytecode.OpLen)
		fc.emit(bytecode.OpLt)
		exitJump := fc.emit(bytecode.OpJmpFalse, 0)

		fc.pushScope()
		fc.loadSlot(iterSlot)
		fc.loadSlot(idxSlot)
		fc.emit(bytecode.OpIndexGet)
		varSlot := fc.define(s.VarName)
		fc.storeSlot(varSlot)

		fc.loops = append(fc.loops, &loopCtx{})
		fc.compileBlock(s.Body)
		loop := fc.loops[len(fc.loops)-1]
		fc.loops = fc.loops[:len(fc.loops)-1]
		fc.popScope()

		increment := fc.here()
		for _, p := range loop.continuePatches {
			// continue targets the increment label, not the head
			// (spec.md §4.6).
			fc.patch(p, increment)
		}
		fc.loadSlot(idxSlot)
		fc.emit(bytecode.OpConst, big.NewInt(1))
		fc.emit(bytecode.OpAdd)
		fc.storeSlot(idxSlot)
		fc.emit(bytecode.OpJmp, head)
		fc.patch(exitJump, fc.here())
		for _, p := range loop.breakPatches {
			fc.patch(p, fc.here())
		}

	case *ast.ReturnStmt:
		if s.Value == nil {
			fc.emit(bytecode.OpConstNull)
		} else {
			fc.compileExpr(s.Value)
		}
		fc.emit(bytecode.OpRet)

	case *ast.BreakStmt:
		loop := fc.loops[len(fc.loops)-1]
		loop.breakPatches = append(loop.breakPatches, fc.emit(bytecode.OpJmp, 0))

	case *ast.ContinueStmt:
		loop := fc.loops[len(fc.loops)-1]
		loop.continuePatches = append(loop.continuePatches, fc.emit(bytecode.OpJmp, 0))

	case *ast.ExprStmt:
		fc.compileExpr(s.Expr)
		fc.emit(bytecode.OpPop)

	case *ast.ImportAll, *ast.ImportFrom:
		// Never reach the compiler: internal/module resolves and strips
		// every import before the checker/optimizer run.

	default:
		panic("compiler: unhandled statement type")
	}
}

// storeSlot/loadSlot pick GSTORE/GLOAD vs STORE/LOAD for the entry compiler
// vs any other function compiler — used for the hidden bookkeeping slots a
// `for` loop introduces, which follow the same global/local rule as any
// other variable in their enclosing function.
func (fc *funcCompiler) storeSlot(slot int) {
	if fc.isEntry {
		fc.emit(bytecode.OpGStore, slot)
	} else {
		fc.emit(bytecode.OpStore, slot)
	}
}

func (fc *funcCompiler) loadSlot(slot int) {
	if fc.isEntry {
		fc.emit(bytecode.OpGLoad, slot)
	} else {
		fc.emit(bytecode.OpLoad, slot)
	}
}
