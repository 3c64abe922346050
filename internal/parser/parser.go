// internal/parser/parser.go
//
// Package parser implements a recursive-descent parser over the lexer's
// token stream, producing an internal/ast tree.
//
// Grounded on _examples/original_source/yasny/parser.py for the exact
// grammar and precedence ladder; Go idiom (match/check/consume/advance/peek
// helpers, panic-based error signaling caught by the pipeline driver)
// follows internal/parser/parser.go (teacher).
package parser

import (
	"fmt"

	"yasny/internal/ast"
	"yasny/internal/diagnostics"
	"yasny/internal/lexer"
)

var primitiveTypeNames = map[string]bool{
	"Цел": true, "Дроб": true, "Лог": true, "Строка": true,
	"Пусто": true, "Любой": true, "Задача": true,
}

type Parser struct {
	tokens  []lexer.Token
	pos     int
	path    string
}

func New(tokens []lexer.Token, path string) *Parser {
	return &Parser{tokens: tokens, path: path}
}

// Parse consumes the whole token stream and returns the program root. It
// panics with a *diagnostics.Error on any syntax error.
func (p *Parser) Parse() *ast.Program {
	p.consumeNewlines()
	var stmts []ast.Stmt
	for !p.check(lexer.TokenEOF) {
		stmts = append(stmts, p.statement())
		p.consumeNewlines()
	}
	return ast.NewProgram(stmts)
}

func (p *Parser) statement() ast.Stmt {
	tok := p.peek()

	switch tok.Type {
	case lexer.TokenExport:
		return p.exportStmt()
	case lexer.TokenLet:
		return p.varDecl(false)
	case lexer.TokenAsync:
		return p.asyncFuncDecl(false)
	case lexer.TokenFunc:
		return p.funcDecl(false, false)
	case lexer.TokenIf:
		return p.ifStmt()
	case lexer.TokenWhile:
		return p.whileStmt()
	case lexer.TokenFor:
		return p.forStmt()
	case lexer.TokenImport:
		return p.importAllStmt()
	case lexer.TokenFrom:
		return p.importFromStmt()
	case lexer.TokenReturn:
		return p.returnStmt()
	case lexer.TokenBreak:
		return p.breakStmt()
	case lexer.TokenContinue:
		return p.continueStmt()
	}

	expr := p.expression()
	if p.match(lexer.TokenAssign) {
		value := p.expression()
		p.consume(lexer.TokenNewline, "Ожидался перевод строки после присваивания")
		line, col := expr.Pos()
		switch e := expr.(type) {
		case *ast.Identifier:
			return ast.NewAssignStmt(line, col, e.Name, value)
		case *ast.IndexExpr:
			return ast.NewIndexAssignStmt(line, col, e.Target, e.Index, value)
		default:
			panic(diagnostics.NewSyntaxError("Левая часть присваивания должна быть переменной или индексатором", p.path, line, col))
		}
	}

	line, col := expr.Pos()
	p.consume(lexer.TokenNewline, "Ожидался перевод строки после выражения")
	return ast.NewExprStmt(line, col, expr)
}

func (p *Parser) exportStmt() ast.Stmt {
	start := p.consume(lexer.TokenExport, "Ожидалось 'экспорт'")
	switch {
	case p.check(lexer.TokenLet):
		return p.varDecl(true)
	case p.check(lexer.TokenAsync):
		return p.asyncFuncDecl(true)
	case p.check(lexer.TokenFunc):
		return p.funcDecl(true, false)
	}
	panic(diagnostics.NewSyntaxError("После 'экспорт' допускается только 'пусть', 'функция' или 'асинхронная функция'", p.path, start.Line, start.Col))
}

func (p *Parser) importAllStmt() ast.Stmt {
	start := p.consume(lexer.TokenImport, "Ожидалось 'подключить'")
	pathTok := p.consume(lexer.TokenString, "После 'подключить' ожидается строка с путём модуля")
	alias := ""
	if p.match(lexer.TokenAs) {
		aliasTok := p.consume(lexer.TokenIdent, "После 'как' ожидается имя пространства имён")
		alias = aliasTok.Text
	}
	p.consume(lexer.TokenNewline, "Ожидался перевод строки после оператора подключения")
	return ast.NewImportAll(start.Line, start.Col, pathTok.Value.(string), alias)
}

func (p *Parser) importFromStmt() ast.Stmt {
	start := p.consume(lexer.TokenFrom, "Ожидалось 'из'")
	pathTok := p.consume(lexer.TokenString, "После 'из' ожидается строка с путём модуля")
	p.consume(lexer.TokenImport, "Ожидалось 'подключить' после пути модуля")
	items := []ast.ImportItem{p.importItem()}
	for p.match(lexer.TokenComma) {
		items = append(items, p.importItem())
	}
	p.consume(lexer.TokenNewline, "Ожидался перевод строки после оператора подключения")
	return ast.NewImportFrom(start.Line, start.Col, pathTok.Value.(string), items)
}

func (p *Parser) importItem() ast.ImportItem {
	nameTok := p.consume(lexer.TokenIdent, "Ожидалось имя символа для подключения")
	alias := ""
	if p.match(lexer.TokenAs) {
		aliasTok := p.consume(lexer.TokenIdent, "После 'как' ожидается имя алиаса")
		alias = aliasTok.Text
	}
	return ast.ImportItem{Line: nameTok.Line, Col: nameTok.Col, Name: nameTok.Text, Alias: alias}
}

func (p *Parser) varDecl(exported bool) ast.Stmt {
	start := p.consume(lexer.TokenLet, "Ожидалось 'пусть'")
	nameTok := p.consume(lexer.TokenIdent, "Ожидалось имя переменной")
	var annotation ast.TypeNode
	if p.match(lexer.TokenColon) {
		annotation = p.typeExpr()
	}
	p.consume(lexer.TokenAssign, "Ожидался '=' в объявлении переменной")
	value := p.expression()
	p.consume(lexer.TokenNewline, "Ожидался перевод строки после объявления переменной")
	return ast.NewVarDecl(start.Line, start.Col, nameTok.Text, annotation, value, exported)
}

func (p *Parser) asyncFuncDecl(exported bool) ast.Stmt {
	start := p.consume(lexer.TokenAsync, "Ожидалось 'асинхронная'")
	p.consume(lexer.TokenFunc, "После 'асинхронная' ожидалось 'функция'")
	return p.funcDeclTail(start, exported, true)
}

func (p *Parser) funcDecl(exported, isAsync bool) ast.Stmt {
	start := p.consume(lexer.TokenFunc, "Ожидалось 'функция'")
	return p.funcDeclTail(start, exported, isAsync)
}

func (p *Parser) funcDeclTail(start lexer.Token, exported, isAsync bool) ast.Stmt {
	nameTok := p.consume(lexer.TokenIdent, "Ожидалось имя функции")
	p.consume(lexer.TokenLParen, "Ожидался '(' в объявлении функции")
	var params []ast.Param
	if !p.check(lexer.TokenRParen) {
		for {
			pName := p.consume(lexer.TokenIdent, "Ожидалось имя параметра")
			p.consume(lexer.TokenColon, "Ожидался ':' после имени параметра")
			pType := p.typeExpr()
			params = append(params, ast.Param{Line: pName.Line, Col: pName.Col, Name: pName.Text, TypeNode: pType})
			if !p.match(lexer.TokenComma) {
				break
			}
		}
	}
	p.consume(lexer.TokenRParen, "Ожидался ')' после параметров")
	p.consumeNewlines()
	p.consume(lexer.TokenArrow, "Ожидался '->' после параметров")
	p.consumeNewlines()
	returnType := p.typeExpr()
	p.consumeNewlines()
	p.consume(lexer.TokenColon, "Ожидался ':' после типа возвращаемого значения")
	body := p.block()
	return ast.NewFuncDecl(start.Line, start.Col, nameTok.Text, params, returnType, body, exported, isAsync)
}

func (p *Parser) ifStmt() ast.Stmt {
	start := p.consume(lexer.TokenIf, "Ожидалось 'если'")
	condition := p.expression()
	p.consume(lexer.TokenColon, "Ожидался ':' после условия")
	thenBody := p.block()
	var elseBody []ast.Stmt
	if p.match(lexer.TokenElse) {
		p.consume(lexer.TokenColon, "Ожидался ':' после 'иначе'")
		elseBody = p.block()
	}
	return ast.NewIfStmt(start.Line, start.Col, condition, thenBody, elseBody)
}

func (p *Parser) whileStmt() ast.Stmt {
	start := p.consume(lexer.TokenWhile, "Ожидалось 'пока'")
	condition := p.expression()
	p.consume(lexer.TokenColon, "Ожидался ':' после условия цикла")
	body := p.block()
	return ast.NewWhileStmt(start.Line, start.Col, condition, body)
}

func (p *Parser) forStmt() ast.Stmt {
	start := p.consume(lexer.TokenFor, "Ожидалось 'для'")
	nameTok := p.consume(lexer.TokenIdent, "Ожидалось имя переменной цикла")
	p.consume(lexer.TokenIn, "Ожидалось 'в' в цикле for")
	iterable := p.expression()
	p.consume(lexer.TokenColon, "Ожидался ':' после выражения цикла for")
	body := p.block()
	return ast.NewForStmt(start.Line, start.Col, nameTok.Text, iterable, body)
}

func (p *Parser) returnStmt() ast.Stmt {
	start := p.consume(lexer.TokenReturn, "Ожидалось 'вернуть'")
	if p.check(lexer.TokenNewline) {
		panic(diagnostics.NewSyntaxError("После 'вернуть' ожидается выражение или 'пусто'", p.path, start.Line, start.Col))
	}
	value := p.expression()
	p.consume(lexer.TokenNewline, "Ожидался перевод строки после 'вернуть'")
	return ast.NewReturnStmt(start.Line, start.Col, value)
}

func (p *Parser) breakStmt() ast.Stmt {
	tok := p.consume(lexer.TokenBreak, "Ожидалось 'прервать'")
	p.consume(lexer.TokenNewline, "Ожидался перевод строки после 'прервать'")
	return ast.NewBreakStmt(tok.Line, tok.Col)
}

func (p *Parser) continueStmt() ast.Stmt {
	tok := p.consume(lexer.TokenContinue, "Ожидалось 'продолжить'")
	p.consume(lexer.TokenNewline, "Ожидался перевод строки после 'продолжить'")
	return ast.NewContinueStmt(tok.Line, tok.Col)
}

func (p *Parser) block() []ast.Stmt {
	p.consume(lexer.TokenNewline, "Ожидался перевод строки после ':'")
	p.consume(lexer.TokenIndent, "Ожидался отступ блока")
	var body []ast.Stmt
	p.consumeNewlines()
	for !p.check(lexer.TokenDedent) && !p.check(lexer.TokenEOF) {
		body = append(body, p.statement())
		p.consumeNewlines()
	}
	p.consume(lexer.TokenDedent, "Ожидалось завершение блока")
	return body
}

// ---- type syntax ----

func (p *Parser) typeExpr() ast.TypeNode {
	variants := []ast.TypeNode{p.typeAtom()}
	for p.match(lexer.TokenPipe) {
		variants = append(variants, p.typeAtom())
	}
	if len(variants) == 1 {
		return variants[0]
	}
	line, col := variants[0].Pos()
	return ast.NewUnionTypeNode(line, col, variants)
}

func (p *Parser) typeAtom() ast.TypeNode {
	tok := p.peek()
	var node ast.TypeNode

	switch {
	case tok.Type == lexer.TokenIdent && primitiveTypeNames[tok.Text]:
		p.advance()
		node = ast.NewPrimitiveTypeNode(tok.Line, tok.Col, tok.Text)
	case tok.Type == lexer.TokenIdent && tok.Text == "Список":
		p.advance()
		p.consume(lexer.TokenLBracket, "Ожидался '[' после 'Список'")
		element := p.typeExpr()
		p.consume(lexer.TokenRBracket, "Ожидалась ']' после типа элемента списка")
		node = ast.NewListTypeNode(tok.Line, tok.Col, element)
	case tok.Type == lexer.TokenIdent && tok.Text == "Словарь":
		p.advance()
		p.consume(lexer.TokenLBracket, "Ожидался '[' после 'Словарь'")
		key := p.typeExpr()
		p.consume(lexer.TokenComma, "Ожидалась ',' между типами ключа и значения словаря")
		value := p.typeExpr()
		p.consume(lexer.TokenRBracket, "Ожидалась ']' после типов словаря")
		node = ast.NewDictTypeNode(tok.Line, tok.Col, key, value)
	case p.match(lexer.TokenLParen):
		node = p.typeExpr()
		p.consume(lexer.TokenRParen, "Ожидалась ')' после типа")
	default:
		panic(diagnostics.NewSyntaxError("Ожидался тип", p.path, tok.Line, tok.Col))
	}

	if p.match(lexer.TokenQuestion) {
		q := p.previous()
		line, col := node.Pos()
		nullT := ast.NewPrimitiveTypeNode(q.Line, q.Col, "Пусто")
		return ast.NewUnionTypeNode(line, col, []ast.TypeNode{node, nullT})
	}
	return node
}

// ---- expressions, lowest to highest precedence ----

func (p *Parser) expression() ast.Expr { return p.orExpr() }

func (p *Parser) orExpr() ast.Expr {
	expr := p.andExpr()
	for p.match(lexer.TokenOrKw) {
		opTok := p.previous()
		right := p.andExpr()
		expr = ast.NewBinaryExpr(opTok.Line, opTok.Col, expr, "или", right)
	}
	return expr
}

func (p *Parser) andExpr() ast.Expr {
	expr := p.comparison()
	for p.match(lexer.TokenAndKw) {
		opTok := p.previous()
		right := p.comparison()
		expr = ast.NewBinaryExpr(opTok.Line, opTok.Col, expr, "и", right)
	}
	return expr
}

func (p *Parser) comparison() ast.Expr {
	expr := p.additive()
	for p.matchAny(lexer.TokenEq, lexer.TokenNotEq, lexer.TokenLT, lexer.TokenLE, lexer.TokenGT, lexer.TokenGE) {
		opTok := p.previous()
		right := p.additive()
		expr = ast.NewBinaryExpr(opTok.Line, opTok.Col, expr, string(opTok.Type), right)
	}
	return expr
}

func (p *Parser) additive() ast.Expr {
	expr := p.multiplicative()
	for p.matchAny(lexer.TokenPlus, lexer.TokenMinus) {
		opTok := p.previous()
		right := p.multiplicative()
		expr = ast.NewBinaryExpr(opTok.Line, opTok.Col, expr, string(opTok.Type), right)
	}
	return expr
}

func (p *Parser) multiplicative() ast.Expr {
	expr := p.unary()
	for p.matchAny(lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent) {
		opTok := p.previous()
		right := p.unary()
		expr = ast.NewBinaryExpr(opTok.Line, opTok.Col, expr, string(opTok.Type), right)
	}
	return expr
}

func (p *Parser) unary() ast.Expr {
	if p.match(lexer.TokenAwait) {
		opTok := p.previous()
		operand := p.unary()
		return ast.NewUnaryExpr(opTok.Line, opTok.Col, "await", operand)
	}
	if p.matchAny(lexer.TokenNotKw, lexer.TokenMinus) {
		opTok := p.previous()
		op := "not"
		if opTok.Type == lexer.TokenMinus {
			op = "neg"
		}
		operand := p.unary()
		return ast.NewUnaryExpr(opTok.Line, opTok.Col, op, operand)
	}
	return p.postfix()
}

func (p *Parser) postfix() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(lexer.TokenLParen):
			lpar := p.previous()
			var args []ast.Expr
			if !p.check(lexer.TokenRParen) {
				for {
					args = append(args, p.expression())
					if !p.match(lexer.TokenComma) {
						break
					}
				}
			}
			p.consume(lexer.TokenRParen, "Ожидалась ')' после аргументов")
			expr = ast.NewCallExpr(lpar.Line, lpar.Col, expr, args)
			continue
		case p.match(lexer.TokenLBracket):
			lbr := p.previous()
			idx := p.expression()
			p.consume(lexer.TokenRBracket, "Ожидалась ']' после индексатора")
			expr = ast.NewIndexExpr(lbr.Line, lbr.Col, expr, idx)
			continue
		case p.match(lexer.TokenDot):
			dot := p.previous()
			member := p.consume(lexer.TokenIdent, "Ожидалось имя члена после '.'")
			expr = ast.NewMemberExpr(dot.Line, dot.Col, expr, member.Text)
			continue
		}
		break
	}
	return expr
}

func (p *Parser) primary() ast.Expr {
	tok := p.peek()

	switch {
	case p.match(lexer.TokenInt):
		t := p.previous()
		return ast.NewLiteral(t.Line, t.Col, ast.LitInt, t.Value)
	case p.match(lexer.TokenFloat):
		t := p.previous()
		return ast.NewLiteral(t.Line, t.Col, ast.LitFloat, t.Value)
	case p.match(lexer.TokenString):
		t := p.previous()
		return ast.NewLiteral(t.Line, t.Col, ast.LitString, t.Value)
	case p.match(lexer.TokenTrue):
		t := p.previous()
		return ast.NewLiteral(t.Line, t.Col, ast.LitBool, true)
	case p.match(lexer.TokenFalse):
		t := p.previous()
		return ast.NewLiteral(t.Line, t.Col, ast.LitBool, false)
	case p.match(lexer.TokenNull):
		t := p.previous()
		return ast.NewLiteral(t.Line, t.Col, ast.LitNull, nil)
	case p.match(lexer.TokenIdent):
		t := p.previous()
		return ast.NewIdentifier(t.Line, t.Col, t.Text)
	case p.match(lexer.TokenLParen):
		expr := p.expression()
		p.consume(lexer.TokenRParen, "Ожидалась ')' после выражения")
		return expr
	case p.match(lexer.TokenLBracket):
		lbr := p.previous()
		var elements []ast.Expr
		if !p.check(lexer.TokenRBracket) {
			for {
				elements = append(elements, p.expression())
				if !p.match(lexer.TokenComma) {
					break
				}
			}
		}
		p.consume(lexer.TokenRBracket, "Ожидалась ']' после литерала списка")
		return ast.NewListLiteral(lbr.Line, lbr.Col, elements)
	case p.match(lexer.TokenLBrace):
		lbr := p.previous()
		var entries []ast.DictEntry
		if !p.check(lexer.TokenRBrace) {
			for {
				key := p.expression()
				p.consume(lexer.TokenColon, "Ожидался ':' между ключом и значением словаря")
				value := p.expression()
				entries = append(entries, ast.DictEntry{Key: key, Value: value})
				if !p.match(lexer.TokenComma) {
					break
				}
			}
		}
		p.consume(lexer.TokenRBrace, "Ожидалась '}' после литерала словаря")
		return ast.NewDictLiteral(lbr.Line, lbr.Col, entries)
	}

	panic(diagnostics.NewSyntaxError("Ожидалось выражение", p.path, tok.Line, tok.Col))
}

// ---- token stream helpers ----

func (p *Parser) consumeNewlines() {
	for p.match(lexer.TokenNewline) {
	}
}

func (p *Parser) previous() lexer.Token { return p.tokens[p.pos-1] }

func (p *Parser) peek() lexer.Token { return p.tokens[p.pos] }

func (p *Parser) isAtEnd() bool { return p.peek().Type == lexer.TokenEOF }

func (p *Parser) advance() lexer.Token {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

func (p *Parser) check(t lexer.TokenType) bool {
	if p.isAtEnd() && t != lexer.TokenEOF {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchAny(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(t lexer.TokenType, msg string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	tok := p.peek()
	panic(diagnostics.NewSyntaxError(fmt.Sprintf("%s (получено %q)", msg, tok.Text), p.path, tok.Line, tok.Col))
}
