// Package diagnostics implements the single error kind shared by every
// stage of the toolchain: lexer, parser, module resolver, checker,
// optimizer, compiler, bytecode container, and VM.
package diagnostics

import "fmt"

// Stage names the pipeline stage that raised an Error. Used only for
// message prefixes; callers should not branch on it.
type Stage string

const (
	Syntax     Stage = "SyntaxError"
	Name       Stage = "NameError"
	TypeErr    Stage = "TypeError"
	Compile    Stage = "CompileError"
	Runtime    Stage = "RuntimeError"
	Container  Stage = "ContainerError"
)

// Position is a 1-based line/column pair. A nil *Position means the error
// carries no source location.
type Position struct {
	Line int
	Col  int
}

// Error is the one error kind every stage produces: a message, an
// optional position, and an optional source path.
type Error struct {
	Stage   Stage
	Message string
	Pos     *Position
	Path    string
}

func (e *Error) Error() string {
	if e.Pos == nil {
		if e.Path == "" {
			return fmt.Sprintf("%s: %s", e.Stage, e.Message)
		}
		return fmt.Sprintf("%s: %s (%s)", e.Stage, e.Message, e.Path)
	}
	path := e.Path
	if path == "" {
		path = "<stdin>"
	}
	return fmt.Sprintf("%s: %s\n  at %s:%d:%d", e.Stage, e.Message, path, e.Pos.Line, e.Pos.Col)
}

func at(line, col int) *Position {
	if line == 0 && col == 0 {
		return nil
	}
	return &Position{Line: line, Col: col}
}

func NewSyntaxError(message, path string, line, col int) *Error {
	return &Error{Stage: Syntax, Message: message, Pos: at(line, col), Path: path}
}

func NewNameError(message, path string, line, col int) *Error {
	return &Error{Stage: Name, Message: message, Pos: at(line, col), Path: path}
}

func NewTypeError(message, path string, line, col int) *Error {
	return &Error{Stage: TypeErr, Message: message, Pos: at(line, col), Path: path}
}

func NewCompileError(message, path string, line, col int) *Error {
	return &Error{Stage: Compile, Message: message, Pos: at(line, col), Path: path}
}

func NewRuntimeError(message, path string) *Error {
	return &Error{Stage: Runtime, Message: message, Path: path}
}

func NewContainerError(message, path string) *Error {
	return &Error{Stage: Container, Message: message, Path: path}
}

// WithPath returns a copy of e with Path set, if it was previously empty.
func (e *Error) WithPath(path string) *Error {
	if e.Path != "" {
		return e
	}
	cp := *e
	cp.Path = path
	return &cp
}
