// Package bytecode defines the structured instruction format the compiler
// emits and the VM executes, plus the two on-disk container formats: a
// bytecode container (magic YASNYBC1) and an application bundle that wraps
// one (magic YASNYAP1). Grounded on
// _examples/original_source/yasn/bc.py and .../build/lib/yasny/app_bundle.py
// — both JSON-payload-behind-a-magic-and-length-prefix formats, so the Go
// port keeps the same shape with encoding/json standing in for Python's
// json module and encoding/binary for struct.pack("<I", ...).
package bytecode

// Instruction is one `{op, args}` bytecode instruction (spec.md §3/§4.7).
// Args is a small ordered sequence of untyped constants: slot/jump-target
// integers, the callee name and argc for CALL, or an arbitrary literal
// value for CONST.
type Instruction struct {
	Op   string        `json:"op"`
	Args []interface{} `json:"args"`
}

// Function is one compiled function body.
type Function struct {
	Name         string        `json:"name"`
	Params       []string      `json:"params"`
	LocalCount   int           `json:"local_count"`
	Instructions []Instruction `json:"instructions"`
}

// Program is the full compiled unit: every user-defined function plus the
// synthetic entry function that runs top-level statements.
type Program struct {
	Functions   map[string]*Function `json:"functions"`
	Entry       *Function             `json:"entry"`
	GlobalCount int                   `json:"global_count"`
}

// NewProgram assembles a Program from its compiled pieces.
func NewProgram(functions map[string]*Function, entry *Function, globalCount int) *Program {
	return &Program{Functions: functions, Entry: entry, GlobalCount: globalCount}
}
