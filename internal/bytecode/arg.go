package bytecode

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Instruction arguments are untyped constants: slot/jump-target integers
// (plain Go int), the callee name for CALL (string), or — for CONST — an
// arbitrary literal value (*big.Int, float64, string, bool, or nil for
// Пусто). Go's json package can't round-trip an interface{} slice through
// its dynamic types on its own (a JSON number decodes back as float64,
// which would silently truncate a big Цел constant), so each argument is
// wire-tagged with its kind.

type wireArg struct {
	Kind string          `json:"k"`
	Val  json.RawMessage `json:"v"`
}

const (
	argInt    = "int"
	argFloat  = "float"
	argString = "string"
	argBool   = "bool"
	argNull   = "null"
)

func (ins Instruction) MarshalJSON() ([]byte, error) {
	wireArgs := make([]wireArg, len(ins.Args))
	for i, a := range ins.Args {
		w, err := encodeArg(a)
		if err != nil {
			return nil, err
		}
		wireArgs[i] = w
	}
	return json.Marshal(struct {
		Op   string    `json:"op"`
		Args []wireArg `json:"args"`
	}{Op: ins.Op, Args: wireArgs})
}

func (ins *Instruction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Op   string    `json:"op"`
		Args []wireArg `json:"args"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	args := make([]interface{}, len(raw.Args))
	for i, w := range raw.Args {
		a, err := decodeArg(w)
		if err != nil {
			return err
		}
		args[i] = a
	}
	ins.Op = raw.Op
	ins.Args = args
	return nil
}

func encodeArg(a interface{}) (wireArg, error) {
	switch v := a.(type) {
	case nil:
		return wireArg{Kind: argNull, Val: json.RawMessage("null")}, nil
	case *big.Int:
		raw, err := json.Marshal(v.String())
		return wireArg{Kind: argInt, Val: raw}, err
	case int:
		raw, err := json.Marshal(big.NewInt(int64(v)).String())
		return wireArg{Kind: argInt, Val: raw}, err
	case float64:
		raw, err := json.Marshal(v)
		return wireArg{Kind: argFloat, Val: raw}, err
	case string:
		raw, err := json.Marshal(v)
		return wireArg{Kind: argString, Val: raw}, err
	case bool:
		raw, err := json.Marshal(v)
		return wireArg{Kind: argBool, Val: raw}, err
	default:
		return wireArg{}, fmt.Errorf("bytecode: unsupported instruction argument type %T", a)
	}
}

func decodeArg(w wireArg) (interface{}, error) {
	switch w.Kind {
	case argNull:
		return nil, nil
	case argInt:
		var s string
		if err := json.Unmarshal(w.Val, &s); err != nil {
			return nil, err
		}
		v := new(big.Int)
		if _, ok := v.SetString(s, 10); !ok {
			return nil, fmt.Errorf("bytecode: invalid int argument %q", s)
		}
		return v, nil
	case argFloat:
		var f float64
		err := json.Unmarshal(w.Val, &f)
		return f, err
	case argString:
		var s string
		err := json.Unmarshal(w.Val, &s)
		return s, err
	case argBool:
		var b bool
		err := json.Unmarshal(w.Val, &b)
		return b, err
	default:
		return nil, fmt.Errorf("bytecode: unknown instruction argument kind %q", w.Kind)
	}
}
