package vm

import (
	"bufio"
	"fmt"
	"math/big"
	"os"
	"sync"

	"yasny/internal/bytecode"
	"yasny/internal/diagnostics"
	"yasny/internal/numeric"
)

// frame is one activation record: the function being executed, its locals
// vector, and an instruction pointer. Grounded on vm.py's Frame dataclass.
type frame struct {
	fn     *bytecode.Function
	locals []Value
	ip     int
}

// builtinFn is a built-in function implementation. It receives the owning
// VM (for builtins that touch shared state: запустить/ожидать/пауза/ввод)
// and the already-evaluated argument list.
type builtinFn func(vm *VM, args []Value) (Value, error)

// VM executes one bytecode.Program. Grounded on vm.py's VirtualMachine:
// a shared globals vector, a builtins table, run()/call_function()/
// _execute_function() and the full opcode dispatch loop — generalized
// with a task subsystem (spec.md §4.8) absent from the original.
type VM struct {
	program  *bytecode.Program
	path     string
	builtins map[string]builtinFn

	callMu      sync.Mutex // serializes Run/CallFunction (spec.md §5)
	initialized bool

	globalsMu sync.Mutex // the globals vector is owned by the VM and mutated only under its lock (spec.md §4.8)
	globals   []Value

	taskIDMu   sync.Mutex
	nextTaskID int64
	poolOnce   sync.Once
	jobs       chan *taskJob

	stdin *bufio.Reader
}

// New constructs a VM ready to run program. path is used only to annotate
// error messages.
func New(program *bytecode.Program, path string) *VM {
	vm := &VM{program: program, path: path, stdin: bufio.NewReader(os.Stdin)}
	vm.builtins = map[string]builtinFn{
		"печать":      builtinPrint,
		"длина":       builtinLen,
		"диапазон":    builtinRange,
		"ввод":        builtinInput,
		"пауза":       builtinSleep,
		"строка":      builtinToString,
		"число":       builtinToInt,
		"запустить":   builtinSpawn,
		"готово":      builtinDone,
		"ожидать":     builtinWait,
		"ожидать_все": builtinWaitAll,
		"отменить":    builtinCancel,
	}
	return vm
}

// Run (re-)initializes the globals vector to nil-filled and executes the
// entry function. Mirrors vm.py's run().
func (vm *VM) Run() (err error) {
	defer func() { err = recoverErr(recover()) }()
	vm.callMu.Lock()
	defer vm.callMu.Unlock()
	vm.runLocked()
	return nil
}

func (vm *VM) runLocked() {
	vm.globalsMu.Lock()
	vm.globals = make([]Value, vm.program.GlobalCount)
	vm.globalsMu.Unlock()
	vm.executeShared(vm.program.Entry, nil)
	vm.initialized = true
}

// CallFunction invokes a builtin or program function by name, optionally
// re-running the entry function first to give the call a fresh globals
// snapshot. Mirrors vm.py's call_function().
func (vm *VM) CallFunction(name string, args []Value, resetState bool) (result Value, err error) {
	defer func() { err = recoverErr(recover()) }()
	vm.callMu.Lock()
	defer vm.callMu.Unlock()
	if resetState || !vm.initialized {
		vm.runLocked()
	}
	if fn, ok := vm.builtins[name]; ok {
		v, berr := fn(vm, args)
		if berr != nil {
			panic(berr)
		}
		return v, nil
	}
	fn, ok := vm.program.Functions[name]
	if !ok {
		panic(runtimeErr(vm.path, "Неизвестная функция: %s", name))
	}
	return vm.executeShared(fn, args), nil
}

func recoverErr(r interface{}) error {
	if r == nil {
		return nil
	}
	if e, ok := r.(*diagnostics.Error); ok {
		return e
	}
	if e, ok := r.(error); ok {
		return e
	}
	return fmt.Errorf("vm panic: %v", r)
}

// executeShared runs fn against the VM's shared globals vector — the path
// every top-level call and every nested CALL from within it takes.
func (vm *VM) executeShared(fn *bytecode.Function, args []Value) Value {
	return vm.executeFunction(fn, args, true, nil)
}

// executeIsolated runs fn against a private globals snapshot — the path a
// spawned task's invocation takes so it can never observe or mutate the
// VM's shared globals (spec.md §4.8).
func (vm *VM) executeIsolated(fn *bytecode.Function, args []Value, snapshot []Value) Value {
	return vm.executeFunction(fn, args, false, snapshot)
}

// executeFunction is the opcode dispatch loop, grounded one-to-one on
// vm.py's _execute_function. shared selects whether GLOAD/GSTORE read
// vm.globals (under globalsMu) or the caller-supplied isolated slice.
func (vm *VM) executeFunction(fn *bytecode.Function, args []Value, shared bool, isolated []Value) Value {
	if len(args) != len(fn.Params) {
		panic(runtimeErr(vm.path, "Функция '%s' ожидает %d аргументов, получено %d", fn.Name, len(fn.Params), len(args)))
	}

	fr := &frame{fn: fn, locals: make([]Value, fn.LocalCount)}
	copy(fr.locals, args)

	var stack []Value
	pop := func() Value {
		n := len(stack)
		v := stack[n-1]
		stack = stack[:n-1]
		return v
	}
	pop2 := func() (a, b Value) {
		b = pop()
		a = pop()
		return
	}
	push := func(v Value) { stack = append(stack, v) }

	loadGlobal := func(slot int) Value {
		if shared {
			vm.globalsMu.Lock()
			defer vm.globalsMu.Unlock()
			return vm.globals[slot]
		}
		return isolated[slot]
	}
	storeGlobal := func(slot int, v Value) {
		if shared {
			vm.globalsMu.Lock()
			defer vm.globalsMu.Unlock()
			vm.globals[slot] = v
			return
		}
		isolated[slot] = v
	}

	instrs := fn.Instructions
	for fr.ip < len(instrs) {
		ins := instrs[fr.ip]
		fr.ip++

		switch ins.Op {
		case bytecode.OpConst:
			if len(ins.Args) == 0 {
				push(nil)
			} else {
				push(ins.Args[0])
			}
		case bytecode.OpConstNull:
			push(nil)
		case bytecode.OpLoad:
			push(fr.locals[asInt(ins.Args[0])])
		case bytecode.OpStore:
			fr.locals[asInt(ins.Args[0])] = pop()
		case bytecode.OpGLoad:
			push(loadGlobal(asInt(ins.Args[0])))
		case bytecode.OpGStore:
			storeGlobal(asInt(ins.Args[0]), pop())
		case bytecode.OpPop:
			if len(stack) > 0 {
				pop()
			}
		case bytecode.OpAdd:
			a, b := pop2()
			push(vm.arith("+", a, b))
		case bytecode.OpSub:
			a, b := pop2()
			push(vm.arith("-", a, b))
		case bytecode.OpMul:
			a, b := pop2()
			push(vm.arith("*", a, b))
		case bytecode.OpDiv:
			a, b := pop2()
			push(vm.arith("/", a, b))
		case bytecode.OpMod:
			a, b := pop2()
			push(vm.arith("%", a, b))
		case bytecode.OpNeg:
			push(vm.negate(pop()))
		case bytecode.OpNot:
			push(!truthy(pop()))
		case bytecode.OpAnd:
			a, b := pop2()
			push(truthy(a) && truthy(b))
		case bytecode.OpOr:
			a, b := pop2()
			push(truthy(a) || truthy(b))
		case bytecode.OpEq:
			a, b := pop2()
			push(valuesEqual(a, b))
		case bytecode.OpNe:
			a, b := pop2()
			push(!valuesEqual(a, b))
		case bytecode.OpLt:
			a, b := pop2()
			push(compareValues(vm.path, a, b) < 0)
		case bytecode.OpLe:
			a, b := pop2()
			push(compareValues(vm.path, a, b) <= 0)
		case bytecode.OpGt:
			a, b := pop2()
			push(compareValues(vm.path, a, b) > 0)
		case bytecode.OpGe:
			a, b := pop2()
			push(compareValues(vm.path, a, b) >= 0)
		case bytecode.OpJmp:
			fr.ip = asInt(ins.Args[0])
		case bytecode.OpJmpFalse:
			if !truthy(pop()) {
				fr.ip = asInt(ins.Args[0])
			}
		case bytecode.OpCall:
			name := ins.Args[0].(string)
			argc := asInt(ins.Args[1])
			callArgs := make([]Value, argc)
			for i := argc - 1; i >= 0; i-- {
				callArgs[i] = pop()
			}
			push(vm.dispatchCall(name, callArgs, shared, isolated))
		case bytecode.OpRet:
			if len(stack) == 0 {
				return nil
			}
			return pop()
		case bytecode.OpMakeList:
			count := asInt(ins.Args[0])
			items := make(List, count)
			for i := count - 1; i >= 0; i-- {
				items[i] = pop()
			}
			push(items)
		case bytecode.OpMakeDict:
			count := asInt(ins.Args[0])
			raw := make([]Value, count*2)
			for i := count*2 - 1; i >= 0; i-- {
				raw[i] = pop()
			}
			d := NewDict()
			for i := 0; i < len(raw); i += 2 {
				d.Set(raw[i], raw[i+1])
			}
			push(d)
		case bytecode.OpIndexGet:
			idx := pop()
			target := pop()
			push(vm.indexGet(target, idx))
		case bytecode.OpIndexSet:
			value := pop()
			idx := pop()
			target := pop()
			vm.indexSet(target, idx, value)
			push(value)
		case bytecode.OpLen:
			push(vm.length(pop()))
		case bytecode.OpHalt:
			return nil
		default:
			panic(runtimeErr(vm.path, "Неизвестная инструкция VM: %s", ins.Op))
		}
	}
	return nil
}

// dispatchCall resolves name against builtins first, then program
// functions (spec.md §4.7 "CALL looks up the name first in built-ins then
// in the program's functions"). A call made from within a shared-globals
// context stays shared; a call from within an isolated task context stays
// isolated — matching Python's single global `self.globals` behavior
// generalized to the two execution lanes this VM supports.
func (vm *VM) dispatchCall(name string, args []Value, shared bool, isolated []Value) Value {
	if fn, ok := vm.builtins[name]; ok {
		v, err := fn(vm, args)
		if err != nil {
			panic(err)
		}
		return v
	}
	fn, ok := vm.program.Functions[name]
	if !ok {
		panic(runtimeErr(vm.path, "Неизвестная функция во время выполнения: %s", name))
	}
	if shared {
		return vm.executeShared(fn, args)
	}
	return vm.executeIsolated(fn, args, isolated)
}

// asInt normalizes a bookkeeping instruction argument (slot index, jump
// target, MAKE_LIST/MAKE_DICT count, CALL argc) to a plain int. A
// freshly-compiled program carries these as plain Go int; a program
// decoded from a bytecode container comes back with every integer
// argument as *big.Int (internal/bytecode/arg.go round-trips all
// ints through big.Int so a large Цел constant never silently
// truncates), so both representations are accepted here.
func asInt(v Value) int {
	switch n := v.(type) {
	case int:
		return n
	case *big.Int:
		return int(n.Int64())
	default:
		panic(fmt.Sprintf("vm: instruction argument %v (%T) is not an integer", v, v))
	}
}

func (vm *VM) negate(v Value) Value {
	switch n := v.(type) {
	case *big.Int:
		return new(big.Int).Neg(n)
	case float64:
		return -n
	}
	panic(runtimeErr(vm.path, "Унарный минус не поддерживается для типа %s", typeName(v)))
}

func (vm *VM) indexGet(target, idx Value) Value {
	switch t := target.(type) {
	case List:
		i := asIndex(vm.path, idx, len(t))
		return t[i]
	case string:
		runes := []rune(t)
		i := asIndex(vm.path, idx, len(runes))
		return string(runes[i])
	case *Dict:
		v, ok := t.Get(idx)
		if !ok {
			panic(runtimeErr(vm.path, "Ключ не найден в словаре: %s", FormatValue(idx)))
		}
		return v
	}
	panic(runtimeErr(vm.path, "INDEX_GET не поддерживается для типа %s", typeName(target)))
}

func (vm *VM) indexSet(target, idx, value Value) {
	switch t := target.(type) {
	case List:
		i := asIndex(vm.path, idx, len(t))
		t[i] = value
	case *Dict:
		t.Set(idx, value)
	default:
		panic(runtimeErr(vm.path, "INDEX_SET не поддерживается для типа %s", typeName(target)))
	}
}

func asIndex(path string, idx Value, length int) int {
	n, ok := idx.(*big.Int)
	if !ok {
		panic(runtimeErr(path, "Индекс должен иметь тип Цел, получено %s", typeName(idx)))
	}
	i := int(n.Int64())
	if i < 0 || i >= length {
		panic(runtimeErr(path, "Индекс %d вне диапазона (длина %d)", i, length))
	}
	return i
}

func (vm *VM) length(v Value) Value {
	switch vv := v.(type) {
	case List:
		return big.NewInt(int64(len(vv)))
	case string:
		return big.NewInt(int64(len([]rune(vv))))
	case *Dict:
		return big.NewInt(int64(vv.Len()))
	}
	panic(runtimeErr(vm.path, "LEN не поддерживается для типа %s", typeName(v)))
}

func (vm *VM) arith(op string, a, b Value) Value {
	if ai, ok := a.(*big.Int); ok {
		bi, ok := b.(*big.Int)
		if !ok {
			panic(runtimeErr(vm.path, "Операнды '%s' должны быть одного типа", op))
		}
		return intArith(vm.path, op, ai, bi)
	}
	if af, ok := a.(float64); ok {
		bf, ok := b.(float64)
		if !ok {
			panic(runtimeErr(vm.path, "Операнды '%s' должны быть одного типа", op))
		}
		return floatArith(vm.path, op, af, bf)
	}
	if op == "+" {
		if as, ok := a.(string); ok {
			if bs, ok := b.(string); ok {
				return as + bs
			}
		}
	}
	panic(runtimeErr(vm.path, "Оператор '%s' не поддерживается для типа %s", op, typeName(a)))
}

// intArith mirrors foldIntBinary's DIV truncation-toward-zero
// (internal/optimizer), matching spec.md §4.7's "DIV between two
// integers truncates toward zero (matching the folder)". MOD follows
// Python's floor-mod convention instead (vm.py:102-104's `a % b`): the
// result takes the divisor's sign, via numeric.FloorMod.
func intArith(path, op string, a, b *big.Int) Value {
	switch op {
	case "+":
		return new(big.Int).Add(a, b)
	case "-":
		return new(big.Int).Sub(a, b)
	case "*":
		return new(big.Int).Mul(a, b)
	case "/":
		if b.Sign() == 0 {
			panic(runtimeErr(path, "Деление на ноль"))
		}
		return new(big.Int).Quo(a, b)
	case "%":
		if b.Sign() == 0 {
			panic(runtimeErr(path, "Деление на ноль"))
		}
		return numeric.FloorMod(a, b)
	}
	panic(runtimeErr(path, "Неизвестный оператор: %s", op))
}

func floatArith(path, op string, a, b float64) Value {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	case "/":
		if b == 0.0 {
			panic(runtimeErr(path, "Деление на ноль"))
		}
		return a / b
	case "%":
		if b == 0.0 {
			panic(runtimeErr(path, "Деление на ноль"))
		}
		return numeric.FloorModFloat(a, b)
	}
	panic(runtimeErr(path, "Неизвестный оператор: %s", op))
}
