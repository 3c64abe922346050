package vm

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// builtinPrint formats and prints every argument, space-joined, the same
// way vm.py's _builtin_print does with Python's default print(*args).
func builtinPrint(vm *VM, args []Value) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = FormatValue(a)
	}
	fmt.Println(strings.Join(parts, " "))
	return nil, nil
}

func builtinLen(vm *VM, args []Value) (Value, error) {
	return vm.length(args[0]), nil
}

func builtinRange(vm *VM, args []Value) (Value, error) {
	start, ok := args[0].(*big.Int)
	if !ok {
		return nil, runtimeErr(vm.path, "диапазон(...) ожидает Цел")
	}
	end, ok := args[1].(*big.Int)
	if !ok {
		return nil, runtimeErr(vm.path, "диапазон(...) ожидает Цел")
	}
	s, e := start.Int64(), end.Int64()
	if e < s {
		e = s
	}
	out := make(List, 0, e-s)
	for i := s; i < e; i++ {
		out = append(out, big.NewInt(i))
	}
	return out, nil
}

func builtinInput(vm *VM, args []Value) (Value, error) {
	line, err := vm.stdin.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line == "" {
		return "", nil
	}
	return line, nil
}

func builtinSleep(vm *VM, args []Value) (Value, error) {
	ms, ok := args[0].(*big.Int)
	if !ok {
		return nil, runtimeErr(vm.path, "пауза(...) ожидает Цел")
	}
	time.Sleep(time.Duration(ms.Int64()) * time.Millisecond)
	return nil, nil
}

func builtinToString(vm *VM, args []Value) (Value, error) {
	return FormatValue(args[0]), nil
}

// builtinToInt implements `число`: strings are trimmed, empty maps to 0,
// non-numeric is fatal, bools map to 0/1 (spec.md §6).
func builtinToInt(vm *VM, args []Value) (Value, error) {
	switch v := args[0].(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case float64:
		return big.NewInt(int64(v)), nil
	case bool:
		if v {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return big.NewInt(0), nil
		}
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, runtimeErr(vm.path, "число(...) получил нечисловую строку: %q", v)
		}
		return n, nil
	}
	return nil, runtimeErr(vm.path, "число(...) не поддерживает тип %s", typeName(args[0]))
}

func builtinSpawn(vm *VM, args []Value) (Value, error) {
	name, ok := args[0].(string)
	if !ok {
		return nil, runtimeErr(vm.path, "запустить(...) ожидает Строка в качестве первого аргумента")
	}
	return vm.spawn(name, args[1:])
}

func builtinDone(vm *VM, args []Value) (Value, error) {
	t, ok := args[0].(*Task)
	if !ok {
		return nil, runtimeErr(vm.path, "готово(...) ожидает Задача")
	}
	return t.isDone(), nil
}

func builtinWait(vm *VM, args []Value) (Value, error) {
	t, ok := args[0].(*Task)
	if !ok {
		return nil, runtimeErr(vm.path, "ожидать(...) ожидает Задача")
	}
	if len(args) == 2 {
		ms, ok := args[1].(*big.Int)
		if !ok {
			return nil, runtimeErr(vm.path, "ожидать(..., таймаут) ожидает Цел")
		}
		return t.wait(vm.path, true, ms.Int64())
	}
	return t.wait(vm.path, false, 0)
}

func builtinWaitAll(vm *VM, args []Value) (Value, error) {
	list, ok := args[0].(List)
	if !ok {
		return nil, runtimeErr(vm.path, "ожидать_все(...) ожидает Список[Задача]")
	}
	hasTimeout := false
	var timeoutMs int64
	if len(args) == 2 {
		ms, ok := args[1].(*big.Int)
		if !ok {
			return nil, runtimeErr(vm.path, "ожидать_все(..., таймаут) ожидает Цел")
		}
		hasTimeout, timeoutMs = true, ms.Int64()
	}
	tasks := make([]*Task, len(list))
	for i, item := range list {
		t, ok := item.(*Task)
		if !ok {
			return nil, runtimeErr(vm.path, "ожидать_все(...) ожидает Список[Задача]")
		}
		tasks[i] = t
	}

	// Wait on every task concurrently; g.Wait() returns once every wait
	// has returned, with the first error any goroutine reported (spec.md
	// §4.8 "Errors surface from the first failing task").
	out := make(List, len(list))
	g := new(errgroup.Group)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			v, err := t.wait(vm.path, hasTimeout, timeoutMs)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func builtinCancel(vm *VM, args []Value) (Value, error) {
	t, ok := args[0].(*Task)
	if !ok {
		return nil, runtimeErr(vm.path, "отменить(...) ожидает Задача")
	}
	return t.tryCancel(), nil
}
