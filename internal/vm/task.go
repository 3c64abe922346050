package vm

import (
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"yasny/internal/bytecode"
)

// TaskStatus is a task's lifecycle state (spec.md §4.8/§5).
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskDone
	TaskFailed
	TaskCancelled
)

// Task is the opaque handle `запустить` returns. Grounded on the
// teacher's internal/concurrency.JobResult for the result/error/status
// shape, retargeted from a security-scan job outcome to a function-call
// outcome; jobID is an internal worker-pool bookkeeping id (uuid), kept
// distinct from ID, the monotonically increasing, lock-assigned id
// spec.md §4.8 requires for the value a program actually observes.
type Task struct {
	ID    int64
	jobID string

	mu     sync.Mutex
	status TaskStatus
	result Value
	err    error
	done   chan struct{}
}

func newTask(id int64) *Task {
	return &Task{ID: id, jobID: uuid.NewString(), status: TaskPending, done: make(chan struct{})}
}

func (t *Task) finish(status TaskStatus, result Value, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == TaskCancelled {
		return
	}
	t.status = status
	t.result = result
	t.err = err
	close(t.done)
}

// tryCancel reports whether the task could be cancelled before starting
// (spec.md §5: "returns true only if the task had not yet started;
// already-running tasks run to completion").
func (t *Task) tryCancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != TaskPending {
		return false
	}
	t.status = TaskCancelled
	close(t.done)
	return true
}

func (t *Task) markStarted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != TaskPending {
		return false
	}
	t.status = TaskRunning
	return true
}

func (t *Task) isDone() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status == TaskDone || t.status == TaskFailed || t.status == TaskCancelled
}

// wait blocks until the task settles or, if hasTimeout, until timeoutMs
// elapses first — a distinct, explicitly worded error from a domain
// failure or a cancellation (spec.md §4.8/§7).
func (t *Task) wait(path string, hasTimeout bool, timeoutMs int64) (Value, error) {
	if hasTimeout {
		select {
		case <-t.done:
		case <-time.After(time.Duration(timeoutMs) * time.Millisecond):
			return nil, runtimeErr(path, "Ожидание задачи %d превысило тайм-аут", t.ID)
		}
	} else {
		<-t.done
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.status {
	case TaskDone:
		return t.result, nil
	case TaskFailed:
		return nil, runtimeErr(path, "Задача %d завершилась с ошибкой: %v", t.ID, t.err)
	case TaskCancelled:
		return nil, runtimeErr(path, "Задача %d была отменена", t.ID)
	default:
		return nil, runtimeErr(path, "Задача %d в неожиданном состоянии ожидания", t.ID)
	}
}

// taskJob is one unit of work submitted to the worker pool: the function
// to invoke, its arguments, and the private globals snapshot it runs
// against.
type taskJob struct {
	task     *Task
	fn       string
	args     []Value
	snapshot []Value
}

// ensurePool lazily starts the worker pool on first spawn (spec.md §4.8
// "a lazily-constructed worker pool"), grounded on the teacher's
// internal/concurrency.WorkerPool sizing (runtime.NumCPU() workers, a
// buffered job channel) stripped of its job-type switch, rate limiter,
// and connection pool — this domain only ever submits one job kind.
func (vm *VM) ensurePool() {
	vm.poolOnce.Do(func() {
		vm.jobs = make(chan *taskJob, 64)
		workers := runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
		for i := 0; i < workers; i++ {
			go vm.taskWorker()
		}
	})
}

func (vm *VM) taskWorker() {
	for job := range vm.jobs {
		if !job.task.markStarted() {
			continue // cancelled before a worker picked it up
		}
		fn, ok := vm.program.Functions[job.fn]
		if !ok {
			job.task.finish(TaskFailed, nil, runtimeErr(vm.path, "Неизвестная функция во время выполнения: %s", job.fn))
			continue
		}
		result, err := vm.runTaskBody(fn, job.args, job.snapshot)
		if err != nil {
			job.task.finish(TaskFailed, nil, err)
			continue
		}
		job.task.finish(TaskDone, result, nil)
	}
}

func (vm *VM) runTaskBody(fn *bytecode.Function, args []Value, snapshot []Value) (result Value, err error) {
	defer func() { err = recoverErr(recover()) }()
	result = vm.executeIsolated(fn, args, snapshot)
	return
}

func (vm *VM) nextID() int64 {
	vm.taskIDMu.Lock()
	defer vm.taskIDMu.Unlock()
	vm.nextTaskID++
	return vm.nextTaskID
}

// spawn validates name, snapshots vm.globals by deep copy under
// globalsMu, assigns a monotonically increasing id, and submits the
// invocation to the worker pool (spec.md §4.8).
func (vm *VM) spawn(name string, args []Value) (*Task, error) {
	fn, ok := vm.program.Functions[name]
	if !ok {
		return nil, runtimeErr(vm.path, "Неизвестная функция: %s", name)
	}
	if len(args) != len(fn.Params) {
		return nil, runtimeErr(vm.path, "Функция '%s' ожидает %d аргументов, получено %d", name, len(fn.Params), len(args))
	}

	vm.globalsMu.Lock()
	snapshot := make([]Value, len(vm.globals))
	for i, v := range vm.globals {
		snapshot[i] = deepCopyValue(v)
	}
	vm.globalsMu.Unlock()

	vm.ensurePool()
	t := newTask(vm.nextID())
	vm.jobs <- &taskJob{task: t, fn: name, args: args, snapshot: snapshot}
	return t, nil
}
