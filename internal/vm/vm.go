// Package vm implements the stack-based bytecode interpreter: a fixed call
// frame stack, a growable value stack, globals and string interning sharing
// one hash table shape, and upvalue capture/closing.
package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/funvibe/loxvm/internal/bytecode"
	"github.com/funvibe/loxvm/internal/compiler"
	"github.com/funvibe/loxvm/internal/config"
	"github.com/funvibe/loxvm/internal/object"
	"github.com/funvibe/loxvm/internal/value"
)

// MaxFrames is the call-frame depth ceiling used as the default when no
// config.Config overrides it.
const MaxFrames = config.DefaultMaxFrames

// slotsPerFrame is the per-frame stack budget the hard value-stack cap is
// derived from (maxFrames × slotsPerFrame).
const slotsPerFrame = 256

// ErrRuntime is returned by Interpret when execution raises an uncaught
// runtime error after the message and stack trace have been written.
var ErrRuntime = errors.New("runtime error")

// ErrCompile is returned by Interpret when compilation fails; diagnostics
// have already been written to the configured error writer.
var ErrCompile = errors.New("compile error")

// callFrame is one activation record: a running Closure, its instruction
// pointer, and the base stack slot its locals start at.
type callFrame struct {
	closure *object.Closure
	ip      int
	base    int
}

// VM is the singleton bytecode interpreter. It owns the value stack, the
// call frame stack, the globals table, and the string interner.
type VM struct {
	stack []value.Value
	sp    int

	frames     []callFrame
	frameCount int
	maxFrames  int
	maxStack   int

	globals  *object.Table
	interner *object.Interner

	openUpvalues *object.Upvalue

	stdout io.Writer
	stderr io.Writer

	trace   bool
	started time.Time
	runID   uuid.UUID

	lastScript *object.Function
}

// New constructs a VM using the default tuning (64 frames, 256 initial
// stack slots), stdout/stderr wired to os.Stdout/os.Stderr, and the clock()
// native registered.
func New() *VM {
	return NewWithConfig(config.Default())
}

// NewWithConfig is like New but sizes the call-frame stack and initial
// value-stack capacity from cfg, so a loaded config file can tune them.
func NewWithConfig(cfg config.Config) *VM {
	vm := &VM{
		stack:     make([]value.Value, cfg.InitialStackSize),
		frames:    make([]callFrame, cfg.MaxFrames),
		maxFrames: cfg.MaxFrames,
		maxStack:  cfg.MaxFrames * slotsPerFrame,
		globals:   object.NewTable(),
		interner:  object.NewInterner(),
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		started:   time.Now(),
		runID:     uuid.New(),
	}
	vm.defineNatives()
	return vm
}

// RunID identifies this VM instance in execution trace headers. Every
// traced run on the same VM, including each line of one REPL session,
// prints the same ID; only separate VM instances get different IDs.
func (vm *VM) RunID() uuid.UUID { return vm.runID }

// SetOutput redirects where PRINT statements write.
func (vm *VM) SetOutput(w io.Writer) { vm.stdout = w }

// SetErrorOutput redirects where compile/runtime diagnostics are written.
func (vm *VM) SetErrorOutput(w io.Writer) { vm.stderr = w }

// SetTrace enables per-instruction disassembly + stack dumps to stderr
// while run() executes.
func (vm *VM) SetTrace(enabled bool) { vm.trace = enabled }

// Interner exposes the VM's string interner so the compiler can share it.
func (vm *VM) Interner() *object.Interner { return vm.interner }

// Interpret compiles and runs one source string: it wraps the resulting
// script Function in a Closure, pushes it, and runs call+run.
func (vm *VM) Interpret(source string) error {
	fn, ok := compiler.Compile(source, vm.interner, vm.stderr)
	vm.lastScript = fn
	if !ok {
		return ErrCompile
	}

	closure := object.NewClosure(fn)
	vm.push(value.ObjValue(closure))
	if !vm.call(closure, 0) {
		return ErrRuntime
	}

	return vm.run()
}

func (vm *VM) push(v value.Value) {
	if vm.sp == len(vm.stack) {
		vm.growStack()
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

// growStack doubles the backing array (min 8 slots). Frame bases and open
// upvalue locations are plain ints into vm.stack, so growth only needs to
// extend the backing array, not rebase any pointers. If the stack is
// already at its configured cap, growing further would silently return a
// slice no bigger than before and let the caller's write run off the end,
// so that case is treated as the same kind of unrecoverable condition as a
// call-frame overflow: report it and stop the process rather than corrupt
// memory.
func (vm *VM) growStack() {
	if len(vm.stack) >= vm.maxStack {
		vm.fatal("value stack overflow: exceeded %d slots", vm.maxStack)
	}
	newCap := len(vm.stack) * 2
	if newCap < 8 {
		newCap = 8
	}
	if newCap > vm.maxStack {
		newCap = vm.maxStack
	}
	grown := make([]value.Value, newCap)
	copy(grown, vm.stack)
	vm.stack = grown
}

// fatal reports an unrecoverable VM condition (stack exhaustion, internal
// invariant violations) and terminates the process. Unlike runtimeError,
// there is no stack to unwind to and nothing the caller can do with a
// returned error, so this never returns.
func (vm *VM) fatal(format string, args ...interface{}) {
	fmt.Fprintf(vm.stderr, "loxvm: fatal: "+format+"\n", args...)
	os.Exit(70)
}

func (vm *VM) pop() value.Value {
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = value.NilValue()
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.sp-1-distance]
}

func (vm *VM) frame() *callFrame { return &vm.frames[vm.frameCount-1] }

func (vm *VM) readByte(f *callFrame) byte {
	b := f.closure.Fn.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readShort(f *callFrame) uint16 {
	hi := vm.readByte(f)
	lo := vm.readByte(f)
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant(f *callFrame) value.Value {
	idx := vm.readByte(f)
	return f.closure.Fn.Chunk.Constants[idx]
}

func (vm *VM) readString(f *callFrame) *object.String {
	return vm.readConstant(f).AsObj().(*object.String)
}

func isFalsey(v value.Value) bool { return v.IsFalsey() }

// call pushes a new frame for closure with argCount arguments already on
// the stack below the callee. Returns false for a recoverable arity
// mismatch; running out of call frames is treated as fatal (see fatal)
// since there is no bounded, well-defined stack state to unwind to.
func (vm *VM) call(closure *object.Closure, argCount int) bool {
	if argCount != closure.Fn.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", closure.Fn.Arity, argCount)
		return false
	}
	if vm.frameCount == vm.maxFrames {
		vm.fatal("call frame overflow: exceeded %d frames", vm.maxFrames)
	}

	vm.frames[vm.frameCount] = callFrame{
		closure: closure,
		ip:      0,
		base:    vm.sp - argCount - 1,
	}
	vm.frameCount++
	return true
}

// callValue dispatches CALL argc against any callable Value: a Closure runs
// through call(); a Native is invoked synchronously inline — natives run on
// the same call stack and never re-enter the interpreter.
func (vm *VM) callValue(callee value.Value, argCount int) bool {
	if callee.IsObj() {
		switch obj := callee.AsObj().(type) {
		case *object.Closure:
			return vm.call(obj, argCount)
		case *object.Native:
			args := vm.stack[vm.sp-argCount : vm.sp]
			result, err := vm.invokeNative(obj, args)
			if err != nil {
				vm.runtimeError("%s", err.Error())
				return false
			}
			vm.sp -= argCount + 1
			vm.push(result)
			return true
		}
	}
	vm.runtimeError("Can only call functions and classes.")
	return false
}

// invokeNative calls a native function, converting a panic inside it into
// an error so a misbehaving native turns into an ordinary runtime error
// instead of crashing the whole interpreter.
func (vm *VM) invokeNative(n *object.Native, args []value.Value) (result value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	return n.Fn(args)
}

// captureUpvalue finds or creates the open upvalue for a stack slot,
// maintaining openUpvalues sorted in descending Location order so
// closeUpvalues can walk it from the head.
func (vm *VM) captureUpvalue(slot int) *object.Upvalue {
	var prev *object.Upvalue
	cur := vm.openUpvalues

	for cur != nil && cur.Location > slot {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.Location == slot {
		return cur
	}

	created := object.NewOpenUpvalue(slot)
	created.NextOpen = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above lastSlot, copying the
// stack value into the upvalue's own storage.
func (vm *VM) closeUpvalues(lastSlot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Location >= lastSlot {
		uv := vm.openUpvalues
		uv.Closed = vm.stack[uv.Location]
		uv.Location = -1
		vm.openUpvalues = uv.NextOpen
	}
}

// runtimeError writes the message and a top-down stack trace to stderr,
// one "[line L] in <name-or-script>" line per live frame, then resets the
// stack so the REPL or caller can keep going.
func (vm *VM) runtimeError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(vm.stderr, msg)

	for i := vm.frameCount - 1; i >= 0; i-- {
		f := &vm.frames[i]
		line := f.closure.Fn.Chunk.Lines[f.ip-1]
		name := f.closure.Fn.Name
		if name == "" {
			fmt.Fprintf(vm.stderr, "[line %d] in script\n", line)
		} else {
			fmt.Fprintf(vm.stderr, "[line %d] in %s()\n", line, name)
		}
	}

	vm.resetStack()
}

func (vm *VM) resetStack() {
	vm.sp = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}
