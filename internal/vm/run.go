package vm

import (
	"fmt"

	"github.com/funvibe/loxvm/internal/bytecode"
	"github.com/funvibe/loxvm/internal/object"
	"github.com/funvibe/loxvm/internal/value"
)

// run is the fetch-execute loop: read one opcode from the current frame,
// dispatch, repeat until the outermost frame returns.
func (vm *VM) run() error {
	if vm.trace {
		fmt.Fprintf(vm.stderr, "== trace run %s ==\n", vm.runID)
	}
	for {
		f := vm.frame()

		if vm.trace {
			vm.traceStep(f)
		}

		op := bytecode.OpCode(vm.readByte(f))
		switch op {
		case bytecode.CONSTANT:
			vm.push(vm.readConstant(f))

		case bytecode.NIL:
			vm.push(value.NilValue())
		case bytecode.TRUE:
			vm.push(value.BoolValue(true))
		case bytecode.FALSE:
			vm.push(value.BoolValue(false))

		case bytecode.POP:
			vm.pop()

		case bytecode.GET_LOCAL:
			slot := vm.readByte(f)
			vm.push(vm.stack[f.base+int(slot)])

		case bytecode.SET_LOCAL:
			slot := vm.readByte(f)
			vm.stack[f.base+int(slot)] = vm.peek(0)

		case bytecode.GET_GLOBAL:
			name := vm.readString(f)
			v, ok := vm.globals.Get(name.Chars, name.Hash)
			if !ok {
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return ErrRuntime
			}
			vm.push(v)

		case bytecode.SET_GLOBAL:
			name := vm.readString(f)
			// insert-then-delete to detect an undefined global
			if vm.globals.Set(name.Chars, name.Hash, vm.peek(0)) {
				vm.globals.Delete(name.Chars, name.Hash)
				vm.runtimeError("Undefined variable '%s'.", name.Chars)
				return ErrRuntime
			}

		case bytecode.DEFINE_GLOBAL:
			name := vm.readString(f)
			vm.globals.Set(name.Chars, name.Hash, vm.peek(0))
			vm.pop()

		case bytecode.GET_UPVALUE:
			idx := vm.readByte(f)
			uv := f.closure.Upvalues[idx]
			if uv.IsOpen() {
				vm.push(vm.stack[uv.Location])
			} else {
				vm.push(uv.Closed)
			}

		case bytecode.SET_UPVALUE:
			idx := vm.readByte(f)
			uv := f.closure.Upvalues[idx]
			if uv.IsOpen() {
				vm.stack[uv.Location] = vm.peek(0)
			} else {
				uv.Closed = vm.peek(0)
			}

		case bytecode.EQUAL:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.BoolValue(value.Equal(a, b)))

		case bytecode.GREATER:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.BoolValue(a > b) }) {
				return ErrRuntime
			}
		case bytecode.LESS:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.BoolValue(a < b) }) {
				return ErrRuntime
			}

		case bytecode.ADD:
			if !vm.add() {
				return ErrRuntime
			}
		case bytecode.SUBTRACT:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.NumberValue(a - b) }) {
				return ErrRuntime
			}
		case bytecode.MULTIPLY:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.NumberValue(a * b) }) {
				return ErrRuntime
			}
		case bytecode.DIVIDE:
			if !vm.binaryNumeric(func(a, b float64) value.Value { return value.NumberValue(a / b) }) {
				return ErrRuntime
			}

		case bytecode.NOT:
			vm.push(value.BoolValue(isFalsey(vm.pop())))

		case bytecode.NEGATE:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError("Operand must be a number.")
				return ErrRuntime
			}
			vm.push(value.NumberValue(-vm.pop().AsNumber()))

		case bytecode.PRINT:
			fmt.Fprintln(vm.stdout, vm.pop().String())

		case bytecode.JUMP:
			offset := vm.readShort(f)
			f.ip += int(offset)

		case bytecode.JUMP_IF_FALSE:
			offset := vm.readShort(f)
			if isFalsey(vm.peek(0)) {
				f.ip += int(offset)
			}

		case bytecode.LOOP:
			offset := vm.readShort(f)
			f.ip -= int(offset)

		case bytecode.CALL:
			argCount := int(vm.readByte(f))
			if !vm.callValue(vm.peek(argCount), argCount) {
				return ErrRuntime
			}

		case bytecode.CLOSURE:
			fnVal := vm.readConstant(f)
			fn := fnVal.AsObj().(*object.Function)
			closure := object.NewClosure(fn)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte(f)
				index := vm.readByte(f)
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(f.base + int(index))
				} else {
					closure.Upvalues[i] = f.closure.Upvalues[index]
				}
			}
			vm.push(value.ObjValue(closure))

		case bytecode.CLOSE_UPVALUE:
			vm.closeUpvalues(vm.sp - 1)
			vm.pop()

		case bytecode.RETURN:
			result := vm.pop()
			vm.closeUpvalues(f.base)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.sp = f.base
			vm.push(result)

		default:
			vm.runtimeError("Unknown opcode %d.", op)
			return ErrRuntime
		}
	}
}

func (vm *VM) binaryNumeric(op func(a, b float64) value.Value) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError("Operands must be numbers.")
		return false
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(op(a, b))
	return true
}

// add implements `+` overloaded over numbers and strings.
func (vm *VM) add() bool {
	a, b := vm.peek(1), vm.peek(0)

	switch {
	case a.IsNumber() && b.IsNumber():
		bv := vm.pop().AsNumber()
		av := vm.pop().AsNumber()
		vm.push(value.NumberValue(av + bv))
		return true
	case isString(a) && isString(b):
		bv := vm.pop().AsObj().(*object.String)
		av := vm.pop().AsObj().(*object.String)
		vm.push(value.ObjValue(vm.interner.Intern(av.Chars + bv.Chars)))
		return true
	default:
		vm.runtimeError("Operands must be two numbers or two strings.")
		return false
	}
}

func isString(v value.Value) bool {
	if !v.IsObj() {
		return false
	}
	_, ok := v.AsObj().(*object.String)
	return ok
}

