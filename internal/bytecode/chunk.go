package bytecode

import (
	"errors"

	"github.com/funvibe/loxvm/internal/value"
)

// MaxConstants is the number of constant-pool slots an emitted CONSTANT /
// GET_GLOBAL / ... opcode can address with its one-byte operand. The pool
// itself may grow past this (see Constants' cap below) for forward
// compatibility, but no opcode shipped by this instruction set reads a
// wider operand.
const MaxConstants = 256

// maxConstantPool is a hard backstop on constant-pool growth (65536
// entries); it exists so AddConstant has a well-defined failure mode
// independent of MaxConstants.
const maxConstantPool = 65536

var ErrTooManyConstants = errors.New("too many constants in one chunk")

// Chunk is a compiled unit of bytecode: a growing code array, a parallel
// per-byte source-line array, and a constant pool.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

// NewChunk returns an empty chunk with small initial capacities (Go's
// append already grows by doubling; the explicit initial capacity just
// avoids the first few reallocations).
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 8),
		Lines:     make([]int, 0, 8),
		Constants: make([]value.Value, 0, 8),
	}
}

// Write appends a single byte, recording the source line it came from.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp appends an opcode byte.
func (c *Chunk) WriteOp(op OpCode, line int) {
	c.Write(byte(op), line)
}

// AddConstant appends value to the constant pool and returns its index.
// Fails once the pool would exceed the 65536-entry storage ceiling; callers
// emitting an opcode with a one-byte operand must additionally check
// against MaxConstants themselves (see internal/compiler).
func (c *Chunk) AddConstant(v value.Value) (int, error) {
	if len(c.Constants) >= maxConstantPool {
		return 0, ErrTooManyConstants
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, nil
}

// PatchJump back-fills the two-byte big-endian operand at offset with the
// distance from just after those two bytes to the current end of code.
// Returns an error if that distance doesn't fit in 16 bits.
func (c *Chunk) PatchJump(offset int) error {
	jump := len(c.Code) - offset - 2
	if jump > 0xFFFF {
		return errors.New("too much code to jump over")
	}
	c.Code[offset] = byte((jump >> 8) & 0xFF)
	c.Code[offset+1] = byte(jump & 0xFF)
	return nil
}
