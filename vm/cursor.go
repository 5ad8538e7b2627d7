package vm

import (
	"errors"

	"go.creack.net/anotherworld/op"
)

var (
	ErrEndOfProgram   = errors.New("read past end of program")
	ErrInvalidAddress = errors.New("jump out of program")
)

// Cursor is a byte cursor over the current bytecode. Reads keep a sticky
// error so an instruction can decode its whole payload and check once.
type Cursor struct {
	code []byte
	pc   int
	err  error
}

func (c *Cursor) U8() byte {
	if c.err != nil {
		return 0
	}
	if c.pc >= len(c.code) {
		c.err = ErrEndOfProgram
		return 0
	}
	b := c.code[c.pc]
	c.pc++
	return b
}

func (c *Cursor) U16() uint16 {
	if c.err != nil {
		return 0
	}
	if c.pc+2 > len(c.code) {
		c.err = ErrEndOfProgram
		return 0
	}
	w := op.Endian.Uint16(c.code[c.pc:])
	c.pc += 2
	return w
}

func (c *Cursor) S16() int16 { return int16(c.U16()) }

func (c *Cursor) Jump(addr uint16) {
	if c.err != nil {
		return
	}
	if int(addr) >= len(c.code) {
		c.err = ErrInvalidAddress
		return
	}
	c.pc = int(addr)
}

func (c *Cursor) Pos() uint16 { return uint16(c.pc) }
func (c *Cursor) AtEnd() bool { return c.pc == len(c.code) }
func (c *Cursor) Err() error  { return c.err }
