// Package disasm renders a bytecode resource as a listing.
package disasm

import (
	"fmt"
	"io"
	"strings"

	"go.creack.net/anotherworld/op"
)

// Instruction is one decoded listing line.
type Instruction struct {
	Addr uint16
	Name string
	Args []string
}

func (ins Instruction) String() string {
	if len(ins.Args) == 0 {
		return ins.Name
	}
	return ins.Name + " " + strings.Join(ins.Args, ", ")
}

type cursor struct {
	code []byte
	pc   int
	ok   bool
}

func (c *cursor) u8() byte {
	if c.pc >= len(c.code) {
		c.ok = false
		return 0
	}
	b := c.code[c.pc]
	c.pc++
	return b
}

func (c *cursor) u16() uint16 {
	hi := c.u8()
	return uint16(hi)<<8 | uint16(c.u8())
}

// Listing decodes the whole byte stream linearly. Data reached by the
// decoder that is not a valid instruction comes out as a raw byte line,
// one byte at a time, so the listing always covers the input.
func Listing(code []byte) []Instruction {
	var out []Instruction
	c := &cursor{code: code, ok: true}
	for c.pc < len(code) {
		start := c.pc
		ins, ok := decodeNext(c)
		if !ok || !c.ok {
			c.pc = start + 1
			c.ok = true
			out = append(out, Instruction{Addr: uint16(start), Name: ".byte", Args: []string{fmt.Sprintf("0x%02X", code[start])}})
			continue
		}
		ins.Addr = uint16(start)
		out = append(out, ins)
	}
	return out
}

// Fprint writes the listing, one address-labelled line per instruction.
func Fprint(w io.Writer, code []byte) error {
	for _, ins := range Listing(code) {
		if _, err := fmt.Fprintf(w, "0x%04X: %s\n", ins.Addr, ins); err != nil {
			return err
		}
	}
	return nil
}

func decodeNext(c *cursor) (Instruction, bool) {
	code := c.u8()
	if !c.ok {
		return Instruction{}, false
	}
	if code&op.OpBackgroundPolygonBit != 0 {
		offset := (uint16(code)<<8 | uint16(c.u8())) << 1
		x, y := c.u8(), c.u8()
		return Instruction{Name: "bgpoly", Args: []string{
			fmt.Sprintf("0x%04X", offset), fmt.Sprint(x), fmt.Sprint(y),
		}}, true
	}
	if code&op.OpSpritePolygonBit != 0 {
		return decodeSprite(c, code)
	}
	meta, ok := op.Lookup(code)
	if !ok {
		return Instruction{}, false
	}
	if meta.Operands == "?" {
		return decodeCondJump(c)
	}
	ins := Instruction{Name: meta.Name}
	for _, tok := range meta.Operands {
		switch tok {
		case 'r':
			ins.Args = append(ins.Args, fmt.Sprintf("r%d", c.u8()))
		case 'b':
			ins.Args = append(ins.Args, fmt.Sprint(c.u8()))
		case 'w':
			ins.Args = append(ins.Args, fmt.Sprintf("0x%04X", c.u16()))
		case 'v':
			ins.Args = append(ins.Args, fmt.Sprint(int16(c.u16())))
		case 'a':
			ins.Args = append(ins.Args, fmt.Sprintf("0x%04X", c.u16()))
		}
	}
	return ins, c.ok
}

var condNames = [...]string{"==", "!=", ">", ">=", "<", "<=", "?6", "?7"}

func decodeCondJump(c *cursor) (Instruction, bool) {
	cond := c.u8()
	reg := c.u8()
	var operand string
	switch b := c.u8(); {
	case cond&0x80 != 0:
		operand = fmt.Sprintf("r%d", b)
	case cond&0x40 != 0:
		operand = fmt.Sprint(int16(uint16(b)<<8 | uint16(c.u8())))
	default:
		operand = fmt.Sprint(b)
	}
	addr := c.u16()
	return Instruction{Name: "cjmp", Args: []string{
		fmt.Sprintf("r%d %s %s", reg, condNames[cond&7], operand),
		fmt.Sprintf("0x%04X", addr),
	}}, c.ok
}

func decodeSprite(c *cursor, code byte) (Instruction, bool) {
	offset := c.u16() << 1
	args := []string{fmt.Sprintf("0x%04X", offset)}

	b := c.u8()
	switch code >> 4 & 3 {
	case 0:
		args = append(args, fmt.Sprintf("x=%d", int16(uint16(b)<<8|uint16(c.u8()))))
	case 1:
		args = append(args, fmt.Sprintf("x=r%d", b))
	case 2:
		args = append(args, fmt.Sprintf("x=%d", b))
	case 3:
		args = append(args, fmt.Sprintf("x=%d", int(b)+0x100))
	}
	b = c.u8()
	switch code >> 2 & 3 {
	case 0:
		args = append(args, fmt.Sprintf("y=%d", int16(uint16(b)<<8|uint16(c.u8()))))
	case 1:
		args = append(args, fmt.Sprintf("y=r%d", b))
	default:
		args = append(args, fmt.Sprintf("y=%d", b))
	}
	switch code & 3 {
	case 0:
		args = append(args, "zoom=64")
	case 1:
		args = append(args, fmt.Sprintf("zoom=r%d", c.u8()))
	case 2:
		args = append(args, fmt.Sprintf("zoom=%d", c.u8()))
	case 3:
		args = append(args, "zoom=64", "src=anim")
	}
	return Instruction{Name: "sprite", Args: args}, c.ok
}
