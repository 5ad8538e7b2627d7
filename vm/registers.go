package vm

import "go.creack.net/anotherworld/op"

// Registers is the machine's register file. The signed view is the
// canonical one; the unsigned helpers reinterpret the same 16 bits.
// All arithmetic on registers wraps.
type Registers [op.RegisterCount]int16

func (r *Registers) U(id byte) uint16       { return uint16(r[id]) }
func (r *Registers) SetU(id byte, v uint16) { r[id] = int16(v) }
