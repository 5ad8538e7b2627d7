package op

// Operand descriptors for the fixed-payload opcodes. Used by the
// disassembler; the interpreter decodes payloads in its own switch.
// Tokens: 'r' register (u8), 'b' byte (u8), 'w' word (u16), 'v' value (i16),
// 'a' bytecode address (u16). '?' marks a variable payload decoded by hand.
type OpCode struct {
	Name     string
	Code     byte
	Operands string
	Comment  string
}

var OpCodeTable = []OpCode{
	{"seti", 0x00, "rv", "reg = value"},
	{"mov", 0x01, "rr", "reg = reg"},
	{"add", 0x02, "rr", "reg += reg, wrapping"},
	{"addi", 0x03, "rv", "reg += value, wrapping"},
	{"call", 0x04, "a", "push pc, jump"},
	{"ret", 0x05, "", "pop pc"},
	{"yield", 0x06, "", "suspend the thread until next tic"},
	{"jmp", 0x07, "a", "jump"},
	{"start", 0x08, "ba", "schedule a thread to start at addr"},
	{"djnz", 0x09, "ra", "decrement, jump if not zero"},
	{"cjmp", 0x0a, "?", "conditional jump"},
	{"pal", 0x0b, "w", "select palette (high byte)"},
	{"ctrl", 0x0c, "bbb", "resume/pause/kill a thread range"},
	{"page", 0x0d, "b", "select the draw target page"},
	{"fill", 0x0e, "bb", "fill a page with a color"},
	{"copy", 0x0f, "bb", "copy a page onto another"},
	{"show", 0x10, "b", "present a page to the host"},
	{"kill", 0x11, "", "deactivate the current thread"},
	{"text", 0x12, "wbbb", "draw a string"},
	{"sub", 0x13, "rr", "reg -= reg, wrapping"},
	{"andi", 0x14, "rw", "reg &= mask"},
	{"ori", 0x15, "rw", "reg |= mask"},
	{"shl", 0x16, "rw", "reg <<= count"},
	{"shr", 0x17, "rw", "reg >>= count, logical"},
	{"sound", 0x18, "wbbb", "play a sound on a channel"},
	{"load", 0x19, "w", "load a resource or schedule a part"},
	{"music", 0x1a, "wwb", "start/adjust/stop the music"},
}

// The two polygon draw forms are flagged in the high bits of the first
// byte and carry their operands inline; they are not in the table.
const (
	// OpBackgroundPolygonBit marks the 0x80..0xFF range: the low 7 bits
	// and the next byte form a polygon address, shifted left once.
	OpBackgroundPolygonBit = 0x80
	// OpSpritePolygonBit marks the 0x40..0x7F range: the low 6 bits
	// select the x, y and zoom sources.
	OpSpritePolygonBit = 0x40
)

// Lookup returns the table entry for a small opcode.
func Lookup(code byte) (OpCode, bool) {
	if int(code) >= len(OpCodeTable) {
		return OpCode{}, false
	}
	return OpCodeTable[code], true
}
