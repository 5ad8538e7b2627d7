package op

// GamePart identifies one chapter of the game. The bytecode requests
// part switches by these numbers through the load-resource instruction.
type GamePart uint16

const (
	PartProtection GamePart = 16000 + iota
	PartIntro
	PartLake
	PartJail
	PartCity
	PartArena
	PartBaths
	PartFinal
	PartPassword

	PartFirst = PartProtection
	PartLast  = PartPassword
)

func (gp GamePart) Valid() bool { return gp >= PartFirst && gp <= PartLast }

func (gp GamePart) String() string {
	switch gp {
	case PartProtection:
		return "protection"
	case PartIntro:
		return "intro"
	case PartLake:
		return "lake"
	case PartJail:
		return "jail"
	case PartCity:
		return "city"
	case PartArena:
		return "arena"
	case PartBaths:
		return "baths"
	case PartFinal:
		return "final"
	case PartPassword:
		return "password"
	default:
		return "unknown part"
	}
}

// PartResources is the resource quadruple backing a game part.
// Animations is 0 when the part has no sprite-polygon resource.
type PartResources struct {
	Palette    byte
	Bytecode   byte
	Polygons   byte
	Animations byte
}

// PartTable maps each part to its resources.
var PartTable = map[GamePart]PartResources{
	PartProtection: {0x14, 0x15, 0x16, 0x00},
	PartIntro:      {0x17, 0x18, 0x19, 0x00},
	PartLake:       {0x1A, 0x1B, 0x1C, 0x11},
	PartJail:       {0x1D, 0x1E, 0x1F, 0x11},
	PartCity:       {0x20, 0x21, 0x22, 0x11},
	PartArena:      {0x23, 0x24, 0x25, 0x00},
	PartBaths:      {0x26, 0x27, 0x28, 0x11},
	PartFinal:      {0x29, 0x2A, 0x2B, 0x11},
	PartPassword:   {0x7D, 0x7E, 0x7F, 0x00},
}
