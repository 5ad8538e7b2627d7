// Package op holds the constants and metadata tables shared by the
// interpreter, the disassembler and the front ends.
package op

import "encoding/binary"

// All multi-byte integers in the game data are big-endian.
var Endian = binary.BigEndian

const (
	ScreenWidth  = 320
	ScreenHeight = 200

	PageCount    = 4  // Indexed video pages.
	PaletteCount = 32 // Palettes per palette resource.
	ColorCount   = 16 // Colors per palette.

	ThreadCount   = 64
	RegisterCount = 256
	StackDepth    = 64

	BankCount          = 13 // BANK01 <--> BANK0D.
	MaxPolygonVertices = 50

	// DefaultZoom is the polygon scale meaning 1x (scale/64).
	DefaultZoom = 0x40

	// DefaultTicBudget is the watchdog limit of instructions a single
	// thread may execute in one tic before the machine gives up.
	DefaultTicBudget = 10000

	// FrameSliceMs is the duration of one frame-duration register unit.
	FrameSliceMs = 20
)

// ResourceKind enum type. Matches the type byte of the manifest records.
type ResourceKind byte

const (
	KindSound ResourceKind = iota // Also used for empty slots.
	KindMusic
	KindBitmap
	KindPalette
	KindBytecode
	KindPolygons
	KindSpritePolygons
)

func (k ResourceKind) String() string {
	switch k {
	case KindSound:
		return "sound"
	case KindMusic:
		return "music"
	case KindBitmap:
		return "bitmap"
	case KindPalette:
		return "palette"
	case KindBytecode:
		return "bytecode"
	case KindPolygons:
		return "polygons"
	case KindSpritePolygons:
		return "sprite polygons"
	default:
		return "unknown"
	}
}

// Well-known registers. The bytecode reads and writes these by number,
// the machine by name.
const (
	RegRandomSeed        = 0x3C
	RegLastKeyChar       = 0xDA
	RegHeroPosUpDown     = 0xE5
	RegMusicSync         = 0xF4
	RegFrameDone         = 0xF7 // Cleared on every frame render.
	RegScrollY           = 0xF9
	RegHeroAction        = 0xFA
	RegHeroPosJumpDown   = 0xFB
	RegHeroPosLeftRight  = 0xFC
	RegHeroPosMask       = 0xFD
	RegHeroActionPosMask = 0xFE
	RegPauseSlices       = 0xFF // Frame duration, in 20ms slices.
)

// NoteSampleClock is the clock divided by a pattern note to obtain the
// playback frequency of a music sample: freq = NoteSampleClock / (note * 2).
const NoteSampleClock = 7159092

// FreqTable maps the frequency id of a play-sound instruction to a
// playback rate in Hz.
var FreqTable = [40]uint16{
	0x0CFF, 0x0DC3, 0x0E91, 0x0F6F, 0x1056, 0x114E, 0x1259, 0x136C,
	0x149F, 0x15D9, 0x1726, 0x1888, 0x19FD, 0x1B86, 0x1D21, 0x1EDE,
	0x20AB, 0x229C, 0x24B3, 0x26EE, 0x28E4, 0x2A5A, 0x2C16, 0x2E2A,
	0x2FB2, 0x321E, 0x34C4, 0x3816, 0x3A45, 0x3EC7, 0x4495, 0x4931,
	0x4DAE, 0x5246, 0x5719, 0x5C4C, 0x61C8, 0x6793, 0x6E19, 0x7485,
}
