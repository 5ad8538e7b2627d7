// Package resource reads the game data: the manifest, the bank files,
// the in-place unpacker and the memory holding the loaded resources.
package resource

import (
	"errors"
	"fmt"

	"go.creack.net/anotherworld/op"
)

var (
	ErrTruncatedInput    = errors.New("truncated compressed stream")
	ErrCopyOutOfRange    = errors.New("back reference out of range")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
	ErrInvalidCompressed = errors.New("invalid compressed data")
)

// unpacker decodes the bank compression scheme. The stream is read from
// the end backwards and the output is written from the end backwards.
// The trailer holds the unpacked size and a checksum; the checksum is the
// xor of every 32-bit word of the stream and must cancel out to zero.
type unpacker struct {
	src []byte
	i   int // Read cursor, moves down.

	dst []byte
	o   int // Write cursor, moves down.

	chk uint32 // Current 32-bit chunk being consumed bit by bit.
	crc uint32

	err error
}

// Unpack decodes src into dst. dst must be sized to the unpacked length
// announced by the stream trailer.
func Unpack(dst, src []byte) error {
	if len(src) < 12 {
		return fmt.Errorf("%w: %d byte stream", ErrTruncatedInput, len(src))
	}
	u := &unpacker{src: src, i: len(src), dst: dst, o: len(dst)}

	size := u.readWord()
	if int(size) != len(dst) {
		return fmt.Errorf("%w: trailer says %d bytes, buffer holds %d", ErrInvalidCompressed, size, len(dst))
	}
	u.crc = u.readWord()
	u.chk = u.readWord()
	u.crc ^= u.chk

	remaining := int(size)
	for remaining > 0 && u.err == nil {
		remaining -= u.step()
	}
	if u.err != nil {
		return u.err
	}
	if remaining < 0 || u.o != 0 {
		return fmt.Errorf("%w: output cursor off by %d", ErrInvalidCompressed, u.o)
	}
	if u.crc != 0 {
		return ErrChecksumMismatch
	}
	return nil
}

// step decodes one run and returns the number of bytes it produced.
// The two low opcodes emit literals, the others copy back references.
func (u *unpacker) step() int {
	if !u.nextBit() {
		if !u.nextBit() {
			return u.literal(u.getCode(3) + 1)
		}
		return u.copyRun(u.getCode(8), 2)
	}
	switch c := u.getCode(2); {
	case c == 3:
		return u.literal(u.getCode(8) + 9)
	case c < 2:
		return u.copyRun(u.getCode(int(c)+9), int(c)+3)
	default:
		count := u.getCode(8) + 1
		return u.copyRun(u.getCode(12), int(count))
	}
}

func (u *unpacker) literal(count uint32) int {
	for n := count; n > 0 && u.err == nil; n-- {
		b := byte(u.getCode(8))
		if u.o == 0 {
			u.fail(fmt.Errorf("%w: literal run past start of buffer", ErrInvalidCompressed))
			return int(count)
		}
		u.o--
		u.dst[u.o] = b
	}
	return int(count)
}

func (u *unpacker) copyRun(offset uint32, count int) int {
	for n := count; n > 0 && u.err == nil; n-- {
		if u.o == 0 {
			u.fail(fmt.Errorf("%w: copy run past start of buffer", ErrInvalidCompressed))
			return count
		}
		src := u.o + int(offset) - 1
		if src >= len(u.dst) {
			u.fail(fmt.Errorf("%w: offset %d at %d", ErrCopyOutOfRange, offset, u.o))
			return count
		}
		u.o--
		u.dst[u.o] = u.dst[src]
	}
	return count
}

func (u *unpacker) readWord() uint32 {
	if u.i < 4 {
		u.fail(ErrTruncatedInput)
		return 0
	}
	u.i -= 4
	return op.Endian.Uint32(u.src[u.i:])
}

// nextBit shifts one bit out of the current chunk, refilling it from the
// stream when it runs empty. The refill bit pattern keeps a sentinel in
// the top bit so a chunk always drains after exactly 32 bits.
func (u *unpacker) nextBit() bool {
	cf := u.chk&1 != 0
	u.chk >>= 1
	if u.chk == 0 {
		u.chk = u.readWord()
		u.crc ^= u.chk
		cf = u.chk&1 != 0
		u.chk = (u.chk >> 1) | 0x80000000
	}
	return cf
}

func (u *unpacker) getCode(bits int) uint32 {
	var c uint32
	for range bits {
		c <<= 1
		if u.nextBit() {
			c |= 1
		}
	}
	return c
}

func (u *unpacker) fail(err error) {
	if u.err == nil {
		u.err = err
	}
}
