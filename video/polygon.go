package video

import (
	"fmt"

	"go.creack.net/anotherworld/op"
)

// Polygon resources are trees of primitives. A leaf starts with a byte
// >= 0xC0 carrying the color override flag; a group starts with 0x02 and
// nests children at their own offsets and positions. All coordinates and
// extents are bytes scaled by zoom/64 at parse time.

// ColorInherit asks a child polygon to use the color embedded in its
// leaf header instead of one forced by the group.
const ColorInherit = 0xFF

type point struct{ x, y int }

// polyCursor is a byte cursor over a polygon resource.
type polyCursor struct {
	data []byte
	pc   int
}

func (c *polyCursor) fetchByte() (byte, error) {
	if c.pc >= len(c.data) {
		return 0, fmt.Errorf("%w: 0x%04X", ErrInvalidAddress, c.pc)
	}
	b := c.data[c.pc]
	c.pc++
	return b, nil
}

func (c *polyCursor) fetchWord() (uint16, error) {
	if c.pc+2 > len(c.data) {
		return 0, fmt.Errorf("%w: 0x%04X", ErrInvalidAddress, c.pc)
	}
	w := op.Endian.Uint16(c.data[c.pc:])
	c.pc += 2
	return w, nil
}

// DrawPolygon walks the primitive tree rooted at offset and rasterizes
// every leaf into the target page. color ColorInherit (or any value with
// the high bit) defers to the colors stored in the resource.
func (v *Video) DrawPolygon(data []byte, offset uint16, color byte, zoom uint16, x, y int) error {
	if int(offset) >= len(data) {
		return fmt.Errorf("%w: root 0x%04X", ErrInvalidAddress, offset)
	}
	return v.drawPrimitive(&polyCursor{data: data, pc: int(offset)}, color, zoom, x, y)
}

func (v *Video) drawPrimitive(c *polyCursor, color byte, zoom uint16, x, y int) error {
	i, err := c.fetchByte()
	if err != nil {
		return err
	}
	if i >= 0xC0 {
		if color&0x80 != 0 {
			color = i & 0x3F
		}
		return v.fillLeaf(c, color, zoom, x, y)
	}
	switch i & 0x3F {
	case 2:
		return v.drawGroup(c, zoom, x, y)
	default:
		return fmt.Errorf("%w: primitive type 0x%02X", ErrInvalidPolygon, i)
	}
}

func (v *Video) drawGroup(c *polyCursor, zoom uint16, x, y int) error {
	scale := func(b byte) int { return int(b) * int(zoom) / op.DefaultZoom }

	dx, err := c.fetchByte()
	if err != nil {
		return err
	}
	dy, err := c.fetchByte()
	if err != nil {
		return err
	}
	x -= scale(dx)
	y -= scale(dy)

	n, err := c.fetchByte()
	if err != nil {
		return err
	}
	for range int(n) + 1 {
		off, err := c.fetchWord()
		if err != nil {
			return err
		}
		cx, err := c.fetchByte()
		if err != nil {
			return err
		}
		cy, err := c.fetchByte()
		if err != nil {
			return err
		}
		color := byte(ColorInherit)
		if off&0x8000 != 0 {
			// Forced color: one color byte plus one pad byte.
			cb, err := c.fetchByte()
			if err != nil {
				return err
			}
			if _, err := c.fetchByte(); err != nil {
				return err
			}
			color = cb & 0x7F
		}
		child := int(off&0x7FFF) * 2
		if child >= len(c.data) {
			return fmt.Errorf("%w: child 0x%04X", ErrInvalidAddress, child)
		}
		sub := &polyCursor{data: c.data, pc: child}
		if err := v.drawPrimitive(sub, color, zoom, x+scale(cx), y+scale(cy)); err != nil {
			return err
		}
	}
	return nil
}

// fillLeaf reads a leaf's bounding box and vertex list, then feeds the
// rasterizer. Vertices are stored clockwise, top to bottom on the right
// side and back up on the left, so walking the list from both ends pairs
// the edges per scanline.
func (v *Video) fillLeaf(c *polyCursor, color byte, zoom uint16, x, y int) error {
	scale := func(b byte) int { return int(b) * int(zoom) / op.DefaultZoom }

	w, err := c.fetchByte()
	if err != nil {
		return err
	}
	h, err := c.fetchByte()
	if err != nil {
		return err
	}
	n, err := c.fetchByte()
	if err != nil {
		return err
	}
	if n == 0 || int(n) > op.MaxPolygonVertices || n&1 != 0 {
		return fmt.Errorf("%w: %d vertices", ErrInvalidPolygon, n)
	}
	pts := make([]point, n)
	for i := range pts {
		px, err := c.fetchByte()
		if err != nil {
			return err
		}
		py, err := c.fetchByte()
		if err != nil {
			return err
		}
		pts[i] = point{scale(px), scale(py)}
	}
	v.fillPolygon(color, scale(w), scale(h), pts, x, y)
	return nil
}
