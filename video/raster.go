package video

import "go.creack.net/anotherworld/op"

// Color values above the palette range select a draw mode instead of a
// color: 0x10 brightens whatever is under the span by setting the high
// palette bit, anything higher copies the corresponding pixel from
// page 0 (the mask page).
const (
	colorHighlight = 0x10
)

func (v *Video) pixel(page []byte, x, y int, color byte) {
	o := y*op.ScreenWidth + x
	switch {
	case color < colorHighlight:
		page[o] = color
	case color == colorHighlight:
		page[o] |= 8
	default:
		page[o] = v.pages[0][o]
	}
}

// DrawPoint plots a single clipped pixel on the target page.
func (v *Video) DrawPoint(x, y int, color byte) {
	if x < 0 || x >= op.ScreenWidth || y < 0 || y >= op.ScreenHeight {
		return
	}
	v.pixel(v.pages[v.target], x, y, color)
}

// DrawSpan fills [x1, x2] on one scanline of the target page. Bounds are
// clipped, an empty or off-screen span is dropped.
func (v *Video) DrawSpan(x1, x2, y int, color byte) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y < 0 || y >= op.ScreenHeight || x1 > op.ScreenWidth-1 || x2 < 0 {
		return
	}
	x1 = max(x1, 0)
	x2 = min(x2, op.ScreenWidth-1)
	page := v.pages[v.target]
	switch {
	case color < colorHighlight:
		o := y * op.ScreenWidth
		for x := x1; x <= x2; x++ {
			page[o+x] = color
		}
	case color == colorHighlight:
		o := y * op.ScreenWidth
		for x := x1; x <= x2; x++ {
			page[o+x] |= 8
		}
	default:
		o := y*op.ScreenWidth + x1
		copy(page[o:y*op.ScreenWidth+x2+1], v.pages[0][o:])
	}
}

// fillPolygon traces the vertex list as left/right edge pairs, walking
// one scanline at a time with 16.16 fixed-point x cursors. pts hold
// zoom-scaled offsets relative to the bounding box's top-left corner;
// (cx, cy) is the box center on the page.
func (v *Video) fillPolygon(color byte, bbw, bbh int, pts []point, cx, cy int) {
	if bbw == 0 && bbh == 1 && len(pts) == 4 {
		v.DrawPoint(cx, cy, color)
		return
	}

	x1 := cx - bbw/2
	x2 := cx + bbw/2
	y1 := cy - bbh/2
	y2 := cy + bbh/2
	if x1 > op.ScreenWidth-1 || x2 < 0 || y1 > op.ScreenHeight-1 || y2 < 0 {
		return
	}

	i, j := 0, len(pts)-1
	x2 = pts[i].x + x1
	x1 = pts[j].x + x1
	i++
	j--

	cpt1 := uint32(x1) << 16
	cpt2 := uint32(x2) << 16

	line := y1
	for remaining := len(pts); ; {
		remaining -= 2
		if remaining == 0 {
			break
		}
		step1, _ := edgeStep(pts[j+1], pts[j])
		step2, h := edgeStep(pts[i-1], pts[i])
		i++
		j--

		// Seed the fractional halves so the left edge rounds down and
		// the right edge rounds up.
		cpt1 = cpt1&0xFFFF0000 | 0x7FFF
		cpt2 = cpt2&0xFFFF0000 | 0x8000

		if h == 0 {
			cpt1 += uint32(step1)
			cpt2 += uint32(step2)
			continue
		}
		for ; h > 0; h-- {
			if line >= 0 {
				v.DrawSpan(int(int32(cpt1)>>16), int(int32(cpt2)>>16), line, color)
			}
			cpt1 += uint32(step1)
			cpt2 += uint32(step2)
			line++
			if line > op.ScreenHeight-1 {
				return
			}
		}
	}
}

// edgeStep returns the per-scanline x increment of the edge p1->p2 in
// 16.16 fixed point, plus the edge height.
func edgeStep(p1, p2 point) (int32, int) {
	dy := p2.y - p1.y
	div := dy
	if div == 0 {
		div = 1
	}
	return int32(p2.x-p1.x) << 16 / int32(div), dy
}
