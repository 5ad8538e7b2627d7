package vm

import (
	"errors"
	"fmt"
	"time"

	"go.creack.net/anotherworld/audio"
	"go.creack.net/anotherworld/op"
	"go.creack.net/anotherworld/video"
)

var ErrInvalidOpcode = errors.New("invalid opcode")

// action is what an instruction tells the scheduler.
type action int

const (
	actionContinue action = iota
	actionYield
	actionKill
)

// step decodes and executes one instruction for the current thread.
// The two polygon forms are flagged in the high bits; everything else is
// a small opcode with a fixed payload.
func (m *Machine) step() (action, error) {
	code := m.cursor.U8()
	if err := m.cursor.Err(); err != nil {
		return actionContinue, err
	}
	switch {
	case code&op.OpBackgroundPolygonBit != 0:
		return actionContinue, m.drawBackgroundPolygon(code)
	case code&op.OpSpritePolygonBit != 0:
		return actionContinue, m.drawSpritePolygon(code)
	default:
		return m.execute(code)
	}
}

func (m *Machine) execute(code byte) (action, error) {
	c := &m.cursor
	switch code {
	case 0x00: // seti.
		dst, v := c.U8(), c.S16()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		m.regs[dst] = v

	case 0x01: // mov.
		dst, src := c.U8(), c.U8()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		m.regs[dst] = m.regs[src]

	case 0x02: // add.
		dst, src := c.U8(), c.U8()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		m.regs[dst] += m.regs[src]

	case 0x03: // addi.
		dst, v := c.U8(), c.S16()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		m.regs[dst] += v

	case 0x04: // call.
		addr := c.U16()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		if err := m.threads[m.cur].stack.Push(c.Pos()); err != nil {
			return actionContinue, err
		}
		c.Jump(addr)
		return actionContinue, c.Err()

	case 0x05: // ret.
		addr, err := m.threads[m.cur].stack.Pop()
		if err != nil {
			return actionContinue, err
		}
		c.Jump(addr)
		return actionContinue, c.Err()

	case 0x06: // yield.
		return actionYield, nil

	case 0x07: // jmp.
		addr := c.U16()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		c.Jump(addr)
		return actionContinue, c.Err()

	case 0x08: // start.
		id, addr := c.U8(), c.U16()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		if int(id) >= op.ThreadCount {
			return actionContinue, fmt.Errorf("%w: %d", ErrInvalidThreadID, id)
		}
		if int(addr) >= len(c.code) {
			return actionContinue, ErrInvalidAddress
		}
		m.threads[id].ScheduleExec(true, addr)
		m.debugf("start thread %d @ 0x%04X", id, addr)

	case 0x09: // djnz.
		reg, addr := c.U8(), c.U16()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		m.regs[reg]--
		if m.regs[reg] != 0 {
			c.Jump(addr)
		}
		return actionContinue, c.Err()

	case 0x0a: // cjmp.
		return actionContinue, m.condJump()

	case 0x0b: // pal.
		w := c.U16()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		// 0xFF in the high byte means "no change" in the shipped
		// bytecode.
		if id := byte(w >> 8); id != 0xFF {
			return actionContinue, m.video.SelectPalette(id)
		}

	case 0x0c: // ctrl.
		return actionContinue, m.controlThreads()

	case 0x0d: // page.
		id := c.U8()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		return actionContinue, m.video.SelectTarget(id)

	case 0x0e: // fill.
		id, color := c.U8(), c.U8()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		return actionContinue, m.video.Fill(id, color)

	case 0x0f: // copy.
		src, dst := c.U8(), c.U8()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		return actionContinue, m.video.Copy(src, dst, m.regs[op.RegScrollY])

	case 0x10: // show.
		id := c.U8()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		return actionContinue, m.renderPage(id)

	case 0x11: // kill.
		return actionKill, nil

	case 0x12: // text.
		id, x, y, color := c.U16(), c.U8(), c.U8(), c.U8()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		// An unknown string id is reported as a warning; the tic goes on.
		if err := m.video.DrawString(id, color, int(x), int(y)); err != nil {
			m.warnf("text: %s", err)
		}

	case 0x13: // sub.
		dst, src := c.U8(), c.U8()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		m.regs[dst] -= m.regs[src]

	case 0x14: // andi.
		dst, mask := c.U8(), c.U16()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		m.regs.SetU(dst, m.regs.U(dst)&mask)

	case 0x15: // ori.
		dst, mask := c.U8(), c.U16()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		m.regs.SetU(dst, m.regs.U(dst)|mask)

	case 0x16: // shl.
		dst, n := c.U8(), c.U16()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		m.regs.SetU(dst, m.regs.U(dst)<<n)

	case 0x17: // shr.
		dst, n := c.U8(), c.U16()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		m.regs.SetU(dst, m.regs.U(dst)>>n)

	case 0x18: // sound.
		return actionContinue, m.playSound()

	case 0x19: // load.
		id := c.U16()
		if err := c.Err(); err != nil {
			return actionContinue, err
		}
		return actionContinue, m.loadResource(id)

	case 0x1a: // music.
		return actionContinue, m.playMusic()

	default:
		return actionContinue, fmt.Errorf("%w: 0x%02X", ErrInvalidOpcode, code)
	}
	return actionContinue, nil
}

// condJump compares a register to an operand whose form is picked by the
// high bits of the comparison byte: register, 16-bit constant or byte.
func (m *Machine) condJump() error {
	c := &m.cursor
	cond := c.U8()
	b := m.regs[c.U8()]
	var a int16
	switch operand := c.U8(); {
	case cond&0x80 != 0:
		a = m.regs[operand]
	case cond&0x40 != 0:
		a = int16(uint16(operand)<<8 | uint16(c.U8()))
	default:
		a = int16(operand)
	}
	addr := c.U16()
	if err := c.Err(); err != nil {
		return err
	}

	var expr bool
	switch cond & 7 {
	case 0:
		expr = b == a
	case 1:
		expr = b != a
	case 2:
		expr = b > a
	case 3:
		expr = b >= a
	case 4:
		expr = b < a
	case 5:
		expr = b <= a
	default:
		return fmt.Errorf("%w: cjmp condition %d", ErrInvalidOpcode, cond&7)
	}
	if expr {
		c.Jump(addr)
	}
	return c.Err()
}

func (m *Machine) controlThreads() error {
	c := &m.cursor
	first, last, state := c.U8(), c.U8(), c.U8()
	if err := c.Err(); err != nil {
		return err
	}
	if int(first) >= op.ThreadCount || int(last) >= op.ThreadCount || first > last {
		return fmt.Errorf("%w: range %d..%d", ErrInvalidThreadID, first, last)
	}
	for id := first; id <= last; id++ {
		t := &m.threads[id]
		switch state {
		case 0:
			t.SchedulePause(false)
		case 1:
			t.SchedulePause(true)
		case 2:
			t.ScheduleExec(false, 0)
		default:
			return fmt.Errorf("%w: ctrl state %d", ErrInvalidOpcode, state)
		}
	}
	m.debugf("ctrl threads %d..%d state %d", first, last, state)
	return nil
}

func (m *Machine) renderPage(id byte) error {
	delay := time.Duration(m.regs[op.RegPauseSlices]) * op.FrameSliceMs * time.Millisecond
	m.regs[op.RegFrameDone] = 0
	page, err := m.video.Show(id)
	if err != nil {
		return err
	}
	m.emit(Message{Type: MsgFrame, Thread: m.cur, Page: page, Delay: delay})
	if m.OnFrame != nil {
		m.OnFrame(page, delay)
	}
	return nil
}

func (m *Machine) playSound() error {
	c := &m.cursor
	id, freqID, vol, ch := c.U16(), c.U8(), c.U8(), c.U8()
	if err := c.Err(); err != nil {
		return err
	}
	if int(freqID) >= len(op.FreqTable) {
		return fmt.Errorf("%w: frequency id %d", ErrInvalidOpcode, freqID)
	}
	if vol == 0 {
		return m.mixer.Stop(int(ch & 3))
	}
	if id > 0xFF {
		return fmt.Errorf("sound 0x%04X: %w", id, ErrInvalidOpcode)
	}
	data := m.mem.Resource(byte(id))
	if data == nil || len(data) < 8 {
		m.warnf("sound 0x%02X not resident", id)
		return nil
	}
	length := int(op.Endian.Uint16(data)) * 2
	loopLen := int(op.Endian.Uint16(data[2:])) * 2
	sample := audio.Sample{Data: data[8:]}
	if length > len(sample.Data) {
		length = len(sample.Data)
	}
	if loopLen != 0 {
		sample.LoopPos = length
		if length+loopLen > len(sample.Data) {
			loopLen = len(sample.Data) - length
		}
		sample.LoopLen = loopLen
	} else {
		sample.Data = sample.Data[:length]
	}
	if len(sample.Data) == 0 {
		m.warnf("sound 0x%02X is empty", id)
		return nil
	}
	m.emit(Message{Type: MsgSound, Thread: m.cur, Text: fmt.Sprintf("sound 0x%02X ch %d vol %d", id, ch&3, vol)})
	return m.mixer.Play(int(ch&3), sample, int(op.FreqTable[freqID]), int(vol))
}

// loadResource is the resource dispatch: 0 evicts, a part id schedules
// the switch, anything else loads one resource. Freshly loaded bitmaps
// land in page 0 immediately.
func (m *Machine) loadResource(id uint16) error {
	if id == 0 {
		m.player.Stop()
		m.mixer.StopAll()
		m.mem.UnloadAll()
		return nil
	}
	if part := op.GamePart(id); part.Valid() {
		m.mem.SchedulePart(part)
		m.debugf("schedule part %s", part)
		return nil
	}
	if id > 0xFF {
		return fmt.Errorf("resource 0x%04X: %w", id, ErrInvalidOpcode)
	}
	buf, kind, err := m.mem.Load(byte(id))
	if err != nil {
		return err
	}
	if kind == op.KindBitmap && buf != nil {
		return m.video.DrawBitmap(buf)
	}
	return nil
}

func (m *Machine) playMusic() error {
	c := &m.cursor
	id, delay, pos := c.U16(), c.U16(), c.U8()
	if err := c.Err(); err != nil {
		return err
	}
	switch {
	case id != 0:
		if id > 0xFF {
			return fmt.Errorf("music 0x%04X: %w", id, ErrInvalidOpcode)
		}
		buf, _, err := m.mem.Load(byte(id))
		if err != nil {
			return err
		}
		mod, err := audio.ParseModule(buf, delay, m.mem.Resource)
		if err != nil {
			return err
		}
		m.player.Start(mod, int(pos))
		m.emit(Message{Type: MsgMusic, Thread: m.cur, Text: fmt.Sprintf("music 0x%02X pos %d", id, pos)})
	case delay != 0:
		m.player.SetDelay(delay)
	default:
		m.player.Stop()
	}
	return nil
}

// drawBackgroundPolygon draws from the polygons resource at default
// zoom. The opcode byte and the next one form the polygon address; x
// and y follow as bytes, with y overflow beyond the last row carried
// into x to reach the right edge of the 320-pixel page.
func (m *Machine) drawBackgroundPolygon(code byte) error {
	c := &m.cursor
	lo := c.U8()
	x := int(c.U8())
	y := int(c.U8())
	if err := c.Err(); err != nil {
		return err
	}
	offset := (uint16(code)<<8 | uint16(lo)) << 1
	if h := y - (op.ScreenHeight - 1); h > 0 {
		y = op.ScreenHeight - 1
		x += h
	}
	return m.video.DrawPolygon(m.mem.Polygons, offset, video.ColorInherit, op.DefaultZoom, x, y)
}

// drawSpritePolygon decodes the 01 xx yy ss selector byte: x and y come
// from a 16-bit constant, a register or a byte (x optionally offset by
// 256); ss picks the zoom source and, for 11, the animations resource.
func (m *Machine) drawSpritePolygon(code byte) error {
	c := &m.cursor
	offset := c.U16() << 1

	var x, y, zoom int
	b := c.U8()
	switch code >> 4 & 3 {
	case 0:
		x = int(int16(uint16(b)<<8 | uint16(c.U8())))
	case 1:
		x = int(m.regs[b])
	case 2:
		x = int(b)
	case 3:
		x = int(b) + 0x100
	}
	b = c.U8()
	switch code >> 2 & 3 {
	case 0:
		y = int(int16(uint16(b)<<8 | uint16(c.U8())))
	case 1:
		y = int(m.regs[b])
	default:
		y = int(b)
	}
	source := m.mem.Polygons
	zoom = op.DefaultZoom
	switch code & 3 {
	case 1:
		zoom = int(m.regs.U(c.U8()))
	case 2:
		zoom = int(c.U8())
	case 3:
		if m.mem.Animations != nil {
			source = m.mem.Animations
		}
	}
	if err := c.Err(); err != nil {
		return err
	}
	return m.video.DrawPolygon(source, offset, video.ColorInherit, uint16(zoom), x, y)
}
