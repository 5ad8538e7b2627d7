package vm

import "go.creack.net/anotherworld/op"

// Input is the host's view of the controls for one tic.
type Input struct {
	Left, Right, Up, Down bool
	Action                bool

	// LastChar is the last character typed, consumed by the password
	// screen. Zero when nothing was typed.
	LastChar byte

	// PasswordScreen requests a switch to the password-entry part.
	PasswordScreen bool
}

// applyInput folds the controls into the well-known registers.
func (m *Machine) applyInput(in Input) {
	var lr, ud, mask int16

	if in.Right {
		lr = 1
		mask |= 1
	}
	if in.Left {
		lr = -1
		mask |= 2
	}
	if in.Down {
		ud = 1
		mask |= 4
	}
	if in.Up {
		ud = -1
		mask |= 8
	}
	m.regs[op.RegHeroPosUpDown] = ud
	m.regs[op.RegHeroPosJumpDown] = ud
	m.regs[op.RegHeroPosLeftRight] = lr
	m.regs[op.RegHeroPosMask] = mask
	if in.Action {
		m.regs[op.RegHeroAction] = 1
		mask |= 0x80
	} else {
		m.regs[op.RegHeroAction] = 0
	}
	m.regs[op.RegHeroActionPosMask] = mask

	part := m.mem.Part()
	if part == op.PartPassword && in.LastChar != 0 {
		c := in.LastChar
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if (c >= 'A' && c <= 'Z') || c == 8 || c == 0xD {
			m.regs[op.RegLastKeyChar] = int16(c) & 0x7F
		}
	}
	if in.PasswordScreen && part != op.PartProtection && part != op.PartPassword {
		m.mem.SchedulePart(op.PartPassword)
	}
}
