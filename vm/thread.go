package vm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidThreadID = errors.New("invalid thread id")
	ErrThreadStalled   = errors.New("thread exceeded the tic instruction budget")
)

// Thread is one of the 64 scheduler entries: a stored program counter, a
// pause flag, its own call stack and the deferred transitions requested
// by the control instructions. Scheduled fields are applied and cleared
// at the top of the next tic, never mid-tic.
type Thread struct {
	active bool
	pc     uint16
	paused bool

	stack Stack

	schedActive  bool
	schedPC      uint16
	hasSchedExec bool

	schedPaused   bool
	hasSchedPause bool
}

func (t *Thread) Active() bool  { return t.active }
func (t *Thread) Paused() bool  { return t.paused }
func (t *Thread) PC() uint16    { return t.pc }
func (t *Thread) Stack() *Stack { return &t.stack }

// ScheduledString renders the pending transitions for the viewers.
func (t *Thread) ScheduledString() string {
	var parts []string
	if t.hasSchedExec {
		if t.schedActive {
			parts = append(parts, fmt.Sprintf("start@0x%04X", t.schedPC))
		} else {
			parts = append(parts, "stop")
		}
	}
	if t.hasSchedPause {
		if t.schedPaused {
			parts = append(parts, "pause")
		} else {
			parts = append(parts, "resume")
		}
	}
	return strings.Join(parts, ",")
}

// ScheduleExec requests an execution-state change for the next tic.
func (t *Thread) ScheduleExec(active bool, pc uint16) {
	t.hasSchedExec = true
	t.schedActive = active
	t.schedPC = pc
}

// SchedulePause requests a pause-state change for the next tic.
func (t *Thread) SchedulePause(paused bool) {
	t.hasSchedPause = true
	t.schedPaused = paused
}

// applyScheduled applies and clears the deferred transitions. A thread
// coming alive starts from a clean stack.
func (t *Thread) applyScheduled() {
	if t.hasSchedPause {
		t.paused = t.schedPaused
		t.hasSchedPause = false
	}
	if t.hasSchedExec {
		t.active = t.schedActive
		if t.active {
			t.pc = t.schedPC
			t.stack.Clear()
		}
		t.hasSchedExec = false
	}
}

// reset puts the thread in its part-load state.
func (t *Thread) reset() {
	*t = Thread{}
}
