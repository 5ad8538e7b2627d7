package vm

import (
	"fmt"
	"time"
)

type MessageType int

const (
	_ MessageType = iota
	MsgDebug
	MsgWarning
	MsgFrame
	MsgPageChanged
	MsgPartChanged
	MsgSound
	MsgMusic
)

func (mt MessageType) String() string {
	switch mt {
	case MsgDebug:
		return "Debug"
	case MsgWarning:
		return "Warning"
	case MsgFrame:
		return "Frame"
	case MsgPageChanged:
		return "Page"
	case MsgPartChanged:
		return "Part"
	case MsgSound:
		return "Sound"
	case MsgMusic:
		return "Music"
	default:
		return "Unknown"
	}
}

// Message is one entry of the machine's event stream. Front ends consume
// the channel for their log panes; nothing in the core depends on it
// being drained — the machine drops messages when the consumer lags.
type Message struct {
	Type   MessageType
	Thread int
	Text   string

	// Frame fields, set on MsgFrame/MsgPageChanged.
	Page  int
	Delay time.Duration
}

// emit publishes a message without ever blocking the tic.
func (m *Machine) emit(msg Message) {
	select {
	case m.Messages <- msg:
	default:
	}
}

func (m *Machine) debugf(format string, args ...any) {
	if !m.cfg.Trace {
		return
	}
	m.emit(Message{Type: MsgDebug, Thread: m.cur, Text: fmt.Sprintf(format, args...)})
}

func (m *Machine) warnf(format string, args ...any) {
	m.emit(Message{Type: MsgWarning, Thread: m.cur, Text: fmt.Sprintf(format, args...)})
}
