// Package vm runs the bytecode: 64 cooperative threads stepped in id
// order once per tic, against the register file, the video pages and
// the audio channels.
package vm

import (
	"errors"
	"fmt"
	"time"

	"go.creack.net/anotherworld/audio"
	"go.creack.net/anotherworld/op"
	"go.creack.net/anotherworld/resource"
	"go.creack.net/anotherworld/video"
)

var ErrNoPart = errors.New("no game part loaded or scheduled")

type Config struct {
	Repository resource.Repository

	// StartPart is the part the machine boots into.
	StartPart op.GamePart

	// TicBudget caps the instructions a single thread may run in one
	// tic. 0 means op.DefaultTicBudget.
	TicBudget int

	// Seed initializes the random-seed register.
	Seed int16

	// Trace floods the message channel with per-instruction debug.
	Trace bool
}

// Machine owns every subsystem. Build one per game; there is no global
// state anywhere, tests run machines side by side.
type Machine struct {
	cfg Config

	mem    *resource.Memory
	video  *video.Video
	mixer  *audio.Mixer
	player *audio.Player

	regs    Registers
	threads [op.ThreadCount]Thread

	cursor Cursor
	cur    int // Id of the thread being stepped.

	ticks   uint64
	musicMs int

	// Messages is the machine's event stream. Optional to consume;
	// see Message.
	Messages chan Message

	// OnFrame is invoked by the render instruction with the page to
	// present and how long the host should show it. The host owns the
	// sleep. Optional.
	OnFrame func(page int, delay time.Duration)
}

func New(cfg Config) (*Machine, error) {
	if cfg.TicBudget == 0 {
		cfg.TicBudget = op.DefaultTicBudget
	}
	if cfg.StartPart == 0 {
		cfg.StartPart = op.PartIntro
	}
	if !cfg.StartPart.Valid() {
		return nil, fmt.Errorf("%w: %d", resource.ErrInvalidResourceID, uint16(cfg.StartPart))
	}
	mem, err := resource.NewMemory(cfg.Repository)
	if err != nil {
		return nil, err
	}
	mixer := audio.NewMixer()
	m := &Machine{
		cfg:      cfg,
		mem:      mem,
		video:    video.New(),
		mixer:    mixer,
		player:   audio.NewPlayer(mixer),
		Messages: make(chan Message, 64),
	}
	m.seedRegisters()
	m.mem.SchedulePart(cfg.StartPart)
	return m, nil
}

// seedRegisters writes the warm-start values the shipped interpreter
// leaves behind before the first part runs, so any part is playable as
// an entry point.
func (m *Machine) seedRegisters() {
	m.regs[op.RegRandomSeed] = m.cfg.Seed
	m.regs[0x54] = 0x81
	m.regs[0xBC] = 0x10
	m.regs[0xC6] = 0x80
	m.regs[0xF2] = 4000
	m.regs[0xDC] = 33
}

func (m *Machine) Video() *video.Video      { return m.video }
func (m *Machine) Mixer() *audio.Mixer      { return m.mixer }
func (m *Machine) Player() *audio.Player    { return m.player }
func (m *Machine) Memory() *resource.Memory { return m.mem }
func (m *Machine) Ticks() uint64            { return m.ticks }
func (m *Machine) Part() op.GamePart        { return m.mem.Part() }

// Register exposes a register's signed value.
func (m *Machine) Register(id byte) int16 { return m.regs[id] }

// SetRegister pokes a register. Front-end/debugger use.
func (m *Machine) SetRegister(id byte, v int16) { m.regs[id] = v }

// Thread exposes a thread's state for the viewers and the tests.
func (m *Machine) Thread(id int) *Thread { return &m.threads[id] }

// RunTic advances the machine by one scheduler quantum: part switch,
// input, deferred thread transitions, then every runnable thread in id
// order until it yields, dies or blows the budget.
func (m *Machine) RunTic(in Input) error {
	if part, ok := m.mem.ScheduledPart(); ok {
		if err := m.loadPart(part); err != nil {
			return err
		}
	}
	if m.mem.Part() == 0 {
		return ErrNoPart
	}

	m.applyInput(in)

	if v, ok := m.player.TakeSync(); ok {
		m.regs[op.RegMusicSync] = v
	}
	m.tickMusic()

	for i := range m.threads {
		m.threads[i].applyScheduled()
	}

	for i := range m.threads {
		t := &m.threads[i]
		if !t.active || t.paused {
			continue
		}
		m.cur = i
		m.cursor = Cursor{code: m.mem.Bytecode, pc: int(t.pc)}
		if err := m.runThread(t); err != nil {
			return err
		}
	}
	m.ticks++
	return nil
}

func (m *Machine) runThread(t *Thread) error {
	for budget := m.cfg.TicBudget; budget > 0; budget-- {
		pc := m.cursor.Pos()
		action, err := m.step()
		if err != nil {
			return fmt.Errorf("thread %d @ 0x%04X: %w", m.cur, pc, err)
		}
		switch action {
		case actionYield:
			t.pc = m.cursor.Pos()
			return nil
		case actionKill:
			t.active = false
			return nil
		}
	}
	return fmt.Errorf("thread %d: %w", m.cur, ErrThreadStalled)
}

// loadPart is the part-switch resetting step: fresh resources, fresh
// threads, thread 0 alone at address 0, everything audible silenced.
func (m *Machine) loadPart(part op.GamePart) error {
	m.player.Stop()
	m.mixer.StopAll()
	if err := m.mem.LoadPart(part); err != nil {
		return err
	}
	for i := range m.threads {
		m.threads[i].reset()
	}
	m.threads[0].active = true
	m.video.Reset(m.mem.Palettes)
	m.musicMs = 0
	m.emit(Message{Type: MsgPartChanged, Text: part.String()})
	return nil
}

// tickMusic advances the score. The pattern clock is decoupled from the
// render delay: a tic contributes one frame slice, and rows fire as
// often as the module tempo asks.
func (m *Machine) tickMusic() {
	if !m.player.Playing() {
		m.musicMs = 0
		return
	}
	delay := m.player.DelayMs()
	if delay <= 0 {
		return
	}
	m.musicMs += op.FrameSliceMs
	for m.musicMs >= delay && m.player.Playing() {
		m.musicMs -= delay
		m.player.Tick()
	}
}
