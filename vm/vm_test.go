package vm_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"go.creack.net/anotherworld/op"
	"go.creack.net/anotherworld/resource"
	"go.creack.net/anotherworld/vm"
)

// idleLoop keeps a thread alive forever: yield, jump back, yield again.
var idleLoop = []byte{0x06, 0x07, 0x00, 0x00}

// testRepository builds an in-memory repository where every part is
// backed by the same palette and polygon blobs, the start part runs
// program and every other part runs an idle loop.
func testRepository(t *testing.T, part op.GamePart, program []byte) *resource.MemRepository {
	t.Helper()

	var bank []byte
	catalog := make([]resource.Descriptor, 0x80)
	for i := range catalog {
		catalog[i] = resource.Descriptor{ID: byte(i)}
	}
	add := func(id byte, kind op.ResourceKind, data []byte) {
		if catalog[id].Size != 0 {
			return // Parts share the animations id with each other.
		}
		catalog[id] = resource.Descriptor{
			ID:         id,
			Kind:       kind,
			Bank:       1,
			Offset:     uint32(len(bank)),
			PackedSize: uint16(len(data)),
			Size:       uint16(len(data)),
		}
		bank = append(bank, data...)
	}

	polygons := []byte{0xC1, 10, 10, 4, 10, 0, 10, 10, 0, 10, 0, 0}
	for p, ids := range op.PartTable {
		code := idleLoop
		if p == part {
			code = program
		}
		add(ids.Palette, op.KindPalette, make([]byte, 2048))
		add(ids.Bytecode, op.KindBytecode, code)
		add(ids.Polygons, op.KindPolygons, polygons)
		if ids.Animations != 0 {
			add(ids.Animations, op.KindSpritePolygons, polygons)
		}
	}
	sound := append([]byte{0, 4, 0, 0, 0, 0, 0, 0}, 100, 100, 100, 100, 100, 100, 100, 100)
	add(0x2C, op.KindSound, sound)

	return &resource.MemRepository{Catalog: catalog, Banks: map[byte][]byte{1: bank}}
}

func testMachine(t *testing.T, part op.GamePart, program []byte) *vm.Machine {
	t.Helper()
	m, err := vm.New(vm.Config{
		Repository: testRepository(t, part, program),
		StartPart:  part,
	})
	if err != nil {
		t.Fatalf("new machine: %s", err)
	}
	return m
}

func TestKillAndYieldSemantics(t *testing.T) {
	t.Parallel()

	// ctrl(1, 63, resume); kill.
	m := testMachine(t, op.PartIntro, []byte{0x0c, 0x01, 0x3f, 0x00, 0x11})

	if err := m.RunTic(vm.Input{}); err != nil {
		t.Fatalf("tic 1: %s", err)
	}
	if m.Thread(0).Active() {
		t.Fatal("kill must deactivate the thread immediately")
	}
	for id := 1; id < op.ThreadCount; id++ {
		if m.Thread(id).Paused() {
			t.Fatalf("thread %d paused during tic 1", id)
		}
		if m.Thread(id).ScheduledString() != "resume" {
			t.Fatalf("thread %d: scheduled %q", id, m.Thread(id).ScheduledString())
		}
	}

	if err := m.RunTic(vm.Input{}); err != nil {
		t.Fatalf("tic 2: %s", err)
	}
	for id := 0; id < op.ThreadCount; id++ {
		if m.Thread(id).ScheduledString() != "" {
			t.Fatalf("thread %d: scheduled state survived tic 2", id)
		}
	}
}

func TestWrappingArithmetic(t *testing.T) {
	t.Parallel()

	// seti r0, 32767; addi r0, 1; yield.
	m := testMachine(t, op.PartIntro, []byte{
		0x00, 0x00, 0x7f, 0xff,
		0x03, 0x00, 0x00, 0x01,
		0x06,
	})
	if err := m.RunTic(vm.Input{}); err != nil {
		t.Fatalf("tic: %s", err)
	}
	if got := m.Register(0); got != -32768 {
		t.Fatalf("r0: got %d, want -32768", got)
	}
}

func TestJumpIfNotZero(t *testing.T) {
	t.Parallel()

	// seti r0, 3; L: djnz r0, L; yield.
	m := testMachine(t, op.PartIntro, []byte{
		0x00, 0x00, 0x00, 0x03,
		0x09, 0x00, 0x00, 0x04,
		0x06,
	})
	if err := m.RunTic(vm.Input{}); err != nil {
		t.Fatalf("tic: %s", err)
	}
	if got := m.Register(0); got != 0 {
		t.Fatalf("r0: got %d, want 0", got)
	}
	if pc := m.Thread(0).PC(); pc != 9 {
		t.Fatalf("pc after yield: got %d, want 9", pc)
	}
}

func TestCallReturn(t *testing.T) {
	t.Parallel()

	// call 6; yield; (pad) ; sub: seti r5, 9; ret.
	m := testMachine(t, op.PartIntro, []byte{
		0x04, 0x00, 0x06,
		0x06,
		0x00, 0x00,
		0x00, 0x05, 0x00, 0x09,
		0x05,
	})
	if err := m.RunTic(vm.Input{}); err != nil {
		t.Fatalf("tic: %s", err)
	}
	if got := m.Register(5); got != 9 {
		t.Fatalf("r5: got %d, want 9", got)
	}
	if depth := m.Thread(0).Stack().Depth(); depth != 0 {
		t.Fatalf("stack depth: got %d, want 0", depth)
	}
}

func TestStackOverflow(t *testing.T) {
	t.Parallel()

	// L: call L.
	m := testMachine(t, op.PartIntro, []byte{0x04, 0x00, 0x00})
	err := m.RunTic(vm.Input{})
	if !errors.Is(err, vm.ErrStackOverflow) {
		t.Fatalf("tic: got %v, want ErrStackOverflow", err)
	}
	if depth := m.Thread(0).Stack().Depth(); depth != op.StackDepth {
		t.Fatalf("stack depth: got %d, want %d", depth, op.StackDepth)
	}
}

func TestStackUnderflow(t *testing.T) {
	t.Parallel()

	m := testMachine(t, op.PartIntro, []byte{0x05})
	if err := m.RunTic(vm.Input{}); !errors.Is(err, vm.ErrStackUnderflow) {
		t.Fatalf("tic: got %v, want ErrStackUnderflow", err)
	}
}

func TestThreadStalled(t *testing.T) {
	t.Parallel()

	repo := testRepository(t, op.PartIntro, []byte{0x07, 0x00, 0x00})
	m, err := vm.New(vm.Config{Repository: repo, StartPart: op.PartIntro, TicBudget: 100})
	if err != nil {
		t.Fatalf("new machine: %s", err)
	}
	if err := m.RunTic(vm.Input{}); !errors.Is(err, vm.ErrThreadStalled) {
		t.Fatalf("tic: got %v, want ErrThreadStalled", err)
	}
}

func TestInvalidOpcode(t *testing.T) {
	t.Parallel()

	m := testMachine(t, op.PartIntro, []byte{0x1b})
	if err := m.RunTic(vm.Input{}); !errors.Is(err, vm.ErrInvalidOpcode) {
		t.Fatalf("tic: got %v, want ErrInvalidOpcode", err)
	}
}

func TestDeferredActivation(t *testing.T) {
	t.Parallel()

	// start(1, 5); yield; thread 1: yield loop.
	m := testMachine(t, op.PartIntro, []byte{
		0x08, 0x01, 0x00, 0x05,
		0x06,
		0x06, 0x07, 0x00, 0x05,
	})
	if err := m.RunTic(vm.Input{}); err != nil {
		t.Fatalf("tic 1: %s", err)
	}
	if m.Thread(1).Active() {
		t.Fatal("activation applied during the requesting tic")
	}
	if m.Thread(1).ScheduledString() != "start@0x0005" {
		t.Fatalf("thread 1: scheduled %q", m.Thread(1).ScheduledString())
	}

	if err := m.RunTic(vm.Input{}); err != nil {
		t.Fatalf("tic 2: %s", err)
	}
	if !m.Thread(1).Active() {
		t.Fatal("activation not applied at the top of the next tic")
	}
}

func TestControlResourcesDispatch(t *testing.T) {
	t.Parallel()

	// load(0); load(0x2C); load(16002); yield.
	m := testMachine(t, op.PartIntro, []byte{
		0x19, 0x00, 0x00,
		0x19, 0x00, 0x2c,
		0x19, 0x3e, 0x82,
		0x06,
	})
	if err := m.RunTic(vm.Input{}); err != nil {
		t.Fatalf("tic 1: %s", err)
	}
	if m.Memory().Resource(0x2C) == nil {
		t.Fatal("sound 0x2C not resident")
	}
	if part, ok := m.Memory().ScheduledPart(); !ok || part != op.PartLake {
		t.Fatalf("scheduled part: got %s, %t", part, ok)
	}

	oldBytecode := m.Memory().Bytecode
	if err := m.RunTic(vm.Input{}); err != nil {
		t.Fatalf("tic 2: %s", err)
	}
	if m.Part() != op.PartLake {
		t.Fatalf("part after switch: got %s", m.Part())
	}
	if m.Memory().Resource(0x2C) != nil {
		t.Fatal("individual resource survived the part switch")
	}
	if bytes.Equal(oldBytecode, m.Memory().Bytecode) {
		t.Fatal("part switch kept the old bytecode slot")
	}
}

func TestPasswordScreenGate(t *testing.T) {
	t.Parallel()

	m := testMachine(t, op.PartIntro, idleLoop)
	if err := m.RunTic(vm.Input{PasswordScreen: true}); err != nil {
		t.Fatalf("tic: %s", err)
	}
	if part, ok := m.Memory().ScheduledPart(); !ok || part != op.PartPassword {
		t.Fatalf("scheduled part: got %s, %t", part, ok)
	}

	// The copy-protection part refuses the shortcut.
	m = testMachine(t, op.PartProtection, idleLoop)
	if err := m.RunTic(vm.Input{PasswordScreen: true}); err != nil {
		t.Fatalf("tic: %s", err)
	}
	if _, ok := m.Memory().ScheduledPart(); ok {
		t.Fatal("protection part scheduled the password screen")
	}
}

func TestPasswordInput(t *testing.T) {
	t.Parallel()

	m := testMachine(t, op.PartPassword, idleLoop)
	if err := m.RunTic(vm.Input{LastChar: 'h'}); err != nil {
		t.Fatalf("tic: %s", err)
	}
	if got := m.Register(op.RegLastKeyChar); got != 'H' {
		t.Fatalf("last key char: got %d, want %d", got, 'H')
	}
}

func TestInputRegisters(t *testing.T) {
	t.Parallel()

	m := testMachine(t, op.PartIntro, idleLoop)
	if err := m.RunTic(vm.Input{Left: true, Up: true, Action: true}); err != nil {
		t.Fatalf("tic: %s", err)
	}
	if got := m.Register(op.RegHeroPosLeftRight); got != -1 {
		t.Fatalf("left-right: got %d, want -1", got)
	}
	if got := m.Register(op.RegHeroPosUpDown); got != -1 {
		t.Fatalf("up-down: got %d, want -1", got)
	}
	if got := m.Register(op.RegHeroAction); got != 1 {
		t.Fatalf("action: got %d, want 1", got)
	}
	if got := m.Register(op.RegHeroPosMask); got != 2|8 {
		t.Fatalf("movement mask: got %d, want %d", got, 2|8)
	}
	if got := m.Register(op.RegHeroActionPosMask); got != int16(2|8|0x80) {
		t.Fatalf("all-inputs mask: got %d, want %d", got, 2|8|0x80)
	}
}

func TestRenderEmitsOneFrame(t *testing.T) {
	t.Parallel()

	// seti 0xF7, 7; seti 0xFF, 5; show(back); yield.
	m := testMachine(t, op.PartIntro, []byte{
		0x00, 0xf7, 0x00, 0x07,
		0x00, 0xff, 0x00, 0x05,
		0x10, 0xff,
		0x06,
	})
	var frames []time.Duration
	var pages []int
	m.OnFrame = func(page int, delay time.Duration) {
		frames = append(frames, delay)
		pages = append(pages, page)
	}
	if err := m.RunTic(vm.Input{}); err != nil {
		t.Fatalf("tic: %s", err)
	}
	if len(frames) != 1 {
		t.Fatalf("frames: got %d, want 1", len(frames))
	}
	if frames[0] != 5*op.FrameSliceMs*time.Millisecond {
		t.Fatalf("delay: got %s, want 100ms", frames[0])
	}
	if pages[0] != 1 {
		t.Fatalf("page: got %d, want 1 (initial back)", pages[0])
	}
	if got := m.Register(0xF7); got != 0 {
		t.Fatalf("frame-done register: got %d, want 0", got)
	}
}

func TestPlaySound(t *testing.T) {
	t.Parallel()

	// load(0x2C); sound(0x2C, freq 5, vol 40, ch 1); yield.
	m := testMachine(t, op.PartIntro, []byte{
		0x19, 0x00, 0x2c,
		0x18, 0x00, 0x2c, 0x05, 0x28, 0x01,
		0x06,
	})
	if err := m.RunTic(vm.Input{}); err != nil {
		t.Fatalf("tic: %s", err)
	}
	out := make([]byte, 8)
	m.Mixer().Mix(out, 22050)
	if out[0] == 0 {
		t.Fatal("sound produced no audio")
	}
}

func TestDeterminism(t *testing.T) {
	t.Parallel()

	// seti 0xFF, 1; L: addi r1, 3; fill(front, 3); bgpoly; show(back); yield; jmp L.
	program := []byte{
		0x00, 0xff, 0x00, 0x01,
		0x03, 0x01, 0x00, 0x03, // L = 4.
		0x0e, 0xfe, 0x03,
		0x80, 0x00, 50, 60, // Background polygon at offset 0.
		0x10, 0xff,
		0x06,
		0x07, 0x00, 0x04,
	}
	run := func() *vm.Machine {
		m := testMachine(t, op.PartIntro, program)
		for i := 0; i < 10; i++ {
			if err := m.RunTic(vm.Input{}); err != nil {
				t.Fatalf("tic %d: %s", i, err)
			}
		}
		return m
	}

	a, b := run(), run()
	for id := 0; id < op.RegisterCount; id++ {
		if a.Register(byte(id)) != b.Register(byte(id)) {
			t.Fatalf("register 0x%02X diverged", id)
		}
	}
	for page := 0; page < op.PageCount; page++ {
		if !bytes.Equal(a.Video().Page(page), b.Video().Page(page)) {
			t.Fatalf("page %d diverged", page)
		}
	}
	for id := 0; id < op.ThreadCount; id++ {
		ta, tb := a.Thread(id), b.Thread(id)
		if ta.Active() != tb.Active() || ta.PC() != tb.PC() || ta.Paused() != tb.Paused() {
			t.Fatalf("thread %d diverged", id)
		}
	}
}

func TestSpritePolygonSelectors(t *testing.T) {
	t.Parallel()

	// Sprite with x from a register, y from a byte, zoom default:
	// selector 01 01 10 00 -> 0x40 | 0x10 | 0x08 = 0x58.
	// seti r2, 100; sprite(0, x=r2, y=80); yield.
	m := testMachine(t, op.PartIntro, []byte{
		0x00, 0x02, 0x00, 100,
		0x58, 0x00, 0x00, 0x02, 80,
		0x06,
	})
	if err := m.RunTic(vm.Input{}); err != nil {
		t.Fatalf("tic: %s", err)
	}
	// The test polygon is an 11-wide, 10-tall quad of color 1 centered on the
	// draw point; the target page is the initial one (page 2).
	if px := m.Video().Page(2)[80*op.ScreenWidth+100]; px != 1 {
		t.Fatalf("sprite center: got %d, want 1", px)
	}
}

func TestBackgroundPolygonYOverflow(t *testing.T) {
	t.Parallel()

	// y = 210 overflows by 11: the draw lands at y=199, x+=11.
	m := testMachine(t, op.PartIntro, []byte{
		0x80, 0x00, 100, 210,
		0x06,
	})
	if err := m.RunTic(vm.Input{}); err != nil {
		t.Fatalf("tic: %s", err)
	}
	// Bottom rows of the quad clip off the page; the top half is
	// visible around (111, 199).
	if px := m.Video().Page(2)[199*op.ScreenWidth+111]; px != 1 {
		t.Fatalf("overflowed polygon: got %d at (111,199), want 1", px)
	}
}
