package audio_test

import (
	"testing"

	"go.creack.net/anotherworld/audio"
	"go.creack.net/anotherworld/op"
)

// testModule builds a one-pattern module: instrument 1 on resource
// 0x2B, row 0 plays it on channel 0, row 1 publishes a sync value, row
// 2 cuts the channel.
func testModule(t *testing.T) *audio.Module {
	t.Helper()

	head := make([]byte, 0xC0)
	op.Endian.PutUint16(head, 6000)     // Tempo.
	op.Endian.PutUint16(head[2:], 0x2B) // Instrument 1 resource.
	op.Endian.PutUint16(head[4:], 40)   // Instrument 1 volume.
	op.Endian.PutUint16(head[0x3E:], 1) // One order.
	head[0x40] = 0                      // Order 0 -> pattern 0.

	pattern := make([]byte, 1024)
	op.Endian.PutUint16(pattern, 3424)        // Row 0 ch 0: note.
	op.Endian.PutUint16(pattern[2:], 0x1000)  // Instrument 1.
	op.Endian.PutUint16(pattern[16:], 0xFFFD) // Row 1 ch 0: sync.
	op.Endian.PutUint16(pattern[18:], 42)
	op.Endian.PutUint16(pattern[32:], 0xFFFE) // Row 2 ch 0: stop.

	sound := append([]byte{0, 8, 0, 0, 0, 0, 0, 0}, make([]byte, 16)...)
	for i := range sound[8:] {
		sound[8+i] = 100
	}
	mod, err := audio.ParseModule(append(head, pattern...), 0, func(id byte) []byte {
		if id != 0x2B {
			t.Fatalf("unexpected sample load: 0x%02X", id)
		}
		return sound
	})
	if err != nil {
		t.Fatalf("parse module: %s", err)
	}
	return mod
}

func TestPlayerPattern(t *testing.T) {
	t.Parallel()

	mixer := audio.NewMixer()
	player := audio.NewPlayer(mixer)
	player.Start(testModule(t), 0)

	if !player.Playing() {
		t.Fatal("player not playing after start")
	}
	if ms := player.DelayMs(); ms != 6000*60/7050 {
		t.Fatalf("delay: got %dms", ms)
	}

	// Row 0: the note lands on mixer channel 0.
	player.Tick()
	out := make([]byte, 8)
	mixer.Mix(out, 22050)
	if out[0] == 0 {
		t.Fatal("row 0 produced no audio")
	}

	// Row 1: sync value published, exactly once.
	player.Tick()
	if v, ok := player.TakeSync(); !ok || v != 42 {
		t.Fatalf("sync: got %d, %t", v, ok)
	}
	if _, ok := player.TakeSync(); ok {
		t.Fatal("sync value not cleared after take")
	}

	// Row 2: the channel is cut.
	player.Tick()
	mixer.Mix(out, 22050)
	for _, s := range out {
		if s != 0 {
			t.Fatalf("row 2 left the channel running: %v", out)
		}
	}

	// The single pattern runs out after 64 rows.
	for range 64 {
		player.Tick()
	}
	if player.Playing() {
		t.Fatal("player still playing past the last order")
	}
}

func TestPlayerSetDelay(t *testing.T) {
	t.Parallel()

	player := audio.NewPlayer(audio.NewMixer())
	player.Start(testModule(t), 0)
	player.SetDelay(7050)
	if ms := player.DelayMs(); ms != 60 {
		t.Fatalf("delay after retune: got %dms, want 60", ms)
	}
	player.Stop()
	if player.Playing() {
		t.Fatal("player playing after stop")
	}
}

func TestParseModuleInvalid(t *testing.T) {
	t.Parallel()

	if _, err := audio.ParseModule(make([]byte, 10), 0, nil); err == nil {
		t.Fatal("short module: expected an error")
	}
}
