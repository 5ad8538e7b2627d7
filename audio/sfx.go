package audio

import (
	"errors"
	"fmt"
	"sync"

	"go.creack.net/anotherworld/op"
)

var ErrInvalidModule = errors.New("invalid music module")

const (
	moduleHeaderSize = 0xC0
	patternSize      = 1024
	rowSize          = 4 * ChannelCount

	// Pattern note markers.
	noteSync = 0xFFFD // Publish the argument to the music sync register.
	noteStop = 0xFFFE // Cut the channel.
)

type instrument struct {
	data   []byte // Full sound resource, 8-byte header included.
	volume int
}

// Module is a parsed music resource: a 0xC0-byte header holding the
// tempo, 15 instrument references and the order table, followed by
// 1024-byte patterns.
type Module struct {
	data        []byte // Pattern data.
	orderTable  [0x80]byte
	numOrder    int
	instruments [15]instrument
	delay       uint16 // Raw tempo word from the header.
}

// ParseModule decodes a music resource. loadSample maps an instrument's
// resource id to its (loaded) sound resource bytes.
func ParseModule(data []byte, delay uint16, loadSample func(id byte) []byte) (*Module, error) {
	if len(data) < moduleHeaderSize {
		return nil, fmt.Errorf("%w: %d byte resource", ErrInvalidModule, len(data))
	}
	m := &Module{data: data[moduleHeaderSize:]}
	m.numOrder = int(op.Endian.Uint16(data[0x3E:]))
	if m.numOrder > len(m.orderTable) {
		return nil, fmt.Errorf("%w: %d orders", ErrInvalidModule, m.numOrder)
	}
	copy(m.orderTable[:], data[0x40:0xC0])
	m.delay = op.Endian.Uint16(data)
	if delay != 0 {
		m.delay = delay
	}
	p := data[2:]
	for i := range m.instruments {
		id := op.Endian.Uint16(p)
		vol := op.Endian.Uint16(p[2:])
		p = p[4:]
		if id == 0 || id > 0xFF {
			continue
		}
		m.instruments[i] = instrument{data: loadSample(byte(id)), volume: int(vol)}
	}
	return m, nil
}

// channelTrack is the per-channel pattern playback state.
type channelTrack struct {
	sample Sample
	volume int
}

// Player advances the music score. Tick processes one pattern row, and
// the owner calls Tick every DelayMs() milliseconds; the machine does it
// from its tic.
type Player struct {
	mu sync.Mutex

	mixer *Mixer
	mod   *Module

	curOrder int
	curPos   int
	tracks   [ChannelCount]channelTrack

	syncValue int16
	syncSet   bool
	done      bool
}

func NewPlayer(mixer *Mixer) *Player {
	return &Player{mixer: mixer, done: true}
}

// Start begins playback of a module at the given order position.
func (p *Player) Start(mod *Module, pos int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mod = mod
	p.curOrder = pos
	p.curPos = 0
	p.tracks = [ChannelCount]channelTrack{}
	p.done = mod == nil || mod.numOrder == 0
}

// Stop ends playback. The mixer channels are cut by the caller.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = true
}

// SetDelay retunes the tempo of the playing module.
func (p *Player) SetDelay(delay uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mod != nil {
		p.mod.delay = delay
	}
}

// DelayMs converts the module tempo to milliseconds between rows.
func (p *Player) DelayMs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mod == nil {
		return 0
	}
	return int(p.mod.delay) * 60 / 7050
}

func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.done
}

// TakeSync returns the value published by the last sync note, once.
// The machine polls this at the top of each tic and forwards it to the
// music sync register.
func (p *Player) TakeSync() (int16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.syncSet {
		return 0, false
	}
	p.syncSet = false
	return p.syncValue, true
}

// Tick plays one pattern row across the four channels and advances the
// cursor. Playback ends when the order table runs out.
func (p *Player) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done || p.mod == nil {
		return
	}
	order := int(p.mod.orderTable[p.curOrder])
	base := order*patternSize + p.curPos
	if base+rowSize > len(p.mod.data) {
		p.done = true
		return
	}
	for ch := 0; ch < ChannelCount; ch++ {
		p.playNote(ch, p.mod.data[base+ch*4:])
	}
	p.curPos += rowSize
	if p.curPos >= patternSize {
		p.curPos = 0
		p.curOrder++
		if p.curOrder >= p.mod.numOrder {
			p.done = true
		}
	}
}

func (p *Player) playNote(ch int, row []byte) {
	note := op.Endian.Uint16(row)
	arg := op.Endian.Uint16(row[2:])

	if note != noteSync {
		if sampleIdx := arg >> 12; sampleIdx != 0 {
			ins := p.mod.instruments[sampleIdx-1]
			if ins.data != nil && len(ins.data) >= 8 {
				track := &p.tracks[ch]
				length := int(op.Endian.Uint16(ins.data)) * 2
				loopLen := int(op.Endian.Uint16(ins.data[2:])) * 2
				track.sample = Sample{Data: ins.data[8:]}
				if length > len(track.sample.Data) {
					length = len(track.sample.Data)
				}
				track.sample.Data = track.sample.Data[:length]
				if loopLen != 0 {
					// The loop tail lives past the nominal length.
					track.sample.Data = ins.data[8:]
					track.sample.LoopPos = length
					if length+loopLen > len(track.sample.Data) {
						loopLen = len(track.sample.Data) - length
					}
					track.sample.LoopLen = loopLen
				}
				vol := ins.volume
				switch effect := arg >> 8 & 0xF; effect {
				case 5:
					vol += int(arg & 0xFF)
				case 6:
					vol -= int(arg & 0xFF)
				}
				if vol > MaxVolume {
					vol = MaxVolume
				} else if vol < 0 {
					vol = 0
				}
				track.volume = vol
				_ = p.mixer.SetVolume(ch, vol)
			}
		}
	}

	switch {
	case note == noteSync:
		p.syncValue = int16(arg)
		p.syncSet = true
	case note == noteStop:
		_ = p.mixer.Stop(ch)
	case note != 0:
		track := p.tracks[ch]
		if track.sample.Data == nil {
			return
		}
		freq := op.NoteSampleClock / (int(note) * 2)
		_ = p.mixer.Play(ch, track.sample, freq, track.volume)
	}
}
