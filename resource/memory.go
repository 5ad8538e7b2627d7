package resource

import (
	"fmt"

	"go.creack.net/anotherworld/op"
)

// Memory owns the buffers of the currently loaded resources: the four
// well-known slots of the current game part plus the individually
// requested resources (sounds, music). Bitmaps are never retained; they
// are handed back once for the caller to blit.
type Memory struct {
	repo    Repository
	catalog []Descriptor

	loaded map[byte][]byte

	part     op.GamePart
	nextPart op.GamePart // 0 when nothing is scheduled.

	// Slots of the current part. Nil until the first LoadPart, replaced
	// wholesale by the next one.
	Bytecode   []byte
	Palettes   []byte
	Polygons   []byte
	Animations []byte
}

func NewMemory(repo Repository) (*Memory, error) {
	catalog, err := repo.Descriptors()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return &Memory{
		repo:    repo,
		catalog: catalog,
		loaded:  map[byte][]byte{},
	}, nil
}

func (m *Memory) Catalog() []Descriptor { return m.catalog }

func (m *Memory) Descriptor(id byte) (Descriptor, error) {
	if int(id) >= len(m.catalog) {
		return Descriptor{}, fmt.Errorf("%w: 0x%02X", ErrInvalidResourceID, id)
	}
	return m.catalog[id], nil
}

// Load fetches an individual resource. Bitmaps come back as a transient
// buffer that is not retained; everything else is kept resident and
// handed back again on subsequent loads.
func (m *Memory) Load(id byte) ([]byte, op.ResourceKind, error) {
	desc, err := m.Descriptor(id)
	if err != nil {
		return nil, 0, err
	}
	if desc.Size == 0 {
		return nil, desc.Kind, nil // Empty slot, nothing to do.
	}
	if buf, ok := m.loaded[id]; ok {
		return buf, desc.Kind, nil
	}
	buf, err := m.read(desc)
	if err != nil {
		return nil, desc.Kind, err
	}
	if desc.Kind != op.KindBitmap {
		m.loaded[id] = buf
	}
	return buf, desc.Kind, nil
}

// Resource returns the buffer of a resident resource, or nil.
func (m *Memory) Resource(id byte) []byte { return m.loaded[id] }

// UnloadAll evicts the individual resources. The part slots stay.
func (m *Memory) UnloadAll() {
	clear(m.loaded)
}

// SchedulePart requests a part switch, applied by the machine at the top
// of the next tic.
func (m *Memory) SchedulePart(part op.GamePart) { m.nextPart = part }

// ScheduledPart returns the pending part switch, if any.
func (m *Memory) ScheduledPart() (op.GamePart, bool) { return m.nextPart, m.nextPart != 0 }

// Part returns the currently loaded part, 0 before the first load.
func (m *Memory) Part() op.GamePart { return m.part }

// LoadPart evicts everything, then loads the part's resource quadruple.
// The returned slot buffers stay valid until the next LoadPart.
func (m *Memory) LoadPart(part op.GamePart) error {
	ids, ok := op.PartTable[part]
	if !ok {
		return fmt.Errorf("%w: part %d", ErrInvalidResourceID, uint16(part))
	}
	m.UnloadAll()
	m.Bytecode, m.Palettes, m.Polygons, m.Animations = nil, nil, nil, nil

	var err error
	if m.Palettes, err = m.load(ids.Palette); err != nil {
		return fmt.Errorf("part %s palettes: %w", part, err)
	}
	if m.Bytecode, err = m.load(ids.Bytecode); err != nil {
		return fmt.Errorf("part %s bytecode: %w", part, err)
	}
	if m.Polygons, err = m.load(ids.Polygons); err != nil {
		return fmt.Errorf("part %s polygons: %w", part, err)
	}
	if ids.Animations != 0 {
		if m.Animations, err = m.load(ids.Animations); err != nil {
			return fmt.Errorf("part %s animations: %w", part, err)
		}
	}
	m.part = part
	m.nextPart = 0
	return nil
}

func (m *Memory) load(id byte) ([]byte, error) {
	desc, err := m.Descriptor(id)
	if err != nil {
		return nil, err
	}
	return m.read(desc)
}

func (m *Memory) read(desc Descriptor) ([]byte, error) {
	buf := make([]byte, desc.Size)
	return m.repo.Read(desc, buf)
}
