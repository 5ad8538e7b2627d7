package resource

import (
	"errors"
	"fmt"

	"go.creack.net/anotherworld/op"
)

var (
	ErrInvalidManifest   = errors.New("invalid resource manifest")
	ErrInvalidResourceID = errors.New("invalid resource id")
	ErrBufferTooSmall    = errors.New("destination buffer too small")
	ErrTruncatedData     = errors.New("truncated resource data")
)

// ManifestRecordSize is the size of one manifest record on disk.
const ManifestRecordSize = 20

// Descriptor locates one resource inside the bank files.
// PackedSize == Size means the resource is stored uncompressed.
type Descriptor struct {
	ID         byte
	Kind       op.ResourceKind
	Bank       byte
	Offset     uint32
	PackedSize uint16
	Size       uint16
}

func (d Descriptor) Packed() bool { return d.PackedSize != d.Size }

func (d Descriptor) String() string {
	return fmt.Sprintf("0x%02X %-15s bank %02d @ 0x%06X %5d/%5d", d.ID, d.Kind, d.Bank, d.Offset, d.PackedSize, d.Size)
}

// ParseManifest decodes the manifest into one descriptor per slot, in id
// order. Records are fixed size; the list ends at the 0xFF marker record.
//
// Record layout, big-endian:
//
//	0      marker: 0xFF terminates the list, anything else is a live slot
//	1      kind
//	2-6    unused (load-time state in the original interpreter)
//	7      bank id, 1 <--> 13
//	8-11   offset in the bank
//	12-13  unused
//	14-15  packed size
//	16-17  unused
//	18-19  unpacked size
func ParseManifest(data []byte) ([]Descriptor, error) {
	var out []Descriptor
	for o := 0; ; o += ManifestRecordSize {
		if o+1 > len(data) {
			return nil, fmt.Errorf("%w: missing terminator", ErrInvalidManifest)
		}
		if data[o] == 0xFF {
			break
		}
		if o+ManifestRecordSize > len(data) {
			return nil, fmt.Errorf("%w: truncated record %d", ErrInvalidManifest, len(out))
		}
		rec := data[o : o+ManifestRecordSize]
		d := Descriptor{
			ID:         byte(len(out)),
			Kind:       op.ResourceKind(rec[1]),
			Bank:       rec[7],
			Offset:     op.Endian.Uint32(rec[8:]),
			PackedSize: op.Endian.Uint16(rec[14:]),
			Size:       op.Endian.Uint16(rec[18:]),
		}
		if d.PackedSize > d.Size {
			return nil, fmt.Errorf("%w: resource 0x%02X packed %d > size %d", ErrInvalidManifest, d.ID, d.PackedSize, d.Size)
		}
		if d.Size > 0 && (d.Bank < 1 || d.Bank > op.BankCount) {
			return nil, fmt.Errorf("%w: resource 0x%02X in bank %d", ErrInvalidManifest, d.ID, d.Bank)
		}
		if len(out) == 256 {
			return nil, fmt.Errorf("%w: more than 256 records", ErrInvalidManifest)
		}
		out = append(out, d)
	}
	return out, nil
}
