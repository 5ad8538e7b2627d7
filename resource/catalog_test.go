package resource_test

import (
	"errors"
	"testing"

	"go.creack.net/anotherworld/op"
	"go.creack.net/anotherworld/resource"
)

// record builds one 20-byte manifest record.
func record(kind op.ResourceKind, bank byte, offset uint32, packed, size uint16) []byte {
	rec := make([]byte, resource.ManifestRecordSize)
	rec[1] = byte(kind)
	rec[7] = bank
	op.Endian.PutUint32(rec[8:], offset)
	op.Endian.PutUint16(rec[14:], packed)
	op.Endian.PutUint16(rec[18:], size)
	return rec
}

func manifest(records ...[]byte) []byte {
	var out []byte
	for _, rec := range records {
		out = append(out, rec...)
	}
	return append(out, 0xFF)
}

func TestParseManifest(t *testing.T) {
	t.Parallel()

	data := manifest(
		record(op.KindPalette, 1, 0, 1024, 1024),
		record(op.KindBytecode, 2, 0x1234, 100, 200),
		record(op.KindSound, 0, 0, 0, 0), // Empty slot.
	)
	catalog, err := resource.ParseManifest(data)
	if err != nil {
		t.Fatalf("parse: %s", err)
	}
	if len(catalog) != 3 {
		t.Fatalf("parse: got %d descriptors, want 3", len(catalog))
	}

	d := catalog[1]
	if d.ID != 1 || d.Kind != op.KindBytecode || d.Bank != 2 || d.Offset != 0x1234 || d.PackedSize != 100 || d.Size != 200 {
		t.Fatalf("descriptor 1: got %+v", d)
	}
	if !d.Packed() {
		t.Fatal("descriptor 1: expected packed")
	}
	if catalog[0].Packed() {
		t.Fatal("descriptor 0: expected stored uncompressed")
	}
}

func TestParseManifestInvalid(t *testing.T) {
	t.Parallel()

	for name, data := range map[string][]byte{
		"missing terminator": record(op.KindSound, 1, 0, 4, 4),
		"packed too big":     manifest(record(op.KindSound, 1, 0, 10, 4)),
		"bad bank":           manifest(record(op.KindSound, 14, 0, 4, 4)),
		"truncated record":   append(record(op.KindSound, 1, 0, 4, 4)[:10], 0xFF),
	} {
		if _, err := resource.ParseManifest(data); !errors.Is(err, resource.ErrInvalidManifest) {
			t.Errorf("%s: got %v, want ErrInvalidManifest", name, err)
		}
	}
}
