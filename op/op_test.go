package op_test

import (
	"testing"

	"go.creack.net/anotherworld/op"
)

func TestOpCodeTable(t *testing.T) {
	t.Parallel()

	for i, meta := range op.OpCodeTable {
		if int(meta.Code) != i {
			t.Errorf("opcode %q: code 0x%02X at index %d", meta.Name, meta.Code, i)
		}
	}
	if _, ok := op.Lookup(0x1a); !ok {
		t.Error("lookup 0x1a failed")
	}
	if _, ok := op.Lookup(0x1b); ok {
		t.Error("lookup 0x1b succeeded")
	}
}

func TestPartTable(t *testing.T) {
	t.Parallel()

	for part := op.PartFirst; part <= op.PartLast; part++ {
		ids, ok := op.PartTable[part]
		if !ok {
			t.Fatalf("part %s missing from the table", part)
		}
		if ids.Palette == 0 || ids.Bytecode == 0 || ids.Polygons == 0 {
			t.Errorf("part %s has empty resource ids", part)
		}
	}
	if op.GamePart(15999).Valid() || op.GamePart(16009).Valid() {
		t.Error("out-of-range parts reported valid")
	}
}
