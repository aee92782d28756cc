package model

import (
	"bytes"
	"testing"
)

func collectCursor(t *testing.T, cursor UTXODataSetCursor) [][]byte {
	var elements [][]byte
	for {
		element, err := cursor.Next()
		if err != nil {
			t.Fatalf("cursor.Next: %s", err)
		}
		if element == nil {
			return elements
		}
		elements = append(elements, element)
	}
}

func TestInMemoryDataSetOrdering(t *testing.T) {
	set := NewInMemoryUTXODataSet()
	set.Add([]byte{0x3e, 0x01, 0x01, 0x01})
	set.Add([]byte{0x3d, 0x01, 0x01, 0x01})
	set.Add([]byte{0x3d, 0x00, 0x01, 0x01})
	set.Add([]byte{0x51, 0x01, 0x01, 0x01})
	// Duplicates are ignored.
	set.Add([]byte{0x3d, 0x01, 0x01, 0x01})

	if set.Size() != 4 {
		t.Fatalf("set size is %d, expected 4", set.Size())
	}

	elements := set.Elements()
	for n := 1; n < len(elements); n++ {
		if bytes.Compare(elements[n-1], elements[n]) >= 0 {
			t.Fatalf("elements are not in ascending order")
		}
	}

	set.Remove([]byte{0x51, 0x01, 0x01, 0x01})
	set.Remove([]byte{0x51, 0x01, 0x01, 0x01})
	if set.Size() != 3 {
		t.Fatalf("set size is %d after removal, expected 3", set.Size())
	}
}

func TestInMemoryDataSetRange(t *testing.T) {
	set := NewInMemoryUTXODataSet()
	set.Add([]byte{0x3c, 0xff, 0x00, 0x00})
	set.Add([]byte{0x3d, 0x00, 0x00, 0x00})
	set.Add([]byte{0x3d, 0x7f, 0x00, 0x00})
	set.Add([]byte{0x3d, 0xff, 0xff, 0xff})
	set.Add([]byte{0x3e, 0x00, 0x00, 0x00})
	set.Add([]byte{0x40, 0x00, 0x00, 0x00})

	// A 4-bit prefix covers the whole 0x3 trunk.
	cursor, err := set.Range([]byte{0x3d}, 4)
	if err != nil {
		t.Fatalf("Range: %s", err)
	}
	if got := collectCursor(t, cursor); len(got) != 5 {
		t.Fatalf("4-bit range produced %d elements, expected 5", len(got))
	}

	// An 8-bit prefix covers only the 0x3d elements.
	cursor, err = set.Range([]byte{0x3d}, 8)
	if err != nil {
		t.Fatalf("Range: %s", err)
	}
	if got := collectCursor(t, cursor); len(got) != 3 {
		t.Fatalf("8-bit range produced %d elements, expected 3", len(got))
	}

	// A 12-bit prefix needs the half-byte bound handling.
	cursor, err = set.Range([]byte{0x3d, 0x7f}, 12)
	if err != nil {
		t.Fatalf("Range: %s", err)
	}
	got := collectCursor(t, cursor)
	if len(got) != 1 || !bytes.Equal(got[0], []byte{0x3d, 0x7f, 0x00, 0x00}) {
		t.Fatalf("12-bit range produced %v, expected the single 0x3d7f element", got)
	}
}

func TestRangeBounds(t *testing.T) {
	tests := []struct {
		prefix []byte
		bits   uint32
		start  []byte
		limit  []byte
	}{
		{prefix: []byte{0x3d}, bits: 4, start: []byte{0x30}, limit: []byte{0x40}},
		{prefix: []byte{0x3d}, bits: 8, start: []byte{0x3d}, limit: []byte{0x3e}},
		{prefix: []byte{0x3d, 0x7f}, bits: 12, start: []byte{0x3d, 0x70}, limit: []byte{0x3d, 0x80}},
		{prefix: []byte{0xff}, bits: 8, start: []byte{0xff}, limit: nil},
		{prefix: []byte{0xff, 0xf3}, bits: 12, start: []byte{0xff, 0xf0}, limit: nil},
	}
	for _, test := range tests {
		start, limit := RangeBounds(test.prefix, test.bits)
		if !bytes.Equal(start, test.start) || !bytes.Equal(limit, test.limit) {
			t.Fatalf("RangeBounds(%x, %d) = (%x, %x), expected (%x, %x)",
				test.prefix, test.bits, start, limit, test.start, test.limit)
		}
	}
}
