package dat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Magic tag leading a serialised trie.
var trieMagic = [4]byte{'D', 'A', 'T', 'B'}

// ErrBadMagic reports a payload that does not start with the trie tag.
var ErrBadMagic = errors.New("dat: bad magic tag")

type trieHeader struct {
	Magic    [4]byte
	Count    uint32
	ArrayLen uint32
	TailLen  uint32
}

// WriteTo serialises the trie: a fixed header followed by the base array,
// the check array and the tail buffer, all little-endian. ReadFrom consumes
// exactly what WriteTo emits.
func (t *Trie) WriteTo(w io.Writer) (int64, error) {
	hdr := trieHeader{
		Magic:    trieMagic,
		Count:    t.count,
		ArrayLen: uint32(len(t.base)),
		TailLen:  uint32(len(t.tail)),
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return 0, fmt.Errorf("dat: write header: %w", err)
	}
	n := int64(binary.Size(hdr))
	if err := binary.Write(w, binary.LittleEndian, t.base); err != nil {
		return n, fmt.Errorf("dat: write base: %w", err)
	}
	n += int64(4 * len(t.base))
	if err := binary.Write(w, binary.LittleEndian, t.check); err != nil {
		return n, fmt.Errorf("dat: write check: %w", err)
	}
	n += int64(4 * len(t.check))
	if _, err := w.Write(t.tail); err != nil {
		return n, fmt.Errorf("dat: write tail: %w", err)
	}
	n += int64(len(t.tail))
	return n, nil
}

// ReadFrom replaces the trie contents with a payload produced by WriteTo and
// returns the number of bytes consumed.
func (t *Trie) ReadFrom(r io.Reader) (int64, error) {
	var hdr trieHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return 0, fmt.Errorf("dat: read header: %w", err)
	}
	n := int64(binary.Size(hdr))
	if hdr.Magic != trieMagic {
		return n, ErrBadMagic
	}
	base := make([]int32, hdr.ArrayLen)
	check := make([]int32, hdr.ArrayLen)
	tail := make([]byte, hdr.TailLen)
	if err := binary.Read(r, binary.LittleEndian, base); err != nil {
		return n, fmt.Errorf("dat: read base: %w", err)
	}
	n += int64(4 * len(base))
	if err := binary.Read(r, binary.LittleEndian, check); err != nil {
		return n, fmt.Errorf("dat: read check: %w", err)
	}
	n += int64(4 * len(check))
	if _, err := io.ReadFull(r, tail); err != nil {
		return n, fmt.Errorf("dat: read tail: %w", err)
	}
	n += int64(len(tail))
	t.base, t.check, t.tail, t.count = base, check, tail, hdr.Count
	return n, nil
}
