package dat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrBadKey reports an empty key or a key containing a NUL byte.
	ErrBadKey = errors.New("dat: key is empty or contains NUL")
	// ErrKeyOrder reports records that are not strictly ascending by key.
	ErrKeyOrder = errors.New("dat: keys must be unique and sorted ascending")
)

// builder holds the growable arrays while records are arranged. The slot
// search follows the usual darts scheme: scan for a begin value whose child
// slots are all free, with used[] preventing two nodes from sharing a begin
// and nextCheckPos skipping the densely packed front of the array.
type builder struct {
	base         []int32
	check        []int32
	used         []bool
	tail         []byte
	size         int
	nextCheckPos int
}

// Build constructs a trie from records sorted strictly ascending by key.
// Keys must be non-empty and NUL-free. An empty record set yields a trie
// that answers every lookup with a miss.
func Build(records []Record) (*Trie, error) {
	for i, r := range records {
		if len(r.Key) == 0 || bytes.IndexByte(r.Key, 0) >= 0 {
			return nil, fmt.Errorf("%w (record %d)", ErrBadKey, i)
		}
		if i > 0 && bytes.Compare(records[i-1].Key, r.Key) >= 0 {
			return nil, fmt.Errorf("%w (record %d)", ErrKeyOrder, i)
		}
	}

	b := &builder{
		// Offset 0 stays unused so -offset is always negative for terminals.
		tail: []byte{0},
		size: 2,
	}
	b.grow(8192)
	// Slots 0 and 1 are reserved: 0 is Invalid, 1 is the root. The sentinels
	// keep the free-slot scan from handing either of them to a child.
	b.check[0] = -1
	b.check[1] = -1

	if len(records) > 0 {
		b.arrange(Initial, records, 0)
	}

	t := &Trie{
		base:  make([]int32, b.size),
		check: make([]int32, b.size),
		tail:  b.tail,
		count: uint32(len(records)),
	}
	copy(t.base, b.base[:b.size])
	copy(t.check, b.check[:b.size])
	return t, nil
}

func (b *builder) grow(n int) {
	if n <= len(b.base) {
		return
	}
	alloc := len(b.base) * 2
	if alloc < n {
		alloc = n
	}
	base := make([]int32, alloc)
	check := make([]int32, alloc)
	used := make([]bool, alloc)
	copy(base, b.base)
	copy(check, b.check)
	copy(used, b.used)
	b.base, b.check, b.used = base, check, used
}

// arrange assigns a base to node s and recursively places the children for
// records, all of which share their first depth bytes. A record exhausted at
// depth becomes the NUL-edge child; a group collapsed to a single record
// stores its remainder in the tail.
func (b *builder) arrange(s uint32, records []Record, depth int) {
	type group struct {
		code   int
		lo, hi int
	}
	var groups []group
	for i := range records {
		code := 0
		if len(records[i].Key) > depth {
			code = int(records[i].Key[depth])
		}
		if n := len(groups); n > 0 && groups[n-1].code == code {
			groups[n-1].hi = i + 1
		} else {
			groups = append(groups, group{code: code, lo: i, hi: i + 1})
		}
	}

	codes := make([]int, len(groups))
	for i, g := range groups {
		codes[i] = g.code
	}
	begin := b.findBase(codes)

	b.used[begin] = true
	b.base[s] = int32(begin)
	if last := begin + codes[len(codes)-1] + 2; last > b.size {
		b.size = last
	}

	// Claim every child slot before recursing so deeper findBase calls see
	// them as occupied.
	for _, g := range groups {
		b.check[begin+g.code+1] = int32(s)
	}
	for _, g := range groups {
		t := uint32(begin + g.code + 1)
		switch {
		case g.code == 0:
			b.setTail(t, nil, records[g.lo].Value)
		case g.hi-g.lo == 1:
			b.setTail(t, records[g.lo].Key[depth+1:], records[g.lo].Value)
		default:
			b.arrange(t, records[g.lo:g.hi], depth+1)
		}
	}
}

// findBase scans for a begin such that begin+code+1 is free for every child
// code.
func (b *builder) findBase(codes []int) int {
	first := codes[0]
	pos := first + 1
	if b.nextCheckPos > pos {
		pos = b.nextCheckPos
	}
	pos--
	nonzero := 0
	firstFree := 0
scan:
	for {
		pos++
		b.grow(pos + 2)
		if b.check[pos] != 0 {
			nonzero++
			continue
		}
		if firstFree == 0 {
			firstFree = pos
		}
		begin := pos - first - 1
		b.grow(begin + codes[len(codes)-1] + 2)
		if b.used[begin] {
			continue
		}
		for _, c := range codes {
			slot := begin + c + 1
			if b.base[slot] != 0 || b.check[slot] != 0 {
				continue scan
			}
		}
		if float64(nonzero)/float64(pos-b.nextCheckPos+1) >= 0.95 {
			b.nextCheckPos = pos
		} else if firstFree > b.nextCheckPos {
			b.nextCheckPos = firstFree
		}
		return begin
	}
}

// setTail makes node t a terminal: the remaining key bytes, a NUL, then the
// little-endian value.
func (b *builder) setTail(t uint32, remainder []byte, value uint32) {
	off := len(b.tail)
	b.base[t] = int32(-off)
	b.tail = append(b.tail, remainder...)
	b.tail = append(b.tail, 0)
	b.tail = binary.LittleEndian.AppendUint32(b.tail, value)
}
