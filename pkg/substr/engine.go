/*
Package substr implements a common-substring dictionary search engine.

The engine indexes every sufficiently long suffix of each dictionary word in
a double-array trie and keeps, per distinct suffix, an inverted list of the
words containing it. A query walks each of its own suffixes through the
trie, enumerates the subtree below every match point at least MinCommonLen
deep, and pulls dictionary words from the inverted lists, so any word
sharing a long enough substring with the query is retrieved without scanning
the dictionary.

Build a database from a tab-separated dictionary file, optionally persist it
and load it back:

	eng, _ := substr.New(0.5, 2)
	if err := eng.Build("words.tsv", "words.db"); err != nil { ... }

	results, _ := eng.Search(substr.Query{
		Word:         "youthe",
		MinCommonLen: 4,
		MaxDwordLen:  20,
		Limit:        10,
	})

After Build or Read returns, the engine is immutable and any number of
goroutines may call Search concurrently. Build, Read, Clear and SetCharTable
require exclusive access.
*/
package substr

import (
	"errors"
	"fmt"

	"github.com/solrex/dictx/pkg/dat"
)

// Alphabet size; a char table can never exceed this.
const numChars = 256

var (
	// ErrSuffixRatio reports a suffix ratio outside (0, 1].
	ErrSuffixRatio = errors.New("substr: suffix ratio must be in (0, 1]")
	// ErrMinSuffix reports a minimum suffix length below 1.
	ErrMinSuffix = errors.New("substr: minimum suffix length must be at least 1")
	// ErrCharTable reports a char table that omits NUL or exceeds 256 bytes.
	ErrCharTable = errors.New("substr: char table must contain NUL and hold at most 256 bytes")
	// ErrBadBlock reports a database block with a wrong tag or size.
	ErrBadBlock = errors.New("substr: bad database block")
	// ErrCorruptIndex reports a stored suffix id with no inverted list; the
	// database is damaged or was produced by a buggy builder.
	ErrCorruptIndex = errors.New("substr: suffix id out of range")
)

// dwordRef locates one dictionary word inside the pool: Offset is the byte
// offset of the key, Size its length excluding the NUL.
type dwordRef struct {
	Offset uint32
	Size   uint32
}

// listRef locates one inverted list inside the word-id pool.
type listRef struct {
	Offset uint32
	Size   uint32
}

// Engine holds the immutable search database: the suffix trie, the word
// pool with its length-sorted ref array, and the suffix inverted index.
type Engine struct {
	suffixRatio float64
	minSuffix   uint32
	charTable   []byte

	trie   *dat.Trie
	pool   []byte
	dwords []dwordRef
	idPool []uint32
	iindex []listRef
}

// New creates an unloaded engine. suffixRatio scales the minimum indexed
// suffix length with the word length; minSuffix is the global floor.
func New(suffixRatio float64, minSuffix uint32) (*Engine, error) {
	if suffixRatio <= 0 || suffixRatio > 1 {
		return nil, fmt.Errorf("%w (got %v)", ErrSuffixRatio, suffixRatio)
	}
	if minSuffix < 1 {
		return nil, ErrMinSuffix
	}
	table := make([]byte, numChars)
	for i := range table {
		table[i] = byte(i)
	}
	return &Engine{
		suffixRatio: suffixRatio,
		minSuffix:   minSuffix,
		charTable:   table,
	}, nil
}

// SetCharTable installs the byte values tried when enumerating trie
// children, in priority order. NUL must be a member: it is the edge marking
// a suffix that is a prefix of another. Rejected tables leave the engine
// unchanged.
func (e *Engine) SetCharTable(table []byte) error {
	if len(table) > numChars {
		return ErrCharTable
	}
	for _, c := range table {
		if c == 0 {
			e.charTable = append([]byte(nil), table...)
			return nil
		}
	}
	return ErrCharTable
}

// CharTable returns the active char table.
func (e *Engine) CharTable() []byte {
	return e.charTable
}

// NumWords returns the number of dictionary words loaded.
func (e *Engine) NumWords() uint32 {
	return uint32(len(e.dwords))
}

// MinSuffix returns the global minimum indexed suffix length.
func (e *Engine) MinSuffix() uint32 {
	return e.minSuffix
}

// SuffixRatio returns the configured suffix ratio.
func (e *Engine) SuffixRatio() float64 {
	return e.suffixRatio
}

// Loaded reports whether a database is in memory.
func (e *Engine) Loaded() bool {
	return e.trie != nil
}

// Clear releases the loaded database. Searching a cleared engine returns no
// results and no error.
func (e *Engine) Clear() {
	e.trie = nil
	e.pool = nil
	e.dwords = nil
	e.idPool = nil
	e.iindex = nil
}

// key returns the key bytes of word id.
func (e *Engine) key(id uint32) []byte {
	d := e.dwords[id]
	return e.pool[d.Offset : d.Offset+d.Size]
}

// value returns the value bytes of word id, the NUL-terminated string
// following the key in the pool.
func (e *Engine) value(id uint32) []byte {
	d := e.dwords[id]
	start := d.Offset + d.Size + 1
	end := start
	for end < uint32(len(e.pool)) && e.pool[end] != 0 {
		end++
	}
	return e.pool[start:end]
}
