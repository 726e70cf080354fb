package substr

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/solrex/dictx/pkg/dat"
)

// Build constructs the search database from a dictionary file: one record
// per line, key and value separated by the first tab. Lines without a tab
// are dropped. When dbPath is non-empty the database is also written there;
// either way the engine is left loaded and ready to search.
func (e *Engine) Build(dictPath, dbPath string) error {
	e.Clear()

	f, err := os.Open(dictPath)
	if err != nil {
		return fmt.Errorf("substr: open dictionary: %w", err)
	}
	defer f.Close()

	var (
		pool    []byte
		dwords  []dwordRef
		dropped int
	)
	r := bufio.NewReader(f)
	for {
		line, rerr := r.ReadBytes('\n')
		line = bytes.TrimSuffix(line, []byte{'\n'})
		if len(line) > 0 {
			tab := bytes.IndexByte(line, '\t')
			if tab < 0 {
				dropped++
			} else {
				// Pool layout per word: key NUL value NUL.
				off := len(pool)
				pool = append(pool, line...)
				pool = append(pool, 0)
				pool[off+tab] = 0
				dwords = append(dwords, dwordRef{Offset: uint32(off), Size: uint32(tab)})
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return fmt.Errorf("substr: read dictionary: %w", rerr)
		}
	}
	if dropped > 0 {
		log.Warnf("Dropped %d dictionary lines without a tab", dropped)
	}

	// Word ids are positions in the length-sorted array, so every inverted
	// list sorted by id is also sorted by key length. Stable, to keep ties
	// in file order.
	sort.SliceStable(dwords, func(i, j int) bool {
		return dwords[i].Size < dwords[j].Size
	})

	type candidate struct {
		key   []byte
		owner uint32
	}
	var cands []candidate
	for i, d := range dwords {
		length := int(d.Size)
		m := int(float64(length) * e.suffixRatio)
		if m < int(e.minSuffix) {
			m = int(e.minSuffix)
		}
		for j := 0; j+m <= length; j++ {
			cands = append(cands, candidate{
				key:   pool[int(d.Offset)+j : int(d.Offset)+length],
				owner: uint32(i),
			})
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		return bytes.Compare(cands[i].key, cands[j].key) < 0
	})

	// Deduplicate into the distinct suffix sequence; owners sharing a
	// suffix become its inverted list. The suffix id is the position in the
	// deduplicated sequence, and every distinct suffix reaches the trie,
	// including the last one.
	var (
		idPool  []uint32
		iindex  []listRef
		records []dat.Record
	)
	for i := 0; i < len(cands); {
		j := i + 1
		for j < len(cands) && bytes.Equal(cands[j].key, cands[i].key) {
			j++
		}
		off := uint32(len(idPool))
		for k := i; k < j; k++ {
			idPool = append(idPool, cands[k].owner)
		}
		slices.Sort(idPool[off:])
		records = append(records, dat.Record{Key: cands[i].key, Value: uint32(len(iindex))})
		iindex = append(iindex, listRef{Offset: off, Size: uint32(j - i)})
		i = j
	}

	trie, err := dat.Build(records)
	if err != nil {
		return fmt.Errorf("substr: build suffix trie: %w", err)
	}

	e.trie = trie
	e.pool = pool
	e.dwords = dwords
	e.idPool = idPool
	e.iindex = iindex

	log.Debugf("Built database: %d words, %d distinct suffixes, pool %d bytes",
		len(dwords), len(iindex), len(pool))

	if dbPath != "" {
		if err := e.writeDB(dbPath); err != nil {
			return err
		}
		log.Debugf("Wrote database to %s", dbPath)
	}
	return nil
}
