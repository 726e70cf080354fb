package substr

import (
	"fmt"
	"sort"

	"github.com/solrex/dictx/pkg/dat"
)

// Query selects which dictionary words to retrieve for one search call.
type Query struct {
	// Word is the query text.
	Word string
	// MinCommonLen is the minimum common substring length required.
	MinCommonLen uint32
	// MinDwordLen drops dictionary words shorter than this (inclusive
	// bound: words of exactly this length are kept).
	MinDwordLen uint32
	// MaxDwordLen drops dictionary words longer than this.
	MaxDwordLen uint32
	// Limit caps the number of results.
	Limit uint32
	// DepthFirstSearch enumerates subtrees depth-first instead of the
	// default breadth-first order.
	DepthFirstSearch bool
	// ComPrefixOnly restricts matching to common prefixes of the query
	// instead of common substrings.
	ComPrefixOnly bool
	// AverageLimit grants each match position up to Limit fresh results.
	// When false, Limit is one cumulative cap, so earlier positions can
	// starve later ones.
	AverageLimit bool
}

// Result is one retrieved dictionary word. Dword and Value alias the
// engine's pool and stay valid until Clear.
type Result struct {
	Dword []byte
	Value []byte
	// StartPos is where the common substring starts within Dword.
	StartPos uint32
	// CommonLen is the length of the common substring.
	CommonLen uint32
}

// Search runs the common-substring query and returns the matching words.
// An unloaded engine, an empty word, a zero limit or a word shorter than
// MinCommonLen all yield no results and no error. The only error condition
// is a corrupt suffix index.
//
// All per-query state is local to the call, so concurrent searches against
// one loaded engine are safe.
func (e *Engine) Search(q Query) ([]Result, error) {
	if e.trie == nil || q.Limit == 0 || uint32(len(q.Word)) < q.MinCommonLen {
		return nil, nil
	}
	s := &searcher{e: e, q: &q, limit: int(q.Limit)}
	word := []byte(q.Word)
	if q.ComPrefixOnly {
		s.compre(word)
	} else {
		for i := 0; i+int(q.MinCommonLen) <= len(word) && s.err == nil; i++ {
			if q.AverageLimit {
				s.limit = len(s.results) + int(q.Limit)
			}
			s.compre(word[i:])
		}
	}
	return s.results, s.err
}

// searcher carries the mutable state of one Search call.
type searcher struct {
	e       *Engine
	q       *Query
	limit   int
	results []Result
	err     error
}

func (s *searcher) full() bool {
	return s.err != nil || len(s.results) >= s.limit
}

// compre matches qword against the trie one common prefix at a time: walk
// the trie along qword, stacking every visited node at least MinCommonLen
// deep, then backtrack and enumerate each stacked node's subtree, skipping
// the branch already explored below it.
func (s *searcher) compre(qword []byte) {
	minCommon := int(s.q.MinCommonLen)
	maxDword := int(s.q.MaxDwordLen)
	if minCommon > len(qword) || minCommon > maxDword {
		return
	}
	trie := s.e.trie
	cur := dat.Initial
	if trie.Base(cur) < 0 {
		return
	}
	tail := trie.Tail()

	matchLen := 0
	var stack []uint32
	for matchLen < len(qword) && matchLen <= maxDword {
		next := trie.Descend(cur, qword[matchLen])
		if next == dat.Invalid {
			break
		}
		cur = next
		matchLen++
		if base := trie.Base(cur); base < 0 {
			// Terminal: the stored suffix continues in the tail. Extend the
			// match against the unconsumed query bytes, then retrieve.
			off := int(-base)
			save := matchLen
			tailLen := tail.Strlen(off)
			suffixLen := matchLen + tailLen
			matchLen += tail.MatchPrefix(off, qword[matchLen:])
			if matchLen >= minCommon {
				s.retrieve(matchLen, tail.Value(off+tailLen+1), suffixLen)
			}
			// Re-point matchLen at the stack top, whose subtree still needs
			// enumeration.
			matchLen = save - 1
			break
		}
		if matchLen >= minCommon {
			stack = append(stack, cur)
		}
	}

	except := dat.Invalid
	for len(stack) > 0 {
		cur = stack[len(stack)-1]
		if s.q.DepthFirstSearch {
			s.dfTraversal(cur, matchLen, except)
		} else {
			s.bfTraversal(cur, matchLen, except)
		}
		except = cur
		stack = stack[:len(stack)-1]
		matchLen--
	}
}

// retrieve pulls dictionary words from the inverted list of suffixid. The
// list is sorted by key length, so a binary search skips words below
// MinDwordLen and iteration stops at the first word above MaxDwordLen.
func (s *searcher) retrieve(matchLen int, suffixid uint32, suffixLen int) {
	if s.full() {
		return
	}
	e := s.e
	if int(suffixid) >= len(e.iindex) {
		s.err = fmt.Errorf("%w (suffix id %d, index size %d)", ErrCorruptIndex, suffixid, len(e.iindex))
		return
	}
	ref := e.iindex[suffixid]
	list := e.idPool[ref.Offset : ref.Offset+ref.Size]
	i := sort.Search(len(list), func(i int) bool {
		return e.dwords[list[i]].Size >= s.q.MinDwordLen
	})
	for ; i < len(list) && len(s.results) < s.limit; i++ {
		id := list[i]
		if e.dwords[id].Size > s.q.MaxDwordLen {
			break
		}
		s.results = append(s.results, Result{
			Dword:     e.key(id),
			Value:     e.value(id),
			StartPos:  e.dwords[id].Size - uint32(suffixLen),
			CommonLen: uint32(matchLen),
		})
	}
}

// nodeInfo is one pending subtree position: a trie node and the length of
// the suffix spelled out on the way to it. The NUL edge spells nothing, so
// it never increments suffixLen.
type nodeInfo struct {
	cur       uint32
	suffixLen int
}

// bfTraversal enumerates the subtree under start breadth-first, skipping
// the except branch, and retrieves every terminal whose full suffix fits
// MaxDwordLen. matchLen is the common prefix depth of start and becomes the
// CommonLen of everything found here.
func (s *searcher) bfTraversal(start uint32, matchLen int, except uint32) {
	maxDword := int(s.q.MaxDwordLen)
	if matchLen > maxDword || s.full() {
		return
	}
	trie := s.e.trie
	tail := trie.Tail()
	queue := []nodeInfo{{cur: start, suffixLen: matchLen}}
	for len(queue) > 0 && !s.full() {
		node := queue[0]
		queue = queue[1:]
		if base := trie.Base(node.cur); base < 0 {
			off := int(-base)
			tailLen := tail.Strlen(off)
			suffixLen := node.suffixLen + tailLen
			if suffixLen <= maxDword {
				s.retrieve(matchLen, tail.Value(off+tailLen+1), suffixLen)
			}
		} else if node.suffixLen <= maxDword {
			table := s.e.charTable
			if node.suffixLen == maxDword {
				// Only the NUL edge can still fit, wherever it sits in the
				// table.
				table = []byte{0}
			}
			for _, c := range table {
				child := trie.Descend(node.cur, c)
				if child == except || child == dat.Invalid {
					continue
				}
				next := nodeInfo{cur: child, suffixLen: node.suffixLen}
				if c != 0 {
					next.suffixLen++
				}
				queue = append(queue, next)
			}
		}
	}
}

// dfTraversal is bfTraversal with an explicit stack. Children push in
// reverse char table order so they pop in table order.
func (s *searcher) dfTraversal(start uint32, matchLen int, except uint32) {
	maxDword := int(s.q.MaxDwordLen)
	if matchLen > maxDword || s.full() {
		return
	}
	trie := s.e.trie
	tail := trie.Tail()
	stack := []nodeInfo{{cur: start, suffixLen: matchLen}}
	for len(stack) > 0 && !s.full() {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if base := trie.Base(node.cur); base < 0 {
			off := int(-base)
			tailLen := tail.Strlen(off)
			suffixLen := node.suffixLen + tailLen
			if suffixLen <= maxDword {
				s.retrieve(matchLen, tail.Value(off+tailLen+1), suffixLen)
			}
		} else if node.suffixLen <= maxDword {
			table := s.e.charTable
			if node.suffixLen == maxDword {
				table = []byte{0}
			}
			for i := len(table) - 1; i >= 0; i-- {
				c := table[i]
				child := trie.Descend(node.cur, c)
				if child == except || child == dat.Invalid {
					continue
				}
				next := nodeInfo{cur: child, suffixLen: node.suffixLen}
				if c != 0 {
					next.suffixLen++
				}
				stack = append(stack, next)
			}
		}
	}
}
