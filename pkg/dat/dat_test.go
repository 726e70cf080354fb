package dat

import (
	"bytes"
	"errors"
	"testing"
)

func mustBuild(t *testing.T, keys []string) *Trie {
	t.Helper()
	records := make([]Record, len(keys))
	for i, k := range keys {
		records[i] = Record{Key: []byte(k), Value: uint32(i)}
	}
	trie, err := Build(records)
	if err != nil {
		t.Fatalf("Build(%q): %v", keys, err)
	}
	return trie
}

func TestExactLookup(t *testing.T) {
	keys := []string{
		"ab", "abc", "abcdef", "abx", "b",
		"hopeful", "hopefully", "nope",
		"youthful", "youthfully", "youthfulness",
	}
	trie := mustBuild(t, keys)

	if got := trie.Len(); got != len(keys) {
		t.Errorf("Len() = %d, want %d", got, len(keys))
	}
	for i, k := range keys {
		v, ok := trie.Get([]byte(k))
		if !ok || v != uint32(i) {
			t.Errorf("Get(%q) = (%d, %v), want (%d, true)", k, v, ok, i)
		}
	}
	for _, miss := range []string{"", "a", "ab0", "abcd", "hopefulness", "yo", "zzz", "nopes"} {
		if v, ok := trie.Get([]byte(miss)); ok {
			t.Errorf("Get(%q) = (%d, true), want a miss", miss, v)
		}
	}
}

func TestNodeWalk(t *testing.T) {
	// "ab" is a proper prefix of "abc", so the node after 'b' must carry a
	// NUL edge to a terminal with an empty tail remainder.
	trie := mustBuild(t, []string{"ab", "abc"})

	cur := Initial
	for _, c := range []byte("ab") {
		cur = trie.Descend(cur, c)
		if cur == Invalid {
			t.Fatalf("Descend stalled on %q", c)
		}
		if trie.Base(cur) < 0 {
			t.Fatalf("unexpected terminal at depth for %q", c)
		}
	}
	term := trie.Descend(cur, 0)
	if term == Invalid {
		t.Fatal("no NUL edge below the shared prefix")
	}
	base := trie.Base(term)
	if base >= 0 {
		t.Fatalf("NUL child base = %d, want negative", base)
	}
	tail := trie.Tail()
	off := int(-base)
	if n := tail.Strlen(off); n != 0 {
		t.Errorf("NUL child tail strlen = %d, want 0", n)
	}
	if v := tail.Value(off + 1); v != 0 {
		t.Errorf("NUL child value = %d, want 0", v)
	}

	if trie.Descend(cur, 'z') != Invalid {
		t.Error("Descend on a missing edge did not return Invalid")
	}
}

func TestTailDecoding(t *testing.T) {
	trie := mustBuild(t, []string{"abcdef", "abx"})

	cur := Initial
	for _, c := range []byte("abc") {
		cur = trie.Descend(cur, c)
	}
	base := trie.Base(cur)
	if base >= 0 {
		t.Fatalf("node after \"abc\" has base %d, want terminal", base)
	}
	tail := trie.Tail()
	off := int(-base)
	if n := tail.Strlen(off); n != 3 {
		t.Fatalf("tail strlen = %d, want 3 (remainder \"def\")", n)
	}
	if n := tail.MatchPrefix(off, []byte("defgh")); n != 3 {
		t.Errorf("MatchPrefix(\"defgh\") = %d, want 3", n)
	}
	if n := tail.MatchPrefix(off, []byte("dex")); n != 2 {
		t.Errorf("MatchPrefix(\"dex\") = %d, want 2", n)
	}
	if v := tail.Value(off + 4); v != 0 {
		t.Errorf("tail value = %d, want 0", v)
	}
}

func TestRoundTrip(t *testing.T) {
	keys := []string{"eful", "efully", "ful", "fully", "hopeful", "hopefully", "nope", "ope", "opeful", "opefully", "pe", "peful", "pefully", "ully"}
	trie := mustBuild(t, keys)

	var buf bytes.Buffer
	wn, err := trie.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if wn != int64(buf.Len()) {
		t.Errorf("WriteTo reported %d bytes, buffer has %d", wn, buf.Len())
	}

	loaded := new(Trie)
	rn, err := loaded.ReadFrom(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if rn != wn {
		t.Errorf("ReadFrom consumed %d bytes, want %d", rn, wn)
	}
	if loaded.Len() != len(keys) {
		t.Errorf("loaded Len() = %d, want %d", loaded.Len(), len(keys))
	}
	for i, k := range keys {
		v, ok := loaded.Get([]byte(k))
		if !ok || v != uint32(i) {
			t.Errorf("loaded Get(%q) = (%d, %v), want (%d, true)", k, v, ok, i)
		}
	}
}

func TestReadFromRejectsBadMagic(t *testing.T) {
	payload := append([]byte("NOPE"), make([]byte, 32)...)
	var trie Trie
	if _, err := trie.ReadFrom(bytes.NewReader(payload)); !errors.Is(err, ErrBadMagic) {
		t.Errorf("ReadFrom(garbage) error = %v, want ErrBadMagic", err)
	}
}

func TestEmptyBuild(t *testing.T) {
	trie, err := Build(nil)
	if err != nil {
		t.Fatalf("Build(nil): %v", err)
	}
	if trie.Len() != 0 {
		t.Errorf("Len() = %d, want 0", trie.Len())
	}
	if _, ok := trie.Get([]byte("anything")); ok {
		t.Error("empty trie answered a lookup")
	}

	var buf bytes.Buffer
	if _, err := trie.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	loaded := new(Trie)
	if _, err := loaded.ReadFrom(&buf); err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if _, ok := loaded.Get([]byte("x")); ok {
		t.Error("loaded empty trie answered a lookup")
	}
}

func TestBuildRejectsBadRecords(t *testing.T) {
	cases := []struct {
		name    string
		records []Record
		want    error
	}{
		{"unsorted", []Record{{Key: []byte("b")}, {Key: []byte("a")}}, ErrKeyOrder},
		{"duplicate", []Record{{Key: []byte("a")}, {Key: []byte("a")}}, ErrKeyOrder},
		{"empty key", []Record{{Key: nil}}, ErrBadKey},
		{"nul byte", []Record{{Key: []byte("a\x00b")}}, ErrBadKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Build(tc.records); !errors.Is(err, tc.want) {
				t.Errorf("Build error = %v, want %v", err, tc.want)
			}
		})
	}
}
