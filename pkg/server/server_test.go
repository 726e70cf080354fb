package server

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/solrex/dictx/pkg/config"
	"github.com/solrex/dictx/pkg/substr"
)

func testEngine(t *testing.T) *substr.Engine {
	t.Helper()
	dict := filepath.Join(t.TempDir(), "dict.tsv")
	data := "youthful\t1\nyouthfully\t2\nyouthfulness\t3\n"
	if err := os.WriteFile(dict, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	eng, err := substr.New(0.5, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Build(dict, ""); err != nil {
		t.Fatal(err)
	}
	return eng
}

func u32(v uint32) *uint32 { return &v }

func TestServerAnswersSearchRequests(t *testing.T) {
	eng := testEngine(t)

	var in, out bytes.Buffer
	enc := msgpack.NewEncoder(&in)
	reqs := []SearchRequest{
		{ID: "q1", Word: "youthe", MinCommonLen: u32(4), MaxDwordLen: u32(20), Limit: u32(10)},
		{ID: "q2", Word: "youthe", MinCommonLen: u32(4), MaxDwordLen: u32(20), Limit: u32(10), PrefixOnly: true},
	}
	for _, r := range reqs {
		if err := enc.Encode(r); err != nil {
			t.Fatal(err)
		}
	}

	srv := NewServerIO(eng, config.DefaultConfig(), &in, &out)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	dec := msgpack.NewDecoder(&out)
	var status StatusResponse
	if err := dec.Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Status != "ready" {
		t.Errorf("status = %q, want ready", status.Status)
	}

	var full SearchResponse
	if err := dec.Decode(&full); err != nil {
		t.Fatalf("decode q1: %v", err)
	}
	if full.ID != "q1" || full.Count != 6 {
		t.Errorf("q1: id=%q count=%d, want q1/6", full.ID, full.Count)
	}
	if full.Count > 0 {
		first := full.Results[0]
		if first.Word != "youthful" || first.CommonLen != 5 || first.StartPos != 0 {
			t.Errorf("q1 first result = %+v, want youthful common 5 at 0", first)
		}
		if first.Value != "1" {
			t.Errorf("q1 first value = %q, want \"1\"", first.Value)
		}
	}

	var prefix SearchResponse
	if err := dec.Decode(&prefix); err != nil {
		t.Fatalf("decode q2: %v", err)
	}
	if prefix.ID != "q2" || prefix.Count != 3 {
		t.Errorf("q2: id=%q count=%d, want q2/3", prefix.ID, prefix.Count)
	}
}

func TestServerClampsLimit(t *testing.T) {
	eng := testEngine(t)

	cfg := config.DefaultConfig()
	cfg.Server.MaxLimit = 2
	avg := false

	var in, out bytes.Buffer
	req := SearchRequest{
		ID: "q", Word: "youthe",
		MinCommonLen: u32(4), MaxDwordLen: u32(20), Limit: u32(1000),
		AverageLimit: &avg,
	}
	if err := msgpack.NewEncoder(&in).Encode(req); err != nil {
		t.Fatal(err)
	}

	srv := NewServerIO(eng, cfg, &in, &out)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	dec := msgpack.NewDecoder(&out)
	var status StatusResponse
	if err := dec.Decode(&status); err != nil {
		t.Fatal(err)
	}
	var resp SearchResponse
	if err := dec.Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want the clamped limit 2", resp.Count)
	}
}

func TestServerDefaultsApply(t *testing.T) {
	eng := testEngine(t)

	// Default max_dword_len is 8, which narrows the match to "youthful".
	var in, out bytes.Buffer
	req := SearchRequest{ID: "q", Word: "youthe"}
	if err := msgpack.NewEncoder(&in).Encode(req); err != nil {
		t.Fatal(err)
	}

	srv := NewServerIO(eng, config.DefaultConfig(), &in, &out)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	dec := msgpack.NewDecoder(&out)
	var status StatusResponse
	if err := dec.Decode(&status); err != nil {
		t.Fatal(err)
	}
	var resp SearchResponse
	if err := dec.Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}
	for _, r := range resp.Results {
		if r.Word != "youthful" {
			t.Errorf("result word = %q, want youthful", r.Word)
		}
	}
}
