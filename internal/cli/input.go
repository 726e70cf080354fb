// Package cli handles cmd line input and query output for testing and
// debugging the search engine.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/solrex/dictx/pkg/config"
	"github.com/solrex/dictx/pkg/substr"
)

// InputHandler reads query tuples from stdin and prints the retrieved
// dictionary words. Booleans and unspecified bounds come from the search
// defaults it was constructed with.
type InputHandler struct {
	engine   *substr.Engine
	defaults config.SearchConfig
}

// NewInputHandler handles initialization of the InputHandler.
func NewInputHandler(engine *substr.Engine, defaults config.SearchConfig) *InputHandler {
	return &InputHandler{engine: engine, defaults: defaults}
}

// Start begins the interface loop. Each input line is
//
//	word [min_common_len [min_dword_len [max_dword_len [limit]]]]
//
// and omitted fields keep their configured defaults. The loop ends on EOF.
func (h *InputHandler) Start() error {
	log.Printf("Loaded %d dictionary words (suffix ratio %v, min suffix %d)",
		h.engine.NumWords(), h.engine.SuffixRatio(), h.engine.MinSuffix())
	log.Print("query: word [min_common min_dword max_dword limit] (Ctrl+D to exit)")
	reader := bufio.NewReader(os.Stdin)

	for {
		log.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		h.handleInput(line)
	}
}

// handleInput parses one query line, runs the search and prints each result
// with the common substring bracketed inside the dictionary word.
func (h *InputHandler) handleInput(line string) {
	fields := strings.Fields(line)
	q := substr.Query{
		Word:             fields[0],
		MinCommonLen:     h.defaults.MinCommonLen,
		MinDwordLen:      h.defaults.MinDwordLen,
		MaxDwordLen:      h.defaults.MaxDwordLen,
		Limit:            h.defaults.Limit,
		DepthFirstSearch: h.defaults.DepthFirst,
		ComPrefixOnly:    h.defaults.PrefixOnly,
		AverageLimit:     h.defaults.AverageLimit,
	}
	nums := []*uint32{&q.MinCommonLen, &q.MinDwordLen, &q.MaxDwordLen, &q.Limit}
	for i, field := range fields[1:] {
		if i >= len(nums) {
			break
		}
		v, err := strconv.ParseUint(field, 10, 32)
		if err != nil {
			log.Errorf("Bad number %q: %v", field, err)
			return
		}
		*nums[i] = uint32(v)
	}

	start := time.Now()
	results, err := h.engine.Search(q)
	elapsed := time.Since(start)
	if err != nil {
		log.Errorf("Search failed: %v", err)
		return
	}
	log.Printf("Search '%s' completed in %v with %d results:", q.Word, elapsed, len(results))
	for i, r := range results {
		word := string(r.Dword)
		marked := word[:r.StartPos] + "[" +
			word[r.StartPos:r.StartPos+r.CommonLen] + "]" +
			word[r.StartPos+r.CommonLen:]
		log.Printf("%3d. %-32s %-36s %s", i, word, marked, fmt.Sprintf("value=%s", r.Value))
	}
}
