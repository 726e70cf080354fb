package server

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/solrex/dictx/internal/logger"
	"github.com/solrex/dictx/pkg/config"
	"github.com/solrex/dictx/pkg/substr"
)

// Server answers search requests against one loaded engine.
type Server struct {
	engine   *substr.Engine
	defaults config.SearchConfig
	maxLimit uint32
	dec      *msgpack.Decoder
	enc      *msgpack.Encoder
	log      *log.Logger
}

// NewServer creates a search server using stdin/stdout for IPC.
func NewServer(engine *substr.Engine, cfg *config.Config) *Server {
	return NewServerIO(engine, cfg, os.Stdin, os.Stdout)
}

// NewServerIO is NewServer over explicit streams, for tests.
func NewServerIO(engine *substr.Engine, cfg *config.Config, r io.Reader, w io.Writer) *Server {
	return &Server{
		engine:   engine,
		defaults: cfg.Search,
		maxLimit: cfg.Server.MaxLimit,
		dec:      msgpack.NewDecoder(r),
		enc:      msgpack.NewEncoder(w),
		log:      logger.New("ipc"),
	}
}

// Start begins processing requests. It returns nil when the input stream
// ends.
func (s *Server) Start() error {
	s.log.Debug("Starting server.")
	if err := s.enc.Encode(StatusResponse{Status: "ready"}); err != nil {
		return err
	}
	for {
		var req SearchRequest
		if err := s.dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.log.Errorf("Decoding request: %v", err)
			s.sendError("", "invalid request", 400)
			continue
		}
		s.handleSearch(&req)
	}
}

// handleSearch resolves request defaults, runs the query and encodes the
// response.
func (s *Server) handleSearch(req *SearchRequest) {
	q := substr.Query{
		Word:             req.Word,
		MinCommonLen:     s.defaults.MinCommonLen,
		MinDwordLen:      s.defaults.MinDwordLen,
		MaxDwordLen:      s.defaults.MaxDwordLen,
		Limit:            s.defaults.Limit,
		DepthFirstSearch: req.DepthFirst || s.defaults.DepthFirst,
		ComPrefixOnly:    req.PrefixOnly || s.defaults.PrefixOnly,
		AverageLimit:     s.defaults.AverageLimit,
	}
	if req.MinCommonLen != nil {
		q.MinCommonLen = *req.MinCommonLen
	}
	if req.MinDwordLen != nil {
		q.MinDwordLen = *req.MinDwordLen
	}
	if req.MaxDwordLen != nil {
		q.MaxDwordLen = *req.MaxDwordLen
	}
	if req.Limit != nil {
		q.Limit = *req.Limit
	}
	if req.AverageLimit != nil {
		q.AverageLimit = *req.AverageLimit
	}
	if s.maxLimit > 0 && q.Limit > s.maxLimit {
		q.Limit = s.maxLimit
	}

	start := time.Now()
	results, err := s.engine.Search(q)
	elapsed := time.Since(start).Microseconds()
	if err != nil {
		s.log.Errorf("Search %q: %v", q.Word, err)
		s.sendError(req.ID, err.Error(), 500)
		return
	}

	resp := SearchResponse{
		ID:        req.ID,
		Results:   make([]ResultEntry, len(results)),
		Count:     len(results),
		TimeTaken: elapsed,
	}
	for i, r := range results {
		resp.Results[i] = ResultEntry{
			Word:      string(r.Dword),
			Value:     string(r.Value),
			StartPos:  r.StartPos,
			CommonLen: r.CommonLen,
		}
	}
	if err := s.enc.Encode(resp); err != nil {
		s.log.Errorf("Encoding response: %v", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) {
	if err := s.enc.Encode(ErrorResponse{ID: id, Error: message, Code: code}); err != nil {
		s.log.Errorf("Encoding error response: %v", err)
	}
}
