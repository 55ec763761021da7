package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"corpus-rag/internal/rag"
)

// Server exposes the retrieval engine over HTTP. Transport is deliberately
// thin; all semantics live in the rag package.
type Server struct {
	engine *rag.RAG
}

func NewServer(engine *rag.RAG) *Server {
	return &Server{engine: engine}
}

type queryRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

type queryResponse struct {
	Results []string `json:"results"`
	Error   string   `json:"error,omitempty"`
}

type statusResponse struct {
	Status    string `json:"status"`
	Documents int    `json:"documents"`
}

// Routes returns the handler serving the query contract:
// POST /vector-query with {"query": "...", "k": 3} answers {"results": [...]}
// or {"error": "..."}.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleStatus)
	mux.HandleFunc("/vector-query", s.handleQuery)
	return mux
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok", Documents: s.engine.Size()})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, queryResponse{Results: []string{}, Error: "method not allowed"})
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, queryResponse{Results: []string{}, Error: "invalid request body"})
		return
	}

	results, err := s.engine.Query(r.Context(), req.Query, req.K)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuery) {
			writeJSON(w, http.StatusBadRequest, queryResponse{Results: []string{}, Error: err.Error()})
			return
		}
		// A failed lookup degrades to an empty result set; it must not take
		// down the surrounding request.
		log.Error().Err(err).Msg("Query failed")
		writeJSON(w, http.StatusOK, queryResponse{Results: []string{}, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{Results: results})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
