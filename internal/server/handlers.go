package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/lexicon/internal/fileid"
	"github.com/hyperjump/lexicon/internal/ingest"
	"github.com/hyperjump/lexicon/internal/parser"
	"github.com/hyperjump/lexicon/internal/search"
	"github.com/hyperjump/lexicon/internal/storage"
	"github.com/hyperjump/lexicon/internal/tokenizer"
)

const maxDocumentBytes = 10 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topics, err := s.storage.CountTopics(ctx)
	if err != nil {
		s.fail(w, "status: count topics failed", err)
		return
	}
	lemmas, err := s.storage.CountLemmas(ctx)
	if err != nil {
		s.fail(w, "status: count lemmas failed", err)
		return
	}
	words, err := s.storage.CountWords(ctx)
	if err != nil {
		s.fail(w, "status: count words failed", err)
		return
	}
	entries, err := s.completions.Count()
	if err != nil {
		s.fail(w, "status: count autocomplete entries failed", err)
		return
	}

	resp := map[string]interface{}{
		"topics":               topics,
		"lemmas":               lemmas,
		"words":                words,
		"autocomplete_entries": entries,
		"scheduler":            s.pipeline.Scheduler().Stats(),
		"config": map[string]interface{}{
			"content_directory":       s.config.Content.Directory,
			"database_path":           s.config.Storage.DatabasePath,
			"autocomplete_index_path": s.config.Storage.AutocompleteIndexPath,
			"concurrency":             s.config.Ingest.Concurrency,
		},
	}
	paths := append(storage.DatabaseFiles(s.config.Storage.DatabasePath), s.config.Storage.AutocompleteIndexPath)
	if diskBytes, err := storage.DiskUsageBytes(paths...); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	} else {
		s.logger.Warn("status: disk usage failed", zap.Error(err))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	word := r.URL.Query().Get("word")
	s.logger.Debug("search request", zap.String("word", word))
	hits, err := s.search.SearchExact(r.Context(), word, isAuthorized(r))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"word": word, "results": hits, "total": len(hits)})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	entries, err := s.search.LookupPrefix(r.Context(), q.Get("prefix"), limit)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"prefix": q.Get("prefix"), "results": entries})
}

func (s *Server) handleListPublications(w http.ResponseWriter, r *http.Request) {
	topics, err := s.search.ListPublications(r.Context(), isAuthorized(r))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"publications": topics})
}

func (s *Server) handleListPublication(w http.ResponseWriter, r *http.Request) {
	pub := chi.URLParam(r, "publication")
	topics, err := s.search.ListPublication(r.Context(), pub, isAuthorized(r))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"publication": pub, "topics": topics})
}

func (s *Server) handleGetTopic(w http.ResponseWriter, r *http.Request) {
	key, err := fileid.Parse(chi.URLParam(r, "filename"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	detail, err := s.search.GetTopic(r.Context(), key.String(), isAuthorized(r))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handlePutTopic(w http.ResponseWriter, r *http.Request) {
	key, err := fileid.Parse(chi.URLParam(r, "filename"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "document too large")
		return
	}
	s.logger.Debug("put topic request", zap.String("key", key.String()), zap.Int("bytes", len(body)))
	disposition, err := s.pipeline.AddOrReplace(r.Context(), key, body)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"filename": key.String(), "disposition": string(disposition)})
}

func (s *Server) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	key, err := fileid.Parse(chi.URLParam(r, "filename"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	deleted, err := s.pipeline.DeleteByKey(r.Context(), key)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "topic not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"filename": key.String(), "status": "deleted"})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	n, err := s.pipeline.SyncAll(r.Context(), s.config.Content.Directory)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]interface{}{"status": "queued", "tasks": n})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	n, err := s.rebuilder.Rebuild(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "rebuilt", "entries": n})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		missing    *parser.MissingAttribute
		malformed  *parser.MalformedFrontMatter
		divider    *parser.MalformedTableDivider
		cells      *parser.CellCountMismatch
		column     *parser.UnrecognizedColumn
		unbalanced *tokenizer.UnbalancedParentheses
	)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fileid.ErrInvalidFilename), errors.Is(err, search.ErrEmptyTerm):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrInvalidEncoding),
		errors.As(err, &missing), errors.As(err, &malformed), errors.As(err, &divider),
		errors.As(err, &cells), errors.As(err, &column), errors.As(err, &unbalanced):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	respondError(w, status, err.Error())
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	respondError(w, http.StatusInternalServerError, err.Error())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
