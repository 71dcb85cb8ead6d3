// Package httpapi exposes a document repository over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/roach88/jsondocs/internal/docstore"
	"github.com/roach88/jsondocs/internal/value"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 16 << 20

// Server routes requests to a repository. Repository calls are
// serialized: a Store holds a single connection.
type Server struct {
	router *mux.Router
	repo   docstore.Repository
	log    *slog.Logger
	mu     sync.Mutex
}

// NewServer creates a server for repo. A nil logger means slog.Default().
func NewServer(repo docstore.Repository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{repo: repo, log: logger}

	r := mux.NewRouter()
	r.HandleFunc("/api/documents", s.createDocuments).Methods(http.MethodPost)
	r.HandleFunc("/api/documents", s.deleteDocuments).Methods(http.MethodDelete)
	r.HandleFunc("/api/documents/{id}", s.getDocument).Methods(http.MethodGet)
	r.HandleFunc("/api/documents/{id}", s.updateDocument).Methods(http.MethodPatch)
	r.HandleFunc("/api/documents/{id}/descendants", s.getDescendants).Methods(http.MethodGet)
	s.router = r

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("http server stopped")
	return nil
}

type idsResponse struct {
	IDs []string `json:"ids"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// createDocuments stores a JSON object or array of objects. Objects
// without an id get a generated one.
func (s *Server) createDocuments(w http.ResponseWriter, r *http.Request) {
	v, err := readJSON(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	docs, err := docstore.DocumentsFromValue(v, s.repo.GenerateID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.mu.Lock()
	err = s.repo.Create(r.Context(), docs)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	writeJSON(w, http.StatusCreated, idsResponse{IDs: ids})
}

// deleteDocuments removes every ?id= given.
func (s *Server) deleteDocuments(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query()["id"]

	s.mu.Lock()
	err := s.repo.Delete(r.Context(), ids)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	doc, err := s.repo.ReadByID(r.Context(), id)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, doc.Body)
}

func (s *Server) getDescendants(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(w, r, badRequest("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	s.mu.Lock()
	d, err := s.repo.GetDescendants(r.Context(), id, q["key"], limit)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idsResponse{IDs: d.IDs()})
}

// updateDocument applies a JSON object diff. If-Match carries the
// expected change token.
func (s *Server) updateDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var check *docstore.ChangeTokenCheck
	if raw := r.Header.Get("If-Match"); raw != "" {
		n, err := strconv.ParseInt(strings.Trim(raw, `"`), 10, 64)
		if err != nil {
			s.fail(w, r, badRequest("If-Match must be an integer change token"))
			return
		}
		check = &docstore.ChangeTokenCheck{Expected: n}
	}

	v, err := readJSON(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	diff, ok := v.(*value.Map)
	if !ok {
		s.fail(w, r, badRequest("diff must be a JSON object"))
		return
	}

	s.mu.Lock()
	err = s.repo.Update(r.Context(), id, diff, check)
	s.mu.Unlock()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func readJSON(w http.ResponseWriter, r *http.Request) (value.Value, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, badRequest(err.Error())
	}
	v, err := value.Decode(data)
	if err != nil {
		return nil, badRequest(err.Error())
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeRaw writes an ordered document body as stored.
func writeRaw(w http.ResponseWriter, status int, body *value.Map) {
	out, err := value.Encode(body)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, out)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusNotImplemented {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
