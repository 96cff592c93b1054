// Package devserver hosts a local emulation of the platform's document
// API on top of an in-memory store. It exists for integration tests and
// offline development: the handlers mirror the hosted endpoints, including
// the platform quirk of stripping one base64 layer when serving a document
// body.
package devserver

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/modelkit/uisync/pkg/remote"
)

// Server wraps a [remote.MemStore] with the platform's HTTP surface.
type Server struct {
	store *remote.MemStore
	token string
}

// New creates a server over the given store. A non-empty token makes the
// server enforce bearer auth on every route, like the hosted platform.
func New(store *remote.MemStore, token string) *Server {
	return &Server{store: store, token: token}
}

// Store returns the backing store for seeding.
func (s *Server) Store() *remote.MemStore { return s.store }

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if s.token != "" {
		r.Use(s.requireAuth)
	}

	r.Get("/api/records", s.handleQueryRecords)
	r.Get("/api/documents/{docID}/body", s.handleDocumentBody)
	r.Put("/api/documents/{docID}", s.handleUpdateDocument)
	r.Post("/api/folders", s.handleEnsureFolder)
	r.Get("/api/folders/{folderID}/documents/{name}", s.handleDocumentByName)
	r.Post("/api/folders/{folderID}/documents", s.handleCreateDocument)
	return r
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleQueryRecords(w http.ResponseWriter, r *http.Request) {
	q := remote.Query{Names: r.URL.Query()["name"]}
	records, err := s.store.QueryRecords(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []remote.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleDocumentBody serves a document body with one base64 layer already
// removed, matching the hosted platform's read path. Bodies that are not
// valid base64 (legacy content) pass through untouched.
func (s *Server) handleDocumentBody(w http.ResponseWriter, r *http.Request) {
	body, err := s.store.FetchDocumentBody(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if decoded, decErr := base64.StdEncoding.DecodeString(body); decErr == nil {
		body = string(decoded)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, body)
}

func (s *Server) handleDocumentByName(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folderID")
	name := chi.URLParam(r, "name")
	doc, err := s.store.FetchDocumentByName(r.Context(), folderID, name)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid document payload")
		return
	}
	id, err := s.store.CreateDocument(r.Context(), chi.URLParam(r, "folderID"), in.Name, in.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid document payload")
		return
	}
	if err := s.store.UpdateDocument(r.Context(), chi.URLParam(r, "docID"), in.Body); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEnsureFolder(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid folder payload")
		return
	}
	id, err := s.store.EnsureFolder(r.Context(), in.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
