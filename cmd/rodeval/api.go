package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/banshee-data/rodeval/internal/db"
	"github.com/banshee-data/rodeval/internal/httputil"
	"github.com/banshee-data/rodeval/internal/version"
)

// apiServer serves stored runs as JSON.
type apiServer struct {
	store *db.RunStore
}

func (s *apiServer) routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/runs/{id}", s.handleRun)
	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, map[string]string{"version": version.String()})
	})
}

func (s *apiServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	runs, err := s.store.List(limit)
	if err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	if runs == nil {
		runs = []*db.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (s *apiServer) handleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		run, err := s.store.Get(id)
		if errors.Is(err, db.ErrRunNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			httputil.InternalServerError(w, err)
			return
		}
		httputil.WriteJSONOK(w, run)
	case http.MethodDelete:
		err := s.store.Delete(id)
		if errors.Is(err, db.ErrRunNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		if err != nil {
			httputil.InternalServerError(w, err)
			return
		}
		httputil.WriteJSONOK(w, map[string]string{"deleted": id})
	default:
		httputil.MethodNotAllowed(w, http.MethodGet, http.MethodDelete)
	}
}
