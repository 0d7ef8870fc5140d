package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lox/grlweather/internal/cities"
	"github.com/lox/grlweather/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, cities.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, cities.ErrEmptyCity):
		return http.StatusBadRequest
	case errors.Is(err, cities.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type citiesResponse struct {
	Default  []cities.Card `json:"default"`
	Searched []cities.Card `json:"searched"`
}

func (s *Server) writeCities(w http.ResponseWriter, r *http.Request, status int) {
	snap, err := s.cities.Snapshot(r.Context())
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, status, citiesResponse{
		Default:  snap.Cards(cities.Default),
		Searched: snap.Cards(cities.Searched),
	})
}

func (s *Server) handleAPICities(w http.ResponseWriter, r *http.Request) {
	s.writeCities(w, r, http.StatusOK)
}

func (s *Server) handleAPIEditCity(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid city index")
		return
	}
	var req struct {
		Name *string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == nil {
		writeError(w, http.StatusBadRequest, `body must be {"name": "..."}`)
		return
	}
	if err := s.cities.EditDefaultCity(r.Context(), index, *req.Name); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	s.writeCities(w, r, http.StatusAccepted)
}

func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		City string `json:"city"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, `body must be {"city": "..."}`)
		return
	}
	if err := s.cities.Search(r.Context(), req.City); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	s.writeCities(w, r, http.StatusAccepted)
}

// handleEvents streams one "change" event per status write until the client
// disconnects or the store stops.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	changes, cancel, err := s.cities.Subscribe(r.Context(), 32)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case change, ok := <-changes:
			if !ok {
				return
			}
			payload, err := json.Marshal(change)
			if err != nil {
				s.logger.Error("api: encode change", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

type fetchRunView struct {
	ID           int64     `json:"id"`
	RequestID    string    `json:"request_id"`
	City         string    `json:"city"`
	StartedAt    time.Time `json:"started_at"`
	HTTPStatus   *int64    `json:"http_status,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

type fetchRunsResponse struct {
	Enabled      bool                       `json:"enabled"`
	Health       []store.FetchHealthSummary `json:"health"`
	RecentErrors []fetchRunView             `json:"recent_errors"`
}

func (s *Server) handleAPIFetchRuns(w http.ResponseWriter, r *http.Request) {
	resp := fetchRunsResponse{Health: []store.FetchHealthSummary{}, RecentErrors: []fetchRunView{}}
	if s.audit == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Enabled = true

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 && d <= 90 {
			days = d
		}
	}

	health, err := s.audit.GetFetchHealth(days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Health = append(resp.Health, health...)

	runs, err := s.audit.GetRecentFetchErrors(20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, run := range runs {
		v := fetchRunView{
			ID:           run.ID,
			RequestID:    run.RequestID,
			City:         run.City,
			StartedAt:    run.StartedAt,
			ErrorMessage: run.ErrorMessage.String,
		}
		if run.HTTPStatus.Valid {
			status := run.HTTPStatus.Int64
			v.HTTPStatus = &status
		}
		resp.RecentErrors = append(resp.RecentErrors, v)
	}
	writeJSON(w, http.StatusOK, resp)
}
