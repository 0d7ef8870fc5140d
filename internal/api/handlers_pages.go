package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lox/grlweather/internal/cities"
	"github.com/lox/grlweather/internal/imagegen"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap, err := s.cities.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	data := IndexData{
		Defaults:     cardViews(snap, cities.Default),
		Searched:     cardViews(snap, cities.Searched),
		DefaultNames: snap.Defaults,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.Error("api: template", "template", "index.html", "error", err)
	}
}

func (s *Server) handleCardsPartial(w http.ResponseWriter, r *http.Request) {
	coll := cities.Collection(chi.URLParam(r, "collection"))
	if !coll.Valid() {
		http.NotFound(w, r)
		return
	}
	snap, err := s.cities.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "cards.html", cardViews(snap, coll)); err != nil {
		s.logger.Error("api: template", "template", "cards.html", "error", err)
	}
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid city index", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if err := s.cities.EditDefaultCity(r.Context(), index, r.PostFormValue("name")); err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSearchForm ignores blank submissions, like the search box it backs.
func (s *Server) handleSearchForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if err := s.cities.Search(r.Context(), r.PostFormValue("city")); err != nil && !errors.Is(err, cities.ErrEmptyCity) {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleSummaryImage renders the default cities. The cache is keyed on the
// rows it would draw, so any status change or list edit re-renders.
func (s *Server) handleSummaryImage(w http.ResponseWriter, r *http.Request) {
	snap, err := s.cities.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), statusForError(err))
		return
	}
	cards := snap.Cards(cities.Default)
	key := summaryKey(cards)

	if data, ok := s.imageCache.Get(key); ok {
		s.serveImage(w, data)
		return
	}

	data, err := imagegen.RenderSummary(imagegen.SummaryData{
		Title: "GRL Weather Checker",
		Rows:  summaryRows(cardViews(snap, cities.Default)),
	})
	if err != nil {
		s.logger.Error("api: render summary image", "error", err)
		http.Error(w, "Image generation failed", http.StatusInternalServerError)
		return
	}
	s.imageCache.Set(key, data)
	s.serveImage(w, data)
}

// summaryKey fingerprints the listed names and the status sequence of each.
func summaryKey(cards []cities.Card) string {
	var b strings.Builder
	for _, c := range cards {
		fmt.Fprintf(&b, "%s\x00%d\x00%s\x00", c.City, c.Status.Seq, c.Status.State)
	}
	return b.String()
}

func (s *Server) serveImage(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(s.imageCache.TTL().Seconds())))
	w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"audit":  s.audit != nil,
	})
}
