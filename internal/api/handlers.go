package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/FocuswithJustin/bibleref/core/canon"
	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/osis"
	"github.com/FocuswithJustin/bibleref/core/passage"
	"github.com/FocuswithJustin/bibleref/internal/cache"
	"github.com/FocuswithJustin/bibleref/internal/logging"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Error codes.
const (
	CodeNoReference      = "NO_REFERENCE"
	CodeInvalidReference = "INVALID_REFERENCE"
	CodeOrder            = "ORDER"
	CodeBounds           = "BOUNDS"
	CodeInvalidBook      = "INVALID_BOOK"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeInternal         = "INTERNAL"
)

// PointInfo is one end of a reference.
type PointInfo struct {
	Book     string `json:"book"`
	BookOSIS string `json:"book_osis"`
	Chapter  int    `json:"chapter"`
	Verse    int    `json:"verse"`
}

// ReferenceInfo describes a resolved reference.
type ReferenceInfo struct {
	Text       string              `json:"text"`
	OSIS       string              `json:"osis"`
	Start      PointInfo           `json:"start"`
	End        PointInfo           `json:"end"`
	Encoded    passage.EncodedPair `json:"encoded"`
	VerseCount int                 `json:"verse_count"`
}

// BookInfo describes a book of the canon.
type BookInfo struct {
	Index         int    `json:"index"`
	Name          string `json:"name"`
	OSIS          string `json:"osis"`
	Testament     string `json:"testament"`
	Chapters      int    `json:"chapters"`
	Verses        int    `json:"verses"`
	SingleChapter bool   `json:"single_chapter,omitempty"`
	ChapterVerses []int  `json:"chapter_verses,omitempty"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status  string      `json:"status"`
	Version string      `json:"version"`
	Uptime  string      `json:"uptime"`
	Cache   cache.Stats `json:"cache"`
	Events  int         `json:"event_clients"`
}

// NewReferenceInfo builds the JSON view of r.
func NewReferenceInfo(r passage.Reference) ReferenceInfo {
	return ReferenceInfo{
		Text: r.String(),
		OSIS: osis.Format(r),
		Start: PointInfo{
			Book:     r.StartBookName(),
			BookOSIS: r.StartBook().OSIS(),
			Chapter:  r.StartChapter(),
			Verse:    r.StartVerse(),
		},
		End: PointInfo{
			Book:     r.EndBookName(),
			BookOSIS: r.EndBook().OSIS(),
			Chapter:  r.EndChapter(),
			Verse:    r.EndVerse(),
		},
		Encoded:    passage.Encode(r),
		VerseCount: r.VerseCount(),
	}
}

func newBookInfo(b canon.Book, detail bool) BookInfo {
	info := BookInfo{
		Index:         canon.Index(b),
		Name:          b.String(),
		OSIS:          b.OSIS(),
		Testament:     b.Testament().String(),
		Chapters:      canon.NumChapters(b),
		Verses:        canon.TotalVerses(b),
		SingleChapter: canon.SingleChapter(b),
	}
	if detail {
		for c := 1; c <= info.Chapters; c++ {
			info.ChapterVerses = append(info.ChapterVerses, canon.NumVerses(b, c))
		}
	}
	return info
}

var endpoints = []string{
	"GET /health",
	"GET /books",
	"GET /books/:osis",
	"GET /parse?q=",
	"GET /decode?start=&end=",
	"GET /osis?ref=",
	"GET /collections",
	"POST /collections",
	"GET /collections/:id",
	"DELETE /collections/:id",
	"GET /collections/:id/references",
	"POST /collections/:id/references",
	"DELETE /collections/:id/references/:entry",
	"WS /ws/resolve",
	"WS /ws/events",
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, CodeNotFound, "Endpoint not found")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"name":      "bibleref",
		"version":   s.cfg.Version,
		"endpoints": endpoints,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	respond(w, http.StatusOK, HealthInfo{
		Status:  "healthy",
		Version: s.cfg.Version,
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Cache:   s.refs.Stats(),
		Events:  s.hub.Len(),
	})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	testament := strings.ToUpper(r.URL.Query().Get("testament"))
	if testament != "" && testament != "OT" && testament != "NT" {
		respondError(w, http.StatusBadRequest, CodeInvalidRequest, "testament must be OT or NT")
		return
	}

	books := make([]BookInfo, 0, canon.Count)
	for _, b := range canon.All() {
		if testament != "" && b.Testament().String() != testament {
			continue
		}
		books = append(books, newBookInfo(b, false))
	}
	respondList(w, books, len(books))
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/books/")
	b, ok := canon.FromOSIS(id)
	if !ok {
		b, ok = canon.MatchName(id)
	}
	if !ok {
		respondError(w, http.StatusNotFound, CodeNotFound, "book not found: "+id)
		return
	}
	respond(w, http.StatusOK, newBookInfo(b, true))
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	ref, err := s.resolve(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, NewReferenceInfo(ref))
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	start, err1 := strconv.Atoi(q.Get("start"))
	end, err2 := strconv.Atoi(q.Get("end"))
	if err1 != nil || err2 != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidRequest, "start and end must be integers")
		return
	}
	ref, err := passage.Decode(passage.EncodedPair{Start: start, End: end})
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, NewReferenceInfo(ref))
}

func (s *Server) handleOSIS(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	ref, err := osis.Parse(r.URL.Query().Get("ref"))
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, NewReferenceInfo(ref))
}

// allowMethods writes a 405 and returns false unless r uses one of methods.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	respondError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Only "+strings.Join(methods, " and ")+" allowed")
	return false
}

// decodeBody reads a JSON request body of at most 1 MiB into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// errorStatus maps an error to its HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrNoReference):
		return http.StatusBadRequest, CodeNoReference
	case errors.Is(err, errors.ErrOrder):
		return http.StatusUnprocessableEntity, CodeOrder
	case errors.Is(err, errors.ErrBounds):
		return http.StatusUnprocessableEntity, CodeBounds
	case errors.Is(err, errors.ErrInvalidBook):
		return http.StatusBadRequest, CodeInvalidBook
	case errors.Is(err, errors.ErrInvalidReference):
		return http.StatusBadRequest, CodeInvalidReference
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, errors.ErrAlreadyExists):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest, CodeInvalidRequest
	}
	return http.StatusInternalServerError, CodeInternal
}

func respondErr(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.Error("request_failed", "error", err)
		msg = errors.ErrInternal.Error()
	}
	respondError(w, status, code, msg)
}

func respondList(w http.ResponseWriter, data interface{}, total int) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
