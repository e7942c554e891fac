package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/FocuswithJustin/bibleref/internal/store"
)

// CollectionRequest is the body of POST /collections.
type CollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ReferenceRequest is the body of POST /collections/:id/references.
type ReferenceRequest struct {
	Reference string `json:"reference"`
	Note      string `json:"note,omitempty"`
}

// EntryInfo describes one stored reference.
type EntryInfo struct {
	ID        string        `json:"id"`
	Reference ReferenceInfo `json:"reference"`
	Note      string        `json:"note,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// CollectionDetail is a collection with its entries.
type CollectionDetail struct {
	store.Collection
	References []EntryInfo `json:"references"`
}

func newEntryInfos(entries []store.Entry) []EntryInfo {
	out := make([]EntryInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryInfo{
			ID:        e.ID,
			Reference: NewReferenceInfo(e.Reference),
			Note:      e.Note,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.store.ListCollections(r.Context())
		if err != nil {
			respondErr(w, err)
			return
		}
		if list == nil {
			list = []store.Collection{}
		}
		respondList(w, list, len(list))
	case http.MethodPost:
		var req CollectionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		c, err := s.store.CreateCollection(r.Context(), req.Name, req.Description)
		if err != nil {
			respondErr(w, err)
			return
		}
		s.hub.Publish(Event{Type: EventCollectionCreated, CollectionID: c.ID, Name: c.Name})
		respond(w, http.StatusCreated, c)
	default:
		allowMethods(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleCollectionPath routes /collections/:id, /collections/:id/references
// and /collections/:id/references/:entry.
func (s *Server) handleCollectionPath(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/collections/"), "/"), "/")
	if parts[0] == "" {
		respondError(w, http.StatusBadRequest, CodeInvalidRequest, "Collection ID is required")
		return
	}

	switch {
	case len(parts) == 1:
		s.handleCollection(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "references":
		s.handleReferences(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "references":
		s.handleReference(w, r, parts[0], parts[2])
	default:
		respondError(w, http.StatusNotFound, CodeNotFound, "Endpoint not found")
	}
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request, id string) {
	if !allowMethods(w, r, http.MethodGet, http.MethodDelete) {
		return
	}
	c, err := s.store.Resolve(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}

	if r.Method == http.MethodDelete {
		if err := s.store.DeleteCollection(r.Context(), c.ID); err != nil {
			respondErr(w, err)
			return
		}
		s.hub.Publish(Event{Type: EventCollectionDeleted, CollectionID: c.ID, Name: c.Name})
		respond(w, http.StatusOK, map[string]string{"message": "Collection deleted"})
		return
	}

	entries, err := s.store.ListReferences(r.Context(), c.ID)
	if err != nil {
		respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, CollectionDetail{Collection: c, References: newEntryInfos(entries)})
}

func (s *Server) handleReferences(w http.ResponseWriter, r *http.Request, id string) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	c, err := s.store.Resolve(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}

	if r.Method == http.MethodPost {
		var req ReferenceRequest
		if !decodeBody(w, r, &req) {
			return
		}
		ref, err := s.resolve(r.Context(), req.Reference)
		if err != nil {
			respondErr(w, err)
			return
		}
		e, err := s.store.AddReference(r.Context(), c.ID, ref, req.Note)
		if err != nil {
			respondErr(w, err)
			return
		}
		s.hub.Publish(Event{Type: EventReferenceAdded, CollectionID: c.ID, EntryID: e.ID, Reference: ref.String()})
		respond(w, http.StatusCreated, newEntryInfos([]store.Entry{e})[0])
		return
	}

	var entries []store.Entry
	if q := r.URL.Query().Get("overlaps"); q != "" {
		ref, err := s.resolve(r.Context(), q)
		if err != nil {
			respondErr(w, err)
			return
		}
		entries, err = s.store.FindOverlapping(r.Context(), c.ID, ref)
		if err != nil {
			respondErr(w, err)
			return
		}
	} else {
		entries, err = s.store.ListReferences(r.Context(), c.ID)
		if err != nil {
			respondErr(w, err)
			return
		}
	}
	infos := newEntryInfos(entries)
	respondList(w, infos, len(infos))
}

func (s *Server) handleReference(w http.ResponseWriter, r *http.Request, id, entryID string) {
	if !allowMethods(w, r, http.MethodDelete) {
		return
	}
	c, err := s.store.Resolve(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := s.store.RemoveReference(r.Context(), c.ID, entryID); err != nil {
		respondErr(w, err)
		return
	}
	s.hub.Publish(Event{Type: EventReferenceRemoved, CollectionID: c.ID, EntryID: entryID})
	respond(w, http.StatusOK, map[string]string{"message": "Reference removed"})
}
