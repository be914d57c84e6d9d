package server

import (
	"encoding/json"
	"net/http"

	"lostfound/internal/model"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, envelope{"status": "unavailable", "error": err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"status": "ok"})
}

func (s *Server) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ItemFilter{
		LP:       q.Get("lp"),
		Name:     q.Get("name"),
		Category: model.Category(q.Get("category")),
		Brand:    q.Get("brand"),
		Status:   model.Status(q.Get("status")),
	}

	items, err := s.svc.SearchItems(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []*model.Item{}
	}
	s.writeJSON(w, http.StatusOK, envelope{"items": items})
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var item model.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	// Identity and timestamps are assigned by the store.
	item.ID = 0
	item.CreatedAt = model.Timestamp{}
	item.ModifiedAt = model.Timestamp{}

	created, err := s.svc.CreateItem(r.Context(), &item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, envelope{"item": created})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.badRequest(w, "invalid item id")
		return
	}
	item, err := s.svc.GetItem(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"item": item})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.badRequest(w, "invalid item id")
		return
	}
	var patch model.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}

	item, err := s.svc.UpdateItem(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"item": item})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.badRequest(w, "invalid item id")
		return
	}
	if err := s.svc.DeleteItem(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{})
}

func (s *Server) handleToggleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		s.badRequest(w, "invalid item id")
		return
	}
	item, err := s.svc.ToggleStatus(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"item": item})
}

func (s *Server) handleNextLP(w http.ResponseWriter, r *http.Request) {
	lp, err := s.svc.NextLP(r.Context(), model.Category(r.URL.Query().Get("category")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"lp": lp})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{"stats": stats})
}
