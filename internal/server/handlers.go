package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/harper/sam/internal/models"
	"github.com/harper/sam/internal/notify"
	"github.com/harper/sam/internal/store"
)

type processRequest struct {
	Text string `json:"text"`
}

type searchRequest struct {
	Query string `json:"query" validate:"required"`
}

type reminderRequest struct {
	Enabled *bool `json:"enabled"`
	Time    int64 `json:"time" validate:"required,gt=0"`
}

type updateRequest struct {
	Type        *string        `json:"type" validate:"omitempty,oneof=note todo"`
	Title       *string        `json:"title"`
	Summary     *string        `json:"summary"`
	Body        *string        `json:"body"`
	Items       *[]models.Item `json:"items"`
	Tags        *[]string      `json:"tags"`
	IsImportant *bool          `json:"isImportant"`
	// Reminder replaces the reminder; clearReminder removes it.
	Reminder      *reminderRequest `json:"reminder"`
	ClearReminder bool             `json:"clearReminder"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// storeError maps store errors onto HTTP statuses.
func storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrRecordNotFound), errors.Is(err, notify.ErrHistoryItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrItemOutOfRange), errors.Is(err, store.ErrNotActionable),
		errors.Is(err, store.ErrPrefixTooShort), errors.Is(err, store.ErrAmbiguousPrefix):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if !s.decode(w, r, &req) {
		return
	}
	rec := s.app.Capture(r.Context(), req.Text)
	writeJSON(w, http.StatusCreated, store.FromModel(rec))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	all := s.app.Store.List(store.Filter{})
	ids := s.app.Inference.Search(r.Context(), req.Query, all)
	writeJSON(w, http.StatusOK, map[string]any{"matches": ids})
}

func recordList(recs []*models.Record) []*store.RecordData {
	out := make([]*store.RecordData, 0, len(recs))
	for _, r := range recs {
		out = append(out, store.FromModel(r))
	}
	return out
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.Filter{Tag: q.Get("tag")}
	switch q.Get("filter") {
	case "", "all":
	case "important":
		f.Important = true
	case "todo":
		f.Kind = models.KindActionable
	case "note":
		f.Kind = models.KindNote
	default:
		writeError(w, http.StatusBadRequest, "filter must be all, important, todo or note")
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		f.Limit = n
	}
	writeJSON(w, http.StatusOK, recordList(s.app.Store.List(f)))
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.app.Store.Resolve(mux.Vars(r)["id"])
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.FromModel(rec))
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !s.decode(w, r, &req) {
		return
	}
	p := store.Patch{
		Title:         req.Title,
		Summary:       req.Summary,
		Body:          req.Body,
		Items:         req.Items,
		Tags:          req.Tags,
		Important:     req.IsImportant,
		ClearReminder: req.ClearReminder,
	}
	if req.Type != nil {
		k := models.Kind(*req.Type)
		p.Kind = &k
	}
	if req.Reminder != nil {
		enabled := true
		if req.Reminder.Enabled != nil {
			enabled = *req.Reminder.Enabled
		}
		p.Reminder = &models.Reminder{Enabled: enabled, FireAt: time.UnixMilli(req.Reminder.Time)}
	}

	rec, err := s.app.Store.Update(mux.Vars(r)["id"], p)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.FromModel(rec))
}

func (s *Server) deleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Store.Delete(mux.Vars(r)["id"]); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggleItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	index, _ := strconv.Atoi(vars["index"])
	rec, err := s.app.Store.ToggleItem(vars["id"], index)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.FromModel(rec))
}

func (s *Server) toggleImportant(w http.ResponseWriter, r *http.Request) {
	rec, err := s.app.Store.ToggleImportant(mux.Vars(r)["id"])
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.FromModel(rec))
}

func (s *Server) setReminder(w http.ResponseWriter, r *http.Request) {
	var req reminderRequest
	if !s.decode(w, r, &req) {
		return
	}
	rec, err := s.app.Store.SetReminder(mux.Vars(r)["id"], time.UnixMilli(req.Time))
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.FromModel(rec))
}

func (s *Server) clearReminder(w http.ResponseWriter, r *http.Request) {
	rec, err := s.app.Store.ClearReminder(mux.Vars(r)["id"])
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, store.FromModel(rec))
}

func (s *Server) listTags(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Store.Tags())
}

func (s *Server) export(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Store.Export())
}

func (s *Server) importDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := store.ReadDocument(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	added, err := s.app.Store.Import(doc)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"imported": len(added), "notes": recordList(added)})
}

func (s *Server) listNotifications(w http.ResponseWriter, _ *http.Request) {
	h := s.app.Dispatcher.History()
	items := h.Items()
	out := make([]*notify.HistoryData, 0, len(items))
	for _, it := range items {
		out = append(out, notify.ToHistoryData(it))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "unread": h.UnreadCount()})
}

func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Dispatcher.MarkRead(mux.Vars(r)["id"]); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unread": s.app.Dispatcher.History().UnreadCount()})
}

func (s *Server) markAllRead(w http.ResponseWriter, _ *http.Request) {
	s.app.Dispatcher.MarkAllRead()
	writeJSON(w, http.StatusOK, map[string]any{"unread": 0})
}

func (s *Server) clearNotifications(w http.ResponseWriter, _ *http.Request) {
	s.app.Dispatcher.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listBanners(w http.ResponseWriter, _ *http.Request) {
	banners := s.app.Dispatcher.Banners().Active()
	out := make([]*BannerData, 0, len(banners))
	for _, b := range banners {
		out = append(out, &BannerData{ID: b.ID, Note: store.FromModel(b.Record), Timestamp: b.ShownAt.UnixMilli()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) dismissBanner(w http.ResponseWriter, r *http.Request) {
	if !s.app.Dispatcher.Banners().Dismiss(mux.Vars(r)["id"]) {
		writeError(w, http.StatusNotFound, "banner not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
