package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/darahtanyoe/mitra-dashboard/internal/dashboard"
	"github.com/darahtanyoe/mitra-dashboard/internal/middleware"
	"github.com/darahtanyoe/mitra-dashboard/internal/models"
	"github.com/darahtanyoe/mitra-dashboard/internal/workflow"
)

type requestPageData struct {
	User          models.UserProfile
	Rows          []dashboard.RequestRow
	Filter        workflow.RequestFilter
	BloodTypes    []string
	StatusOptions []workflow.DisplayStatus
}

func requestFilterFromQuery(r *http.Request) workflow.RequestFilter {
	q := r.URL.Query()
	return workflow.RequestFilter{
		BloodType:   q.Get("blood_type"),
		StatusLabel: q.Get("status"),
		CreatedFrom: q.Get("created_from"),
		ExpiryTo:    q.Get("expiry_to"),
	}
}

// RequestsPage renders the blood-request queue with the query-string filters
// applied.
func (h *Handler) RequestsPage(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	user := middleware.CurrentUser(r.Context())
	list := h.views.For(sid, user.ID).Requests

	list.SetFilter(requestFilterFromQuery(r))
	if err := list.Refresh(r.Context()); err != nil {
		h.handlePageError(w, r, sid, err)
		return
	}

	h.render(w, h.permintaanTmpl, requestPageData{
		User:          user,
		Rows:          list.Rows(),
		Filter:        list.Filter(),
		BloodTypes:    BloodTypes,
		StatusOptions: workflow.RequestStatusOptions(),
	})
}

func (h *Handler) requestList(r *http.Request) *dashboard.RequestList {
	sid := middleware.SessionID(r.Context())
	user := middleware.CurrentUser(r.Context())
	return h.views.For(sid, user.ID).Requests
}

func (h *Handler) requestAction(w http.ResponseWriter, r *http.Request, run func(*dashboard.RequestList, string) error) {
	list := h.requestList(r)
	if err := list.EnsureLoaded(r.Context()); err != nil {
		writeActionError(w, err)
		return
	}
	if err := run(list, chi.URLParam(r, "id")); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "SUCCESS"})
}

// AcceptRequest takes a pending request on.
func (h *Handler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.requestAction(w, r, func(l *dashboard.RequestList, id string) error {
		return l.Accept(r.Context(), id)
	})
}

// RejectRequest cancels a request from any non-terminal state.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.requestAction(w, r, func(l *dashboard.RequestList, id string) error {
		return l.Reject(r.Context(), id)
	})
}

// ReadyRequest marks the bags prepared for pickup.
func (h *Handler) ReadyRequest(w http.ResponseWriter, r *http.Request) {
	h.requestAction(w, r, func(l *dashboard.RequestList, id string) error {
		return l.MarkReady(r.Context(), id)
	})
}

// CompleteRequest closes a ready request once its code is verified.
func (h *Handler) CompleteRequest(w http.ResponseWriter, r *http.Request) {
	h.requestAction(w, r, func(l *dashboard.RequestList, id string) error {
		return l.Complete(r.Context(), id)
	})
}

// VerifyRequest submits the pickup code.
func (h *Handler) VerifyRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UniqueCode string `json:"unique_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body")
		return
	}
	if strings.TrimSpace(body.UniqueCode) == "" {
		writeError(w, http.StatusUnprocessableEntity, "empty_code")
		return
	}
	h.requestAction(w, r, func(l *dashboard.RequestList, id string) error {
		return l.Verify(r.Context(), id, body.UniqueCode)
	})
}
