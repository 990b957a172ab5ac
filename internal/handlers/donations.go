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

type donationPageData struct {
	User          models.UserProfile
	Rows          []dashboard.DonationRow
	Filter        workflow.DonationFilter
	BloodTypes    []string
	StatusOptions []workflow.DisplayStatus
}

func donationFilterFromQuery(r *http.Request) workflow.DonationFilter {
	q := r.URL.Query()
	return workflow.DonationFilter{
		BloodType:   q.Get("blood_type"),
		StatusLabel: q.Get("status"),
		Date:        q.Get("date"),
	}
}

// DonationsPage renders the donation queue with the query-string filters
// applied.
func (h *Handler) DonationsPage(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	user := middleware.CurrentUser(r.Context())
	list := h.views.For(sid, user.ID).Donations

	list.SetFilter(donationFilterFromQuery(r))
	if err := list.Refresh(r.Context()); err != nil {
		h.handlePageError(w, r, sid, err)
		return
	}

	h.render(w, h.pendonoranTmpl, donationPageData{
		User:          user,
		Rows:          list.Rows(),
		Filter:        list.Filter(),
		BloodTypes:    BloodTypes,
		StatusOptions: workflow.DonationStatusOptions(),
	})
}

func (h *Handler) donationList(r *http.Request) *dashboard.DonationList {
	sid := middleware.SessionID(r.Context())
	user := middleware.CurrentUser(r.Context())
	return h.views.For(sid, user.ID).Donations
}

// CompleteDonation closes out a verified donation.
func (h *Handler) CompleteDonation(w http.ResponseWriter, r *http.Request) {
	list := h.donationList(r)
	if err := list.EnsureLoaded(r.Context()); err != nil {
		writeActionError(w, err)
		return
	}
	if err := list.Complete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "SUCCESS"})
}

// CancelDonation aborts an in-progress donation.
func (h *Handler) CancelDonation(w http.ResponseWriter, r *http.Request) {
	list := h.donationList(r)
	if err := list.EnsureLoaded(r.Context()); err != nil {
		writeActionError(w, err)
		return
	}
	if err := list.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "SUCCESS"})
}

// VerifyDonation submits the donor's unique code.
func (h *Handler) VerifyDonation(w http.ResponseWriter, r *http.Request) {
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

	list := h.donationList(r)
	if err := list.EnsureLoaded(r.Context()); err != nil {
		writeActionError(w, err)
		return
	}
	if err := list.Verify(r.Context(), chi.URLParam(r, "id"), body.UniqueCode); err != nil {
		writeActionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "SUCCESS"})
}
