package handlers

import (
	"errors"
	"html/template"
	"log"
	"net/http"

	"github.com/darahtanyoe/mitra-dashboard/internal/middleware"
	"github.com/darahtanyoe/mitra-dashboard/internal/models"
	"github.com/darahtanyoe/mitra-dashboard/internal/upstream"
	"github.com/darahtanyoe/mitra-dashboard/internal/workflow"
)

type summaryCards struct {
	DonationsTotal     int
	DonationsActive    int
	DonationsCompleted int
	RequestsPending    int
	RequestsReady      int
	RequestsCompleted  int
}

type homePageData struct {
	User    models.UserProfile
	Summary summaryCards
}

// Home renders the landing view with live counts from both queues.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	user := middleware.CurrentUser(r.Context())
	v := h.views.For(sid, user.ID)

	if err := v.Donations.Refresh(r.Context()); err != nil {
		h.handlePageError(w, r, sid, err)
		return
	}
	if err := v.Requests.Refresh(r.Context()); err != nil {
		h.handlePageError(w, r, sid, err)
		return
	}

	var cards summaryCards
	for _, rec := range v.Donations.All() {
		cards.DonationsTotal++
		switch rec.Status {
		case workflow.DonationOnProgress:
			cards.DonationsActive++
		case workflow.DonationCompleted:
			cards.DonationsCompleted++
		}
	}
	for _, rec := range v.Requests.All() {
		switch workflow.CanonicalRequestStatus(rec.Status) {
		case workflow.RequestPending:
			cards.RequestsPending++
		case workflow.RequestReady:
			cards.RequestsReady++
		case workflow.RequestCompleted:
			cards.RequestsCompleted++
		}
	}

	h.render(w, h.dashboardTmpl, homePageData{User: user, Summary: cards})
}

// handlePageError distinguishes a dead session, which redirects, from any
// other failure, which 500s.
func (h *Handler) handlePageError(w http.ResponseWriter, r *http.Request, sid string, err error) {
	if errors.Is(err, upstream.ErrSessionExpired) {
		h.expireSession(w, r, sid)
		return
	}
	log.Printf("[handlers] page load failed: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func (h *Handler) render(w http.ResponseWriter, tmpl *template.Template, data any) {
	if err := tmpl.Execute(w, data); err != nil {
		log.Printf("[handlers] render: %v", err)
	}
}
