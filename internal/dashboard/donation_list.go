package dashboard

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/darahtanyoe/mitra-dashboard/internal/models"
	"github.com/darahtanyoe/mitra-dashboard/internal/upstream"
	"github.com/darahtanyoe/mitra-dashboard/internal/workflow"
)

// ErrRowBusy rejects an action while another action for the same row is still
// in flight. Actions on different rows overlap freely.
var ErrRowBusy = errors.New("dashboard: row action already in flight")

// ErrRowNotFound means the row id is not in the cached collection.
var ErrRowNotFound = errors.New("dashboard: row not found")

// DonationAPI is the slice of the remote API the donation view needs.
type DonationAPI interface {
	DonationsByPartner(ctx context.Context, sid, partnerID string) ([]models.DonationRecord, error)
	UpdateDonationStatus(ctx context.Context, sid, donationID, status string) error
	VerifyDonationCode(ctx context.Context, sid, donationID, code string) error
}

// DonationRow is a donation record projected for rendering.
type DonationRow struct {
	No          int
	Record      models.DonationRecord
	Display     workflow.DisplayStatus
	CreatedDate string
	Actions     []workflow.Action
	Busy        bool
}

// DonationList is one browser session's view of the donation queue: the
// cached rows, the active filter, and the per-row busy flags.
type DonationList struct {
	api       DonationAPI
	sid       string
	partnerID string

	mu     sync.Mutex
	rows   []models.DonationRecord
	filter workflow.DonationFilter
	busy   map[string]bool
}

func NewDonationList(api DonationAPI, sid, partnerID string) *DonationList {
	return &DonationList{api: api, sid: sid, partnerID: partnerID, busy: make(map[string]bool)}
}

// Refresh replaces the cached collection with a fresh fetch. A plain fetch
// failure resolves to an empty collection; an expired session propagates so
// the web layer can redirect.
func (l *DonationList) Refresh(ctx context.Context) error {
	rows, err := l.api.DonationsByPartner(ctx, l.sid, l.partnerID)
	if err != nil {
		if errors.Is(err, upstream.ErrSessionExpired) {
			return err
		}
		log.Printf("[dashboard] donation fetch failed: %v", err)
		rows = nil
	}
	l.mu.Lock()
	l.rows = rows
	l.mu.Unlock()
	return nil
}

// EnsureLoaded fetches the collection if nothing is cached yet, so actions
// keep working after a dashboard restart invalidates the cached view.
func (l *DonationList) EnsureLoaded(ctx context.Context) error {
	l.mu.Lock()
	loaded := l.rows != nil
	l.mu.Unlock()
	if loaded {
		return nil
	}
	return l.Refresh(ctx)
}

// All returns the unfiltered cached records, for summary counts and exports.
func (l *DonationList) All() []models.DonationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.DonationRecord(nil), l.rows...)
}

func (l *DonationList) SetFilter(f workflow.DonationFilter) {
	l.mu.Lock()
	l.filter = f
	l.mu.Unlock()
}

func (l *DonationList) Filter() workflow.DonationFilter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// Rows projects the filtered collection for rendering, numbered from 1.
func (l *DonationList) Rows() []DonationRow {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]DonationRow, 0, len(l.rows))
	for _, rec := range l.rows {
		if !l.filter.Match(rec) {
			continue
		}
		out = append(out, DonationRow{
			No:          len(out) + 1,
			Record:      rec,
			Display:     workflow.DonationDisplay(rec.Status),
			CreatedDate: workflow.FormatIndonesianDate(rec.CreatedAt),
			Actions:     workflow.DonationActions(rec.Status, rec.UniqueCodeVerified),
			Busy:        l.busy[rec.ID],
		})
	}
	return out
}

// Complete moves a verified on_progress donation to completed and re-fetches.
func (l *DonationList) Complete(ctx context.Context, donationID string) error {
	return l.transition(ctx, donationID, workflow.ActionComplete, workflow.DonationCompleted)
}

// Cancel moves an on_progress donation to cancelled and re-fetches.
func (l *DonationList) Cancel(ctx context.Context, donationID string) error {
	return l.transition(ctx, donationID, workflow.ActionCancel, workflow.DonationCancelled)
}

func (l *DonationList) transition(ctx context.Context, donationID string, action workflow.Action, target string) error {
	if err := l.acquire(donationID, action); err != nil {
		return err
	}
	defer l.release(donationID)

	if err := l.api.UpdateDonationStatus(ctx, l.sid, donationID, target); err != nil {
		return err
	}
	return l.Refresh(ctx)
}

// Verify submits the donor's unique code. On success only the verification
// flag is patched locally; the rest of the row is left untouched and no
// re-fetch happens.
func (l *DonationList) Verify(ctx context.Context, donationID, code string) error {
	if err := l.acquire(donationID, workflow.ActionVerifyCode); err != nil {
		return err
	}
	defer l.release(donationID)

	if err := l.api.VerifyDonationCode(ctx, l.sid, donationID, code); err != nil {
		return err
	}

	l.mu.Lock()
	for i := range l.rows {
		if l.rows[i].ID == donationID {
			l.rows[i].UniqueCodeVerified = true
			break
		}
	}
	l.mu.Unlock()
	return nil
}

// acquire takes the row's busy flag and checks the action against the row's
// current state. Released by release.
func (l *DonationList) acquire(donationID string, action workflow.Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.busy[donationID] {
		return ErrRowBusy
	}
	for _, rec := range l.rows {
		if rec.ID == donationID {
			if err := workflow.AllowDonationAction(rec.Status, rec.UniqueCodeVerified, action); err != nil {
				return err
			}
			l.busy[donationID] = true
			return nil
		}
	}
	return ErrRowNotFound
}

func (l *DonationList) release(donationID string) {
	l.mu.Lock()
	delete(l.busy, donationID)
	l.mu.Unlock()
}
