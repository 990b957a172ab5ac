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

// RequestAPI is the slice of the remote API the blood-request view needs.
type RequestAPI interface {
	RequestsByPartner(ctx context.Context, sid, partnerID string) ([]models.BloodRequestRecord, error)
	ConfirmRequest(ctx context.Context, sid, requestID, status string) error
	UpdateRequestStatus(ctx context.Context, sid, requestID, status string) error
	VerifyRequestCode(ctx context.Context, sid, requestID, code string) error
}

// RequestRow is a blood-request record projected for rendering.
type RequestRow struct {
	No          int
	Record      models.BloodRequestRecord
	Display     workflow.DisplayStatus
	CreatedDate string
	ExpiryDate  string
	Actions     []workflow.Action
	Busy        bool
}

// RequestList is one browser session's view of the blood-request queue.
// Same shape as DonationList, with the longer status chain.
type RequestList struct {
	api       RequestAPI
	sid       string
	partnerID string

	mu     sync.Mutex
	rows   []models.BloodRequestRecord
	filter workflow.RequestFilter
	busy   map[string]bool
}

func NewRequestList(api RequestAPI, sid, partnerID string) *RequestList {
	return &RequestList{api: api, sid: sid, partnerID: partnerID, busy: make(map[string]bool)}
}

func (l *RequestList) Refresh(ctx context.Context) error {
	rows, err := l.api.RequestsByPartner(ctx, l.sid, l.partnerID)
	if err != nil {
		if errors.Is(err, upstream.ErrSessionExpired) {
			return err
		}
		log.Printf("[dashboard] blood-request fetch failed: %v", err)
		rows = nil
	}
	l.mu.Lock()
	l.rows = rows
	l.mu.Unlock()
	return nil
}

// EnsureLoaded fetches the collection if nothing is cached yet.
func (l *RequestList) EnsureLoaded(ctx context.Context) error {
	l.mu.Lock()
	loaded := l.rows != nil
	l.mu.Unlock()
	if loaded {
		return nil
	}
	return l.Refresh(ctx)
}

// All returns the unfiltered cached records.
func (l *RequestList) All() []models.BloodRequestRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.BloodRequestRecord(nil), l.rows...)
}

func (l *RequestList) SetFilter(f workflow.RequestFilter) {
	l.mu.Lock()
	l.filter = f
	l.mu.Unlock()
}

func (l *RequestList) Filter() workflow.RequestFilter {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

func (l *RequestList) Rows() []RequestRow {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]RequestRow, 0, len(l.rows))
	for _, rec := range l.rows {
		if !l.filter.Match(rec) {
			continue
		}
		out = append(out, RequestRow{
			No:          len(out) + 1,
			Record:      rec,
			Display:     workflow.RequestDisplay(rec.Status),
			CreatedDate: workflow.FormatIndonesianDate(rec.CreatedAt),
			ExpiryDate:  workflow.FormatIndonesianDate(rec.ExpiryDate),
			Actions:     workflow.RequestActions(rec.Status, rec.UniqueCodeVerified),
			Busy:        l.busy[rec.ID],
		})
	}
	return out
}

// Accept records the partner's decision to take the request on.
func (l *RequestList) Accept(ctx context.Context, requestID string) error {
	return l.decide(ctx, requestID, workflow.ActionAccept, workflow.RequestConfirmed)
}

// Reject cancels the request from any non-terminal state.
func (l *RequestList) Reject(ctx context.Context, requestID string) error {
	return l.decide(ctx, requestID, workflow.ActionReject, workflow.RequestRejected)
}

func (l *RequestList) decide(ctx context.Context, requestID string, action workflow.Action, target string) error {
	if err := l.acquire(requestID, action); err != nil {
		return err
	}
	defer l.release(requestID)

	if err := l.api.ConfirmRequest(ctx, l.sid, requestID, target); err != nil {
		return err
	}
	return l.Refresh(ctx)
}

// MarkReady signals the requested bags are prepared for pickup.
func (l *RequestList) MarkReady(ctx context.Context, requestID string) error {
	return l.fulfil(ctx, requestID, workflow.ActionMarkReady, workflow.RequestReady)
}

// Complete closes a ready request once its pickup code is verified.
func (l *RequestList) Complete(ctx context.Context, requestID string) error {
	return l.fulfil(ctx, requestID, workflow.ActionComplete, workflow.RequestCompleted)
}

func (l *RequestList) fulfil(ctx context.Context, requestID string, action workflow.Action, target string) error {
	if err := l.acquire(requestID, action); err != nil {
		return err
	}
	defer l.release(requestID)

	if err := l.api.UpdateRequestStatus(ctx, l.sid, requestID, target); err != nil {
		return err
	}
	return l.Refresh(ctx)
}

// Verify submits the pickup code; success patches only the verification flag
// locally, no re-fetch.
func (l *RequestList) Verify(ctx context.Context, requestID, code string) error {
	if err := l.acquire(requestID, workflow.ActionVerifyCode); err != nil {
		return err
	}
	defer l.release(requestID)

	if err := l.api.VerifyRequestCode(ctx, l.sid, requestID, code); err != nil {
		return err
	}

	l.mu.Lock()
	for i := range l.rows {
		if l.rows[i].ID == requestID {
			l.rows[i].UniqueCodeVerified = true
			break
		}
	}
	l.mu.Unlock()
	return nil
}

func (l *RequestList) acquire(requestID string, action workflow.Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.busy[requestID] {
		return ErrRowBusy
	}
	for _, rec := range l.rows {
		if rec.ID == requestID {
			if err := workflow.AllowRequestAction(rec.Status, rec.UniqueCodeVerified, action); err != nil {
				return err
			}
			l.busy[requestID] = true
			return nil
		}
	}
	return ErrRowNotFound
}

func (l *RequestList) release(requestID string) {
	l.mu.Lock()
	delete(l.busy, requestID)
	l.mu.Unlock()
}
