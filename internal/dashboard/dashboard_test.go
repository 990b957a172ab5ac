package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/darahtanyoe/mitra-dashboard/internal/models"
	"github.com/darahtanyoe/mitra-dashboard/internal/workflow"
)

type fakeAPI struct {
	mu sync.Mutex

	donations []models.DonationRecord
	requests  []models.BloodRequestRecord

	donationFetches int
	requestFetches  int
	statusUpdates   []string
	confirms        []string
	verifyErr       error
	fetchErr        error

	updateGate chan struct{} // when set, status updates block until closed
}

func (f *fakeAPI) DonationsByPartner(ctx context.Context, sid, partnerID string) ([]models.DonationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.donationFetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]models.DonationRecord(nil), f.donations...), nil
}

func (f *fakeAPI) UpdateDonationStatus(ctx context.Context, sid, donationID, status string) error {
	if f.updateGate != nil {
		<-f.updateGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, donationID+":"+status)
	return nil
}

func (f *fakeAPI) VerifyDonationCode(ctx context.Context, sid, donationID, code string) error {
	return f.verifyErr
}

func (f *fakeAPI) RequestsByPartner(ctx context.Context, sid, partnerID string) ([]models.BloodRequestRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requestFetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]models.BloodRequestRecord(nil), f.requests...), nil
}

func (f *fakeAPI) ConfirmRequest(ctx context.Context, sid, requestID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirms = append(f.confirms, requestID+":"+status)
	return nil
}

func (f *fakeAPI) UpdateRequestStatus(ctx context.Context, sid, requestID, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates = append(f.statusUpdates, requestID+":"+status)
	return nil
}

func (f *fakeAPI) VerifyRequestCode(ctx context.Context, sid, requestID, code string) error {
	return f.verifyErr
}

func (f *fakeAPI) counts() (donationFetches, requestFetches int, statusUpdates, confirms []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.donationFetches, f.requestFetches,
		append([]string(nil), f.statusUpdates...),
		append([]string(nil), f.confirms...)
}

func donation(id, status string, verified bool) models.DonationRecord {
	return models.DonationRecord{
		ID:                 id,
		Status:             status,
		UniqueCodeVerified: verified,
		CreatedAt:          "2024-03-20T10:00:00Z",
		BloodRequest:       models.LinkedBloodRequest{BloodType: "A+"},
	}
}

func TestDonationRefreshFailureResolvesToEmpty(t *testing.T) {
	api := &fakeAPI{fetchErr: errors.New("boom")}
	list := NewDonationList(api, "sid", "partner-1")

	if err := list.Refresh(context.Background()); err != nil {
		t.Fatalf("plain fetch failure should not propagate: %v", err)
	}
	if rows := list.Rows(); len(rows) != 0 {
		t.Fatalf("rows = %d, want empty collection", len(rows))
	}
}

func TestDonationCompleteReFetches(t *testing.T) {
	api := &fakeAPI{donations: []models.DonationRecord{donation("d1", workflow.DonationOnProgress, true)}}
	list := NewDonationList(api, "sid", "partner-1")
	if err := list.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := list.Complete(context.Background(), "d1"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	fetches, _, updates, _ := api.counts()
	if fetches != 2 {
		t.Fatalf("donation fetches = %d, want re-fetch after mutate", fetches)
	}
	if len(updates) != 1 || updates[0] != "d1:completed" {
		t.Fatalf("status updates = %v, want [d1:completed]", updates)
	}
}

func TestDonationCompleteGatedOnVerification(t *testing.T) {
	api := &fakeAPI{donations: []models.DonationRecord{donation("d1", workflow.DonationOnProgress, false)}}
	list := NewDonationList(api, "sid", "partner-1")
	if err := list.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := list.Complete(context.Background(), "d1"); !errors.Is(err, workflow.ErrTransitionNotAllowed) {
		t.Fatalf("err = %v, want ErrTransitionNotAllowed", err)
	}
	if err := list.Cancel(context.Background(), "d1"); err != nil {
		t.Fatalf("cancel must not be gated on verification: %v", err)
	}
}

func TestDonationVerifyPatchesLocally(t *testing.T) {
	api := &fakeAPI{donations: []models.DonationRecord{donation("d1", workflow.DonationOnProgress, false)}}
	list := NewDonationList(api, "sid", "partner-1")
	if err := list.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := list.Verify(context.Background(), "d1", "KODE123"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	fetches, _, _, _ := api.counts()
	if fetches != 1 {
		t.Fatalf("donation fetches = %d, verify must not re-fetch", fetches)
	}
	rows := list.Rows()
	if len(rows) != 1 || !rows[0].Record.UniqueCodeVerified {
		t.Fatal("verification flag should be patched in place")
	}
	// The now-verified row offers completion.
	found := false
	for _, a := range rows[0].Actions {
		if a == workflow.ActionComplete {
			found = true
		}
	}
	if !found {
		t.Fatalf("actions = %v, want complete after verify", rows[0].Actions)
	}
}

func TestDonationVerifyFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeAPI{
		donations: []models.DonationRecord{donation("d1", workflow.DonationOnProgress, false)},
		verifyErr: errors.New("kode salah"),
	}
	list := NewDonationList(api, "sid", "partner-1")
	if err := list.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := list.Verify(context.Background(), "d1", "SALAH"); err == nil {
		t.Fatal("expected verify failure to propagate")
	}
	if rows := list.Rows(); rows[0].Record.UniqueCodeVerified {
		t.Fatal("failed verify must not patch the flag")
	}
}

func TestDonationRowBusySerializesActions(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{
		donations:  []models.DonationRecord{donation("d1", workflow.DonationOnProgress, true)},
		updateGate: gate,
	}
	list := NewDonationList(api, "sid", "partner-1")
	if err := list.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() { done <- list.Complete(context.Background(), "d1") }()

	// Wait until the first action holds the busy flag.
	deadline := time.After(2 * time.Second)
	for {
		rows := list.Rows()
		if len(rows) == 1 && rows[0].Busy {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first action never took the busy flag")
		case <-time.After(time.Millisecond):
		}
	}

	if err := list.Cancel(context.Background(), "d1"); !errors.Is(err, ErrRowBusy) {
		t.Fatalf("err = %v, want ErrRowBusy", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("first action failed: %v", err)
	}
}

func TestRequestChain(t *testing.T) {
	api := &fakeAPI{requests: []models.BloodRequestRecord{
		{ID: "r1", Status: workflow.RequestPending, BloodType: "B+", CreatedAt: "2024-03-20T10:00:00Z", ExpiryDate: "2024-03-25T10:00:00Z"},
		{ID: "r2", Status: workflow.RequestReady, UniqueCodeVerified: false},
	}}
	list := NewRequestList(api, "sid", "partner-1")
	if err := list.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := list.Accept(context.Background(), "r1"); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	_, fetches, updates, confirms := api.counts()
	if len(confirms) != 1 || confirms[0] != "r1:confirmed" {
		t.Fatalf("confirms = %v, want [r1:confirmed]", confirms)
	}
	if fetches != 2 {
		t.Fatalf("request fetches = %d, want re-fetch after decide", fetches)
	}

	// Unverified ready request cannot be completed, but can be rejected.
	if err := list.Complete(context.Background(), "r2"); !errors.Is(err, workflow.ErrTransitionNotAllowed) {
		t.Fatalf("err = %v, want ErrTransitionNotAllowed", err)
	}
	if err := list.Verify(context.Background(), "r2", "KODE456"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if err := list.Complete(context.Background(), "r2"); err != nil {
		t.Fatalf("Complete after verify: %v", err)
	}
	_, _, updates, _ = api.counts()
	if len(updates) != 1 || updates[0] != "r2:completed" {
		t.Fatalf("status updates = %v, want [r2:completed]", updates)
	}
}

func TestRequestFilterApplied(t *testing.T) {
	api := &fakeAPI{requests: []models.BloodRequestRecord{
		{ID: "r1", Status: workflow.RequestPending, BloodType: "B+"},
		{ID: "r2", Status: workflow.RequestPending, BloodType: "O-"},
	}}
	list := NewRequestList(api, "sid", "partner-1")
	if err := list.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	list.SetFilter(workflow.RequestFilter{BloodType: "O-"})
	rows := list.Rows()
	if len(rows) != 1 || rows[0].Record.ID != "r2" {
		t.Fatalf("filtered rows = %+v, want only r2", rows)
	}
	if rows[0].No != 1 {
		t.Fatalf("row number = %d, want numbering to restart at 1", rows[0].No)
	}
}

func TestRegistryLifecycle(t *testing.T) {
	api := &fakeAPI{}
	reg := NewRegistry(api, time.Hour)

	a := reg.For("sid-1", "partner-1")
	if b := reg.For("sid-1", "partner-1"); a != b {
		t.Fatal("same session should get the same views")
	}
	if c := reg.For("sid-2", "partner-1"); c == a {
		t.Fatal("different sessions must not share views")
	}

	reg.Drop("sid-1")
	if b := reg.For("sid-1", "partner-1"); a == b {
		t.Fatal("dropped session should get fresh views")
	}
}

func TestRegistryEvictsIdleEntries(t *testing.T) {
	api := &fakeAPI{}
	reg := NewRegistry(api, time.Nanosecond)

	a := reg.For("sid-1", "partner-1")
	time.Sleep(2 * time.Millisecond)
	if b := reg.For("sid-1", "partner-1"); a == b {
		t.Fatal("idle entry should have been swept")
	}
}
