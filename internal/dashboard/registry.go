package dashboard

import (
	"sync"
	"time"
)

// API joins the two view-facing slices of the remote client.
type API interface {
	DonationAPI
	RequestAPI
}

// Views bundles the per-session list views.
type Views struct {
	Donations *DonationList
	Requests  *RequestList
}

type registryEntry struct {
	views    *Views
	lastSeen time.Time
}

// Registry hands out the per-session view state, keyed by session id.
// Entries idle past the ttl are swept on access, mirroring the session's own
// expiry in Redis.
type Registry struct {
	api API
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]*registryEntry
}

func NewRegistry(api API, ttl time.Duration) *Registry {
	return &Registry{api: api, ttl: ttl, entries: make(map[string]*registryEntry)}
}

// For returns the session's views, creating them on first use.
func (r *Registry) For(sid, partnerID string) *Views {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, e := range r.entries {
		if now.Sub(e.lastSeen) > r.ttl {
			delete(r.entries, key)
		}
	}

	e, ok := r.entries[sid]
	if !ok {
		e = &registryEntry{views: &Views{
			Donations: NewDonationList(r.api, sid, partnerID),
			Requests:  NewRequestList(r.api, sid, partnerID),
		}}
		r.entries[sid] = e
	}
	e.lastSeen = now
	return e.views
}

// Drop discards a session's views, called on logout.
func (r *Registry) Drop(sid string) {
	r.mu.Lock()
	delete(r.entries, sid)
	r.mu.Unlock()
}
