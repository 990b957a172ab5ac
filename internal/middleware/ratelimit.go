package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/darahtanyoe/mitra-dashboard/pkg/clientip"
)

// Login attempt limit: per-IP, 10/min with a burst of 5. Generous enough for
// a shared hospital network, tight enough to blunt credential stuffing.
const (
	loginRPS        = 0.17
	loginBurst      = 5
	loginCleanupMin = 5 * time.Minute
	loginLimiterTTL = 30 * time.Minute
)

type loginLimiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

var (
	loginEntries   = make(map[string]*loginLimiterEntry)
	loginEntriesMu sync.Mutex
	loginCleanup   bool
)

func getLoginLimiter(ip string) *rate.Limiter {
	loginEntriesMu.Lock()
	defer loginEntriesMu.Unlock()
	startLoginCleanupOnce()

	e, ok := loginEntries[ip]
	if !ok {
		e = &loginLimiterEntry{
			limiter: rate.NewLimiter(rate.Limit(loginRPS), loginBurst),
			lastUse: time.Now(),
		}
		loginEntries[ip] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func startLoginCleanupOnce() {
	if loginCleanup {
		return
	}
	loginCleanup = true
	go func() {
		ticker := time.NewTicker(loginCleanupMin)
		defer ticker.Stop()
		for range ticker.C {
			loginEntriesMu.Lock()
			now := time.Now()
			for k, e := range loginEntries {
				if now.Sub(e.lastUse) > loginLimiterTTL {
					delete(loginEntries, k)
				}
			}
			loginEntriesMu.Unlock()
		}
	}()
}

// LoginRateLimit throttles credential submissions per client IP.
func LoginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ip := clientip.RealClientIP(r)
			if !getLoginLimiter(ip).Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"too_many_attempts"}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
