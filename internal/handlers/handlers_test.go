package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/darahtanyoe/mitra-dashboard/internal/dashboard"
	"github.com/darahtanyoe/mitra-dashboard/internal/middleware"
	"github.com/darahtanyoe/mitra-dashboard/internal/session"
	"github.com/darahtanyoe/mitra-dashboard/internal/upstream"
)

type memKV struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memKV) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// fakeUpstream mimics the remote API surface the dashboard consumes. A
// successful code verification is reflected in subsequent fetches, as the
// real API does.
func fakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	var (
		mu       sync.Mutex
		verified bool
	)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users/masuk-web", func(w http.ResponseWriter, r *http.Request) {
		var creds struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "rahasia" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ERROR", "message": "email atau password salah"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "SUCCESS",
			"user":    map[string]string{"id": "partner-1", "email": creds.Email, "full_name": "PMI Banda Aceh", "user_type": "partner"},
			"session": map[string]string{"access_token": "access-1", "refresh_token": "refresh-1"},
		})
	})
	mux.HandleFunc("GET /donor/partner/partner-1", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		v := verified
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "SUCCESS", "data": []map[string]any{
			{
				"id": "d1", "status": "on_progress", "unique_code_verified": v,
				"full_name": "Budi Santoso", "phone_number": "0812",
				"created_at":     "2024-03-20T10:00:00Z",
				"blood_requests": map[string]any{"id": "r9", "blood_type": "A+", "status": "confirmed"},
			},
		}})
	})
	mux.HandleFunc("POST /donor/verifyUniqueCode/d1", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UniqueCode string `json:"unique_code"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.UniqueCode != "KODE123" {
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ERROR"})
			return
		}
		mu.Lock()
		verified = true
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "SUCCESS"})
	})
	mux.HandleFunc("GET /bloodReq/partner/partner-1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "SUCCESS", "data": []map[string]any{}})
	})
	return httptest.NewServer(mux)
}

func newTestApp(t *testing.T) (*chi.Mux, *session.Store) {
	t.Helper()
	api := fakeUpstream(t)
	t.Cleanup(api.Close)

	store := session.NewStore(&memKV{data: make(map[string]string)}, time.Hour)
	client := upstream.NewClient(api.URL, store)
	views := dashboard.NewRegistry(client, time.Hour)
	h := New(store, client, views, Options{SessionTTL: time.Hour})

	// Mirrors the route wiring in internal/routes, inlined because importing
	// it here would cycle.
	r := chi.NewRouter()
	r.Handle("/assets/*", h.Assets())
	r.Group(func(r chi.Router) {
		r.Use(middleware.RedirectAuthenticated(store))
		r.Get("/login", h.LoginPage)
		r.Post("/login", h.Login)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(store))
		r.Get("/", h.Home)
		r.Post("/logout", h.Logout)
		r.Get("/pendonoran", h.DonationsPage)
		r.Post("/api/donations/{id}/verify", h.VerifyDonation)
		r.Post("/api/donations/{id}/complete", h.CompleteDonation)
	})
	return r, store
}

func doLogin(t *testing.T, r *chi.Mux) *http.Cookie {
	t.Helper()
	form := strings.NewReader("email=pmi%40example.com&password=rahasia")
	req := httptest.NewRequest(http.MethodPost, "/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("login response = %d %s, want 302 to /", rec.Code, rec.Header().Get("Location"))
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.SessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestLoginSetsSessionAndRedirects(t *testing.T) {
	r, store := newTestApp(t)
	cookie := doLogin(t, r)

	if !store.IsAuthenticated(context.Background(), cookie.Value) {
		t.Fatal("session should be live after login")
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}
}

func TestLoginRejectionRendersForm(t *testing.T) {
	r, _ := newTestApp(t)
	form := strings.NewReader("email=pmi%40example.com&password=salah")
	req := httptest.NewRequest(http.MethodPost, "/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want re-rendered form", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Email atau password salah") {
		t.Fatal("expected the rejection message in the form")
	}
}

func TestProtectedPageRedirectsAnonymous(t *testing.T) {
	r, _ := newTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/pendonoran", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("response = %d %s, want 302 to /login", rec.Code, rec.Header().Get("Location"))
	}
}

func TestAPIDeniesAnonymousWithJSON(t *testing.T) {
	r, _ := newTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/api/donations/d1/complete", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not_authenticated") {
		t.Fatalf("body = %s, want not_authenticated", rec.Body.String())
	}
}

func TestAuthenticatedLoginViewBouncesHome(t *testing.T) {
	r, _ := newTestApp(t)
	cookie := doLogin(t, r)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("response = %d %s, want 302 to /", rec.Code, rec.Header().Get("Location"))
	}
}

func TestDonationsPageRendersRows(t *testing.T) {
	r, _ := newTestApp(t)
	cookie := doLogin(t, r)

	req := httptest.NewRequest(http.MethodGet, "/pendonoran", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Budi Santoso") || !strings.Contains(body, "Dalam Proses") {
		t.Fatal("expected the donation row with its display status")
	}
	// Unverified in-progress row offers verification, not completion.
	if !strings.Contains(body, `data-action="verify"`) {
		t.Fatal("expected the verify button")
	}
	if strings.Contains(body, `data-action="complete"`) {
		t.Fatal("completion must stay gated before verification")
	}
	if !strings.Contains(body, "Halo, PMI Banda Aceh") {
		t.Fatal("expected the header greeting")
	}
}

func TestVerifyEndpointValidatesCode(t *testing.T) {
	r, _ := newTestApp(t)
	cookie := doLogin(t, r)

	// Load the list so the row is cached.
	pageReq := httptest.NewRequest(http.MethodGet, "/pendonoran", nil)
	pageReq.AddCookie(cookie)
	r.ServeHTTP(httptest.NewRecorder(), pageReq)

	// Empty code is rejected before any upstream call.
	req := httptest.NewRequest(http.MethodPost, "/api/donations/d1/verify", strings.NewReader(`{"unique_code":"  "}`))
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty code status = %d, want 422", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/donations/d1/verify", strings.NewReader(`{"unique_code":"KODE123"}`))
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s, want 200", rec.Code, rec.Body.String())
	}

	// The verified row now renders the completion button.
	pageReq = httptest.NewRequest(http.MethodGet, "/pendonoran", nil)
	pageReq.AddCookie(cookie)
	pageRec := httptest.NewRecorder()
	r.ServeHTTP(pageRec, pageReq)
	if !strings.Contains(pageRec.Body.String(), `data-action="complete"`) {
		t.Fatal("expected the completion button after verification")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	r, store := newTestApp(t)
	cookie := doLogin(t, r)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("logout response = %d %s, want 302 to /login", rec.Code, rec.Header().Get("Location"))
	}
	if store.IsAuthenticated(context.Background(), cookie.Value) {
		t.Fatal("session should be gone after logout")
	}
}
