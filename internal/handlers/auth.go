package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/darahtanyoe/mitra-dashboard/internal/middleware"
	"github.com/darahtanyoe/mitra-dashboard/internal/session"
	"github.com/darahtanyoe/mitra-dashboard/internal/upstream"
)

type loginPageData struct {
	ErrorMessage string
	Email        string
}

// LoginPage renders the credential form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, loginPageData{})
}

// Login exchanges the submitted credentials with the remote API and, on
// success, opens a server-side session and drops the cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, loginPageData{ErrorMessage: "Permintaan tidak valid"})
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		h.renderLogin(w, loginPageData{ErrorMessage: "Email dan password wajib diisi", Email: email})
		return
	}

	user, sess, err := h.client.Login(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, upstream.ErrLoginFailed) {
			h.renderLogin(w, loginPageData{ErrorMessage: "Email atau password salah", Email: email})
			return
		}
		log.Printf("[auth] login exchange failed: %v", err)
		h.renderLogin(w, loginPageData{ErrorMessage: "Gagal terhubung ke server, coba lagi", Email: email})
		return
	}

	sid, err := session.NewSessionID()
	if err != nil {
		log.Printf("[auth] session id: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := h.store.Save(r.Context(), sid, user, sess); err != nil {
		log.Printf("[auth] session save: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.sessionCookie(sid, int(h.sessionTTL.Seconds())))
	log.Printf("[auth] partner %s signed in", user.ID)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout tears the session down on both sides and bounces to the login view.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sid := middleware.SessionID(r.Context())
	if err := h.store.Clear(r.Context(), sid); err != nil {
		log.Printf("[auth] session clear: %v", err)
	}
	h.views.Drop(sid)
	http.SetCookie(w, h.sessionCookie("", -1))
	http.Redirect(w, r, "/login", http.StatusFound)
}

// expireSession handles an upstream-declared dead session mid-request: the
// Redis side is already purged, so drop the view state and the cookie too.
func (h *Handler) expireSession(w http.ResponseWriter, r *http.Request, sid string) {
	h.views.Drop(sid)
	http.SetCookie(w, h.sessionCookie("", -1))
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *Handler) sessionCookie(sid string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    sid,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) renderLogin(w http.ResponseWriter, data loginPageData) {
	if err := h.loginTmpl.Execute(w, data); err != nil {
		log.Printf("[handlers] render login: %v", err)
	}
}
