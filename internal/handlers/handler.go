package handlers

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/darahtanyoe/mitra-dashboard/internal/dashboard"
	"github.com/darahtanyoe/mitra-dashboard/internal/session"
	"github.com/darahtanyoe/mitra-dashboard/internal/upstream"
	"github.com/darahtanyoe/mitra-dashboard/internal/workflow"
)

//go:embed templates/login.html templates/dashboard.html templates/pendonoran.html templates/permintaan.html assets/app.css assets/app.js
var staticFS embed.FS

// BloodTypes lists the eight selectable groups, in the order the filter
// dropdowns render them.
var BloodTypes = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// Handler serves the dashboard views and their JSON action endpoints.
type Handler struct {
	store  *session.Store
	client *upstream.Client
	views  *dashboard.Registry

	sessionTTL    time.Duration
	secureCookies bool

	loginTmpl      *template.Template
	dashboardTmpl  *template.Template
	pendonoranTmpl *template.Template
	permintaanTmpl *template.Template
}

type Options struct {
	SessionTTL    time.Duration
	SecureCookies bool
}

func New(store *session.Store, client *upstream.Client, views *dashboard.Registry, opts Options) *Handler {
	funcs := template.FuncMap{
		"hasAction": func(actions []workflow.Action, name string) bool {
			for _, a := range actions {
				if string(a) == name {
					return true
				}
			}
			return false
		},
	}
	parse := func(name string) *template.Template {
		return template.Must(template.New(name).Funcs(funcs).ParseFS(staticFS, "templates/"+name))
	}
	return &Handler{
		store:          store,
		client:         client,
		views:          views,
		sessionTTL:     opts.SessionTTL,
		secureCookies:  opts.SecureCookies,
		loginTmpl:      parse("login.html"),
		dashboardTmpl:  parse("dashboard.html"),
		pendonoranTmpl: parse("pendonoran.html"),
		permintaanTmpl: parse("permintaan.html"),
	}
}

// Assets serves the embedded stylesheet and page script.
func (h *Handler) Assets() http.Handler {
	sub, err := fs.Sub(staticFS, "assets")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/assets/", http.FileServer(http.FS(sub)))
}
