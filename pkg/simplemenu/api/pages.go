package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/simple-menu/pkg/simplemenu"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"index.html", "premium.html", "login.html", "admin.html"}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// pageData is passed to every page template.
type pageData struct {
	Title   string
	Role    Role
	Flash   *Flash
	Catalog *simplemenu.Catalog
	Zones   []simplemenu.Zone
}

func (h *Handler) pageRoutes(r chi.Router) {
	r.Get("/", h.IndexPage)
	r.Get("/login", h.LoginPage)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(RequireRole(pageDenied, RolePremium))
		r.Get("/premium", h.PremiumPage)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireRole(pageDenied, RoleAdmin))
		r.Get("/admin", h.AdminPage)
		r.Post("/admin/upload", h.AdminUpload)
	})
}

func pageDenied(w http.ResponseWriter, r *http.Request) {
	redirectWithFlash(w, r, "/login", "error", "Please log in to continue")
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, page string, data pageData) {
	data.Role = RoleFromContext(r.Context())
	data.Flash = popFlash(w, r)
	if data.Catalog == nil {
		data.Catalog = &simplemenu.Catalog{}
	}

	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("Failed to render page", "page", page, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// catalog loads the catalog for a page. Pages still render when the store is
// down, with an empty menu.
func (h *Handler) catalog(r *http.Request) *simplemenu.Catalog {
	catalog, err := h.svc.Catalog(r.Context())
	if err != nil {
		h.logger.Error("Failed to load menu catalog", "request_id", RequestIDFromContext(r.Context()), "err", err)
		return nil
	}
	return catalog
}

// IndexPage renders the public normal view
func (h *Handler) IndexPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "index.html", pageData{Title: "Menu", Catalog: h.catalog(r)})
}

// PremiumPage renders the premium view
func (h *Handler) PremiumPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "premium.html", pageData{Title: "Premium menu", Catalog: h.catalog(r)})
}

// LoginPage renders the password form
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "login.html", pageData{Title: "Login"})
}

// Login exchanges a password for a session cookie
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	role, ok := h.auth.Authenticate(r.FormValue("password"))
	if !ok {
		h.logger.Warn("Rejected login", "request_id", RequestIDFromContext(r.Context()), "remote", r.RemoteAddr)
		redirectWithFlash(w, r, "/login", "error", "Wrong password")
		return
	}
	if err := h.auth.SignIn(w, role); err != nil {
		h.logger.Error("Failed to sign in", "err", err)
		redirectWithFlash(w, r, "/login", "error", "Login failed, please try again")
		return
	}
	h.logger.Info("Logged in", "request_id", RequestIDFromContext(r.Context()), "role", role)

	if role == RoleAdmin {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/premium", http.StatusSeeOther)
}

// Logout clears the session cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.SignOut(w)
	redirectWithFlash(w, r, "/", "success", "Logged out")
}

// AdminPage renders the management dashboard
func (h *Handler) AdminPage(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, "admin.html", pageData{Title: "Admin", Catalog: h.catalog(r), Zones: simplemenu.Zones})
}

// AdminUpload handles the dashboard upload form
func (h *Handler) AdminUpload(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := parseUploadForm(r)
	if err != nil {
		redirectWithFlash(w, r, "/admin", "error", publicMessage(err))
		return
	}
	defer cleanup()

	results, err := h.svc.Upload(r.Context(), *req)
	if err != nil {
		h.logger.Warn("Upload failed", "request_id", RequestIDFromContext(r.Context()), "stored", len(results), "err", err)
		msg := publicMessage(err)
		if len(results) > 0 {
			msg = fmt.Sprintf("Uploaded %d of %d images: %s", len(results), len(req.Files), msg)
		}
		redirectWithFlash(w, r, "/admin", "error", msg)
		return
	}
	redirectWithFlash(w, r, "/admin", "success", fmt.Sprintf("Uploaded %d images to %s", len(results), req.Zone))
}
