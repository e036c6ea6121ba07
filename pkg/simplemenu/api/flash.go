package api

import (
	"encoding/base64"
	"net/http"
	"strings"
)

const flashCookie = "flash"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string // "success" or "error"
	Message string
}

func setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    kind + ":" + base64.RawURLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash reads the pending flash and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})

	kind, encoded, ok := strings.Cut(c.Value, ":")
	if !ok {
		return nil
	}
	msg, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil
	}
	return &Flash{Kind: kind, Message: string(msg)}
}

// redirectWithFlash flashes message and redirects with 303 See Other.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, to, kind, message string) {
	setFlash(w, kind, message)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
