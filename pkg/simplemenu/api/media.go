package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// ServeMedia streams an image of a local backend. The key is the path below
// the media prefix, so /media/menu/clean/coffee serves menu/clean/coffee.
func (h *Handler) ServeMedia(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	rc, meta, err := h.svc.OpenImage(r.Context(), key)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Failed to serve image", "key", key, "err", err)
		}
		http.Error(w, http.StatusText(status), status)
		return
	}
	defer rc.Close()

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if meta.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(meta.Size, 10))
	}
	w.Header().Set("Cache-Control", "public, max-age=60")

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("Failed to stream image", "key", key, "err", err)
	}
}
