package api

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-menu/pkg/simplemenu"
)

// Handler serves the menu pages, the admin JSON API and locally stored images.
type Handler struct {
	svc       simplemenu.Service
	auth      *Auth
	pages     map[string]*template.Template
	logger    *slog.Logger
	maxBody   int64
	mediaPath string
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger used for request and error logs.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxRequestBytes caps the size of request bodies.
func WithMaxRequestBytes(limit int64) HandlerOption {
	return func(h *Handler) {
		h.maxBody = limit
	}
}

// WithMediaPath sets where images of local backends are served from. An
// empty path disables the media route.
func WithMediaPath(path string) HandlerOption {
	return func(h *Handler) {
		h.mediaPath = path
	}
}

// NewHandler creates a new menu handler
func NewHandler(svc simplemenu.Service, auth *Auth, opts ...HandlerOption) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("service is required")
	}
	if auth == nil {
		return nil, errors.New("auth is required")
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	h := &Handler{
		svc:       svc,
		auth:      auth,
		pages:     pages,
		logger:    slog.Default(),
		maxBody:   64 << 20,
		mediaPath: "/media",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Register adds every menu route to r. Middleware is applied through a group
// so r may already have routes of its own.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequestIDMiddleware)
		r.Use(LoggingMiddleware(h.logger))
		r.Use(RecoveryMiddleware(h.logger))
		r.Use(RequestSizeLimitMiddleware(h.maxBody))
		r.Use(h.auth.Verifier())

		h.pageRoutes(r)
		r.Mount("/api/menus", h.APIRoutes())

		if h.mediaPath != "" {
			r.Get(h.mediaPath+"/*", h.ServeMedia)
		}
	})
}

// Routes returns a router serving every menu route.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// Response is the envelope returned by every mutating API route.
type Response struct {
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	Zones     []ZoneResponse `json:"zones,omitempty"`
	Data      interface{}    `json:"data,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// ZoneResponse is the per-zone part of a Response.
type ZoneResponse struct {
	Zone   string `json:"zone"`
	Key    string `json:"key"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func zoneResponses(results []simplemenu.ZoneResult) []ZoneResponse {
	zones := make([]ZoneResponse, 0, len(results))
	for _, res := range results {
		zr := ZoneResponse{Zone: string(res.Zone), Key: res.Key, Status: string(res.Status)}
		if res.Status == simplemenu.ZoneStatusFailed {
			zr.Error = publicMessage(res.Err)
		}
		zones = append(zones, zr)
	}
	return zones
}

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var upstreamErr *simplemenu.UpstreamError
	switch {
	case simplemenu.IsValidation(err):
		return http.StatusBadRequest
	case simplemenu.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage returns the part of err that is safe to show to users.
func publicMessage(err error) string {
	var upstreamErr *simplemenu.UpstreamError
	switch {
	case err == nil:
		return ""
	case simplemenu.IsValidation(err), simplemenu.IsNotFound(err):
		return err.Error()
	case errors.As(err, &upstreamErr):
		return fmt.Sprintf("storage %s failed", upstreamErr.Op)
	default:
		return "internal error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "request_id", RequestIDFromContext(r.Context()), "path", r.URL.Path, "err", err)
	}
	render.Status(r, status)
	render.JSON(w, r, Response{
		Status:    string(simplemenu.StatusError),
		Message:   publicMessage(err),
		RequestID: RequestIDFromContext(r.Context()),
	})
}

func (h *Handler) writeOutcome(w http.ResponseWriter, r *http.Request, o *simplemenu.Outcome) {
	status := http.StatusOK
	switch o.Status() {
	case simplemenu.StatusPartial:
		status = http.StatusMultiStatus
	case simplemenu.StatusError:
		status = http.StatusBadGateway
	}
	render.Status(r, status)
	render.JSON(w, r, Response{
		Status:  string(o.Status()),
		Message: o.Message(),
		Zones:   zoneResponses(o.Results),
	})
}

func writeSuccess(w http.ResponseWriter, r *http.Request, message string, data interface{}) {
	render.JSON(w, r, Response{
		Status:  string(simplemenu.StatusSuccess),
		Message: message,
		Data:    data,
	})
}
