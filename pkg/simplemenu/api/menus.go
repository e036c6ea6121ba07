package api

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-menu/pkg/simplemenu"
)

// multipartMemory is the part of a multipart form kept in memory; the rest
// spills to temporary files.
const multipartMemory = 32 << 20

// APIRoutes returns the admin JSON API.
func (h *Handler) APIRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireRole(h.apiDenied, RoleAdmin))

	r.Get("/", h.GetCatalog)
	r.Get("/visibility", h.GetVisibility)
	r.Post("/upload", h.UploadImages)
	r.Post("/rename", h.RenameMenu)
	r.Post("/duplicate", h.DuplicateMenu)
	r.Post("/delete", h.DeleteMenu)
	r.Post("/replace", h.ReplaceImage)
	r.Post("/visibility", h.UpdateVisibility)

	return r
}

func (h *Handler) apiDenied(w http.ResponseWriter, r *http.Request) {
	status, message := http.StatusUnauthorized, "login required"
	if RoleFromContext(r.Context()) != "" {
		status, message = http.StatusForbidden, "admin role required"
	}
	render.Status(r, status)
	render.JSON(w, r, Response{Status: string(simplemenu.StatusError), Message: message})
}

// NameRequest is the request body for delete.
type NameRequest struct {
	Name string `json:"name"`
}

// RenameRequest is the request body for rename and duplicate.
type RenameRequest struct {
	Name    string `json:"name"`
	NewName string `json:"new_name"`
}

// VisibilityRequest is the request body for a visibility update. Omitted
// flags keep their current value.
type VisibilityRequest struct {
	Name                   string `json:"name"`
	ShowNormalWatermarked  *bool  `json:"show_normal_watermarked"`
	ShowNormalClean        *bool  `json:"show_normal_clean"`
	ShowPremiumWatermarked *bool  `json:"show_premium_watermarked"`
	ShowPremiumClean       *bool  `json:"show_premium_clean"`
}

func (req VisibilityRequest) apply(current simplemenu.Visibility) simplemenu.Visibility {
	if req.ShowNormalWatermarked != nil {
		current.ShowNormalWatermarked = *req.ShowNormalWatermarked
	}
	if req.ShowNormalClean != nil {
		current.ShowNormalClean = *req.ShowNormalClean
	}
	if req.ShowPremiumWatermarked != nil {
		current.ShowPremiumWatermarked = *req.ShowPremiumWatermarked
	}
	if req.ShowPremiumClean != nil {
		current.ShowPremiumClean = *req.ShowPremiumClean
	}
	return current
}

// VisibilityResponse is the data of a visibility lookup or update.
type VisibilityResponse struct {
	Name string `json:"name"`
	simplemenu.Visibility
}

// GetCatalog returns every menu item with its zone URLs and flags
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.svc.Catalog(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, r, fmt.Sprintf("%d menu items", len(catalog.Items)), catalog)
}

// GetVisibility returns the flags of the item named by the name query parameter
func (h *Handler) GetVisibility(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		h.writeError(w, r, &simplemenu.ValidationError{Field: "name", Reason: "is required"})
		return
	}
	writeSuccess(w, r, "ok", VisibilityResponse{Name: name, Visibility: h.svc.GetVisibility(name)})
}

// RenameMenu renames an item in every zone
func (h *Handler) RenameMenu(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !h.decode(w, r, &req) {
		return
	}
	outcome, err := h.svc.Rename(r.Context(), req.Name, req.NewName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeOutcome(w, r, outcome)
}

// DuplicateMenu copies an item to a new name in every zone it exists in
func (h *Handler) DuplicateMenu(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !h.decode(w, r, &req) {
		return
	}
	outcome, err := h.svc.Duplicate(r.Context(), req.Name, req.NewName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeOutcome(w, r, outcome)
}

// DeleteMenu removes an item from every zone
func (h *Handler) DeleteMenu(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !h.decode(w, r, &req) {
		return
	}
	outcome, err := h.svc.Delete(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeOutcome(w, r, outcome)
}

// ReplaceImage overwrites the image of an existing item in one zone. It
// expects a multipart form with zone, name and file fields.
func (h *Handler) ReplaceImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.writeError(w, r, &simplemenu.ValidationError{Field: "form", Reason: "invalid multipart form", Err: err})
		return
	}
	defer r.MultipartForm.RemoveAll()

	zone, err := simplemenu.ParseZone(r.FormValue("zone"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	fhs := r.MultipartForm.File["file"]
	if len(fhs) == 0 {
		h.writeError(w, r, &simplemenu.ValidationError{Field: "file", Reason: "is required"})
		return
	}

	f, err := fhs[0].Open()
	if err != nil {
		h.writeError(w, r, &simplemenu.ValidationError{Field: "file", Reason: "unreadable", Err: err})
		return
	}
	defer f.Close()

	result, err := h.svc.Replace(r.Context(), simplemenu.ReplaceRequest{
		Zone: zone,
		Name: r.FormValue("name"),
		File: simplemenu.UploadFile{Filename: fhs[0].Filename, Size: fhs[0].Size, Reader: f},
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, r, fmt.Sprintf("replaced %s", result.Key), result)
}

// UploadImages stores one or more images in a zone. It expects a multipart
// form with zone, an optional name and one or more files fields.
func (h *Handler) UploadImages(w http.ResponseWriter, r *http.Request) {
	req, cleanup, err := parseUploadForm(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer cleanup()

	results, err := h.svc.Upload(r.Context(), *req)
	if err != nil {
		if len(results) == 0 {
			h.writeError(w, r, err)
			return
		}
		h.logger.Warn("Upload stopped early", "request_id", RequestIDFromContext(r.Context()), "stored", len(results), "err", err)
		render.Status(r, http.StatusMultiStatus)
		render.JSON(w, r, Response{
			Status:  string(simplemenu.StatusPartial),
			Message: fmt.Sprintf("uploaded %d of %d images: %s", len(results), len(req.Files), publicMessage(err)),
			Data:    results,
		})
		return
	}
	writeSuccess(w, r, fmt.Sprintf("uploaded %d images", len(results)), results)
}

// UpdateVisibility stores the visibility flags of an item
func (h *Handler) UpdateVisibility(w http.ResponseWriter, r *http.Request) {
	var req VisibilityRequest
	if !h.decode(w, r, &req) {
		return
	}
	record := req.apply(h.svc.GetVisibility(req.Name))
	if err := h.svc.SetVisibility(r.Context(), req.Name, record); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeSuccess(w, r, fmt.Sprintf("visibility of %s updated", req.Name), VisibilityResponse{Name: req.Name, Visibility: record})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		h.writeError(w, r, &simplemenu.ValidationError{Field: "body", Reason: "invalid JSON", Err: err})
		return false
	}
	return true
}

// parseUploadForm reads an upload request from a multipart form. Files are
// taken from the files field, falling back to file.
func parseUploadForm(r *http.Request) (*simplemenu.UploadRequest, func(), error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, func() {}, &simplemenu.ValidationError{Field: "form", Reason: "invalid multipart form", Err: err}
	}
	form := r.MultipartForm
	zone, err := simplemenu.ParseZone(r.FormValue("zone"))
	if err != nil {
		form.RemoveAll()
		return nil, func() {}, err
	}

	fhs := form.File["files"]
	if len(fhs) == 0 {
		fhs = form.File["file"]
	}
	files, closeFiles, err := openUploads(fhs)
	if err != nil {
		form.RemoveAll()
		return nil, func() {}, err
	}

	cleanup := func() {
		closeFiles()
		form.RemoveAll()
	}
	return &simplemenu.UploadRequest{Zone: zone, CustomName: r.FormValue("name"), Files: files}, cleanup, nil
}

// openUploads opens every file header as an UploadFile. The returned closer
// closes all opened files.
func openUploads(fhs []*multipart.FileHeader) ([]simplemenu.UploadFile, func(), error) {
	files := make([]simplemenu.UploadFile, 0, len(fhs))
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	for _, fh := range fhs {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, &simplemenu.ValidationError{Field: "files", Reason: "unreadable " + fh.Filename, Err: err}
		}
		opened = append(opened, f)
		files = append(files, simplemenu.UploadFile{Filename: fh.Filename, Size: fh.Size, Reader: f})
	}
	return files, closeAll, nil
}
