package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/luvima/image-editor/internal/logging"
	"github.com/luvima/image-editor/internal/middleware"
	"github.com/luvima/image-editor/internal/models"
	"github.com/luvima/image-editor/internal/removebg"
	"github.com/luvima/image-editor/internal/store"
	"github.com/luvima/image-editor/internal/web"
)

const removeBGStubMessage = "Background removal requires AI integration."

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Renderer renders HTML pages.
type Renderer interface {
	Render(w http.ResponseWriter, status int, page string, data any)
}

// Handler holds editor HTTP handlers.
type Handler struct {
	svc       *Service
	blobs     BlobStore
	pages     Renderer
	logger    logging.Logger
	maxUpload int64
}

func NewHandler(svc *Service, blobs BlobStore, pages Renderer, maxUpload int64, logger logging.Logger) *Handler {
	return &Handler{svc: svc, blobs: blobs, pages: pages, logger: logger.With("component", "editor-http"), maxUpload: maxUpload}
}

// Home renders the landing page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.pages.Render(w, http.StatusOK, web.PageIndex, nil)
}

// Main renders the editing page for the signed-in user.
func (h *Handler) Main(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	h.pages.Render(w, http.StatusOK, web.PageMain, map[string]string{"Username": username})
}

// Upload stages the multipart "image" file.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	name, err := h.svc.Stage(r.Context(), header.Filename, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.UploadResponse{Filename: name, URL: URL(FolderUploads, name)})
}

// ApplyFilter runs the adjustment pipeline on a staged file.
func (h *Handler) ApplyFilter(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	adj, err := parseAdjustments(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	username, _ := middleware.Username(r.Context())
	out, err := h.svc.Adjust(r.Context(), username, r.PostForm.Get("filename"), adj)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.URLResponse{URL: URL(FolderEdited, out)})
}

// Crop extracts a rectangle from a staged file.
func (h *Handler) Crop(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	var rect CropRect
	for _, f := range []struct {
		name string
		dst  *int
	}{{"x", &rect.X}, {"y", &rect.Y}, {"width", &rect.Width}, {"height", &rect.Height}} {
		v, err := strconv.Atoi(r.PostForm.Get(f.name))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", f.name))
			return
		}
		*f.dst = v
	}

	username, _ := middleware.Username(r.Context())
	out, err := h.svc.Crop(r.Context(), username, r.PostForm.Get("filename"), rect)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.URLResponse{URL: URL(FolderEdited, out)})
}

// RemoveBG removes the background of a staged file when an API key is
// configured, and otherwise answers with the static stub message.
func (h *Handler) RemoveBG(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	username, _ := middleware.Username(r.Context())
	out, err := h.svc.RemoveBackground(r.Context(), username, r.PostForm.Get("filename"))
	if err != nil {
		if errors.Is(err, ErrRemoverDisabled) {
			writeJSON(w, http.StatusOK, map[string]string{"message": removeBGStubMessage})
			return
		}
		var upstream *removebg.UpstreamError
		if errors.As(err, &upstream) {
			removebg.WriteUpstream(w, upstream)
			return
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.URLResponse{URL: URL(FolderEdited, out)})
}

// History lists the caller's recent edits.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	username, _ := middleware.Username(r.Context())
	edits, err := h.svc.History(r.Context(), username)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, edits)
}

// Static streams a staged or edited file from the blob store.
func (h *Handler) Static(w http.ResponseWriter, r *http.Request) {
	folder, name := chi.URLParam(r, "folder"), chi.URLParam(r, "name")
	if (folder != FolderUploads && folder != FolderEdited) || ValidateFilename(name) != nil {
		http.NotFound(w, r)
		return
	}
	data, ct, err := h.blobs.Download(r.Context(), Key(folder, name))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error(r.Context(), "serve static", "key", Key(folder, name), "error", err)
		http.Error(w, "download failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Write(data)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "file not found")
	case errors.Is(err, ErrInvalidFilename):
		writeError(w, http.StatusBadRequest, "invalid filename")
	case errors.Is(err, ErrUnsupportedType):
		writeError(w, http.StatusBadRequest, "unsupported image type")
	case errors.Is(err, ErrDecode):
		writeError(w, http.StatusUnprocessableEntity, "file is not a readable image")
	case errors.Is(err, ErrImageTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "image is too large")
	case errors.Is(err, ErrEmptyCrop):
		writeError(w, http.StatusBadRequest, "crop rectangle is outside the image")
	default:
		h.logger.Error(r.Context(), "edit failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseForm accepts both urlencoded and multipart bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(32 << 20)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

// parseAdjustments reads the optional pipeline fields; a missing field takes
// its identity value and the flip flags are on only for the literal "true".
func parseAdjustments(r *http.Request) (Adjustments, error) {
	adj := Identity()
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"brightness", &adj.Brightness},
		{"contrast", &adj.Contrast},
		{"saturation", &adj.Saturation},
		{"blur", &adj.Blur},
		{"rotation", &adj.Rotation},
	} {
		raw := r.PostForm.Get(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return Adjustments{}, fmt.Errorf("invalid %s", f.name)
		}
		*f.dst = v
	}
	adj.FlipHorizontal = r.PostForm.Get("flip_horizontal") == "true"
	adj.FlipVertical = r.PostForm.Get("flip_vertical") == "true"
	return adj, nil
}
