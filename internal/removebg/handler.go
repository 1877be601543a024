package removebg

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"regexp"

	"github.com/luvima/image-editor/internal/logging"
)

const defaultBgColor = "#ffffff"

//go:embed templates/relay.html
var templateFS embed.FS

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Remover is satisfied by *Client.
type Remover interface {
	Remove(ctx context.Context, filename string, data []byte) ([]byte, error)
}

// Handler serves the single-page relay: upload an image, get it back with
// the background removed, composited client-side onto the chosen colour.
type Handler struct {
	remover   Remover
	tmpl      *template.Template
	logger    logging.Logger
	maxUpload int64
}

type page struct {
	ResultImage template.URL
	BgColor     string
}

func NewHandler(remover Remover, maxUpload int64, logger logging.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/relay.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		remover:   remover,
		tmpl:      tmpl,
		logger:    logger.With("component", "relay"),
		maxUpload: maxUpload,
	}, nil
}

// Form renders the empty upload form.
func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, page{BgColor: defaultBgColor})
}

// Submit relays the uploaded image and renders the result.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	result, err := h.remover.Remove(ctx, header.Filename, data)
	if err != nil {
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			h.logger.Warn(ctx, "upstream rejected image", "status", upstream.StatusCode)
			WriteUpstream(w, upstream)
			return
		}
		h.logger.Error(ctx, "relay failed", "error", err)
		http.Error(w, "background removal failed", http.StatusBadGateway)
		return
	}

	uri, err := DataURI(result)
	if err != nil {
		h.logger.Error(ctx, "re-encode result", "error", err)
		http.Error(w, "background removal failed", http.StatusBadGateway)
		return
	}
	h.render(w, page{ResultImage: template.URL(uri), BgColor: BgColor(r.PostFormValue("bgcolor"))})
}

// WriteUpstream passes an upstream failure through unchanged.
func WriteUpstream(w http.ResponseWriter, e *UpstreamError) {
	if e.ContentType != "" {
		w.Header().Set("Content-Type", e.ContentType)
	}
	w.WriteHeader(e.StatusCode)
	w.Write(e.Body)
}

// BgColor returns c if it is a #rrggbb colour, else white.
func BgColor(c string) string {
	if hexColor.MatchString(c) {
		return c
	}
	return defaultBgColor
}

func (h *Handler) render(w http.ResponseWriter, p page) {
	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, p); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
