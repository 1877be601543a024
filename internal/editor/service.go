package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/luvima/image-editor/internal/logging"
	"github.com/luvima/image-editor/internal/models"
)

const (
	historyLimit = 100

	// DefaultMaxPixels is the default limit on decoded width×height.
	DefaultMaxPixels = 40_000_000
)

// ErrRemoverDisabled is returned by RemoveBackground when no background
// removal API is configured.
var ErrRemoverDisabled = errors.New("background removal is not configured")

// ErrImageTooLarge is returned for images whose width×height exceeds the
// configured pixel limit.
var ErrImageTooLarge = errors.New("image dimensions exceed the limit")

// BlobStore defines the interface for image storage.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
}

// HistoryStore defines the interface for edit history persistence.
type HistoryStore interface {
	Record(ctx context.Context, edit *models.Edit) error
	ListByUser(ctx context.Context, username string, limit int64) ([]models.Edit, error)
}

// BackgroundRemover returns a transparent-background version of an image.
type BackgroundRemover interface {
	Remove(ctx context.Context, filename string, data []byte) ([]byte, error)
}

// Service stages uploads and runs edits against staged files. Files are not
// owned by users: any caller may edit any staged name it knows.
type Service struct {
	blobs   BlobStore
	history HistoryStore
	remover   BackgroundRemover
	logger    logging.Logger
	maxPixels int
}

// NewService wires a Service. history and remover may be nil.
func NewService(blobs BlobStore, history HistoryStore, remover BackgroundRemover, logger logging.Logger) *Service {
	return &Service{
		blobs:     blobs,
		history:   history,
		remover:   remover,
		logger:    logger.With("component", "editor"),
		maxPixels: DefaultMaxPixels,
	}
}

// WithMaxPixels sets the decoded pixel limit. n <= 0 keeps the current one.
func (s *Service) WithMaxPixels(n int) *Service {
	if n > 0 {
		s.maxPixels = n
	}
	return s
}

// Stage stores an uploaded image under a generated name that keeps the
// original extension, and returns that name.
func (s *Service) Stage(ctx context.Context, original string, data []byte) (string, error) {
	if !AllowedFile(original) {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, original)
	}
	if err := s.checkDimensions(data); err != nil {
		return "", err
	}

	name := uuid.NewString() + strings.ToLower(path.Ext(original))
	if err := s.blobs.Upload(ctx, Key(FolderUploads, name), data, contentType(name)); err != nil {
		return "", fmt.Errorf("stage %s: %w", name, err)
	}
	s.logger.Info(ctx, "file staged", "filename", name, "original", original, "bytes", len(data))
	return name, nil
}

// Adjust applies adj to the staged file and returns the edited file name.
func (s *Service) Adjust(ctx context.Context, username, filename string, adj Adjustments) (string, error) {
	img, err := s.load(ctx, filename)
	if err != nil {
		return "", err
	}
	out := DerivedName(PrefixEdited, filename, adj.Canonical())
	if err := s.save(ctx, adj.Apply(img), out); err != nil {
		return "", err
	}
	s.record(ctx, username, models.OpAdjust, filename, out, adj.Params())
	return out, nil
}

// Crop cuts rect out of the staged file and returns the cropped file name.
func (s *Service) Crop(ctx context.Context, username, filename string, rect CropRect) (string, error) {
	img, err := s.load(ctx, filename)
	if err != nil {
		return "", err
	}
	cropped, err := Crop(img, rect)
	if err != nil {
		return "", err
	}
	out := DerivedName(PrefixCropped, filename, fmt.Sprintf("%d,%d,%d,%d", rect.X, rect.Y, rect.Width, rect.Height))
	if err := s.save(ctx, cropped, out); err != nil {
		return "", err
	}
	s.record(ctx, username, models.OpCrop, filename, out, rect.Params())
	return out, nil
}

// RemoveBackground relays the staged file to the removal API and stores the
// transparent result as PNG.
func (s *Service) RemoveBackground(ctx context.Context, username, filename string) (string, error) {
	if s.remover == nil {
		return "", ErrRemoverDisabled
	}
	if err := ValidateFilename(filename); err != nil {
		return "", err
	}
	data, _, err := s.blobs.Download(ctx, Key(FolderUploads, filename))
	if err != nil {
		return "", fmt.Errorf("load %s: %w", filename, err)
	}
	result, err := s.remover.Remove(ctx, filename, data)
	if err != nil {
		return "", err
	}
	img, err := s.decode(result)
	if err != nil {
		return "", err
	}
	out := DerivedName(PrefixNoBG, WithExt(filename, ".png"), "")
	if err := s.save(ctx, img, out); err != nil {
		return "", err
	}
	s.record(ctx, username, models.OpRemoveBG, filename, out, nil)
	return out, nil
}

// History lists the caller's most recent edits, newest first.
func (s *Service) History(ctx context.Context, username string) ([]models.Edit, error) {
	if s.history == nil {
		return []models.Edit{}, nil
	}
	edits, err := s.history.ListByUser(ctx, username, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	if edits == nil {
		edits = []models.Edit{}
	}
	return edits, nil
}

func (s *Service) load(ctx context.Context, filename string) (image.Image, error) {
	if err := ValidateFilename(filename); err != nil {
		return nil, err
	}
	data, _, err := s.blobs.Download(ctx, Key(FolderUploads, filename))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filename, err)
	}
	return s.decode(data)
}

// decode reads the header first so oversized images are refused before
// their pixels are allocated.
func (s *Service) decode(data []byte) (image.Image, error) {
	if err := s.checkDimensions(data); err != nil {
		return nil, err
	}
	return decode(data)
}

func (s *Service) checkDimensions(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(s.maxPixels) {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

func (s *Service) save(ctx context.Context, img image.Image, name string) error {
	data, ct, err := encode(img, name)
	if err != nil {
		return err
	}
	if err := s.blobs.Upload(ctx, Key(FolderEdited, name), data, ct); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// record is best effort: a failed history write never fails the edit.
func (s *Service) record(ctx context.Context, username, op, source, output string, params map[string]any) {
	s.logger.Info(ctx, "image edited", "operation", op, "source", source, "output", output)
	if s.history == nil {
		return
	}
	edit := &models.Edit{Username: username, Operation: op, Source: source, Output: output, Params: params}
	if err := s.history.Record(ctx, edit); err != nil {
		s.logger.Warn(ctx, "record history", "error", err)
	}
}
