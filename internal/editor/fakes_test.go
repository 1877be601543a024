package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luvima/image-editor/internal/models"
	"github.com/luvima/image-editor/internal/store"
)

type memBlobs struct {
	mu    sync.Mutex
	data  map[string][]byte
	types map[string]string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: map[string][]byte{}, types: map[string]string{}}
}

func (m *memBlobs) Upload(_ context.Context, key string, data []byte, ct string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	m.types[key] = ct
	return nil
}

func (m *memBlobs) Download(_ context.Context, key string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	if !ok {
		return nil, "", store.ErrNotFound
	}
	return d, m.types[key], nil
}

type memHistory struct {
	mu    sync.Mutex
	edits []models.Edit
	err   error
}

func (m *memHistory) Record(_ context.Context, e *models.Edit) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, *e)
	return nil
}

func (m *memHistory) ListByUser(_ context.Context, username string, _ int64) ([]models.Edit, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Edit
	for i := len(m.edits) - 1; i >= 0; i-- {
		if m.edits[i].Username == username {
			out = append(out, m.edits[i])
		}
	}
	return out, nil
}

type stubRemover struct {
	out []byte
	err error
}

func (s stubRemover) Remove(context.Context, string, []byte) ([]byte, error) {
	return s.out, s.err
}

var errHistoryDown = errors.New("mongo down")

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeImage(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}
