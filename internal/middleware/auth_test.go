package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luvima/image-editor/internal/auth"
)

type fakeVerifier map[string]string

func (f fakeVerifier) Verify(_ context.Context, token string) (string, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return "", errors.New("bad token")
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	u, _ := Username(r.Context())
	w.Write([]byte(u))
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(fakeVerifier{"good": "alice"})(http.HandlerFunc(echoUser))

	tests := []struct {
		name   string
		cookie string
		code   int
		body   string
	}{
		{"no cookie", "", http.StatusUnauthorized, `{"error":"not authenticated"}`},
		{"bad token", "bad", http.StatusUnauthorized, `{"error":"not authenticated"}`},
		{"valid", "good", http.StatusOK, "alice"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/apply_filter", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: tc.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, tc.body, rec.Body.String())
		})
	}
}

func TestRequirePage_Redirects(t *testing.T) {
	h := RequirePage(fakeVerifier{})(http.HandlerFunc(echoUser))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/main", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestUsername_Missing(t *testing.T) {
	_, ok := Username(context.Background())
	assert.False(t, ok)
}
