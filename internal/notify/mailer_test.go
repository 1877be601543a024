package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luvima/image-editor/internal/logging"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
	hang bool
}

func (f *fakeSender) Send(ctx context.Context, to, subject, body string) error {
	if f.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to+"|"+subject+"|"+body)
	return f.err
}

func newBufLogger() (logging.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logging.NewSlogLogger(l), &buf
}

func TestNotifier_SendsWelcome(t *testing.T) {
	sender := &fakeSender{}
	logger, _ := newBufLogger()
	n := NewNotifier(sender, "http://localhost/login", time.Second, logger)

	n.Registered("alice", "alice@example.com")
	n.Wait()

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "alice@example.com|Registration Successful|Hello alice,")
	assert.Contains(t, sender.sent[0], "http://localhost/login")
}

func TestNotifier_FailureIsOnlyLogged(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	logger, buf := newBufLogger()
	n := NewNotifier(sender, "http://localhost/login", time.Second, logger)

	n.Registered("alice", "alice@example.com")
	n.Wait()

	assert.Contains(t, buf.String(), "welcome email failed")
	assert.Contains(t, buf.String(), "smtp down")
}

func TestNotifier_DoesNotBlockCaller(t *testing.T) {
	sender := &fakeSender{hang: true}
	logger, buf := newBufLogger()
	n := NewNotifier(sender, "", 50*time.Millisecond, logger)

	start := time.Now()
	n.Registered("alice", "alice@example.com")
	assert.Less(t, time.Since(start), 40*time.Millisecond)

	n.Wait()
	assert.Contains(t, buf.String(), "deadline exceeded")
}

func TestNotifier_Disabled(t *testing.T) {
	logger, buf := newBufLogger()
	n := NewNotifier(nil, "", time.Second, logger)

	n.Registered("alice", "alice@example.com")
	n.Wait()

	assert.Contains(t, buf.String(), "mail disabled")
}
