package mail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/itas-team/itas/internal/domain"
	"github.com/itas-team/itas/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (c *captureSender) Send(_ context.Context, to, subject, _, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, to+": "+subject)
	return c.err
}

func (c *captureSender) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func TestDispatcherDelivers(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	d := NewDispatcher(sender, slogx.Discard())

	d.Dispatch(domain.Notification{
		Kind:     domain.NotifyPasswordReset,
		To:       "alice@example.com",
		UserName: "Alice",
		ResetURL: "https://app.example.com/reset?token=abc",
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	sent := sender.all()
	require.Len(t, sent, 1)
	require.Equal(t, "alice@example.com: Password reset", sent[0])
}

func TestDispatcherSurvivesSendFailure(t *testing.T) {
	t.Parallel()

	sender := &captureSender{err: errors.New("smtp down")}
	d := NewDispatcher(sender, slogx.Discard())

	d.Dispatch(domain.Notification{Kind: domain.NotifySupport, To: "x@example.com", Subject: "a"})
	d.Dispatch(domain.Notification{Kind: domain.NotifySupport, To: "y@example.com", Subject: "b"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	// Both were attempted despite failures.
	require.Len(t, sender.all(), 2)
}

func TestDispatcherDropsAfterShutdown(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	d := NewDispatcher(sender, slogx.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))

	d.Dispatch(domain.Notification{Kind: domain.NotifySupport, To: "late@example.com"})
	require.Empty(t, sender.all())
}

func TestDispatchDuringShutdownDoesNotPanic(t *testing.T) {
	t.Parallel()

	sender := &captureSender{}
	d := NewDispatcher(sender, slogx.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				d.Dispatch(domain.Notification{Kind: domain.NotifySupport, To: "x@example.com"})
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Shutdown(ctx))
	wg.Wait()
}

func TestRenderRoleRequest(t *testing.T) {
	t.Parallel()

	subject, text, html := render(domain.Notification{
		Kind:          domain.NotifyRoleRequest,
		To:            "reviewer@example.com",
		UserName:      "Bob",
		UserEmail:     "bob@example.com",
		RequestedRole: domain.RoleDeveloper,
		ApproveURL:    "https://api/role-action?token=a",
		DenyURL:       "https://api/role-action?token=d",
	})

	require.Contains(t, subject, "developer")
	require.Contains(t, text, "https://api/role-action?token=a")
	require.Contains(t, text, "https://api/role-action?token=d")
	require.Contains(t, html, `href="https://api/role-action?token=a"`)
}

func TestRenderEscapesUserFields(t *testing.T) {
	t.Parallel()

	_, _, html := render(domain.Notification{
		Kind:          domain.NotifyRoleRequest,
		To:            "reviewer@example.com",
		UserName:      `<a href="https://evil.example">Bob</a>`,
		UserEmail:     `bob@example.com"><script>`,
		RequestedRole: domain.RoleDeveloper,
		ApproveURL:    "https://api/role-action?token=a",
		DenyURL:       "https://api/role-action?token=d",
	})

	require.NotContains(t, html, `<a href="https://evil.example">`)
	require.NotContains(t, html, "<script>")
	require.Contains(t, html, "&lt;a href=")
}
