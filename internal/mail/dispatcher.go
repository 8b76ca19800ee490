package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/itas-team/itas/internal/domain"
)

// Dispatcher delivers notifications in the background. Dispatch never
// blocks and never returns an error; delivery failures are logged and
// dropped so an SMTP outage cannot take down logins or registrations.
type Dispatcher struct {
	sender Sender
	log    *slog.Logger

	queue chan domain.Notification
	wg    sync.WaitGroup

	closeOnce sync.Once
	closed    chan struct{}
}

const queueDepth = 64

func NewDispatcher(sender Sender, log *slog.Logger) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		log:    log,
		queue:  make(chan domain.Notification, queueDepth),
		closed: make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// Dispatch enqueues a notification for delivery. If the queue is full or
// the dispatcher is shut down the notification is dropped with a log.
// The queue channel itself is never closed, so Dispatch cannot panic when
// it races Shutdown.
func (d *Dispatcher) Dispatch(n domain.Notification) {
	select {
	case <-d.closed:
		d.log.Warn("mail dispatcher closed, dropping notification", "kind", n.Kind, "to", n.To)
		return
	default:
	}
	select {
	case d.queue <- n:
	default:
		d.log.Warn("mail queue full, dropping notification", "kind", n.Kind, "to", n.To)
	}
}

// Shutdown stops accepting notifications and waits for in-flight
// deliveries until ctx expires.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.closeOnce.Do(func() {
		close(d.closed)
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case <-d.closed:
			// Flush whatever was queued before shutdown began.
			for {
				select {
				case n := <-d.queue:
					d.deliver(n)
				default:
					return
				}
			}
		case n := <-d.queue:
			d.deliver(n)
		}
	}
}

func (d *Dispatcher) deliver(n domain.Notification) {
	subject, text, html := render(n)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := d.sender.Send(ctx, n.To, subject, text, html)
	cancel()

	if err != nil {
		d.log.Error("mail delivery failed",
			"kind", n.Kind, "to", n.To, "error", err)
		return
	}
	d.log.Info("mail delivered", "kind", n.Kind, "to", n.To)
}

// LogMailer is a Sender that only logs. Used when SMTP is not configured.
type LogMailer struct {
	Log *slog.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject, textBody, _ string) error {
	m.Log.Info("mail (log only)", "to", to, "subject", subject, "body", textBody)
	return nil
}
