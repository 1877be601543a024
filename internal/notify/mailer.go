// Package notify sends the registration email. Delivery runs in the
// background and its failures only reach the log.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/luvima/image-editor/internal/logging"
)

const registeredSubject = "Registration Successful"

// Sender delivers a single plain-text message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender delivers mail through an SMTP relay with STARTTLS.
type SMTPSender struct {
	client *mail.Client
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSMandatory),
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}
	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: from}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// Notifier sends registration mail asynchronously.
type Notifier struct {
	sender   Sender
	logger   logging.Logger
	loginURL string
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewNotifier returns a Notifier. A nil sender disables delivery.
func NewNotifier(sender Sender, loginURL string, timeout time.Duration, logger logging.Logger) *Notifier {
	return &Notifier{
		sender:   sender,
		logger:   logger.With("component", "notify"),
		loginURL: loginURL,
		timeout:  timeout,
	}
}

// Registered queues the welcome mail for username. It returns immediately.
func (n *Notifier) Registered(username, email string) {
	if n.sender == nil {
		n.logger.Debug(context.Background(), "mail disabled, skipping welcome email", "username", username)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()

		if err := n.sender.Send(ctx, email, registeredSubject, WelcomeBody(username, n.loginURL)); err != nil {
			n.logger.Error(ctx, "welcome email failed", "username", username, "error", err)
			return
		}
		n.logger.Info(ctx, "welcome email sent", "username", username)
	}()
}

// Wait blocks until queued deliveries finish. Called on shutdown.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func WelcomeBody(username, loginURL string) string {
	return fmt.Sprintf(`Hello %s,

Congratulations! You have successfully registered for Luvima Advanced Image Editor.
You can now log in to your account using the following link: %s

Here are some tips to get started:
- Upload and edit your images easily
- Apply filters, crop, rotate, and remove backgrounds
- Save and download your edited images

We're excited to have you on board!

Happy editing,
The Luvima Team
`, username, loginURL)
}
