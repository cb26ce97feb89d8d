package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eventhub/eventhub-api/internal/pkg/metrics"
)

// Template names.
const (
	TemplateTransactionAccepted = "transaction-accepted"
	TemplateTransactionRejected = "transaction-rejected"
	TemplatePasswordReset       = "password-reset"
	TemplateWelcome             = "welcome"
)

const sendTimeout = 15 * time.Second

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// EmailMessage represents an email to send
type EmailMessage struct {
	To          string
	ToName      string
	Subject     string
	HTMLContent string
}

// Service renders templates and sends them from a background worker.
// Queue never blocks the caller; a full queue drops the email.
type Service struct {
	sender       Sender
	templates    map[string]*template.Template
	baseTemplate *template.Template
	queue        chan *QueuedEmail
	wg           sync.WaitGroup
	closeOnce    sync.Once

	mu     sync.RWMutex
	closed bool
}

// QueuedEmail represents an email in the send queue
type QueuedEmail struct {
	To           string
	ToName       string
	Subject      string
	TemplateName string
	Data         interface{}
}

// NewService creates email service and starts its worker.
func NewService(sender Sender, queueSize int) *Service {
	if queueSize <= 0 {
		queueSize = 100
	}
	s := &Service{
		sender:       sender,
		templates:    make(map[string]*template.Template),
		baseTemplate: template.Must(template.New("base").Parse(BaseTemplate)),
		queue:        make(chan *QueuedEmail, queueSize),
	}

	for name, content := range map[string]string{
		TemplateTransactionAccepted: TransactionAcceptedTemplate,
		TemplateTransactionRejected: TransactionRejectedTemplate,
		TemplatePasswordReset:       PasswordResetTemplate,
		TemplateWelcome:             WelcomeTemplate,
	} {
		s.templates[name] = template.Must(template.New(name).Parse(content))
	}

	s.wg.Add(1)
	go s.worker()

	return s
}

func (s *Service) worker() {
	defer s.wg.Done()

	for email := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := s.send(ctx, email); err != nil {
			metrics.IncEmailFailed()
			log.Error().Err(err).
				Str("to", email.To).
				Str("template", email.TemplateName).
				Msg("Failed to send email")
		}
		cancel()
	}
}

// Render produces the full HTML body for a template.
func (s *Service) Render(templateName string, data interface{}) (string, error) {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return "", fmt.Errorf("email template %q not found", templateName)
	}

	var contentBuf bytes.Buffer
	if err := tmpl.Execute(&contentBuf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", templateName, err)
	}

	var htmlBuf bytes.Buffer
	if err := s.baseTemplate.Execute(&htmlBuf, map[string]interface{}{
		"Content": template.HTML(contentBuf.String()),
	}); err != nil {
		return "", fmt.Errorf("render base: %w", err)
	}
	return htmlBuf.String(), nil
}

func (s *Service) send(ctx context.Context, email *QueuedEmail) error {
	html, err := s.Render(email.TemplateName, email.Data)
	if err != nil {
		return err
	}

	return s.sender.Send(ctx, &EmailMessage{
		To:          email.To,
		ToName:      email.ToName,
		Subject:     email.Subject,
		HTMLContent: html,
	})
}

// Queue adds an email to the async send queue. After Close it drops the email.
func (s *Service) Queue(to, toName, templateName, subject string, data interface{}) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		metrics.IncEmailDropped()
		log.Warn().Str("to", to).Str("template", templateName).Msg("Email service closed, dropping email")
		return
	}

	select {
	case s.queue <- &QueuedEmail{
		To:           to,
		ToName:       toName,
		Subject:      subject,
		TemplateName: templateName,
		Data:         data,
	}:
	default:
		metrics.IncEmailDropped()
		log.Warn().Str("to", to).Str("template", templateName).Msg("Email queue full, dropping email")
	}
}

// SendSync sends an email synchronously (blocking)
func (s *Service) SendSync(ctx context.Context, to, toName, templateName, subject string, data interface{}) error {
	return s.send(ctx, &QueuedEmail{
		To:           to,
		ToName:       toName,
		Subject:      subject,
		TemplateName: templateName,
		Data:         data,
	})
}

// Close drains the queue and stops the worker.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
	})
	s.wg.Wait()
}

// TransactionEmail is the data for accept/reject emails.
type TransactionEmail struct {
	Name           string
	EventName      string
	TicketQuantity int
	TotalPrice     string
}

// SendTransactionAccepted tells the buyer their payment was confirmed.
func (s *Service) SendTransactionAccepted(to string, data TransactionEmail) {
	s.Queue(to, data.Name, TemplateTransactionAccepted, "Your transaction has been accepted", data)
}

// SendTransactionRejected tells the buyer their transaction was rejected.
func (s *Service) SendTransactionRejected(to string, data TransactionEmail) {
	s.Queue(to, data.Name, TemplateTransactionRejected, "Your transaction has been rejected", data)
}

// SendPasswordReset sends the reset link right away so the caller learns
// about delivery failures.
func (s *Service) SendPasswordReset(ctx context.Context, to, name, resetURL string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	return s.SendSync(ctx, to, name, TemplatePasswordReset, "Reset your password", map[string]string{
		"Name":     name,
		"ResetURL": resetURL,
	})
}

// SendWelcome greets a newly registered user.
func (s *Service) SendWelcome(to, name, referralCode string) {
	s.Queue(to, name, TemplateWelcome, "Welcome to EventHub", map[string]string{
		"Name":         name,
		"ReferralCode": referralCode,
	})
}
