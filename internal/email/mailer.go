// Package email delivers transactional account mail.
package email

import (
	"context"
	"sync"

	"github.com/zfogg/chirp/internal/logger"
	"go.uber.org/zap"
)

// Mailer sends the account emails the auth flows depend on
type Mailer interface {
	SendOTP(ctx context.Context, toEmail, fullName, otp string) error
	SendWelcome(ctx context.Context, toEmail, fullName string) error
	SendPasswordReset(ctx context.Context, toEmail, fullName, resetToken string) error
}

// LogMailer writes emails to the log instead of sending them. Used when SES is not configured.
type LogMailer struct{}

func (LogMailer) SendOTP(_ context.Context, toEmail, fullName, otp string) error {
	logger.Log.Info("OTP email (not sent)",
		zap.String("to", toEmail),
		zap.String("name", fullName),
		zap.String("otp", otp),
	)
	return nil
}

func (LogMailer) SendWelcome(_ context.Context, toEmail, fullName string) error {
	logger.Log.Info("Welcome email (not sent)", zap.String("to", toEmail), zap.String("name", fullName))
	return nil
}

func (LogMailer) SendPasswordReset(_ context.Context, toEmail, fullName, resetToken string) error {
	logger.Log.Info("Password reset email (not sent)",
		zap.String("to", toEmail),
		zap.String("name", fullName),
		zap.String("token", resetToken),
	)
	return nil
}

// Sent is one message captured by MemoryMailer
type Sent struct {
	Kind  string
	To    string
	Name  string
	Value string
}

// MemoryMailer records every email for assertions in tests
type MemoryMailer struct {
	mu   sync.Mutex
	sent []Sent
	// Err, when set, is returned from every send
	Err error
}

func (m *MemoryMailer) record(kind, to, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, Sent{Kind: kind, To: to, Name: name, Value: value})
	return nil
}

func (m *MemoryMailer) SendOTP(_ context.Context, toEmail, fullName, otp string) error {
	return m.record("otp", toEmail, fullName, otp)
}

func (m *MemoryMailer) SendWelcome(_ context.Context, toEmail, fullName string) error {
	return m.record("welcome", toEmail, fullName, "")
}

func (m *MemoryMailer) SendPasswordReset(_ context.Context, toEmail, fullName, resetToken string) error {
	return m.record("password_reset", toEmail, fullName, resetToken)
}

// Sent returns a copy of the recorded emails
func (m *MemoryMailer) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Sent(nil), m.sent...)
}

// Last returns the most recent email of the given kind
func (m *MemoryMailer) Last(kind string) (Sent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].Kind == kind {
			return m.sent[i], true
		}
	}
	return Sent{}, false
}
