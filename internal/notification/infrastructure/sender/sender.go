package sender

import (
	"context"
	"log/slog"
)

// SMS and Email are stand-ins for real provider integrations; delivery is
// logged so the pipeline stays observable end to end.

type SMS struct {
	log *slog.Logger
}

func NewSMS(log *slog.Logger) *SMS { return &SMS{log: log} }

func (s *SMS) Notify(ctx context.Context, message string) error {
	s.log.Info("sms notification sent", "message", message)
	return nil
}

type Email struct {
	log *slog.Logger
}

func NewEmail(log *slog.Logger) *Email { return &Email{log: log} }

func (e *Email) Notify(ctx context.Context, message string) error {
	e.log.Info("email notification sent", "message", message)
	return nil
}
