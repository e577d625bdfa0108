package application

import (
	"context"
	"log/slog"

	"github.com/yelmuratov/NewEra-Cash-Carry/internal/notification/domain"
)

// Service fans a rendered message out to every channel and records each
// delivery. Delivery is best effort: a failed channel is logged and the rest
// still go out; nothing propagates back to the event source.
type Service struct {
	log   *slog.Logger
	repo  Repository
	sms   Notifier
	email Notifier
}

func NewService(log *slog.Logger, repo Repository, sms, email Notifier) *Service {
	return &Service{log: log, repo: repo, sms: sms, email: email}
}

func (s *Service) Deliver(ctx context.Context, eventType string, payload []byte) {
	message, err := domain.Render(eventType, payload)
	if err != nil {
		s.log.Warn("notification skipped", "event_type", eventType, "err", err)
		return
	}

	s.deliver(ctx, domain.ChannelSMS, s.sms, message)
	s.deliver(ctx, domain.ChannelEmail, s.email, message)
}

func (s *Service) deliver(ctx context.Context, channel string, n Notifier, message string) {
	if err := n.Notify(ctx, message); err != nil {
		s.log.Error("notification delivery failed", "channel", channel, "err", err)
		return
	}
	if err := s.repo.Save(ctx, channel, message); err != nil {
		s.log.Error("notification record failed", "channel", channel, "err", err)
	}
}
