// Package notify abstracts outbound reminder delivery. The dispatcher never
// sees provider errors, only a per-channel success flag; failed channels are
// recorded and the next channel in the fallback order is tried.
package notify

import (
	"context"
	"log/slog"

	"github.com/hopono/scheduling/internal/email"
	"github.com/hopono/scheduling/internal/sms"
)

type Gateway interface {
	// SendSMS reports delivery success. It never returns an error: a provider
	// failure is a false, not a fault.
	SendSMS(ctx context.Context, to string, body string) bool
	SendEmail(ctx context.Context, to string, subject string, body string) bool
}

// SenderGateway adapts the concrete SMS and email senders to the Gateway
// contract, logging failures with provider detail.
type SenderGateway struct {
	sms    sms.Sender
	email  email.Sender
	logger *slog.Logger
}

func NewSenderGateway(smsSender sms.Sender, emailSender email.Sender, logger *slog.Logger) *SenderGateway {
	return &SenderGateway{sms: smsSender, email: emailSender, logger: logger}
}

func (g *SenderGateway) SendSMS(ctx context.Context, to string, body string) bool {
	if err := g.sms.Send(ctx, to, body); err != nil {
		g.logger.Error("sms delivery failed", "provider", g.sms.ProviderID(), "err", err)
		return false
	}
	return true
}

func (g *SenderGateway) SendEmail(_ context.Context, to string, subject string, body string) bool {
	if err := g.email.Send(to, subject, body); err != nil {
		g.logger.Error("email delivery failed", "err", err)
		return false
	}
	return true
}
