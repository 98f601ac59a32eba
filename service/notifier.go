package service

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/config"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/model"
	"github.com/Sathvika2105/AI-powered-Regulatory-Compliance-Checker/pkg/metrics"
	"gopkg.in/gomail.v2"
)

// sender abstracts gomail's dialer so tests can capture messages.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Notifier emails contract owners when a compliance check crosses the
// risk threshold. When no sender credentials are configured it stays
// disabled and every call is a logged no-op.
type Notifier struct {
	from   string
	dialer sender
}

func NewNotifier(cfg *config.SMTPConfig) *Notifier {
	if cfg.Sender == "" || cfg.Password == "" {
		slog.Warn("notifier disabled: SENDER_EMAIL or SENDER_PASSWORD not set")
		return &Notifier{}
	}
	return &Notifier{
		from:   cfg.Sender,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Sender, cfg.Password),
	}
}

// Enabled reports whether the notifier can actually send mail.
func (n *Notifier) Enabled() bool {
	return n.dialer != nil
}

// Send delivers one alert email. Delivery failures wrap
// ErrExternalService; callers log and continue, alerts are best-effort.
func (n *Notifier) Send(to, subject, body string) error {
	if !n.Enabled() {
		slog.Debug("notifier disabled, dropping alert", "to", to, "subject", subject)
		return nil
	}
	if to == "" {
		return fmt.Errorf("%w: no recipient address", ErrValidation)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := n.dialer.DialAndSend(m); err != nil {
		metrics.NotificationsSent.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: failed to send email: %v", ErrExternalService, err)
	}
	metrics.NotificationsSent.WithLabelValues("ok").Inc()
	return nil
}

// NotifyRiskAlert formats and sends the non-compliance alert for one
// contract.
func (n *Notifier) NotifyRiskAlert(rec model.ContractRecord) error {
	subject := fmt.Sprintf("Compliance alert: contract %s is non-compliant", rec.ID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Contract %s failed its %s compliance check.\n\n", rec.ID, rec.Framework)
	fmt.Fprintf(&sb, "Risk score: %d/100\n", rec.RiskScore)
	sb.WriteString("Violations:\n")
	for _, v := range rec.Violations {
		fmt.Fprintf(&sb, "  - %s\n", v)
	}
	sb.WriteString("\nPlease review the contract and apply the suggested revisions.\n")

	return n.Send(rec.OwnerEmail, subject, sb.String())
}
