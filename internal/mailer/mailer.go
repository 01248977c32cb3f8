// Package mailer sends account emails over SMTP. Outgoing mail goes through
// a circuit breaker so a dead SMTP server fails requests fast instead of
// holding every registration open until the dial times out.
package mailer

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/AmrIbrahim41/smart-shop/internal/config"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTP struct {
	from    string
	send    func(*gomail.Message) error
	breaker *gobreaker.CircuitBreaker[struct{}]
	log     *zap.Logger
}

func NewSMTP(cfg config.SMTPConfig, log *zap.Logger) *SMTP {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	return &SMTP{
		from:    cfg.From,
		send:    dialer.DialAndSend,
		breaker: newBreaker("smtp", log),
		log:     log,
	}
}

func newBreaker(name string, log *zap.Logger) *gobreaker.CircuitBreaker[struct{}] {
	var st gobreaker.Settings
	st.Name = name
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	st.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn("circuit breaker state changed",
			zap.String("breaker", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}
	return gobreaker.NewCircuitBreaker[struct{}](st)
}

func (m *SMTP) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	_, err := m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, m.send(msg)
	})
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	m.log.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// Log writes mails to the log instead of sending them. It is used when no
// SMTP host is configured.
type Log struct {
	log *zap.Logger
}

func NewLog(log *zap.Logger) *Log {
	return &Log{log: log}
}

// Send logs the envelope only. Bodies carry live activation and reset
// links, so they are kept to debug output.
func (m *Log) Send(_ context.Context, to, subject, body string) error {
	m.log.Info("mail not sent, smtp disabled",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	m.log.Debug("unsent mail body", zap.String("to", to), zap.String("body", body))
	return nil
}

// New returns an SMTP sender when cfg names a host and a Log sender otherwise.
func New(cfg config.SMTPConfig, log *zap.Logger) Sender {
	if cfg.Enabled() {
		return NewSMTP(cfg, log)
	}
	return NewLog(log)
}
