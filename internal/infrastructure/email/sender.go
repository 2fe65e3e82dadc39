// Package email delivers rendered receipt documents over SMTP.
package email

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"minimarket/internal/domain/receipts"
	"minimarket/pkg/logger"
)

// Config holds SMTP delivery settings.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
}

// Sender implements receipts.Sender over gomail.
type Sender struct {
	cfg    Config
	dialer *gomail.Dialer
}

// NewSender creates an SMTP sender.
func NewSender(cfg Config) *Sender {
	return &Sender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

// SendReceiptEmail sends the document as an attachment. Returns false
// without error when the address is empty, so callers can treat
// "nothing to send" separately from delivery failure.
func (s *Sender) SendReceiptEmail(ctx context.Context, address, customerName, subject, documentNumber string, doc receipts.Document) (bool, error) {
	if address == "" {
		return false, nil
	}

	m := s.buildMessage(address, customerName, subject, documentNumber, doc)

	if err := s.dialer.DialAndSend(m); err != nil {
		return false, fmt.Errorf("send receipt email: %w", err)
	}

	logger.Info(ctx, "receipt email sent",
		"to", address,
		"document_number", documentNumber,
	)
	return true, nil
}

func (s *Sender) buildMessage(address, customerName, subject, documentNumber string, doc receipts.Document) *gomail.Message {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromEmail, s.cfg.FromName)
	m.SetHeader("To", address)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Estimado(a) %s,</p><p>Adjuntamos su comprobante %s. Gracias por su compra.</p>",
		customerName, documentNumber,
	))
	m.Attach(doc.Name,
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(doc.Data)
			return err
		}),
		gomail.SetHeader(map[string][]string{
			"Content-Type": {doc.ContentType},
		}),
	)
	return m
}
