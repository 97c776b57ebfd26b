package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/lostmedia/payments/internal/app/service/entitlement"
	cfgpkg "github.com/lostmedia/payments/pkg/config"
	"github.com/lostmedia/payments/pkg/logctx"
	"github.com/lostmedia/payments/pkg/types"
)

// SMTPMailer sends the admin purchase notification over plain SMTP. With no
// SMTP address configured it degrades to a logged no-op so local environments
// run without a mail relay.
type SMTPMailer struct {
	cfg *cfgpkg.Config
	log *zap.SugaredLogger
}

func New(cfg *cfgpkg.Config, log *zap.SugaredLogger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: log}
}

func (m *SMTPMailer) SendAdminPaymentSuccess(ctx context.Context, e *entitlement.AdminPaymentEmail) error {
	log := logctx.FromCtx(ctx, m.log)

	if m.cfg.SMTP.Addr == "" || m.cfg.AdminEmail == "" {
		log.Infow("admin_email_skipped_unconfigured", "order_id", e.OrderID)
		return nil
	}

	subject, body := renderAdminEmail(e)
	msg := buildMessage(m.cfg.SMTP.From, m.cfg.AdminEmail, subject, body)

	var auth smtp.Auth
	if m.cfg.SMTP.Username != "" {
		host := m.cfg.SMTP.Addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.cfg.SMTP.Username, m.cfg.SMTP.Password, host)
	}
	if err := smtp.SendMail(m.cfg.SMTP.Addr, auth, m.cfg.SMTP.From, []string{m.cfg.AdminEmail}, msg); err != nil {
		return fmt.Errorf("send admin email: %w", err)
	}
	log.Infow("admin_email_sent", "order_id", e.OrderID, "to", m.cfg.AdminEmail)
	return nil
}

func renderAdminEmail(e *entitlement.AdminPaymentEmail) (subject, body string) {
	var item string
	if e.Kind == types.PaymentKindStar {
		item = fmt.Sprintf("Star Level %d", e.Star)
	} else {
		item = fmt.Sprintf("Role %s", e.Role)
	}
	subject = fmt.Sprintf("Pembayaran Berhasil: %s (%s)", item, e.OrderID)

	var b strings.Builder
	fmt.Fprintf(&b, "Pembayaran baru telah berhasil.\r\n\r\n")
	fmt.Fprintf(&b, "User: %s (%s)\r\n", e.Username, e.Email)
	fmt.Fprintf(&b, "Item: %s\r\n", item)
	fmt.Fprintf(&b, "Jumlah: Rp %d\r\n", e.AmountIDR)
	fmt.Fprintf(&b, "Order ID: %s\r\n", e.OrderID)
	fmt.Fprintf(&b, "Metode: %s\r\n", e.PaymentMethod)
	return subject, b.String()
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
