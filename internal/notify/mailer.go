package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"net/url"
	"strings"

	"genstudio/internal/infra"
)

// Mailer sends outcome messages over SMTP. When no host is configured the
// mailer degrades to logging the would-be delivery, mirroring how the
// provider client degrades without an API key.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	baseURL  string
	logger   infra.Logger

	// send is swappable for tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewMailer builds an SMTP-backed notifier. baseURL is the public origin used
// to assemble result links.
func NewMailer(cfg *infra.Config, logger infra.Logger) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
		baseURL:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:   logger,
		send:     smtp.SendMail,
	}
}

// Notify renders and sends exactly one outbound message for the outcome.
func (m *Mailer) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body := m.render(n)
	if m.host == "" {
		m.logger.Info().
			Str("job_id", n.JobID).
			Str("outcome", string(n.Outcome)).
			Msg("notify: smtp not configured, skipping delivery")
		return nil
	}
	msg := buildMessage(m.from, n.Recipient, subject, body)
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := m.send(m.host+":"+m.port, auth, m.from, []string{n.Recipient}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// ResultLink assembles the capability link embedded in success messages.
func (m *Mailer) ResultLink(jobID, token string) string {
	return fmt.Sprintf("%s/v1/jobs/%s/result?token=%s", m.baseURL, url.PathEscape(jobID), url.QueryEscape(token))
}

func (m *Mailer) render(n Notification) (subject, body string) {
	loc := normalizeLocale(n.Locale)
	if n.Outcome == OutcomeSuccess {
		link := m.ResultLink(n.JobID, n.Token)
		if loc == "id" {
			return "Hasil generasi Anda sudah siap",
				fmt.Sprintf("Halo,\r\n\r\nHasil generasi Anda sudah selesai. Unduh di sini:\r\n%s\r\n\r\nTautan berlaku sementara.\r\n", link)
		}
		return "Your generated result is ready",
			fmt.Sprintf("Hello,\r\n\r\nYour generation request has finished. Download it here:\r\n%s\r\n\r\nThe link expires after a limited time.\r\n", link)
	}
	if loc == "id" {
		return "Generasi Anda gagal",
			"Halo,\r\n\r\nMaaf, permintaan generasi Anda tidak dapat diselesaikan. Silakan coba lagi nanti.\r\n"
	}
	return "Your generation request failed",
		"Hello,\r\n\r\nUnfortunately we could not complete your generation request. Please try again later.\r\n"
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func normalizeLocale(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if strings.HasPrefix(locale, "id") {
		return "id"
	}
	return "en"
}
