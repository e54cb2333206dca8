package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/dustin/go-humanize"

	"verifylens/internal/models"
	"verifylens/shared/config"
)

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Sender struct {
	config *config.EmailConfig
	send   sendFunc
	now    func() time.Time
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
		now:    time.Now,
	}
}

// SendUsageReport mails a token usage digest. Nothing is sent before the
// first prompt has been tracked.
func (s *Sender) SendUsageReport(stats models.UsageStats) error {
	if stats.Summary.TotalPrompts == 0 {
		return nil
	}

	subject := fmt.Sprintf("VerifyLens Token Usage - %s tokens over %d prompts (%s)",
		humanize.Comma(int64(stats.Summary.TotalTokens)), stats.Summary.TotalPrompts, s.now().Format("Jan 2, 2006"))

	body, err := generateEmailBody(stats)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	return s.sendViaSMTP(subject, htmlBody)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)
	}

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	if err := s.send(addr, auth, s.config.FromEmail, to, msg); err != nil {
		return fmt.Errorf("failed to send email via %s: %w", addr, err)
	}
	return nil
}

// recentEntries is how many history rows the digest shows.
const recentEntries = 10

var reportTemplate = template.Must(template.New("usage").Funcs(template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"when":  func(t time.Time) string { return t.Format(time.RFC3339) },
}).Parse(`<html><body>
<h2>Token Usage Report</h2>
<table>
<tr><td>Total Prompts</td><td>{{comma .Summary.TotalPrompts}}</td></tr>
<tr><td>Total Tokens</td><td>{{comma .Summary.TotalTokens}}</td></tr>
<tr><td>Average Tokens/Prompt</td><td>{{printf "%.2f" .Summary.AverageTokensPerPrompt}}</td></tr>
</table>
{{if .Recent}}<h3>Recent Usage</h3>
<ul>
{{range .Recent}}<li>{{when .Timestamp}}: {{comma .TokenCount}} tokens ({{printf "%.2f" .ResponseTime}}s)</li>
{{end}}</ul>{{end}}
</body></html>`))

func generateEmailBody(stats models.UsageStats) (string, error) {
	recent := stats.DetailedHistory
	if len(recent) > recentEntries {
		recent = recent[len(recent)-recentEntries:]
	}

	var buf bytes.Buffer
	err := reportTemplate.Execute(&buf, struct {
		Summary models.UsageSummary
		Recent  []models.UsageEntry
	}{stats.Summary, recent})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
