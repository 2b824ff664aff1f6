package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/staffdesk-backend-go/internal/config"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxRetries = 3

// EmailService defines the interface for sending emails. Sends stop retrying
// once ctx is done.
type EmailService interface {
	SendPayslip(ctx context.Context, to string, data PayslipData) error
}

// PayslipLine is one addition or deduction row.
type PayslipLine struct {
	Label  string
	Amount string
}

// PayslipData is the rendered content of a payslip email. Amounts are
// preformatted strings.
type PayslipData struct {
	PayrollID        string
	StaffName        string
	BusinessName     string
	PeriodStart      string
	PeriodEnd        string
	PaidAt           string
	SalaryType       string
	TotalHoursWorked string
	TotalDaysWorked  int
	CalculatedPay    string
	Additions        []PayslipLine
	Deductions       []PayslipLine
	NetPay           string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	templates *template.Template
	dialer    dialer
	backoff   func(attempt int) time.Duration
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig) (EmailService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	var d dialer
	if cfg.Host != "" {
		d = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		templates: tmpl,
		dialer:    d,
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<(attempt-1)) * time.Second
		},
	}, nil
}

// SendPayslip renders and sends the payslip email to the staff member
func (s *emailServiceImpl) SendPayslip(ctx context.Context, to string, data PayslipData) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "payslip.html", data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	subject := fmt.Sprintf("Payslip %s - %s", data.PeriodStart, data.PeriodEnd)
	return s.sendHTML(ctx, to, subject, body.String())
}

func (s *emailServiceImpl) sendHTML(ctx context.Context, to, subject, htmlBody string) error {
	// Skip sending if SMTP is not configured
	if s.dialer == nil {
		slog.Warn("SMTP not configured, skipping email send", "to", to, "subject", subject)
		return nil
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.FromEmail, s.cfg.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("email send abandoned after %d attempts: %w (last error: %v)", attempt-1, err, lastErr)
			}
			return fmt.Errorf("email send abandoned: %w", err)
		}

		err := s.dialer.DialAndSend(m)
		if err == nil {
			slog.Info("Email sent successfully", "to", to, "subject", subject, "attempt", attempt)
			return nil
		}

		lastErr = err
		slog.Error("Failed to send email",
			"to", to,
			"subject", subject,
			"attempt", attempt,
			"max_retries", maxRetries,
			"error", err,
		)

		if attempt < maxRetries {
			timer := time.NewTimer(s.backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("email send abandoned after %d attempts: %w (last error: %v)", attempt, ctx.Err(), lastErr)
			case <-timer.C:
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
