package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"

	"velorent-backend/internal/logger"
	"velorent-backend/internal/utils"
)

const (
	EmailProviderLog      = "log"
	EmailProviderSMTP     = "smtp"
	EmailProviderSendGrid = "sendgrid"
)

// EmailMessage is one outgoing plain-text email with an optional HTML part.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// EmailSender is a delivery backend. Delivery is best effort; a failure is
// returned to the caller and never retried here.
type EmailSender interface {
	Name() string
	Send(ctx context.Context, msg EmailMessage) error
}

type EmailSettings struct {
	Provider string
	FromName string
	From     string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	SendGridAPIKey string
}

type smtpSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPSender(host string, port int, username, password, from, fromName string) EmailSender {
	return &smtpSender{
		dialer:   gomail.NewDialer(host, port, username, password),
		from:     from,
		fromName: fromName,
	}
}

func (s *smtpSender) Name() string { return EmailProviderSMTP }

func (s *smtpSender) Send(ctx context.Context, msg EmailMessage) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetAddressHeader("To", msg.To, msg.ToName)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return nil
}

type sendGridSender struct {
	client   *sendgrid.Client
	from     string
	fromName string
}

func NewSendGridSender(apiKey, from, fromName string) EmailSender {
	return &sendGridSender{client: sendgrid.NewSendClient(apiKey), from: from, fromName: fromName}
}

func (s *sendGridSender) Name() string { return EmailProviderSendGrid }

func (s *sendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	from := mail.NewEmail(s.fromName, s.from)
	to := mail.NewEmail(msg.ToName, msg.To)
	html := msg.HTML
	if html == "" {
		html = "<pre>" + msg.Text + "</pre>"
	}
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, html)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email via sendgrid: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

// logSender writes messages to the application log instead of delivering them.
type logSender struct{}

func NewLogSender() EmailSender { return logSender{} }

func (logSender) Name() string { return EmailProviderLog }

func (logSender) Send(ctx context.Context, msg EmailMessage) error {
	logger.InfoContext(ctx, "Email not delivered (log provider)",
		"to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}

// NewEmailSender picks the backend named by settings.Provider. An empty provider means log.
func NewEmailSender(settings EmailSettings) (EmailSender, error) {
	switch strings.ToLower(settings.Provider) {
	case "", EmailProviderLog:
		return NewLogSender(), nil
	case EmailProviderSMTP:
		if settings.SMTPHost == "" {
			return nil, fmt.Errorf("smtp email provider needs a host")
		}
		return NewSMTPSender(settings.SMTPHost, settings.SMTPPort, settings.SMTPUser,
			settings.SMTPPassword, settings.From, settings.FromName), nil
	case EmailProviderSendGrid:
		if settings.SendGridAPIKey == "" {
			return nil, fmt.Errorf("sendgrid email provider needs an api key")
		}
		return NewSendGridSender(settings.SendGridAPIKey, settings.From, settings.FromName), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", settings.Provider)
	}
}

type emailService struct {
	sender   EmailSender
	fromName string
}

func NewEmailService(sender EmailSender, fromName string) EmailService {
	if fromName == "" {
		fromName = "Velorent"
	}
	return &emailService{sender: sender, fromName: fromName}
}

func (s *emailService) send(ctx context.Context, op string, msg EmailMessage) error {
	logger.ExternalServiceCall(s.sender.Name(), op, "to", msg.To)
	err := s.sender.Send(ctx, msg)
	logger.ExternalServiceResult(s.sender.Name(), op, err, "to", msg.To)
	return err
}

func (s *emailService) SendPaymentReminder(ctx context.Context, to, customerName, carLabel string, amountDue decimal.Decimal, rentalID string) error {
	body := fmt.Sprintf("Hello %s,\n\nOur records show an outstanding balance of %s for your rental of the %s (reference %s).\n\nPlease settle the remaining amount at your earliest convenience.\n\nBest regards,\nThe %s Team",
		customerName, amountDue.StringFixed(2), carLabel, rentalID, s.fromName)

	return s.send(ctx, "SendPaymentReminder", EmailMessage{
		To:      to,
		ToName:  customerName,
		Subject: fmt.Sprintf("Payment reminder - %s", carLabel),
		Text:    body,
	})
}

func (s *emailService) SendReturnReminder(ctx context.Context, to, customerName, carLabel string, returnDate time.Time) error {
	body := fmt.Sprintf("Hello %s,\n\nThis is a reminder that the %s is due back on %s.\n\nBest regards,\nThe %s Team",
		customerName, carLabel, utils.FormatDate(returnDate), s.fromName)

	return s.send(ctx, "SendReturnReminder", EmailMessage{
		To:      to,
		ToName:  customerName,
		Subject: fmt.Sprintf("Return reminder - %s", carLabel),
		Text:    body,
	})
}

func (s *emailService) SendAdminAlert(ctx context.Context, to, subject, message string) error {
	return s.send(ctx, "SendAdminAlert", EmailMessage{
		To:      to,
		Subject: "[" + s.fromName + "] " + subject,
		Text:    message,
	})
}
