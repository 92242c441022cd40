package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"vocabpractice/internal/logger"
)

// sesAPI is the part of the SES client the email service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailConfig configures outgoing mail
type EmailConfig struct {
	AWSRegion  string
	FromEmail  string
	FromName   string
	AppBaseURL string
	Debug      bool
}

// EmailService sends teacher emails through Amazon SES. With no sender
// address configured it is disabled and every send is a logged no-op.
type EmailService struct {
	client  sesAPI
	cfg     EmailConfig
	enabled bool
	log     *logger.Logger
}

// NewEmailService creates a new email service
func NewEmailService(ctx context.Context, cfg EmailConfig, log *logger.Logger) (*EmailService, error) {
	if cfg.FromEmail == "" {
		log.Info("email service disabled", "reason", "SES_FROM_EMAIL not configured")
		return &EmailService{cfg: cfg, log: log}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("email service enabled", "from", cfg.FromEmail, "region", cfg.AWSRegion)
	return newEmailServiceWithClient(sesv2.NewFromConfig(awsCfg), cfg, log), nil
}

func newEmailServiceWithClient(client sesAPI, cfg EmailConfig, log *logger.Logger) *EmailService {
	return &EmailService{client: client, cfg: cfg, enabled: true, log: log}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s != nil && s.enabled
}

var resetEmailHTML = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h1 style="color: #4f46e5;">Reset your VocabPractice password</h1>
		<p>Hi {{.Name}},</p>
		<p>We received a request to reset the password for your teacher account.</p>
		<p><a href="{{.Link}}" style="display: inline-block; padding: 12px 30px; background: #4f46e5; color: #fff; text-decoration: none; border-radius: 6px;">Reset Password</a></p>
		<p style="font-size: 12px; color: #666; word-break: break-all;">{{.Link}}</p>
		<p><strong>This link will expire in 1 hour.</strong></p>
		<p>If you didn't request a password reset, you can safely ignore this email.</p>
	</div>
</body>
</html>`))

var welcomeEmailHTML = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h1 style="color: #4f46e5;">Welcome to VocabPractice!</h1>
		<p>Hi {{.Name}},</p>
		<p>Your teacher account is ready. Create a word set, then ask your students to open VocabPractice, pick your name and start writing sentences.</p>
		<p><a href="{{.Link}}" style="display: inline-block; padding: 12px 30px; background: #4f46e5; color: #fff; text-decoration: none; border-radius: 6px;">Open your dashboard</a></p>
	</div>
</body>
</html>`))

type emailData struct {
	Name string
	Link string
}

// SendPasswordResetEmail sends a password reset link
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	if !s.IsEnabled() {
		s.log.Info("skipping email (service disabled)", "kind", "password_reset", "to", toEmail)
		return nil
	}

	link := fmt.Sprintf("%s/teacher/reset-password?token=%s", strings.TrimRight(s.cfg.AppBaseURL, "/"), resetToken)
	text := fmt.Sprintf(`Hi %s,

We received a request to reset the password for your VocabPractice teacher account.

Reset your password here:
%s

This link will expire in 1 hour.

If you didn't request a password reset, you can safely ignore this email.
`, toName, link)

	return s.send(ctx, toEmail, "Reset your VocabPractice password", resetEmailHTML, emailData{Name: toName, Link: link}, text)
}

// SendWelcomeEmail greets a newly registered teacher
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.IsEnabled() {
		s.log.Info("skipping email (service disabled)", "kind", "welcome", "to", toEmail)
		return nil
	}

	link := strings.TrimRight(s.cfg.AppBaseURL, "/") + "/teacher/dashboard"
	text := fmt.Sprintf(`Hi %s,

Your VocabPractice teacher account is ready. Create a word set, then ask your students to pick your name and start writing sentences.

Open your dashboard: %s
`, toName, link)

	return s.send(ctx, toEmail, "Welcome to VocabPractice!", welcomeEmailHTML, emailData{Name: toName, Link: link}, text)
}

func (s *EmailService) send(ctx context.Context, toEmail, subject string, htmlTmpl *template.Template, data emailData, textBody string) error {
	var html bytes.Buffer
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	from := s.cfg.FromEmail
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.FromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(html.String()), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	if s.cfg.Debug {
		s.log.Debug("sending email", "to", toEmail, "subject", subject, "html_bytes", html.Len())
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	msgID := ""
	if result != nil && result.MessageId != nil {
		msgID = *result.MessageId
	}
	s.log.Info("email sent", "to", toEmail, "subject", subject, "message_id", msgID)
	return nil
}
