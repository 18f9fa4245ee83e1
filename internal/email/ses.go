package email

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// sesAPI is the slice of the SES client the mailer calls
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer sends emails via AWS SES
type SESMailer struct {
	client    sesAPI
	fromEmail string
	fromName  string
	// linkBaseURL is the web app origin used to build password reset links
	linkBaseURL string
}

// NewSESMailer creates a new email service using AWS SES
func NewSESMailer(region, fromEmail, fromName, linkBaseURL string) (*SESMailer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESMailer{
		client:      ses.NewFromConfig(cfg),
		fromEmail:   fromEmail,
		fromName:    fromName,
		linkBaseURL: linkBaseURL,
	}, nil
}

// SendOTP emails the 6-digit verification code
func (e *SESMailer) SendOTP(ctx context.Context, toEmail, fullName, otp string) error {
	subject := "Your Chirp verification code"
	html := layout("Verify your email", fmt.Sprintf(`
				<p>Hi %s,</p>
				<p>Use this code to finish setting up your Chirp account. It expires in 10 minutes.</p>
				<p class="code">%s</p>
				<p>If you didn't create an account, you can ignore this email.</p>`, fullName, otp))
	text := fmt.Sprintf("Hi %s,\n\nYour Chirp verification code is %s. It expires in 10 minutes.\n", fullName, otp)

	if err := e.send(ctx, toEmail, subject, html, text); err != nil {
		return fmt.Errorf("failed to send OTP email: %w", err)
	}
	return nil
}

// SendWelcome greets a newly verified user
func (e *SESMailer) SendWelcome(ctx context.Context, toEmail, fullName string) error {
	subject := "Welcome to Chirp"
	html := layout("Welcome to Chirp", fmt.Sprintf(`
				<p>Hi %s,</p>
				<p>Your email is verified. Pick a username, follow a few people and say hello.</p>`, fullName))
	text := fmt.Sprintf("Hi %s,\n\nYour email is verified. Welcome to Chirp!\n", fullName)

	if err := e.send(ctx, toEmail, subject, html, text); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

// SendPasswordReset sends a password reset email with the reset token
func (e *SESMailer) SendPasswordReset(ctx context.Context, toEmail, fullName, resetToken string) error {
	// The web app reads the token and calls POST /api/v1/users/reset-password
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", e.linkBaseURL, url.QueryEscape(resetToken))

	subject := "Reset your Chirp password"
	html := layout("Reset your password", fmt.Sprintf(`
				<p>Hi %s,</p>
				<p>Click the button below to reset your password. This link will expire in 1 hour.</p>
				<a href="%s" class="button">Reset Password</a>
				<p>Or copy and paste this link into your browser:</p>
				<p style="word-break: break-all; color: #666;">%s</p>
				<p>If you didn't request this password reset, you can safely ignore this email.</p>`, fullName, resetURL, resetURL))
	text := fmt.Sprintf("Hi %s,\n\nReset your password here (expires in 1 hour):\n\n%s\n\nIf you didn't request this, ignore this email.\n", fullName, resetURL)

	if err := e.send(ctx, toEmail, subject, html, text); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (e *SESMailer) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	from := e.fromEmail
	if e.fromName != "" {
		from = fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	_, err := e.client.SendEmail(ctx, input)
	return err
}

func layout(title, body string) string {
	return fmt.Sprintf(`
		<!DOCTYPE html>
		<html>
		<head>
			<meta charset="UTF-8">
			<style>
				body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
				.container { max-width: 600px; margin: 0 auto; padding: 20px; }
				.button { display: inline-block; padding: 12px 24px; background-color: #1d9bf0; color: white; text-decoration: none; border-radius: 6px; margin: 20px 0; }
				.code { font-size: 32px; letter-spacing: 8px; font-weight: bold; }
			</style>
		</head>
		<body>
			<div class="container">
				<h1>%s</h1>%s
				<hr>
				<p style="color: #999; font-size: 12px;">This is an automated message from Chirp.</p>
			</div>
		</body>
		</html>
	`, title, body)
}
