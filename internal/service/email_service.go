package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService sends notifications via Amazon SES. It is optional: when no
// from-address is configured the service is created disabled and every send
// becomes a logged no-op.
type EmailService struct {
	client    *sesv2.Client
	fromEmail string
	fromName  string
	enabled   bool
}

// NewEmailService creates a new email service.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return &EmailService{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
	}, nil
}

// IsEnabled returns whether the email service is enabled.
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendAssignmentNotification tells a tutor that their student received a
// new word assignment.
func (s *EmailService) SendAssignmentNotification(ctx context.Context, toEmail, studentName, wordText string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): assignment notification to %s", toEmail)
		return nil
	}
	if toEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("Nueva palabra asignada a %s", studentName)
	textBody := fmt.Sprintf(`Hola,

A %s se le asignó una nueva palabra para practicar: %q.

Abre la aplicación para acompañar su progreso.

---
Este es un correo automático de Palabritas. Por favor no responder.
`, studentName, wordText)

	return s.sendEmail(ctx, toEmail, subject, textBody)
}

// SendTutorInvitation invites a tutor to register, including the student's
// access code so the student can sign in on the shared device.
func (s *EmailService) SendTutorInvitation(ctx context.Context, toEmail, studentName, accessCode string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): invitation to %s", toEmail)
		return nil
	}

	subject := "Invitación a Palabritas"
	textBody := fmt.Sprintf(`Hola,

Te invitamos a acompañar a %s en Palabritas, la aplicación de lectura
para niñas y niños.

El código de acceso del estudiante es: %s

---
Este es un correo automático de Palabritas. Por favor no responder.
`, studentName, accessCode)

	return s.sendEmail(ctx, toEmail, subject, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent: to=%s, subject=%s", toEmail, subject)
	return nil
}
