// utils/email.go
package utils

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"time"

	"ecofinds/catalog"
	"ecofinds/config"
	"ecofinds/logging"
	"ecofinds/models"

	"github.com/keighl/postmark"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MailTimeout bounds a single request to an email provider
const MailTimeout = 15 * time.Second

// Mailer sends one HTML email
type Mailer interface {
	SendEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NewMailer picks the provider named in cfg. The "none" provider only logs.
func NewMailer(cfg *config.Config) Mailer {
	switch cfg.EmailProvider {
	case config.EmailPostmark:
		client := postmark.NewClient(cfg.PostmarkAPIToken, "")
		client.HTTPClient = &http.Client{Timeout: MailTimeout}
		return &PostmarkMailer{client: client, from: cfg.EmailSender}
	case config.EmailSendgrid:
		return &SendgridMailer{client: sendgrid.NewSendClient(cfg.SendgridAPIKey), from: cfg.EmailSender}
	default:
		return LogMailer{}
	}
}

// PostmarkMailer sends through Postmark
type PostmarkMailer struct {
	client *postmark.Client
	from   string
}

// SendEmail sends through Postmark. The client takes no context, so the
// request is bounded by its HTTP client timeout instead.
func (m *PostmarkMailer) SendEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	_, err := m.client.SendEmail(postmark.Email{
		From:     m.from,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: htmlContent,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// SendgridMailer sends through SendGrid
type SendgridMailer struct {
	client *sendgrid.Client
	from   string
}

func (m *SendgridMailer) SendEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	message := mail.NewSingleEmail(
		mail.NewEmail("EcoFinds", m.from),
		subject,
		mail.NewEmail("", toEmail),
		htmlContent,
		htmlContent,
	)
	ctx, cancel := context.WithTimeout(ctx, MailTimeout)
	defer cancel()
	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send email: sendgrid status %d", resp.StatusCode)
	}
	return nil
}

// LogMailer drops emails after logging them
type LogMailer struct{}

func (LogMailer) SendEmail(ctx context.Context, toEmail, subject, _ string) error {
	logging.Ctx(ctx).Debug().Str("to", toEmail).Str("subject", subject).Msg("email delivery disabled")
	return nil
}

// UserFinder resolves a user ID to its identity
type UserFinder interface {
	FindUser(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// EmailService writes the marketplace's emails
type EmailService struct {
	mailer Mailer
	users  UserFinder
}

// NewEmailService initializes and returns a new EmailService instance
func NewEmailService(mailer Mailer, users UserFinder) *EmailService {
	return &EmailService{mailer: mailer, users: users}
}

// SendWelcomeEmail greets a new user
func (es *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, username string) error {
	htmlContent := fmt.Sprintf(
		"<strong>Welcome to EcoFinds, %s!</strong><br><br>Your account is ready. Start browsing pre-loved finds or list something of your own.",
		html.EscapeString(username),
	)
	return es.mailer.SendEmail(ctx, toEmail, "Welcome to EcoFinds", htmlContent)
}

// SendOrderConfirmation emails the buyer a summary of the order
func (es *EmailService) SendOrderConfirmation(ctx context.Context, userID primitive.ObjectID, order models.Order) error {
	user, err := es.users.FindUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("find buyer: %w", err)
	}

	lines := ""
	for _, item := range order.Items {
		lines += fmt.Sprintf("<li>%s &times; %d &mdash; %s</li>",
			html.EscapeString(item.Title), item.Quantity, catalog.FormatPrice(item.PriceCents*int64(item.Quantity)))
	}
	htmlContent := fmt.Sprintf(
		"<strong>Thank you for your purchase!</strong><br><br>Order %s<ul>%s</ul>Total: <strong>%s</strong>",
		order.ID.Hex(), lines, catalog.FormatPrice(order.TotalCents),
	)
	return es.mailer.SendEmail(ctx, user.Email, "Order Confirmation", htmlContent)
}
