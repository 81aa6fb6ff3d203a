package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rpupo63/portfolio-backend/config"
	"github.com/rpupo63/portfolio-backend/models"
)

// ContactNotifier tells the site owner about a new contact submission.
type ContactNotifier interface {
	NotifyContact(ctx context.Context, submission *models.ContactSubmission) error
}

// Notifier fans a contact submission out to email and SMS at once. A channel
// without a sender or recipient is skipped.
type Notifier struct {
	mailer   Mailer
	sms      SMSSender
	emailTo  []string
	phoneTo  string
	siteName string
	logger   zerolog.Logger
}

// NewNotifier accepts nil mailer or sms.
func NewNotifier(mailer Mailer, sms SMSSender, c map[string]string) *Notifier {
	return &Notifier{
		mailer:   mailer,
		sms:      sms,
		emailTo:  config.GetList(c, "CONTACT_NOTIFY_EMAILS", nil),
		phoneTo:  config.GetString(c, "CONTACT_NOTIFY_PHONE", ""),
		siteName: config.GetString(c, "SITE_NAME", "portfolio"),
		logger:   log.With().Str("service", "notifier").Logger(),
	}
}

// NotifyContact attempts every configured channel and joins their errors.
func (n *Notifier) NotifyContact(ctx context.Context, submission *models.ContactSubmission) error {
	var (
		g        errgroup.Group
		mu       sync.Mutex
		failures []error
		sent     []string
	)
	record := func(channel string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", channel, err))
			return
		}
		sent = append(sent, channel)
	}

	if n.mailer != nil && len(n.emailTo) > 0 {
		g.Go(func() error {
			record("email", n.mailer.Send(ctx, n.contactEmail(submission)))
			return nil
		})
	}
	if n.sms != nil && n.phoneTo != "" {
		g.Go(func() error {
			record("sms", n.sms.SendSMS(ctx, n.phoneTo, n.contactSMS(submission)))
			return nil
		})
	}
	_ = g.Wait()

	if len(sent) > 0 {
		n.logger.Info().Strs("channels", sent).Str("submissionId", submission.ID.String()).Msg("contact notification sent")
	}
	return errors.Join(failures...)
}

func (n *Notifier) contactEmail(s *models.ContactSubmission) Email {
	subject := fmt.Sprintf("[%s] New message from %s", n.siteName, s.Name)
	if s.Subject != "" {
		subject = fmt.Sprintf("[%s] %s", n.siteName, s.Subject)
	}

	body := fmt.Sprintf(
		"<p><strong>From:</strong> %s &lt;%s&gt;</p><p><strong>Subject:</strong> %s</p><p>%s</p>",
		html.EscapeString(s.Name),
		html.EscapeString(s.Email),
		html.EscapeString(s.Subject),
		strings.ReplaceAll(html.EscapeString(s.Message), "\n", "<br>"),
	)
	return Email{To: n.emailTo, Subject: subject, HTML: body, ReplyTo: s.Email}
}

func (n *Notifier) contactSMS(s *models.ContactSubmission) string {
	return fmt.Sprintf("New %s contact from %s (%s): %s", n.siteName, s.Name, s.Email, truncate(s.Message, 280))
}
