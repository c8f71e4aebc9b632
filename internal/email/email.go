// Package email composes and sends PREreview's transactional emails.
package email

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/prereview/prereview/internal/platform/metrics"
	"github.com/sirupsen/logrus"
)

// Address is a named email recipient.
type Address struct {
	Name  string
	Email string
}

// Message is one email ready to send.
type Message struct {
	Kind    string
	To      Address
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Metered records a metric for every send attempt made through next.
func Metered(next Sender) Sender {
	return meteredSender{next: next}
}

type meteredSender struct {
	next Sender
}

func (m meteredSender) Send(ctx context.Context, msg Message) error {
	err := m.next.Send(ctx, msg)
	metrics.ObserveEmail(msg.Kind, err)
	return err
}

// LogSender writes messages to the log instead of delivering them. Local
// development uses it.
type LogSender struct {
	Logger logrus.FieldLogger
}

// Send implements Sender.
func (l LogSender) Send(_ context.Context, msg Message) error {
	if l.Logger == nil {
		return fmt.Errorf("log sender has no logger")
	}
	l.Logger.WithFields(logrus.Fields{
		"kind":    msg.Kind,
		"to":      msg.To.Email,
		"subject": msg.Subject,
	}).Info(msg.Text)
	return nil
}

// VerifyContactEmail asks a user to confirm their contact address.
func VerifyContactEmail(to Address, verifyURL string) Message {
	name := strings.TrimSpace(to.Name)
	return Message{
		Kind:    "verify-contact-email",
		To:      to,
		Subject: "Verify your email address on PREreview",
		Text: fmt.Sprintf("Hi %s,\n\nPlease verify your email address on PREreview by opening this link:\n\n%s\n\nThanks,\nPREreview",
			name, verifyURL),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>Please verify your email address on PREreview:</p><p><a href="%s">Verify email address</a></p><p>Thanks,<br>PREreview</p>`,
			html.EscapeString(name), html.EscapeString(verifyURL)),
	}
}

// AuthorInvite invites a co-author to be listed on a published PREreview.
func AuthorInvite(to Address, inviterName, preprintTitle, inviteURL, declineURL string) Message {
	name := strings.TrimSpace(to.Name)
	return Message{
		Kind:    "author-invite",
		To:      to,
		Subject: "Be listed as a PREreview author",
		Text: fmt.Sprintf("Hi %s,\n\nThanks for contributing to a PREreview of “%s” written with %s.\n\n"+
			"Be listed as an author: %s\n\nIf you would rather not be listed, decline: %s\n\nThanks,\nPREreview",
			name, preprintTitle, inviterName, inviteURL, declineURL),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>Thanks for contributing to a PREreview of “%s” written with %s.</p>`+
			`<p><a href="%s">Be listed as an author</a></p><p>If you would rather not be listed, you can <a href="%s">decline</a>.</p><p>Thanks,<br>PREreview</p>`,
			html.EscapeString(name), html.EscapeString(preprintTitle), html.EscapeString(inviterName),
			html.EscapeString(inviteURL), html.EscapeString(declineURL)),
	}
}
