package email

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendEndpoint = "/v3/mail/send"

// SendGridSender delivers messages through the SendGrid v3 API.
type SendGridSender struct {
	key  string
	host string
	from *sgmail.Email
}

// NewSendGridSender builds a sender. An empty host uses https://api.sendgrid.com.
func NewSendGridSender(key, host string, from Address) *SendGridSender {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		host = "https://api.sendgrid.com"
	}
	return &SendGridSender{key: key, host: host, from: sgmail.NewEmail(from.Name, from.Email)}
}

// Send implements Sender.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	personalization := sgmail.NewPersonalization()
	personalization.Subject = msg.Subject
	personalization.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Email))

	mail := sgmail.NewV3Mail()
	mail.SetFrom(s.from)
	mail.AddPersonalizations(personalization)
	mail.AddContent(
		sgmail.NewContent("text/plain", msg.Text),
		sgmail.NewContent("text/html", msg.HTML),
	)

	req := sendgrid.GetRequest(s.key, sendEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(mail)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("send %s email: %w", msg.Kind, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("send %s email: status %d: %s", msg.Kind, res.StatusCode, res.Body)
	}
	return nil
}
