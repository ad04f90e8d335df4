package notify

import (
	"context"

	"github.com/slack-go/slack"
)

// Sender delivers a message to a reply endpoint.
type Sender interface {
	Send(ctx context.Context, responseURL string, msg Message) error
}

// NewSender returns the Slack sender used in production.
func NewSender() Sender {
	return &slackSender{}
}

// slackSender posts delayed replies to Slack response URLs.
type slackSender struct{}

func (s *slackSender) Send(ctx context.Context, responseURL string, msg Message) error {
	return slack.PostWebhookContext(ctx, responseURL, &slack.WebhookMessage{
		Text:         msg.Text,
		ResponseType: msg.ResponseType,
	})
}
