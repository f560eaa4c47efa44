package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// resendEmails is the part of the Resend client used for sending
type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type ResendSender struct {
	emails resendEmails
}

func NewResendSender(apiKey string) *ResendSender {
	return &ResendSender{emails: resend.NewClient(apiKey).Emails}
}

func (s *ResendSender) Name() string { return "resend" }

func (s *ResendSender) Send(ctx context.Context, msg Message) Result {
	if err := validateMessage(msg); err != nil {
		return failed(err)
	}

	resp, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		Html:    msg.HTML,
	})
	if err != nil {
		return failed(fmt.Errorf("resend API error: %w", err))
	}
	if resp == nil || resp.Id == "" {
		return failed(fmt.Errorf("resend API returned no message id"))
	}
	return Result{Success: true, MessageID: resp.Id}
}
