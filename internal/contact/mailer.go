package contact

import (
	"fmt"
	"strings"

	mailjet "github.com/mailjet/mailjet-apiv3-go/v4"
)

// Mailer delivers a contact form somewhere. The real implementation talks
// to Mailjet; tests substitute a fake.
type Mailer interface {
	Send(form Form) error
}

// MailjetMailer forwards contact forms to the site owner via the Mailjet
// send API. The owner is both sender and recipient, with the submitter
// identified in the subject line.
type MailjetMailer struct {
	client    *mailjet.Client
	ownerName string
	ownerMail string
}

// NewMailjetMailer builds a Mailer for the given API credentials and owner
// address.
func NewMailjetMailer(apiKey, apiSecret, ownerName, ownerMail string) *MailjetMailer {
	return &MailjetMailer{
		client:    mailjet.NewMailjetClient(apiKey, apiSecret),
		ownerName: ownerName,
		ownerMail: ownerMail,
	}
}

// Send submits the form as a single transactional mail.
func (m *MailjetMailer) Send(form Form) error {
	messages := mailjet.MessagesV31{
		Info: []mailjet.InfoMessagesV31{
			{
				From: &mailjet.RecipientV31{
					Name:  m.ownerName,
					Email: m.ownerMail,
				},
				To: &mailjet.RecipientsV31{
					{
						Name:  m.ownerName,
						Email: m.ownerMail,
					},
				},
				Subject:  fmt.Sprintf("Message from %s <%s>", form.Name, form.Email),
				TextPart: strings.ReplaceAll(form.Message, "\n", `\n`),
				HTMLPart: strings.ReplaceAll(form.Message, "\n", "<br />"),
			},
		},
	}
	if _, err := m.client.SendMailV31(&messages); err != nil {
		return fmt.Errorf("mailjet send: %w", err)
	}
	return nil
}
