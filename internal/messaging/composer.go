package messaging

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"dues-ledger/internal/models"
)

var (
	ErrNoContact      = errors.New("consumer has no mobile number")
	ErrUnknownChannel = errors.New("unknown channel")
)

// Channels a reminder can be sent over
const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"
	ChannelCall     = "call"
)

// Compose fills the {name}, {amount} and {consumerNo} placeholders.
func Compose(template string, c *models.Consumer) string {
	return strings.NewReplacer(
		"{name}", c.Name,
		"{amount}", c.TotalDue.String(),
		"{consumerNo}", c.ConsumerNo,
	).Replace(template)
}

type Message struct {
	Channel string `json:"channel"`
	Text    string `json:"text,omitempty"`
	Link    string `json:"link"`
}

// Build composes the reminder for channel and the device link that opens it.
func Build(channel string, settings models.AppSettings, c *models.Consumer) (*Message, error) {
	if !c.HasContact() {
		return nil, ErrNoContact
	}

	switch channel {
	case ChannelSMS:
		text := Compose(settings.SMSTemplate, c)
		return &Message{
			Channel: channel,
			Text:    text,
			Link:    SMSLink(c.Mobile, text),
		}, nil
	case ChannelWhatsApp:
		text := Compose(settings.WhatsAppTemplate, c)
		return &Message{
			Channel: channel,
			Text:    text,
			Link:    WhatsAppLink(c.Mobile, text),
		}, nil
	case ChannelCall:
		return &Message{Channel: channel, Link: "tel:" + c.Mobile}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownChannel, channel)
	}
}

func SMSLink(mobile, text string) string {
	return fmt.Sprintf("sms:%s?body=%s", mobile, url.QueryEscape(text))
}

// WhatsAppLink assumes a ten digit Indian mobile number.
func WhatsAppLink(mobile, text string) string {
	return fmt.Sprintf("whatsapp://send?phone=91%s&text=%s", mobile, url.QueryEscape(text))
}
