package dispatch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

var (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// EmailDispatcher sends one personalized SendGrid message per recipient
// institution
type EmailDispatcher struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
	log        *zap.Logger
}

// NewEmailDispatcher creates a SendGrid dispatcher
func NewEmailDispatcher(key, fromName, fromEmail string, log *zap.Logger) *EmailDispatcher {
	return &EmailDispatcher{
		key:        key,
		host:       sendgridHost,
		from:       sgmail.NewEmail(fromName, fromEmail),
		subjPrefix: "[STARBOOKS] ",
		log:        log,
	}
}

func (d *EmailDispatcher) Channel() string { return ChannelEmail }

// prepare builds the v3 mail body; nil when nobody has an address
func (d *EmailDispatcher) prepare(p Payload) *sgmail.SGMailV3 {
	m := sgmail.NewV3Mail()
	m.SetFrom(d.from)

	for _, r := range p.To {
		if r.Email == "" {
			continue
		}
		per := sgmail.NewPersonalization()
		per.Subject = d.subjPrefix + p.Subject
		per.AddTos(sgmail.NewEmail(r.Name, r.Email))
		m.AddPersonalizations(per)
	}
	if len(m.Personalizations) == 0 {
		return nil
	}

	m.AddContent(sgmail.NewContent("text/plain", fmt.Sprintf("%s\n\n(%s)", p.Message, p.NotificationType)))
	return m
}

func (d *EmailDispatcher) Dispatch(ctx context.Context, p Payload) error {
	if err := ctx.Err(); err != nil {
		return failed(ChannelEmail, err)
	}

	m := d.prepare(p)
	if m == nil {
		d.log.Info("no e-mail recipients, nothing sent", zap.String("recipients", p.Selector))
		return nil
	}

	req := sendgrid.GetRequest(d.key, sendgridEndpoint, d.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.API(req)
	if err != nil {
		return failed(ChannelEmail, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return failed(ChannelEmail, fmt.Errorf("sendgrid responded %d: %s", res.StatusCode, res.Body))
	}

	d.log.Info("notification e-mailed",
		zap.String("subject", p.Subject),
		zap.Int("personalizations", len(m.Personalizations)),
	)
	return nil
}
