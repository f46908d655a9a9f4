package notifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/vasapolrittideah/berberpazar/shared/identifier"
)

type TwilioConfig struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	From       string `env:"TWILIO_FROM"`
	// BaseURL replaces the scheme and host of the Twilio API, for tests and proxies.
	BaseURL string `env:"TWILIO_BASE_URL"`
}

func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

type twilioChannel struct {
	config TwilioConfig
	client *http.Client
}

// NewTwilioChannel sends SMS through the Twilio Messages API.
func NewTwilioChannel(cfg TwilioConfig, client *http.Client) Channel {
	return &twilioChannel{config: cfg, client: client}
}

func (c *twilioChannel) Name() string { return ChannelSMS }

func (c *twilioChannel) Available() bool { return c.config.Enabled() }

func (c *twilioChannel) Send(ctx context.Context, msg Message) error {
	to, ok := identifier.ToInternational(msg.Phone)
	if !ok {
		return errors.New("recipient has no valid phone number")
	}

	restClient, err := c.restClient(ctx)
	if err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo("+" + to)
	params.SetFrom(c.config.From)
	params.SetBody(msg.Text)

	if _, err := restClient.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio sms error: %w", err)
	}

	return nil
}

// restClient builds a Twilio client bound to ctx. The SDK takes no context, so
// cancellation is carried by the transport.
func (c *twilioChannel) restClient(ctx context.Context) (*twilio.RestClient, error) {
	base := c.client.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	transport := &twilioTransport{ctx: ctx, base: base}
	if c.config.BaseURL != "" {
		target, err := url.Parse(strings.TrimRight(c.config.BaseURL, "/"))
		if err != nil {
			return nil, fmt.Errorf("invalid TWILIO_BASE_URL: %w", err)
		}
		transport.target = target
	}

	httpClient := *c.client
	httpClient.Transport = transport

	baseClient := &twilioclient.Client{
		Credentials: twilioclient.NewCredentials(c.config.AccountSID, c.config.AuthToken),
		HTTPClient:  &httpClient,
	}
	baseClient.SetAccountSid(c.config.AccountSID)

	return twilio.NewRestClientWithParams(twilio.ClientParams{Client: baseClient}), nil
}

type twilioTransport struct {
	ctx    context.Context
	base   http.RoundTripper
	target *url.URL
}

func (t *twilioTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(t.ctx)

	if t.target != nil {
		req.URL.Scheme = t.target.Scheme
		req.URL.Host = t.target.Host
		req.URL.Path = t.target.Path + req.URL.Path
		req.Host = t.target.Host
	}

	return t.base.RoundTrip(req)
}
