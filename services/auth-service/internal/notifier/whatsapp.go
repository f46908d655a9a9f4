package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vasapolrittideah/berberpazar/shared/identifier"
)

type WhatsAppConfig struct {
	Token   string `env:"WHATSAPP_CLOUD_TOKEN"`
	PhoneID string `env:"WHATSAPP_CLOUD_PHONE_ID"`
	BaseURL string `env:"WHATSAPP_BASE_URL"       envDefault:"https://graph.facebook.com/v19.0"`
}

func (c WhatsAppConfig) Enabled() bool {
	return c.Token != "" && c.PhoneID != ""
}

type whatsAppChannel struct {
	config WhatsAppConfig
	client *http.Client
}

// NewWhatsAppChannel sends text messages through the WhatsApp Cloud API.
func NewWhatsAppChannel(cfg WhatsAppConfig, client *http.Client) Channel {
	return &whatsAppChannel{config: cfg, client: client}
}

func (c *whatsAppChannel) Name() string { return ChannelWhatsApp }

func (c *whatsAppChannel) Available() bool { return c.config.Enabled() }

type whatsAppText struct {
	Body string `json:"body"`
}

type whatsAppMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             whatsAppText `json:"text"`
}

func (c *whatsAppChannel) Send(ctx context.Context, msg Message) error {
	to, ok := identifier.ToInternational(msg.Phone)
	if !ok {
		return errors.New("recipient has no valid phone number")
	}

	body, err := json.Marshal(whatsAppMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             whatsAppText{Body: msg.Text},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", strings.TrimRight(c.config.BaseURL, "/"), c.config.PhoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Content-Type", "application/json")

	return do(c.client, req, "whatsapp cloud")
}

// do executes req and turns any non-2xx answer into an error carrying the response body.
func do(client *http.Client, req *http.Request, api string) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s error: status %d: %s", api, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}
