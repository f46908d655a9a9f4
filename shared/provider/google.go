package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var (
	ErrInvalidGoogleAudience = errors.New("invalid google audience")
	ErrGoogleEmailUnverified = errors.New("google email is not verified")
	ErrGoogleDisabled        = errors.New("google sign-in is not configured")
)

// GoogleIdentity is the subset of a validated Google ID token the app relies on.
type GoogleIdentity struct {
	Subject string
	Email   string
}

type GoogleOAuthProvider struct {
	clientID string
	opts     []option.ClientOption
}

// NewGoogleOAuthProvider returns a provider that accepts ID tokens issued for clientID.
// Extra client options are passed to the oauth2 service.
func NewGoogleOAuthProvider(clientID string, opts ...option.ClientOption) *GoogleOAuthProvider {
	if len(opts) == 0 {
		opts = []option.ClientOption{option.WithHTTPClient(&http.Client{Timeout: 10 * time.Second})}
	}

	return &GoogleOAuthProvider{
		clientID: clientID,
		opts:     opts,
	}
}

// Enabled reports whether a client id is configured.
func (p *GoogleOAuthProvider) Enabled() bool {
	return p != nil && p.clientID != ""
}

func (p *GoogleOAuthProvider) ValidateIDToken(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	if !p.Enabled() {
		return nil, ErrGoogleDisabled
	}

	oauth2Service, err := oauth2.NewService(ctx, p.opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create oauth2 service: %w", err)
	}

	tokenInfo, err := oauth2Service.Tokeninfo().IdToken(idToken).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token info: %w", err)
	}

	if tokenInfo.Audience != p.clientID {
		return nil, ErrInvalidGoogleAudience
	}

	if !tokenInfo.VerifiedEmail || tokenInfo.Email == "" {
		return nil, ErrGoogleEmailUnverified
	}

	return &GoogleIdentity{
		Subject: tokenInfo.UserId,
		Email:   strings.ToLower(strings.TrimSpace(tokenInfo.Email)),
	}, nil
}
