package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/dmitrymomot/authkit/pkg/identity"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleConfig holds Google OAuth2 credentials, loadable from the
// environment.
type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
}

// GoogleOption configures the Google provider.
type GoogleOption func(*Google)

// WithGoogleHTTPClient overrides the HTTP client.
func WithGoogleHTTPClient(client *http.Client) GoogleOption {
	return func(g *Google) {
		if client != nil {
			g.client = client
		}
	}
}

// WithGoogleUserInfoURL overrides the userinfo endpoint.
func WithGoogleUserInfoURL(url string) GoogleOption {
	return func(g *Google) {
		if url != "" {
			g.userInfoURL = url
		}
	}
}

// Google verifies Google OAuth2 access tokens via the userinfo
// endpoint.
type Google struct {
	oauth       oauth2.Config
	userInfoURL string
	client      *http.Client
}

// NewGoogle creates the Google provider.
func NewGoogle(cfg GoogleConfig, opts ...GoogleOption) (*Google, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	g := &Google{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: googleUserInfoURL,
		client:      http.DefaultClient,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (g *Google) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: exchange code: %v", ErrUnavailable, err)
	}
	return token.AccessToken, nil
}

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (g *Google) VerifyAndFetch(ctx context.Context, accessToken string) (identity.Assertion, error) {
	body, err := fetchUserInfo(ctx, g.client, g.userInfoURL, accessToken)
	if err != nil {
		return identity.Assertion{}, err
	}

	var user googleUser
	if err := json.Unmarshal(body, &user); err != nil {
		return identity.Assertion{}, fmt.Errorf("%w: decode userinfo: %v", ErrUnavailable, err)
	}
	if user.ID == "" {
		return identity.Assertion{}, fmt.Errorf("%w: userinfo missing subject", ErrInvalidToken)
	}

	verified := user.VerifiedEmail
	return identity.Assertion{
		Provider:      g.Name(),
		ExternalID:    user.ID,
		Email:         user.Email,
		EmailVerified: &verified,
		Nickname:      user.Name,
		AvatarURL:     user.Picture,
	}, nil
}
