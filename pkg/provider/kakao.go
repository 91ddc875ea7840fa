package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/kakao"

	"github.com/dmitrymomot/authkit/pkg/identity"
)

const kakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"

// KakaoConfig holds Kakao OAuth2 credentials, loadable from the
// environment.
type KakaoConfig struct {
	ClientID     string `env:"KAKAO_CLIENT_ID"`
	ClientSecret string `env:"KAKAO_CLIENT_SECRET"`
	RedirectURL  string `env:"KAKAO_REDIRECT_URL"`
}

// KakaoOption configures the Kakao provider.
type KakaoOption func(*Kakao)

// WithKakaoHTTPClient overrides the HTTP client.
func WithKakaoHTTPClient(client *http.Client) KakaoOption {
	return func(k *Kakao) {
		if client != nil {
			k.client = client
		}
	}
}

// WithKakaoUserInfoURL overrides the userinfo endpoint.
func WithKakaoUserInfoURL(url string) KakaoOption {
	return func(k *Kakao) {
		if url != "" {
			k.userInfoURL = url
		}
	}
}

// Kakao verifies Kakao access tokens via the v2 user/me endpoint.
// Kakao shares the account email only with explicit user consent, so
// assertions frequently arrive without one.
type Kakao struct {
	oauth       oauth2.Config
	userInfoURL string
	client      *http.Client
}

// NewKakao creates the Kakao provider.
func NewKakao(cfg KakaoConfig, opts ...KakaoOption) (*Kakao, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	k := &Kakao{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     kakao.Endpoint,
			Scopes:       []string{"account_email", "profile_nickname", "profile_image"},
		},
		userInfoURL: kakaoUserInfoURL,
		client:      http.DefaultClient,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

func (k *Kakao) Name() string { return "kakao" }

func (k *Kakao) AuthURL(state string) string {
	return k.oauth.AuthCodeURL(state)
}

func (k *Kakao) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, k.client)
	token, err := k.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: exchange code: %v", ErrUnavailable, err)
	}
	return token.AccessToken, nil
}

type kakaoUser struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email           string `json:"email"`
		IsEmailVerified bool   `json:"is_email_verified"`
		Profile         struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
}

func (k *Kakao) VerifyAndFetch(ctx context.Context, accessToken string) (identity.Assertion, error) {
	body, err := fetchUserInfo(ctx, k.client, k.userInfoURL, accessToken)
	if err != nil {
		return identity.Assertion{}, err
	}

	var user kakaoUser
	if err := json.Unmarshal(body, &user); err != nil {
		return identity.Assertion{}, fmt.Errorf("%w: decode userinfo: %v", ErrUnavailable, err)
	}
	if user.ID == 0 {
		return identity.Assertion{}, fmt.Errorf("%w: userinfo missing subject", ErrInvalidToken)
	}

	assertion := identity.Assertion{
		Provider:   k.Name(),
		ExternalID: strconv.FormatInt(user.ID, 10),
		Nickname:   user.KakaoAccount.Profile.Nickname,
		AvatarURL:  user.KakaoAccount.Profile.ProfileImageURL,
	}
	if email := user.KakaoAccount.Email; email != "" {
		assertion.Email = email
		verified := user.KakaoAccount.IsEmailVerified
		assertion.EmailVerified = &verified
	}
	return assertion, nil
}
