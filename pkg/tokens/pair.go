package tokens

import "time"

// Pair is one issued session: a short-lived self-verifying access
// token and an opaque single-use refresh token.
type Pair struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	IssuedAt        time.Time `json:"issued_at"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}
