package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// fetchUserInfo GETs a userinfo endpoint with a bearer token and maps
// HTTP failures onto the provider sentinels: the provider rejecting
// the token is ErrInvalidToken, everything that might succeed on retry
// is ErrUnavailable.
func fetchUserInfo(ctx context.Context, client *http.Client, url, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: userinfo returned %d", ErrInvalidToken, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: userinfo returned %d", ErrUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: userinfo returned %d", ErrInvalidToken, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read userinfo: %v", ErrUnavailable, err)
	}
	return body, nil
}
