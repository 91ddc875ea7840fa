// Package ratelimiter provides a fixed-window attempt counter keyed
// by string. It bounds how often an operation may run per key within
// a rolling time window, such as capping token refresh retries.
//
// Usage:
//
//	limiter, err := ratelimiter.New(ratelimiter.Config{
//		Limit:  5,
//		Window: time.Minute,
//	})
//	if err != nil {
//		return err
//	}
//
//	res := limiter.Allow("refresh")
//	if !res.Allowed {
//		return fmt.Errorf("retry after %s", res.RetryAfter())
//	}
//
// The limiter is in-process and safe for concurrent use.
package ratelimiter
