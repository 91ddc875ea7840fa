// Package redis wraps the go-redis client with a retrying connector and a
// healthcheck helper. The token package's RedisStore uses a client produced
// here to persist rotated refresh tokens across restarts.
package redis
