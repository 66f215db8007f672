package redis

import "errors"

// Connection and readiness errors returned by Connect and Healthcheck.
var (
	ErrEmptyConnectionURL           = errors.New("redis: connection URL is empty")
	ErrFailedToParseRedisConnString = errors.New("redis: cannot parse connection string")
	ErrRedisNotReady                = errors.New("redis: not ready before the retry budget ran out")
	ErrHealthcheckFailed            = errors.New("redis: healthcheck ping failed")
)
