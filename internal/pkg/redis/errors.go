package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

// ErrNil is returned by Get for a missing key
var ErrNil = redis.Nil

// IsNil reports a missing key
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
