package market

import (
	"time"
)

// Env is the block context an invocation executes under, supplied by the host
type Env struct {
	Height uint64    `json:"height"`
	Time   time.Time `json:"time"`
}

// Expiration marks the point at which a bid or ask stops being honored,
// expressed as a block height or a timestamp. The zero value never expires.
type Expiration struct {
	AtHeight *uint64    `json:"at_height,omitempty" bson:"atHeight,omitempty"`
	AtTime   *time.Time `json:"at_time,omitempty" bson:"atTime,omitempty"`
}

func Never() Expiration {
	return Expiration{}
}

func AtHeight(height uint64) Expiration {
	return Expiration{AtHeight: &height}
}

func AtTime(t time.Time) Expiration {
	return Expiration{AtTime: &t}
}

// IsExpired checks the expiration against the current block. Expiration is
// advisory, there is no active timer; it is evaluated at the moment of use.
func (e Expiration) IsExpired(env Env) bool {
	if e.AtHeight != nil {
		return env.Height >= *e.AtHeight
	}
	if e.AtTime != nil {
		return !env.Time.Before(*e.AtTime)
	}
	return false
}

func (e Expiration) IsNever() bool {
	return e.AtHeight == nil && e.AtTime == nil
}
