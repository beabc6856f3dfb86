package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpirationIsExpired(t *testing.T) {
	now := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	env := Env{Height: 150, Time: now}

	cases := []struct {
		name    string
		exp     Expiration
		expired bool
	}{
		{"never", Never(), false},
		{"height in the future", AtHeight(151), false},
		{"height equal to current block", AtHeight(150), true},
		{"height already passed", AtHeight(100), true},
		{"time in the future", AtTime(now.Add(time.Second)), false},
		{"time equal to block time", AtTime(now), true},
		{"time already passed", AtTime(now.Add(-time.Hour)), true},
	}
	for _, c := range cases {
		assert.Equal(t, c.expired, c.exp.IsExpired(env), c.name)
	}
}

func TestExpirationIsNever(t *testing.T) {
	assert.True(t, Never().IsNever())
	assert.False(t, AtHeight(1).IsNever())
	assert.False(t, AtTime(time.Now()).IsNever())
}
