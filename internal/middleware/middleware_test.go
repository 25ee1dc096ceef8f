package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, "/chitfund.v1.AuctionService/PlaceBid")

	assert.True(t, rl.Allow("0xaaa"))
	assert.True(t, rl.Allow("0xaaa"))
	assert.False(t, rl.Allow("0xaaa"), "third call inside the burst window must be rejected")

	assert.True(t, rl.Allow("0xbbb"), "members have independent buckets")
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"bearer abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Token abc", "", false},
	}
	for _, tt := range tests {
		token, ok := bearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}
