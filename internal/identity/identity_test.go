package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey_Deterministic(t *testing.T) {
	a := Key("ancient-molten-giant-2943", "secret")
	b := Key("ancient-molten-giant-2943", "secret")

	assert.Equal(t, a, b)
	assert.Len(t, a, KeyLength)
}

func TestKey_InputsChangeDigest(t *testing.T) {
	base := Key("user", "token")

	tests := []struct {
		name     string
		username string
		token    string
	}{
		{"different username", "user2", "token"},
		{"different token", "user", "token2"},
		{"shifted boundary", "usert", "oken"},
		{"empty token", "user", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, Key(tt.username, tt.token))
		})
	}
}

func TestIdentity_StringRedactsToken(t *testing.T) {
	id := Identity{Username: "alice", Token: "hunter2"}

	s := id.String()
	assert.False(t, strings.Contains(s, "hunter2"))
	assert.Contains(t, s, "alice")
	assert.Contains(t, s, ShortKey(id.Key()))
}

func TestShortKey(t *testing.T) {
	assert.Equal(t, "abc", ShortKey("abc"))
	assert.Equal(t, "0123456789ab", ShortKey("0123456789abcdef"))
}
