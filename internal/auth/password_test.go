package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordService_HashAndVerify(t *testing.T) {
	s := NewPasswordServiceWithCost(bcrypt.MinCost)

	hash, err := s.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	require.NoError(t, s.VerifyPassword(hash, "correct horse"))
	require.Error(t, s.VerifyPassword(hash, "wrong horse"))
}

func TestPasswordService_Salted(t *testing.T) {
	s := NewPasswordServiceWithCost(bcrypt.MinCost)

	first, err := s.HashPassword("same-password")
	require.NoError(t, err)
	second, err := s.HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPasswordService_Empty(t *testing.T) {
	_, err := NewPasswordService().HashPassword("")
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestIsValidPassword(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"", false},
		{"p", true},
		{"pw", true},
		{strings.Repeat("x", 72), true},
		{strings.Repeat("x", 73), false},
	}
	for _, tt := range tests {
		err := IsValidPassword(tt.password)
		if tt.valid {
			assert.NoError(t, err, tt.password)
		} else {
			assert.ErrorIs(t, err, ErrInvalidPassword, tt.password)
		}
	}
}

func TestIsValidUsername(t *testing.T) {
	for _, name := range []string{"alice", "Bob_99", "first.last", "a-b"} {
		assert.NoError(t, IsValidUsername(name), name)
	}
	for _, name := range []string{"", "github:123", "with space", strings.Repeat("a", 65), "ünï"} {
		assert.ErrorIs(t, IsValidUsername(name), ErrInvalidUsername, name)
	}
}
