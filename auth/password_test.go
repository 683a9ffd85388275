package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword_Produces_Verifiable_Hash(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("correct horse battery")
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := VerifyPassword("correct horse battery", hash)
	req.NoError(err)
	req.True(match)
}

func TestVerifyPassword_Rejects_Wrong_Password(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("correct horse battery")
	req.NoError(err)

	match, err := VerifyPassword("incorrect horse", hash)
	req.NoError(err)
	req.False(match)
}

func TestHashPassword_Salts_Each_Hash(t *testing.T) {
	req := require.New(t)

	first, err := HashPassword("same password")
	req.NoError(err)
	second, err := HashPassword("same password")
	req.NoError(err)

	req.NotEqual(first, second)
}

func TestVerifyPassword_Rejects_Malformed_Hash(t *testing.T) {
	req := require.New(t)

	for _, malformed := range []string{"", "plaintext", "$argon2id$broken"} {
		_, err := VerifyPassword("anything", malformed)
		req.Error(err)
	}
}
