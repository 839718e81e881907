package auth

import (
	"testing"
	"time"

	"task-portal/domain/chat"
	"task-portal/errors"

	"github.com/stretchr/testify/require"
)

func Test_HashPassword_Roundtrip(t *testing.T) {
	req := require.New(t)

	hash, err := HashPassword("Sup3r$ecretPass")
	req.NoError(err)
	req.Contains(hash, "$argon2id$")

	ok, err := ComparePassword("Sup3r$ecretPass", hash)
	req.NoError(err)
	req.True(ok)

	ok, err = ComparePassword("wrong-password", hash)
	req.NoError(err)
	req.False(ok)
}

func Test_ComparePassword_Rejects_Malformed_Hash(t *testing.T) {
	req := require.New(t)

	_, err := ComparePassword("whatever", "not-a-hash")
	req.Error(err)
}

func Test_Token_Roundtrip(t *testing.T) {
	req := require.New(t)
	secret := []byte("test-secret")
	user := chat.User{ID: 42, Name: "Alice", Email: "alice@example.com"}

	token, err := GenerateToken(secret, user, time.Hour)
	req.NoError(err)

	claims, err := ValidateToken(secret, token)
	req.NoError(err)
	req.EqualValues(42, claims.UserID)
	req.Equal("Alice", claims.Name)
	req.Equal("alice@example.com", claims.Email)
}

func Test_Token_Rejected_With_Wrong_Secret(t *testing.T) {
	req := require.New(t)
	user := chat.User{ID: 42}

	token, err := GenerateToken([]byte("secret-a"), user, time.Hour)
	req.NoError(err)

	_, err = ValidateToken([]byte("secret-b"), token)
	req.Error(err)
}

func Test_Token_Expires(t *testing.T) {
	req := require.New(t)
	secret := []byte("test-secret")

	token, err := GenerateToken(secret, chat.User{ID: 1}, -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(secret, token)
	req.Error(err)
}

func Test_ValidateRegister(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateRegister(RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "ComplexPass123!",
	}))

	req.Error(ValidateRegister(RegisterRequest{
		Name: "Alice", Email: "not-an-email", Password: "ComplexPass123!",
	}))

	err := ValidateRegister(RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "alllowercase123456",
	})
	req.ErrorIs(err, errors.ErrInvalidPassword)
}
