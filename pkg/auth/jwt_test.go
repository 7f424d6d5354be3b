package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medpal/assist-api/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService(JWTConfig{Secret: "test-secret", ExpiryHours: 1})

	user := &model.User{
		Base:  model.Base{ID: uuid.New()},
		Email: "doctor@example.com",
		Name:  "Dr. Rivera",
	}

	token, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "doctor@example.com", claims.Email)
	assert.Equal(t, "Dr. Rivera", claims.Name)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	signer := NewJWTService(JWTConfig{Secret: "secret-a", ExpiryHours: 1})
	verifier := NewJWTService(JWTConfig{Secret: "secret-b", ExpiryHours: 1})

	token, err := signer.GenerateAccessToken(&model.User{
		Base:  model.Base{ID: uuid.New()},
		Email: "doctor@example.com",
	})
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenMalformed(t *testing.T) {
	svc := NewJWTService(JWTConfig{Secret: "test-secret", ExpiryHours: 1})

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	svc := &jwtService{secret: []byte("test-secret"), expiry: -time.Hour}

	token, err := svc.GenerateAccessToken(&model.User{
		Base:  model.Base{ID: uuid.New()},
		Email: "doctor@example.com",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
