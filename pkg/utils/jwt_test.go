package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskpilot/internal/common/models"
)

func TestGenerateAndValidateToken(t *testing.T) {
	SetSecret("test-secret")

	userID := primitive.NewObjectID()
	token, err := GenerateToken(userID, models.RoleManager)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.Hex(), claims.UserID)
	assert.Equal(t, models.RoleManager, claims.Role)

	// Expiry should be roughly seven days out.
	remaining := time.Until(claims.ExpiresAt.Time)
	assert.Greater(t, remaining, 6*24*time.Hour)
	assert.LessOrEqual(t, remaining, 7*24*time.Hour)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	SetSecret("test-secret")

	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	SetSecret("secret-a")
	token, err := GenerateToken(primitive.NewObjectID(), models.RoleAdmin)
	require.NoError(t, err)

	SetSecret("secret-b")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	SetSecret("test-secret")

	claims := UserClaims{
		UserID: primitive.NewObjectID().Hex(),
		Role:   models.RoleTeamMember,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-8 * 24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ValidateToken(signed)
	assert.Error(t, err)
}
