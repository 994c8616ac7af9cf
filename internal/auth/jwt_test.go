package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/skillsphere/skillsphere/internal/models"
)

func TestGenerateAndValidateToken(t *testing.T) {
	InitJWTKey([]byte("test-secret-key"))

	user := &models.User{ID: primitive.NewObjectID(), Name: "Ann", Email: "a@x.com"}

	token, expiresAt, err := GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, time.Minute)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "Ann", claims.Name)

	id, err := GetUserIDFromToken(claims)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
}

func TestGenerateTokenRejectsBadUsers(t *testing.T) {
	InitJWTKey([]byte("test-secret-key"))

	_, _, err := GenerateToken(nil)
	assert.Error(t, err)

	_, _, err = GenerateToken(&models.User{Name: "no id"})
	assert.Error(t, err)
}

func TestValidateTokenWrongKey(t *testing.T) {
	InitJWTKey([]byte("test-secret-key"))

	user := &models.User{ID: primitive.NewObjectID(), Name: "Ann"}
	token, _, err := GenerateToken(user)
	require.NoError(t, err)

	InitJWTKey([]byte("a-different-key"))
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	InitJWTKey([]byte("test-secret-key"))

	claims := &JWTClaims{
		UserID: primitive.NewObjectID().Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret-key"))
	require.NoError(t, err)

	_, err = ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	InitJWTKey([]byte("test-secret-key"))

	_, err := ValidateToken("not.a.token")
	assert.Error(t, err)
}

func TestGetUserIDFromTokenBadClaims(t *testing.T) {
	_, err := GetUserIDFromToken(nil)
	assert.Error(t, err)

	_, err = GetUserIDFromToken(&JWTClaims{UserID: "not-hex"})
	assert.Error(t, err)
}
