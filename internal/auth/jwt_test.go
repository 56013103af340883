package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")
	orgID := uuid.New().String()

	token, err := GenerateToken(orgID)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, orgID, claims.OrganizationID)
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateToken(uuid.New().String())
	require.NoError(t, err)

	SetSecret("another-secret")
	_, err = ValidateToken(token)
	require.Error(t, err)
}

func TestGenerateWithoutSecret(t *testing.T) {
	SetSecret("")
	JWTSecret = nil

	_, err := GenerateToken(uuid.New().String())
	require.Error(t, err)
}
