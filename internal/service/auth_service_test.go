package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidateSession(t *testing.T) {
	svc := NewAuthService()

	resp, err := svc.IssueSession("Ada")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, strings.HasPrefix(resp.UserID, "user_"))

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
	assert.Equal(t, "Ada", claims.DisplayName)
}

func TestIssueSessionRequiresDisplayName(t *testing.T) {
	svc := NewAuthService()

	_, err := svc.IssueSession("   ")
	assert.ErrorIs(t, err, ErrDisplayNameMissing)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService()

	_, err := svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc := NewAuthService()
	foreign := &AuthService{jwtSecret: []byte("some-other-secret")}

	resp, err := foreign.IssueSession("Mallory")
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
