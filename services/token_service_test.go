package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/services"
	"github.com/rogpool/pool-service-api/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueVerify(t *testing.T) {
	clock := testutil.NewClock()
	tokens := testutil.NewTokenService(clock.Now)

	token, err := tokens.Issue("employee1", models.RoleEmployee)
	require.NoError(t, err)

	identity, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "employee1", identity.Username)
	assert.Equal(t, models.RoleEmployee, identity.Role)
}

func TestTokenService_ExpiresAfter24Hours(t *testing.T) {
	clock := testutil.NewClock()
	tokens := testutil.NewTokenService(clock.Now)

	token, err := tokens.Issue("admin", models.RoleAdministrator)
	require.NoError(t, err)

	clock.Advance(services.TokenTTL - time.Minute)
	_, err = tokens.Verify(token)
	assert.NoError(t, err, "token should still be valid just before expiry")

	clock.Advance(2 * time.Minute)
	_, err = tokens.Verify(token)
	assert.True(t, errors.Is(err, services.ErrUnauthorized), "expired token should be unauthorized")
}

func TestTokenService_SubSecondIssueLastsFull24Hours(t *testing.T) {
	clock := testutil.NewClock()
	clock.Advance(900 * time.Millisecond)
	tokens := testutil.NewTokenService(clock.Now)

	token, err := tokens.Issue("admin", models.RoleAdministrator)
	require.NoError(t, err)

	clock.Advance(services.TokenTTL - 500*time.Millisecond)
	_, err = tokens.Verify(token)
	assert.NoError(t, err, "token should be valid half a second before 24h")

	clock.Advance(700 * time.Millisecond)
	_, err = tokens.Verify(token)
	assert.True(t, errors.Is(err, services.ErrUnauthorized), "token should lapse once 24h have passed")
}

func TestTokenService_Rejects(t *testing.T) {
	clock := testutil.NewClock()
	tokens := testutil.NewTokenService(clock.Now)
	other := services.NewTokenService("a-completely-different-secret", clock.Now)

	foreign, err := other.Issue("admin", models.RoleAdministrator)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  "admin",
		"role": "administrator",
		"exp":  clock.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin",
		"role": "administrator",
	}).SignedString([]byte(testutil.TestJWTSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "not-a-token"},
		{"empty", ""},
		{"bad signature", foreign},
		{"none algorithm", unsigned},
		{"missing expiry", noExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tokens.Verify(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, services.ErrUnauthorized)

			var svcErr *services.Error
			require.True(t, errors.As(err, &svcErr))
			assert.Equal(t, "INVALID_TOKEN", svcErr.Code)
		})
	}
}
