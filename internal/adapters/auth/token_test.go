package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue("user-123", "u@example.com", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*jwtClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "u@example.com", claims.Email)
}

const testOrganizerID = "0b9e4c1a-7d2f-4e8b-9a6c-3f5d1e2b4a70"

func TestJWTVerifier_Verify(t *testing.T) {
	const secret = "test-secret"
	issuer := NewJWTIssuer(secret)
	verifier := NewJWTVerifier(secret)

	valid, err := issuer.Issue(testOrganizerID, "u@example.com", time.Hour)
	require.NoError(t, err)

	expiredIssuer := &jwtIssuer{secret: []byte(secret), now: func() time.Time { return time.Now().Add(-2 * time.Hour) }}
	expired, err := expiredIssuer.Issue(testOrganizerID, "u@example.com", time.Hour)
	require.NoError(t, err)

	foreign, err := NewJWTIssuer("other-secret").Issue(testOrganizerID, "u@example.com", time.Hour)
	require.NoError(t, err)

	noSubject, err := issuer.Issue("", "u@example.com", time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   testOrganizerID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	nonUUIDSubject, err := issuer.Issue("dev-organizer", "u@example.com", time.Hour)
	require.NoError(t, err)

	upperSubject, err := issuer.Issue(strings.ToUpper(testOrganizerID), "u@example.com", time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: testOrganizerID},
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantID  string
		wantErr bool
	}{
		{name: "valid", token: valid, wantID: testOrganizerID},
		{name: "expired", token: expired, wantErr: true},
		{name: "wrong secret", token: foreign, wantErr: true},
		{name: "missing subject", token: noSubject, wantErr: true},
		{name: "subject not a uuid", token: nonUUIDSubject, wantErr: true},
		{name: "uppercase uuid subject is canonicalized", token: upperSubject, wantID: testOrganizerID},
		{name: "alg none", token: none, wantErr: true},
		{name: "no expiry", token: noExpiry, wantErr: true},
		{name: "garbage", token: "not.a.jwt", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := verifier.Verify(tt.token)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidToken)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got)
		})
	}
}
