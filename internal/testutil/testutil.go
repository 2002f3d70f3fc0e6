// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

// SessionToken returns a JWT-shaped session token for userID that expires in an hour.
func SessionToken(t testing.TB, userID string) string {
	t.Helper()
	return signedToken(t, userID, time.Now().Add(time.Hour))
}

// ExpiredSessionToken returns a token for userID that expired an hour ago.
func ExpiredSessionToken(t testing.TB, userID string) string {
	t.Helper()
	return signedToken(t, userID, time.Now().Add(-time.Hour))
}

func signedToken(t testing.TB, userID string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := token.SignedString([]byte("instaflan-test"))
	require.NoError(t, err)
	return s
}
