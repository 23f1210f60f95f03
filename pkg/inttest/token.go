package inttest

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/kubervise/kubervise-manager/pkg/model"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"
)

// GenerateKey generates the key access tokens are signed with.
func GenerateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "failed to generate RSA key")
	return key
}

// AccessToken returns an RS256 signed access token for given user valid for an hour, the way the
// identity provider issues them.
func AccessToken(t *testing.T, key *rsa.PrivateKey, user *model.User) string {
	t.Helper()

	now := time.Now()
	token, err := jwt.NewBuilder().
		IssuedAt(now).
		Expiration(now.Add(time.Hour)).
		Claim("user", user).
		Build()
	require.NoError(t, err, "failed to build access token")

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, key))
	require.NoError(t, err, "failed to sign access token")
	return string(signed)
}
