package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestGenerateAndVerifyAccessToken(t *testing.T) {
	key := testKey(t)
	gen := NewGenerator(key, "carp", "carp-users", "k1", time.Hour)
	ver := NewVerifier(&key.PublicKey, "carp", "carp-users")

	issued, err := gen.GenerateAccessToken(42, "ada@example.com", RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.JTI)

	claims, err := ver.VerifyAccessToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, issued.JTI, claims.ID)
	assert.True(t, claims.IsAdmin())
}

func TestVerifyRejectsForeignIssuerAndAudience(t *testing.T) {
	key := testKey(t)

	issued, err := NewGenerator(key, "other", "carp-users", "", time.Hour).GenerateAccessToken(1, "", RoleUser)
	require.NoError(t, err)
	_, err = NewVerifier(&key.PublicKey, "carp", "carp-users").Verify(issued.Token)
	assert.Error(t, err)

	issued, err = NewGenerator(key, "carp", "someone-else", "", time.Hour).GenerateAccessToken(1, "", RoleUser)
	require.NoError(t, err)
	_, err = NewVerifier(&key.PublicKey, "carp", "carp-users").Verify(issued.Token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	key := testKey(t)
	gen := NewGenerator(key, "carp", "carp-users", "", time.Minute)
	gen.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	issued, err := gen.GenerateAccessToken(1, "", RoleUser)
	require.NoError(t, err)

	_, err = NewVerifier(&key.PublicKey, "carp", "carp-users").VerifyAccessToken(issued.Token)
	assert.Error(t, err)
}

func TestVerifyRejectsOtherKey(t *testing.T) {
	issued, err := NewGenerator(testKey(t), "carp", "carp-users", "", time.Hour).GenerateAccessToken(1, "", RoleUser)
	require.NoError(t, err)

	other := testKey(t)
	_, err = NewVerifier(&other.PublicKey, "carp", "carp-users").Verify(issued.Token)
	assert.Error(t, err)
}

func TestLoadAndBuild(t *testing.T) {
	key := testKey(t)
	dir := t.TempDir()

	privPath := filepath.Join(dir, "jwt_private.pem")
	pubPath := filepath.Join(dir, "jwt_public.pem")

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}), 0o600))

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o644))

	mgr, err := LoadAndBuild(Config{PrivPath: privPath, PubPath: pubPath, Issuer: "carp", Audience: "carp-users", TTL: time.Hour})
	require.NoError(t, err)

	issued, err := mgr.Generator.GenerateAccessToken(9, "", RoleUser)
	require.NoError(t, err)
	claims, err := mgr.Verifier.VerifyAccessToken(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.UserID)

	_, err = LoadAndBuild(Config{PrivPath: filepath.Join(dir, "missing.pem"), PubPath: pubPath})
	assert.Error(t, err)
}
