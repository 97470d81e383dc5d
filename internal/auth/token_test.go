package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCodec(t *testing.T, clk *fakeClock) Codec {
	t.Helper()
	c, err := NewCodec("test-secret", time.Hour, 24*time.Hour, WithClock(clk.Now))
	require.NoError(t, err)
	return c
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	tok, err := c.Issue(Principal{UserID: 7, Username: "alice", Role: "APPLICANT"}, Access)
	require.NoError(t, err)

	claims, err := c.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "APPLICANT", claims.Role)
	assert.Equal(t, Access, claims.TokenType)
	assert.Equal(t, Principal{UserID: 7, Username: "alice", Role: "APPLICANT"}, claims.Principal())
}

func TestVerifyExpired(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	tok, err := c.Issue(Principal{UserID: 1, Username: "bob", Role: "EMPLOYER"}, Access)
	require.NoError(t, err)

	clk.Advance(time.Hour + time.Second)
	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRefreshLivesLonger(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	tok, err := c.Issue(Principal{UserID: 1, Username: "bob", Role: "EMPLOYER"}, Refresh)
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	claims, err := c.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, Refresh, claims.TokenType)
}

func TestVerifyBadSignature(t *testing.T) {
	clk := &fakeClock{t: time.Now()}
	c := newTestCodec(t, clk)
	other, err := NewCodec("other-secret", time.Hour, time.Hour, WithClock(clk.Now))
	require.NoError(t, err)

	tok, err := other.Issue(Principal{UserID: 1, Username: "mallory", Role: "ADMIN"}, Access)
	require.NoError(t, err)

	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyBadSignatureWinsOverExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)
	other, err := NewCodec("other-secret", time.Minute, time.Minute, WithClock(clk.Now))
	require.NoError(t, err)

	tok, err := other.Issue(Principal{UserID: 1, Username: "mallory"}, Access)
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyMalformed(t *testing.T) {
	c := newTestCodec(t, &fakeClock{t: time.Now()})

	for _, raw := range []string{"", "abc", "a.b.c", strings.Repeat("x", 20) + ".y"} {
		_, err := c.Verify(raw)
		assert.ErrorIs(t, err, ErrMalformed, raw)
	}
}

func TestIsNearExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	tok, err := c.Issue(Principal{UserID: 1, Username: "alice"}, Access)
	require.NoError(t, err)

	assert.False(t, c.IsNearExpiry(tok, 0))

	clk.Advance(55 * time.Minute)
	assert.True(t, c.IsNearExpiry(tok, 0))

	left, err := c.Remaining(tok)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, left)

	clk.Advance(10 * time.Minute)
	assert.False(t, c.IsNearExpiry(tok, 0), "expired tokens are not refreshable")
}

func TestNewCodecRequiresSecret(t *testing.T) {
	_, err := NewCodec("", time.Hour, time.Hour)
	assert.Error(t, err)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	clk := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCodec(t, clk)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory",
			ExpiresAt: jwt.NewNumericDate(clk.Now().Add(time.Hour)),
		},
		UserID:    1,
		Role:      "ADMIN",
		TokenType: Access,
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	enc := base64.RawURLEncoding
	unknown := enc.EncodeToString([]byte(`{"alg":"XX99","typ":"JWT"}`)) + "." +
		enc.EncodeToString([]byte(`{"sub":"mallory"}`)) + "." + enc.EncodeToString([]byte("sig"))

	for name, tok := range map[string]string{"none": none, "HS512": hs512, "unknown": unknown} {
		_, err := c.Verify(tok)
		assert.ErrorIs(t, err, ErrUnsupported, name)
	}
}
