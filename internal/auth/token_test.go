// internal/auth/token_test.go
package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	require.NoError(t, Init())

	id := uuid.New().String()
	token, err := CreateToken(id)
	require.NoError(t, err)

	sub, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, sub)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	require.NoError(t, Init())

	_, err := ParseToken("not-a-jwt")
	assert.Error(t, err)
}

func TestParseTokenRejectsForeignKey(t *testing.T) {
	require.NoError(t, Init())
	token, err := CreateToken(uuid.New().String())
	require.NoError(t, err)

	// Rotating the key pair invalidates everything signed before it.
	require.NoError(t, Init())
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestEnsureGuestIDMintsCookie(t *testing.T) {
	require.NoError(t, Init())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)

	id, err := EnsureGuestID(w, r)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, "player_token", cookie.Name)
	assert.True(t, cookie.HttpOnly)

	sub, err := ParseToken(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, id.String(), sub)
}

func TestEnsureGuestIDKeepsExistingIdentity(t *testing.T) {
	require.NoError(t, Init())

	id := uuid.New()
	token, err := CreateToken(id.String())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.AddCookie(&http.Cookie{Name: "player_token", Value: token})

	got, err := EnsureGuestID(w, r)
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Empty(t, w.Result().Cookies(), "no new cookie when the old identity is valid")
}

func TestEnsureGuestIDReplacesInvalidCookie(t *testing.T) {
	require.NoError(t, Init())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.AddCookie(&http.Cookie{Name: "player_token", Value: "tampered"})

	id, err := EnsureGuestID(w, r)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	require.Len(t, w.Result().Cookies(), 1)
}
