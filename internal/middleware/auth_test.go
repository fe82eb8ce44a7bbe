package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func whoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, _ := UserIDFromContext(r.Context())
		_, _ = w.Write([]byte(uid))
	})
}

func TestTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer("secret", "", false)
	tok, err := ti.SignToken("u1", "a@b.co", time.Hour)
	require.NoError(t, err)

	c, err := ti.ParseToken(tok)
	require.NoError(t, err)
	require.Equal(t, "u1", c.UID)
	require.Equal(t, "a@b.co", c.Email)

	other := NewTokenIssuer("different", "", false)
	_, err = other.ParseToken(tok)
	require.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	ti := NewTokenIssuer("secret", "", false)
	issued := time.Now().Add(-2 * time.Hour)
	ti.now = func() time.Time { return issued }
	tok, err := ti.SignToken("u1", "a@b.co", time.Hour)
	require.NoError(t, err)

	ti.now = time.Now
	_, err = ti.ParseToken(tok)
	require.Error(t, err)
}

func TestWithAuthReadsHeaderAndCookie(t *testing.T) {
	ti := NewTokenIssuer("secret", "", false)
	tok, err := ti.SignToken("u42", "x@y.z", time.Hour)
	require.NoError(t, err)
	handler := ti.WithAuth(RequireAuth(whoAmI()))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "u42", res.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: tok})
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)
	require.Equal(t, "u42", res.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestSessionCookieHelpers(t *testing.T) {
	ti := NewTokenIssuer("secret", "sess", true)
	res := httptest.NewRecorder()
	ti.SetSessionCookie(res, "tok", 7*24*time.Hour)
	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "sess", cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	require.True(t, cookies[0].Secure)
	require.Equal(t, 604800, cookies[0].MaxAge)

	res = httptest.NewRecorder()
	ti.ClearSessionCookie(res)
	cookies = res.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "", cookies[0].Value)
	require.True(t, cookies[0].MaxAge < 0)
}
