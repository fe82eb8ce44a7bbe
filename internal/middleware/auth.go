package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

type authCtxKey int

const authKey authCtxKey = 7

const DefaultCookieName = "devlevel_token"

type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens and carries the cookie
// settings used to hand them to browsers.
type TokenIssuer struct {
	secret     []byte
	cookieName string
	secure     bool
	now        func() time.Time
}

func NewTokenIssuer(secret, cookieName string, secureCookie bool) *TokenIssuer {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &TokenIssuer{secret: []byte(secret), cookieName: cookieName, secure: secureCookie, now: time.Now}
}

// SignToken matches services.TokenSigner.
func (ti *TokenIssuer) SignToken(uid, email string, ttl time.Duration) (string, error) {
	now := ti.now()
	claims := Claims{UID: uid, Email: email, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

func (ti *TokenIssuer) ParseToken(tok string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tok, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(ti.now))
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid && c.UID != "" {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

// tokenFromRequest prefers the Authorization header over the session cookie.
func (ti *TokenIssuer) tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(ti.cookieName); err == nil {
		return c.Value
	}
	return ""
}

// WithAuth attaches claims to the context when the request carries a valid token.
func (ti *TokenIssuer) WithAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := ti.tokenFromRequest(r); tok != "" {
			if c, err := ti.ParseToken(tok); err == nil {
				ctx := context.WithValue(r.Context(), authKey, c)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests that WithAuth did not authenticate.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(authKey).(*Claims); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	if c, ok := ctx.Value(authKey).(*Claims); ok && c.UID != "" {
		return c.UID, true
	}
	return "", false
}

// SetSessionCookie stores token in an HttpOnly cookie living as long as the token.
func (ti *TokenIssuer) SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     ti.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   ti.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (ti *TokenIssuer) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     ti.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   ti.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
