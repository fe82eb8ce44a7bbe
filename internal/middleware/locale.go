package middleware

import (
	"context"
	"net/http"

	"github.com/soaringjerry/devlevel/internal/utils"
)

type ctxKey int

const localeKey ctxKey = 1

// LocaleMiddleware extracts locale from query param (lang) or Accept-Language
// and stores it in request context.
func LocaleMiddleware(def string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			locale := utils.DetermineLocale(r.URL.Query().Get("lang"), r.Header.Get("Accept-Language"), utils.SupportedLocales, def)
			ctx := context.WithValue(r.Context(), localeKey, locale)
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LocaleFromContext retrieves the locale stored by LocaleMiddleware.
func LocaleFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(localeKey).(string); ok {
		return s
	}
	return "en"
}
