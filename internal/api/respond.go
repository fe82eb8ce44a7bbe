package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/soaringjerry/devlevel/internal/middleware"
	"github.com/soaringjerry/devlevel/internal/services"
	"github.com/soaringjerry/devlevel/internal/utils"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorTooManyRequests:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// writeError maps service errors to their status and translates the message
// for the request locale. Anything else is logged and reported as a 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	if se, ok := services.AsServiceError(err); ok {
		writeJSON(w, statusFor(se.Code), errorBody{Error: utils.T(locale, se.Message), Code: string(se.Code)})
		return
	}
	if logger != nil {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: utils.T(locale, "internal error"), Code: "internal"})
}

// decodeJSON reads a single JSON object, refusing unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return services.NewInvalidError("invalid json")
	}
	return nil
}
