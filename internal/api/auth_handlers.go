package api

import (
	"net/http"

	"github.com/soaringjerry/devlevel/internal/services"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse also returns the token for clients that cannot use cookies.
type authResponse struct {
	User  *services.User `json:"user"`
	Token string         `json:"token"`
}

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	res, err := rt.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	rt.logger.Info("user registered", "user", res.User.ID)
	rt.tokens.SetSessionCookie(w, res.Token, rt.auth.TokenTTL())
	writeJSON(w, http.StatusCreated, authResponse{User: res.User, Token: res.Token})
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	res, err := rt.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	rt.tokens.SetSessionCookie(w, res.Token, rt.auth.TokenTTL())
	writeJSON(w, http.StatusOK, authResponse{User: res.User, Token: res.Token})
}

func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	rt.tokens.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := rt.auth.Me(r.Context(), userID(r))
	if err != nil {
		writeError(w, r, rt.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*services.User{"user": u})
}
