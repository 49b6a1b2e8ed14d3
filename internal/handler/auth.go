package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/templui/stash/internal/ctxkeys"
	"github.com/templui/stash/internal/service"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	authService *service.AuthService
	appURL      string
}

func NewAuthHandler(authService *service.AuthService, appURL string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		appURL:      appURL,
	}
}

// GoogleAuth redirects the user to the Google consent screen
func (h *AuthHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	state := generateOAuthState()

	cfg := ctxkeys.Config(r.Context())
	isProduction := cfg != nil && cfg.IsProduction()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   isProduction, // Secure flag based on APP_ENV (safer than r.TLS behind load balancers)
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	http.Redirect(w, r, h.authService.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback completes the browser flow: it checks state, signs the
// account in, sets the session cookie and hands the token to the front end.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*requestTimeout)
	defer cancel()

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value != state || state == "" {
		slog.Warn("google oauth state validation failed", "error", err)
		respondWithError(w, http.StatusUnauthorized, "oauth state mismatch, please sign in again")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("google oauth callback missing code")
		respondWithError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	account, token, err := h.authService.AuthenticateCode(ctx, code)
	if err != nil {
		slog.Error("google oauth sign-in failed", "error", err)
		respondWithServiceError(w, err)
		return
	}

	h.authService.SetJWTCookie(w, token, h.authService.TokenExpiry())
	slog.Info("account logged in with google oauth", "account_id", account.ID)

	http.Redirect(w, r, h.appURL+"/?token="+url.QueryEscape(token), http.StatusSeeOther)
}

type tokenRequest struct {
	Code string `json:"code"`
}

type tokenResponse struct {
	AccountID string `json:"account_id"`
	Token     string `json:"token"`
}

// Token exchanges an authorization code for a session token. Used by
// clients that run the consent flow themselves.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*requestTimeout)
	defer cancel()

	var req tokenRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	account, token, err := h.authService.AuthenticateCode(ctx, req.Code)
	if err != nil {
		slog.Warn("token exchange failed", "error", err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, tokenResponse{AccountID: account.ID, Token: token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// generateOAuthState creates cryptographically secure random state token for OAuth CSRF protection
func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
