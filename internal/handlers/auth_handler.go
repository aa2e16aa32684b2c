package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"palabritas/internal/models"
	"palabritas/internal/security"
	"palabritas/internal/service"
)

const oauthStateCookieName = "oauth_state"

// AuthHandler serves registration, login and OAuth sign-in.
type AuthHandler struct {
	authService *service.AuthService
	googleOAuth *oauth2.Config
	userInfoURL string
}

// NewAuthHandler creates a new auth handler. googleOAuth may be nil when
// OAuth sign-in is not configured.
func NewAuthHandler(authService *service.AuthService, googleOAuth *oauth2.Config, userInfoURL string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		googleOAuth: googleOAuth,
		userInfoURL: userInfoURL,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		respondError(w, http.StatusBadRequest, "role must be tutor or docente", err)
		return
	}
	if role == models.RoleAdmin {
		respondError(w, http.StatusForbidden, "admin accounts cannot self-register", nil)
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name, role)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, userResponse(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, session, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, sessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusOK, map[string]any{
		"user":  userResponse(user),
		"token": token,
	})
}

type studentLoginRequest struct {
	AccessCode string `json:"accessCode"`
}

// StudentLogin handles POST /api/auth/student.
func (h *AuthHandler) StudentLogin(w http.ResponseWriter, r *http.Request) {
	var req studentLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	student, session, err := h.authService.StudentLogin(r.Context(), req.AccessCode)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, sessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusOK, studentResponse(*student))
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			respondError(w, http.StatusInternalServerError, "failed to log out", err)
			return
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, sessionCookieName))
	respondJSON(w, http.StatusNoContent, nil)
}

// StartOAuth handles GET /api/auth/google: redirects to the consent page.
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuth == nil {
		respondError(w, http.StatusNotFound, "oauth sign-in is not configured", nil)
		return
	}

	state := security.GenerateSessionID()
	http.SetCookie(w, security.CreateSessionCookie(r, oauthStateCookieName, state, time.Now().Add(10*time.Minute)))
	http.Redirect(w, r, h.googleOAuth.AuthCodeURL(state), http.StatusSeeOther)
}

// OAuthCallback handles GET /api/auth/google/callback.
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	if h.googleOAuth == nil {
		respondError(w, http.StatusNotFound, "oauth sign-in is not configured", nil)
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		respondError(w, http.StatusBadRequest, "invalid oauth state", err)
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, oauthStateCookieName))

	token, err := h.googleOAuth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		respondError(w, http.StatusBadGateway, "oauth exchange failed", err)
		return
	}

	email, name, err := h.fetchUserInfo(r.Context(), token)
	if err != nil {
		respondError(w, http.StatusBadGateway, "failed to fetch user info", err)
		return
	}

	user, session, bearer, err := h.authService.LoginWithOAuth(r.Context(), email, name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, sessionCookieName, session.ID, session.ExpiresAt))
	respondJSON(w, http.StatusOK, map[string]any{
		"user":  userResponse(user),
		"token": bearer,
	})
}

func (h *AuthHandler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (email, name string, err error) {
	resp, err := h.googleOAuth.Client(ctx, token).Get(h.userInfoURL)
	if err != nil {
		return "", "", fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("userinfo request failed: status %d", resp.StatusCode)
	}

	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return "", "", fmt.Errorf("failed to decode userinfo: %w", err)
	}
	return info.Email, info.Name, nil
}

func userResponse(u *models.User) map[string]any {
	return map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
		"role":  string(u.Role),
	}
}
