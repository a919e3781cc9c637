package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scrawl-party/scrawl/internal/auth"
	"github.com/scrawl-party/scrawl/internal/models"
	"github.com/scrawl-party/scrawl/internal/records"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

// CreateUser handles POST /user/create: registers an account and sets a
// session cookie.
func (a *API) CreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		a.Log.WithError(err).Error("hash password")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	user := models.User{Email: req.Email, Name: req.Name, PasswordHash: hash}
	if err := a.Records.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, records.ErrEmailTaken) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		a.Log.WithError(err).Error("create user")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	a.setSessionCookie(w, user.ID.String())
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /user/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	user, err := a.Records.FindUserByEmail(r.Context(), req.Email)
	if errors.Is(err, records.ErrNotFound) {
		http.Error(w, "invalid credentials", http.StatusForbidden)
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("find user")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		http.Error(w, "invalid credentials", http.StatusForbidden)
		return
	}

	a.setSessionCookie(w, user.ID.String())
	writeJSON(w, http.StatusOK, user)
}

// CurrentUser handles GET /user: the account behind the session cookie.
func (a *API) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, err := userFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := a.Records.GetUserByID(r.Context(), userID)
	if errors.Is(err, records.ErrNotFound) {
		// A token for a deleted account is as good as no token.
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("get user")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) setSessionCookie(w http.ResponseWriter, userID string) {
	token, err := auth.CreateToken(userID)
	if err != nil {
		a.Log.WithError(err).Error("create session token")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
}
