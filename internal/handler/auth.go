package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/dukerupert/simp/internal/auth"
	"github.com/dukerupert/simp/internal/model"
	"github.com/dukerupert/simp/internal/store"
	"github.com/dukerupert/simp/internal/validate"
)

var conflictMessages = map[string]string{
	"phoneNo":  "A person with this phone number already exists.",
	"username": "A person with this username already exists.",
	"email":    "A person with this email already exists.",
}

// dummyHash is compared against when a login names nobody, so unknown and
// known identifiers take the same time to reject.
var dummyHash = sync.OnceValues(func() (string, error) {
	return auth.HashPassword("no-such-person-password")
})

type AuthHandler struct {
	persons      *store.PersonStore
	lookups      *store.LookupStore
	revocations  *store.RevocationStore
	tokens       *auth.TokenManager
	cookieSecure bool
	logger       *slog.Logger
}

func NewAuthHandler(
	ps *store.PersonStore,
	ls *store.LookupStore,
	rs *store.RevocationStore,
	tokens *auth.TokenManager,
	cookieSecure bool,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		persons:      ps,
		lookups:      ls,
		revocations:  rs,
		tokens:       tokens,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	clean, err := validate.Signup(req)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	ctx := r.Context()
	if clean.Category != "" {
		ok, err := h.lookups.CategoryExists(ctx, clean.Category)
		if err != nil {
			h.internalError(w, "check category", err)
			return
		}
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown category.")
			return
		}
	}
	if clean.Role != "" {
		ok, err := h.lookups.RoleExists(ctx, clean.Role)
		if err != nil {
			h.internalError(w, "check role", err)
			return
		}
		if !ok {
			writeError(w, http.StatusBadRequest, "Unknown role.")
			return
		}
	}

	existing, err := h.persons.GetByPhone(ctx, clean.PhoneNo)
	if err != nil {
		h.internalError(w, "signup lookup", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, conflictMessages["phoneNo"])
		return
	}
	existing, err = h.persons.GetByUsername(ctx, clean.Username)
	if err != nil {
		h.internalError(w, "signup lookup", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, conflictMessages["username"])
		return
	}

	hash, err := auth.HashPassword(clean.Password)
	if err != nil {
		h.internalError(w, "hash password", err)
		return
	}

	person, err := h.persons.Create(ctx, model.NewPerson{
		Name:         clean.Name,
		PhoneNo:      clean.PhoneNo,
		Username:     clean.Username,
		PasswordHash: hash,
		Email:        optional(clean.Email),
		Category:     optional(clean.Category),
		Role:         optional(clean.Role),
	})
	if err != nil {
		var ce *store.ConflictError
		if errors.As(err, &ce) {
			msg, ok := conflictMessages[ce.Column]
			if !ok {
				msg = "A person with conflicting unique data already exists."
			}
			writeError(w, http.StatusConflict, msg)
			return
		}
		h.internalError(w, "create person", err)
		return
	}

	h.logger.Info("person registered", "person_id", person.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "This person is registered successfully!",
		"person":  person,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	clean, err := validate.Login(req)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	ctx := r.Context()
	person, err := h.persons.GetByUsername(ctx, strings.ToLower(clean.Identifier))
	if err != nil {
		h.internalError(w, "login lookup", err)
		return
	}
	if person == nil {
		if phone, ok := validate.PhoneCandidate(clean.Identifier); ok {
			if person, err = h.persons.GetByPhone(ctx, phone); err != nil {
				h.internalError(w, "login lookup", err)
				return
			}
		}
	}

	var hash string
	if person != nil {
		hash = person.PasswordHash
	} else if hash, err = dummyHash(); err != nil {
		h.logger.Error("dummy password hash", "error", err)
	}
	err = auth.CheckPassword(hash, clean.Password)
	if person == nil || errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	}
	if err != nil {
		h.internalError(w, "check password", err)
		return
	}

	token, claims, err := h.tokens.Issue(auth.Claims{PersonID: person.ID, Username: person.Username})
	if err != nil {
		h.internalError(w, "issue token", err)
		return
	}
	cookieValue, err := h.tokens.CookieValue(token)
	if err != nil {
		h.internalError(w, "seal cookie", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    cookieValue,
		Path:     "/",
		Expires:  claims.ExpiresAt.Time,
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful!",
		"token":   token,
		"person":  person,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	person, err := h.persons.GetByID(r.Context(), auth.PersonID(r.Context()))
	if err != nil {
		h.internalError(w, "get profile", err)
		return
	}
	if person == nil {
		writeError(w, http.StatusUnauthorized, "Person not found.")
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// Logout revokes the presented token until it would have expired and
// clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, auth.ErrMissingToken.Error())
		return
	}

	if err := h.revocations.Revoke(r.Context(), ac.TokenID, ac.ExpiresAt); err != nil {
		h.internalError(w, "revoke token", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AuthHandler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, "error", err)
	writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
