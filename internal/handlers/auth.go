package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/motorpool/apiserver/internal/auth"
	"github.com/motorpool/apiserver/internal/services"
	"github.com/motorpool/apiserver/types"
)

const (
	minPasswordLength = 6
	maxNameLength     = 100
	maxEmailLength    = 254
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AuthPipeline is the account workflow behind the auth routes.
type AuthPipeline interface {
	Register(ctx context.Context, in services.RegisterInput, role types.Role) services.Result[types.User]
	Login(ctx context.Context, email, password string) services.Result[types.User]
	WhoAmI(ctx context.Context, principal auth.Principal) services.Result[types.UserSummary]
}

// Status tables for auth routes. Every services.ErrorKind must appear in
// each of them.
var (
	registerStatus = map[services.ErrorKind]int{
		services.ErrorEmailAlreadyExists: http.StatusConflict,
		services.ErrorUserNotFound:       http.StatusInternalServerError,
		services.ErrorInvalidCredentials: http.StatusInternalServerError,
		services.ErrorInactiveAccount:    http.StatusInternalServerError,
		services.ErrorUnauthorized:       http.StatusUnauthorized,
		services.ErrorInvalidPassword:    http.StatusBadRequest,
		services.ErrorInfrastructure:     http.StatusInternalServerError,
	}

	loginStatus = map[services.ErrorKind]int{
		services.ErrorEmailAlreadyExists: http.StatusInternalServerError,
		services.ErrorUserNotFound:       http.StatusUnauthorized,
		services.ErrorInvalidCredentials: http.StatusUnauthorized,
		services.ErrorInactiveAccount:    http.StatusForbidden,
		services.ErrorUnauthorized:       http.StatusUnauthorized,
		services.ErrorInvalidPassword:    http.StatusBadRequest,
		services.ErrorInfrastructure:     http.StatusInternalServerError,
	}

	meStatus = map[services.ErrorKind]int{
		services.ErrorEmailAlreadyExists: http.StatusInternalServerError,
		services.ErrorUserNotFound:       http.StatusNotFound,
		services.ErrorInvalidCredentials: http.StatusUnauthorized,
		services.ErrorInactiveAccount:    http.StatusForbidden,
		services.ErrorUnauthorized:       http.StatusUnauthorized,
		services.ErrorInvalidPassword:    http.StatusBadRequest,
		services.ErrorInfrastructure:     http.StatusInternalServerError,
	}
)

// AuthHandler provides registration, login and identity endpoints.
type AuthHandler struct {
	pipeline      AuthPipeline
	secureCookies bool
}

func NewAuthHandler(pipeline AuthPipeline, secureCookies bool) *AuthHandler {
	return &AuthHandler{pipeline: pipeline, secureCookies: secureCookies}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, pipeline AuthPipeline, secureCookies bool) {
	handler := NewAuthHandler(pipeline, secureCookies)

	r.Post("/register", handler.Register)
	r.With(RequireRole(types.RoleAdmin)).Post("/admin/register", handler.RegisterAdmin)
	r.Post("/login", handler.Login)
	r.With(RequireAuthenticated).Get("/me", handler.Me)
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, maxNameLength)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, maxEmailLength), validation.Match(emailPattern)),
		validation.Field(&r.Password, validation.Required, validation.Length(minPasswordLength, 0), validation.By(passwordFitsHasher)),
	)
}

// passwordFitsHasher rejects passwords bcrypt would refuse to hash. The
// limit is in bytes, not runes.
func passwordFitsHasher(value any) error {
	password, _ := value.(string)
	if len(password) > auth.MaxPasswordBytes {
		return errors.New("the length must be no more than 72 bytes")
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// AuthResponse is the token envelope returned by register and login.
type AuthResponse struct {
	auth.AuthToken
	User types.UserSummary `json:"user"`
}

// Register creates a User account and returns its token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, types.RoleUser)
}

// RegisterAdmin creates an Admin account. Admin only.
func (h *AuthHandler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, types.RoleAdmin)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request, role types.Role) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.pipeline.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}, role)
	if !res.Success {
		writeKindError(w, registerStatus, res.Kind, res.Message)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{AuthToken: *res.Token, User: res.Data.Summary()})
}

// Login verifies credentials, sets the access_token and XSRF-TOKEN cookies
// and returns the token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.pipeline.Login(r.Context(), req.Email, req.Password)
	if !res.Success {
		writeKindError(w, loginStatus, res.Kind, res.Message)
		return
	}

	csrfToken, err := NewCSRFToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    res.Token.Token,
		Path:     "/",
		Expires:  res.Token.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteNoneMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    csrfToken,
		Path:     "/",
		Secure:   h.secureCookies,
		SameSite: http.SameSiteNoneMode,
	})

	writeJSON(w, http.StatusOK, AuthResponse{AuthToken: *res.Token, User: res.Data.Summary()})
}

// Me returns the account of the current principal.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	res := h.pipeline.WhoAmI(r.Context(), auth.PrincipalFrom(r.Context()))
	if !res.Success {
		writeKindError(w, meStatus, res.Kind, res.Message)
		return
	}
	writeJSON(w, http.StatusOK, res.Data)
}

func writeKindError(w http.ResponseWriter, table map[services.ErrorKind]int, kind services.ErrorKind, message string) {
	status, ok := table[kind]
	if !ok || status == http.StatusInternalServerError {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeError(w, status, message)
}
