package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/motorpool/apiserver/internal/services"
	"github.com/motorpool/apiserver/internal/store"
	"github.com/motorpool/apiserver/types"
)

// UserHandler serves account lookups.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers /users routes.
func UserRouter(r chi.Router, userService *services.UserService) {
	handler := NewUserHandler(userService)

	r.With(RequireAuthenticated).Get("/{userID}", handler.GetUser)
}

// AdminRouter registers /admin routes. Every route is Admin only.
func AdminRouter(r chi.Router, userService *services.UserService) {
	handler := NewUserHandler(userService)

	r.Use(RequireRole(types.RoleAdmin))
	r.Get("/all", handler.ListAccounts)
	r.Get("/{adminID}", handler.GetAdmin)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		writeLookupError(w, err, "user not found", "failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) GetAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "adminID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	admin, err := h.userService.GetAdmin(r.Context(), id)
	if err != nil {
		writeLookupError(w, err, "admin not found", "failed to fetch admin")
		return
	}
	writeJSON(w, http.StatusOK, admin)
}

func (h *UserHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := types.UserFilter{
		PageRequest: pageReq,
		Email:       strings.TrimSpace(r.URL.Query().Get("email")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
		role, err := types.ParseRole(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid role")
			return
		}
		filter.Role = role
	}

	page, err := h.userService.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func writeLookupError(w http.ResponseWriter, err error, notFound, failed string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	writeError(w, http.StatusInternalServerError, failed)
}
