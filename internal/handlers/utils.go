package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/motorpool/apiserver/types"
)

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse acknowledges an operation that has no other result.
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.New("invalid request")
	}
	return nil
}

// parsePageRequest reads page, page_size and order from the query string.
// Out-of-range numbers are clamped later; malformed ones are rejected.
func parsePageRequest(r *http.Request, ascendingByDefault bool) (types.PageRequest, error) {
	query := r.URL.Query()
	req := types.PageRequest{
		Page:      1,
		PageSize:  types.DefaultPageSize,
		Ascending: ascendingByDefault,
	}

	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return types.PageRequest{}, errors.New("invalid page")
		}
		req.Page = page
	}

	if raw := strings.TrimSpace(query.Get("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return types.PageRequest{}, errors.New("invalid page_size")
		}
		req.PageSize = size
	}

	switch strings.ToLower(strings.TrimSpace(query.Get("order"))) {
	case "":
	case "asc":
		req.Ascending = true
	case "desc":
		req.Ascending = false
	default:
		return types.PageRequest{}, errors.New("invalid order, expected asc or desc")
	}

	return req.Normalize(), nil
}

func parseID(r *http.Request, param string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || id < 1 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
