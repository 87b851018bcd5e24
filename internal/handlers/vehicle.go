package handlers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/motorpool/apiserver/internal/auth"
	"github.com/motorpool/apiserver/internal/services"
	"github.com/motorpool/apiserver/internal/store"
	"github.com/motorpool/apiserver/types"
)

const (
	maxMultipartMemory = 8 << 20
	formFieldPhoto     = "photo"
)

// VehicleHandler provides HTTP handlers for vehicles.
type VehicleHandler struct {
	vehicleService *services.VehicleService
}

func NewVehicleHandler(vehicleService *services.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// VehicleRouter registers vehicle routes on the given router.
func VehicleRouter(r chi.Router, vehicleService *services.VehicleService) {
	handler := NewVehicleHandler(vehicleService)

	r.Get("/", handler.ListVehicles)
	r.With(RequireAuthenticated).Post("/", handler.CreateVehicle)
	r.Route("/{vehicleID}", func(r chi.Router) {
		r.Get("/", handler.GetVehicle)
		r.With(RequireAuthenticated).Patch("/", handler.PatchVehicle)
		r.With(RequireRole(types.RoleAdmin)).Delete("/", handler.DeleteVehicle)
		r.Get("/photo", handler.GetPhoto)
		r.With(RequireAuthenticated).Put("/photo", handler.PutPhoto)
	})
}

type VehicleRequest struct {
	Name  string `json:"name"`
	Brand string `json:"brand"`
	Year  int    `json:"year"`
	Color string `json:"color"`
}

func (h *VehicleHandler) ListVehicles(w http.ResponseWriter, r *http.Request) {
	pageReq, err := parsePageRequest(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	query := r.URL.Query()
	filter := types.VehicleFilter{
		PageRequest: pageReq,
		Name:        strings.TrimSpace(query.Get("name")),
		Brand:       strings.TrimSpace(query.Get("brand")),
		Color:       strings.TrimSpace(query.Get("color")),
	}
	if raw := strings.TrimSpace(query.Get("year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		filter.Year = year
	}

	page, err := h.vehicleService.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list vehicles")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *VehicleHandler) GetVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "vehicleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	vehicle, err := h.vehicleService.Get(r.Context(), id)
	if err != nil {
		writeVehicleError(w, err, "failed to fetch vehicle")
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

// CreateVehicle requires a principal with a resolvable user id.
func (h *VehicleHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.PrincipalFrom(r.Context()).UserID(); err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req VehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	vehicle, err := h.vehicleService.Create(r.Context(), types.Vehicle{
		Name:  req.Name,
		Brand: req.Brand,
		Year:  req.Year,
		Color: req.Color,
	})
	if err != nil {
		writeVehicleError(w, err, "failed to create vehicle")
		return
	}
	writeJSON(w, http.StatusCreated, vehicle)
}

func (h *VehicleHandler) PatchVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "vehicleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var patch types.VehiclePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.vehicleService.Patch(r.Context(), id, patch); err != nil {
		writeVehicleError(w, err, "failed to update vehicle")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VehicleHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "vehicleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.vehicleService.Delete(r.Context(), id); err != nil {
		writeVehicleError(w, err, "failed to delete vehicle")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "vehicle deleted"})
}

// PutPhoto replaces the vehicle photo with the multipart "photo" file. The
// content type is sniffed from the data, not taken from the client.
func (h *VehicleHandler) PutPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "vehicleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPhotoSize+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile(formFieldPhoto)
	if err != nil {
		writeError(w, http.StatusBadRequest, "photo is required")
		return
	}
	defer file.Close()

	data, err := readFileLimited(file, services.MaxPhotoSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	contentType := http.DetectContentType(data)
	vehicle, err := h.vehicleService.SetPhoto(r.Context(), id, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		writeVehicleError(w, err, "failed to store photo")
		return
	}
	writeJSON(w, http.StatusOK, vehicle)
}

func (h *VehicleHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "vehicleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	obj, err := h.vehicleService.GetPhoto(r.Context(), id)
	if err != nil {
		writeVehicleError(w, err, "failed to fetch photo")
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, obj.Body)
}

func writeVehicleError(w http.ResponseWriter, err error, failed string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "vehicle not found")
	case errors.Is(err, services.ErrNoPhoto):
		writeError(w, http.StatusNotFound, "photo not found")
	case errors.Is(err, services.ErrEmptyPatch), errors.Is(err, services.ErrInvalidVehicle):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnsupportedPhoto):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, services.ErrStorageDisabled):
		writeError(w, http.StatusNotImplemented, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, failed)
	}
}
