package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/motorpool/apiserver/internal/logging"
	"github.com/motorpool/apiserver/internal/storage"
	"github.com/motorpool/apiserver/types"
)

const (
	MinVehicleYear  = 1900
	maxVehicleField = 100

	// MaxPhotoSize is the largest accepted vehicle photo, in bytes.
	MaxPhotoSize = 5 << 20
)

var (
	ErrInvalidVehicle   = errors.New("invalid vehicle")
	ErrEmptyPatch       = errors.New("no fields to update")
	ErrNoPhoto          = errors.New("vehicle has no photo")
	ErrStorageDisabled  = errors.New("photo storage is not configured")
	ErrUnsupportedPhoto = errors.New("unsupported photo type")
)

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// VehicleRepository defines persistence operations for vehicles.
type VehicleRepository interface {
	List(ctx context.Context, filter types.VehicleFilter) ([]types.Vehicle, int, error)
	Get(ctx context.Context, id int) (types.Vehicle, error)
	Create(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error)
	Update(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error)
	Delete(ctx context.Context, id int) error
}

// PhotoStore holds vehicle photos.
type PhotoStore interface {
	Enabled() bool
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (storage.Object, error)
	Delete(ctx context.Context, key string) error
}

// VehicleService encapsulates vehicle use-cases.
type VehicleService struct {
	repo   VehicleRepository
	photos PhotoStore
	log    logging.Logger
	now    func() time.Time
}

func NewVehicleService(repo VehicleRepository, photos PhotoStore, log logging.Logger) *VehicleService {
	if log == nil {
		log = logging.Nop()
	}
	return &VehicleService{
		repo:   repo,
		photos: photos,
		log:    log.With("component", "vehicles"),
		now:    time.Now,
	}
}

func (s *VehicleService) List(ctx context.Context, filter types.VehicleFilter) (types.Page[types.Vehicle], error) {
	filter.PageRequest = filter.PageRequest.Normalize()

	vehicles, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return types.Page[types.Vehicle]{}, err
	}
	return types.NewPage(filter.PageRequest, vehicles, total), nil
}

func (s *VehicleService) Get(ctx context.Context, id int) (types.Vehicle, error) {
	return s.repo.Get(ctx, id)
}

func (s *VehicleService) Create(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error) {
	vehicle.ID = 0
	vehicle.PhotoKey = ""
	vehicle.UpdatedAt = nil
	trimVehicle(&vehicle)
	if err := s.validate(vehicle); err != nil {
		return types.Vehicle{}, err
	}
	vehicle.CreatedAt = s.now().UTC()
	return s.repo.Create(ctx, vehicle)
}

// Patch applies the non-nil fields of patch. The merged vehicle must still be
// valid; UpdatedAt is stamped on success.
func (s *VehicleService) Patch(ctx context.Context, id int, patch types.VehiclePatch) (types.Vehicle, error) {
	if patch.Empty() {
		return types.Vehicle{}, ErrEmptyPatch
	}

	vehicle, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Vehicle{}, err
	}

	if patch.Name != nil {
		vehicle.Name = *patch.Name
	}
	if patch.Brand != nil {
		vehicle.Brand = *patch.Brand
	}
	if patch.Year != nil {
		vehicle.Year = *patch.Year
	}
	if patch.Color != nil {
		vehicle.Color = *patch.Color
	}
	trimVehicle(&vehicle)
	if err := s.validate(vehicle); err != nil {
		return types.Vehicle{}, err
	}

	now := s.now().UTC()
	vehicle.UpdatedAt = &now
	return s.repo.Update(ctx, vehicle)
}

// Delete removes the vehicle and then its photo. A photo that cannot be
// removed is logged and left behind.
func (s *VehicleService) Delete(ctx context.Context, id int) error {
	vehicle, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if vehicle.PhotoKey != "" {
		s.deletePhoto(ctx, vehicle.PhotoKey)
	}
	return nil
}

// SetPhoto stores a new photo for the vehicle and replaces the previous one.
func (s *VehicleService) SetPhoto(ctx context.Context, id int, r io.Reader, size int64, contentType string) (types.Vehicle, error) {
	if !s.storageEnabled() {
		return types.Vehicle{}, ErrStorageDisabled
	}
	ext, ok := photoExtensions[contentType]
	if !ok {
		return types.Vehicle{}, fmt.Errorf("%w: %s", ErrUnsupportedPhoto, contentType)
	}
	if size > MaxPhotoSize {
		return types.Vehicle{}, fmt.Errorf("%w: photo exceeds %d bytes", ErrInvalidVehicle, MaxPhotoSize)
	}

	vehicle, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Vehicle{}, err
	}

	key := path.Join("vehicles", fmt.Sprint(id), uuid.NewString()+ext)
	if err := s.photos.Put(ctx, key, r, size, contentType); err != nil {
		return types.Vehicle{}, fmt.Errorf("store photo: %w", err)
	}

	previous := vehicle.PhotoKey
	now := s.now().UTC()
	vehicle.PhotoKey = key
	vehicle.UpdatedAt = &now

	updated, err := s.repo.Update(ctx, vehicle)
	if err != nil {
		s.deletePhoto(ctx, key)
		return types.Vehicle{}, err
	}
	if previous != "" {
		s.deletePhoto(ctx, previous)
	}
	return updated, nil
}

// GetPhoto opens the vehicle's photo. The caller must close the body.
func (s *VehicleService) GetPhoto(ctx context.Context, id int) (storage.Object, error) {
	if !s.storageEnabled() {
		return storage.Object{}, ErrStorageDisabled
	}
	vehicle, err := s.repo.Get(ctx, id)
	if err != nil {
		return storage.Object{}, err
	}
	if vehicle.PhotoKey == "" {
		return storage.Object{}, ErrNoPhoto
	}

	obj, err := s.photos.Get(ctx, vehicle.PhotoKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return storage.Object{}, ErrNoPhoto
	}
	return obj, err
}

func (s *VehicleService) storageEnabled() bool {
	return s.photos != nil && s.photos.Enabled()
}

func (s *VehicleService) deletePhoto(ctx context.Context, key string) {
	if !s.storageEnabled() {
		return
	}
	if err := s.photos.Delete(ctx, key); err != nil {
		s.log.Warn(ctx, "delete vehicle photo failed", "key", key, "error", err)
	}
}

func (s *VehicleService) validate(v types.Vehicle) error {
	err := validation.ValidateStruct(&v,
		validation.Field(&v.Name, validation.Required, validation.Length(1, maxVehicleField)),
		validation.Field(&v.Brand, validation.Required, validation.Length(1, maxVehicleField)),
		validation.Field(&v.Year, validation.Required, validation.Min(MinVehicleYear), validation.Max(s.now().Year())),
		validation.Field(&v.Color, validation.Length(0, maxVehicleField)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVehicle, err)
	}
	return nil
}

func trimVehicle(v *types.Vehicle) {
	v.Name = strings.TrimSpace(v.Name)
	v.Brand = strings.TrimSpace(v.Brand)
	v.Color = strings.TrimSpace(v.Color)
}
