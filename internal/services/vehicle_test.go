package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/motorpool/apiserver/internal/store"
	"github.com/motorpool/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newVehicleService(repo *fakeVehicles, photos PhotoStore) *VehicleService {
	svc := NewVehicleService(repo, photos, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func ptr[T any](v T) *T { return &v }

func TestVehicleService_Create(t *testing.T) {
	repo := newFakeVehicles()
	svc := newVehicleService(repo, nil)

	created, err := svc.Create(context.Background(), types.Vehicle{
		ID:       77,
		Name:     " Civic ",
		Brand:    "Honda",
		Year:     2020,
		Color:    "red",
		PhotoKey: "forged",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, created.ID)
	assert.Equal(t, "Civic", created.Name)
	assert.Empty(t, created.PhotoKey)
	assert.Equal(t, fixedNow, created.CreatedAt)
	assert.Nil(t, created.UpdatedAt)
}

func TestVehicleService_CreateValidation(t *testing.T) {
	svc := newVehicleService(newFakeVehicles(), nil)

	tests := []struct {
		name    string
		vehicle types.Vehicle
	}{
		{"missing name", types.Vehicle{Brand: "Honda", Year: 2020}},
		{"missing brand", types.Vehicle{Name: "Civic", Year: 2020}},
		{"name too long", types.Vehicle{Name: strings.Repeat("n", 101), Brand: "Honda", Year: 2020}},
		{"year too old", types.Vehicle{Name: "Civic", Brand: "Honda", Year: 1899}},
		{"year in future", types.Vehicle{Name: "Civic", Brand: "Honda", Year: 2027}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.vehicle)
			assert.ErrorIs(t, err, ErrInvalidVehicle)
		})
	}
}

func TestVehicleService_Patch(t *testing.T) {
	repo := newFakeVehicles(types.Vehicle{ID: 1, Name: "Civic", Brand: "Honda", Year: 2020, Color: "red"})
	svc := newVehicleService(repo, nil)
	ctx := context.Background()

	_, err := svc.Patch(ctx, 1, types.VehiclePatch{})
	assert.ErrorIs(t, err, ErrEmptyPatch)

	_, err = svc.Patch(ctx, 9, types.VehiclePatch{Color: ptr("blue")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Patch(ctx, 1, types.VehiclePatch{Year: ptr(1800)})
	assert.ErrorIs(t, err, ErrInvalidVehicle)

	updated, err := svc.Patch(ctx, 1, types.VehiclePatch{Color: ptr("blue")})
	require.NoError(t, err)
	assert.Equal(t, "blue", updated.Color)
	assert.Equal(t, "Civic", updated.Name)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, fixedNow, *updated.UpdatedAt)
}

func TestVehicleService_List(t *testing.T) {
	repo := newFakeVehicles(types.Vehicle{ID: 1, Name: "Civic"})
	svc := newVehicleService(repo, nil)

	page, err := svc.List(context.Background(), types.VehicleFilter{PageRequest: types.PageRequest{Page: -3, PageSize: 500}})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.lastList.Page)
	assert.Equal(t, types.MaxPageSize, repo.lastList.PageSize)
	assert.Equal(t, 1, page.TotalItems)
	assert.Len(t, page.Items, 1)
}

func TestVehicleService_PhotoLifecycle(t *testing.T) {
	repo := newFakeVehicles(types.Vehicle{ID: 1, Name: "Civic", Brand: "Honda", Year: 2020})
	photos := newFakePhotos()
	svc := newVehicleService(repo, photos)
	ctx := context.Background()

	_, err := svc.GetPhoto(ctx, 1)
	assert.ErrorIs(t, err, ErrNoPhoto)

	first, err := svc.SetPhoto(ctx, 1, bytes.NewReader([]byte("one")), 3, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.PhotoKey, "vehicles/1/"))
	assert.True(t, strings.HasSuffix(first.PhotoKey, ".png"))

	second, err := svc.SetPhoto(ctx, 1, bytes.NewReader([]byte("two")), 3, "image/jpeg")
	require.NoError(t, err)
	assert.NotEqual(t, first.PhotoKey, second.PhotoKey)
	assert.NotContains(t, photos.objects, first.PhotoKey)

	obj, err := svc.GetPhoto(ctx, 1)
	require.NoError(t, err)
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "two", string(body))
	assert.Equal(t, "image/jpeg", obj.ContentType)

	require.NoError(t, svc.Delete(ctx, 1))
	assert.Empty(t, photos.objects)
	assert.ErrorIs(t, svc.Delete(ctx, 1), store.ErrNotFound)
}

func TestVehicleService_SetPhotoRejects(t *testing.T) {
	repo := newFakeVehicles(types.Vehicle{ID: 1, Name: "Civic", Brand: "Honda", Year: 2020})
	ctx := context.Background()

	_, err := newVehicleService(repo, nil).SetPhoto(ctx, 1, bytes.NewReader(nil), 0, "image/png")
	assert.ErrorIs(t, err, ErrStorageDisabled)

	_, err = newVehicleService(repo, &fakePhotos{disabled: true}).GetPhoto(ctx, 1)
	assert.ErrorIs(t, err, ErrStorageDisabled)

	svc := newVehicleService(repo, newFakePhotos())
	_, err = svc.SetPhoto(ctx, 1, bytes.NewReader(nil), 0, "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedPhoto)

	_, err = svc.SetPhoto(ctx, 1, bytes.NewReader(nil), MaxPhotoSize+1, "image/png")
	assert.ErrorIs(t, err, ErrInvalidVehicle)

	_, err = svc.SetPhoto(ctx, 2, bytes.NewReader(nil), 0, "image/png")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVehicleService_SetPhotoCleansUpOnUpdateFailure(t *testing.T) {
	repo := newFakeVehicles(types.Vehicle{ID: 1, Name: "Civic", Brand: "Honda", Year: 2020})
	repo.updateErr = errBoom
	photos := newFakePhotos()
	svc := newVehicleService(repo, photos)

	_, err := svc.SetPhoto(context.Background(), 1, bytes.NewReader([]byte("x")), 1, "image/png")
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, photos.objects)
}

func TestVehicleService_DeleteKeepsGoingWhenPhotoRemovalFails(t *testing.T) {
	repo := newFakeVehicles(types.Vehicle{ID: 1, Name: "Civic", Brand: "Honda", Year: 2020, PhotoKey: "vehicles/1/a.png"})
	photos := newFakePhotos()
	photos.delErr = errBoom
	svc := newVehicleService(repo, photos)

	require.NoError(t, svc.Delete(context.Background(), 1))
	_, err := repo.Get(context.Background(), 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
