package types

import "time"

// Vehicle represents a registered vehicle.
type Vehicle struct {
	// ID is the unique identifier of the vehicle.
	ID int `json:"id" db:"id"`

	// Name is the model name of the vehicle (e.g., "Civic").
	Name string `json:"name" db:"name"`

	// Brand is the manufacturer of the vehicle.
	Brand string `json:"brand" db:"brand"`

	// Year is the model year. Valid values range from 1900 to the current year.
	Year int `json:"year" db:"year"`

	// Color is the free-form color description.
	Color string `json:"color" db:"color"`

	// PhotoKey is the object storage key of the vehicle photo, if one was uploaded.
	PhotoKey string `json:"photo_key,omitempty" db:"photo_key"`

	// CreatedAt is the timestamp at which the vehicle was registered.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent change, nil until the
	// vehicle is first modified.
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// VehiclePatch carries a partial vehicle update. Nil fields are left unchanged.
type VehiclePatch struct {
	Name  *string `json:"name"`
	Brand *string `json:"brand"`
	Year  *int    `json:"year"`
	Color *string `json:"color"`
}

// Empty reports whether the patch changes nothing.
func (p VehiclePatch) Empty() bool {
	return p.Name == nil && p.Brand == nil && p.Year == nil && p.Color == nil
}

// VehicleFilter narrows a vehicle listing. String filters match substrings,
// ignoring case; Year matches exactly when non-zero.
type VehicleFilter struct {
	PageRequest

	Name  string
	Brand string
	Color string
	Year  int
}
