package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/motorpool/apiserver/types"
)

const vehicleColumns = `id, name, brand, year, color, photo_key, created_at, updated_at`

// VehicleRepository handles persistence for vehicles.
type VehicleRepository struct {
	db *sql.DB
}

func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// List returns one page of vehicles matching the filter plus the total number
// of matches. The filter is expected to be normalized.
func (r *VehicleRepository) List(ctx context.Context, filter types.VehicleFilter) ([]types.Vehicle, int, error) {
	var (
		conds []string
		args  []any
	)
	for _, f := range []struct {
		column string
		value  string
	}{
		{"name", filter.Name},
		{"brand", filter.Brand},
		{"color", filter.Color},
	} {
		if value := strings.TrimSpace(f.value); value != "" {
			args = append(args, likePattern(value))
			conds = append(conds, fmt.Sprintf("%s ILIKE $%d", f.column, len(args)))
		}
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		conds = append(conds, fmt.Sprintf("year = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM vehicles`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := orderDirection(filter.Ascending)
	listQuery := fmt.Sprintf(
		`SELECT %s FROM vehicles%s ORDER BY name %s, id %s OFFSET $%d LIMIT $%d`,
		vehicleColumns, where, dir, dir, len(args)+1, len(args)+2,
	)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, filter.Offset(), filter.PageSize)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	vehicles := make([]types.Vehicle, 0, filter.PageSize)
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, err
		}
		vehicles = append(vehicles, vehicle)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return vehicles, total, nil
}

func (r *VehicleRepository) Get(ctx context.Context, id int) (types.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	return scanVehicle(r.db.QueryRowContext(ctx, query, id))
}

func (r *VehicleRepository) Create(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error) {
	vehicle.CreatedAt = time.Now().UTC()
	vehicle.UpdatedAt = nil

	const query = `
		INSERT INTO vehicles (name, brand, year, color, photo_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		vehicle.Name,
		vehicle.Brand,
		vehicle.Year,
		vehicle.Color,
		vehicle.PhotoKey,
		vehicle.CreatedAt,
	).Scan(&vehicle.ID); err != nil {
		return types.Vehicle{}, err
	}

	return vehicle, nil
}

func (r *VehicleRepository) Update(ctx context.Context, vehicle types.Vehicle) (types.Vehicle, error) {
	const query = `
		UPDATE vehicles
		SET name = $1,
			brand = $2,
			year = $3,
			color = $4,
			photo_key = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		vehicle.Name,
		vehicle.Brand,
		vehicle.Year,
		vehicle.Color,
		vehicle.PhotoKey,
		vehicle.UpdatedAt,
		vehicle.ID,
	)
	if err != nil {
		return types.Vehicle{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Vehicle{}, err
	}
	if affected == 0 {
		return types.Vehicle{}, ErrNotFound
	}

	return vehicle, nil
}

func (r *VehicleRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM vehicles WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVehicle(row rowScanner) (types.Vehicle, error) {
	var (
		vehicle   types.Vehicle
		updatedAt sql.NullTime
	)
	err := row.Scan(
		&vehicle.ID,
		&vehicle.Name,
		&vehicle.Brand,
		&vehicle.Year,
		&vehicle.Color,
		&vehicle.PhotoKey,
		&vehicle.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Vehicle{}, ErrNotFound
		}
		return types.Vehicle{}, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		vehicle.UpdatedAt = &t
	}
	return vehicle, nil
}
