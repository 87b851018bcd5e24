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

const userColumns = `id, name, email, password_hash, role, active, created_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail looks a user up by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, strings.TrimSpace(email)))
}

// Create inserts the user and returns it with the server-assigned id and
// creation time. A case-insensitive email collision yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO users (name, email, password_hash, role, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role.String(),
		user.Active,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	return user, nil
}

// List returns one page of users matching the filter plus the total number
// of matches. The filter is expected to be normalized.
func (r *UserRepository) List(ctx context.Context, filter types.UserFilter) ([]types.User, int, error) {
	var (
		conds []string
		args  []any
	)
	if email := strings.TrimSpace(filter.Email); email != "" {
		args = append(args, likePattern(email))
		conds = append(conds, fmt.Sprintf("email ILIKE $%d", len(args)))
	}
	if filter.Role.Valid() {
		args = append(args, filter.Role.String())
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := orderDirection(filter.Ascending)
	listQuery := fmt.Sprintf(
		`SELECT %s FROM users%s ORDER BY email %s, id %s OFFSET $%d LIMIT $%d`,
		userColumns, where, dir, dir, len(args)+1, len(args)+2,
	)
	rows, err := r.db.QueryContext(ctx, listQuery, append(args, filter.Offset(), filter.PageSize)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]types.User, 0, filter.PageSize)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var (
		user types.User
		role string
	)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.Active,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	user.Role, err = types.ParseRole(role)
	if err != nil {
		return types.User{}, fmt.Errorf("user %d: %w", user.ID, err)
	}
	return user, nil
}
