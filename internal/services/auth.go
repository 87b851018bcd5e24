package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/motorpool/apiserver/internal/auth"
	"github.com/motorpool/apiserver/internal/logging"
	"github.com/motorpool/apiserver/internal/store"
	"github.com/motorpool/apiserver/types"
)

const (
	msgEmailAlreadyExists = "email already registered"
	msgUserNotFound       = "user not found"
	msgInvalidCredentials = "invalid credentials"
	msgInactiveAccount    = "your account is inactive, please contact support"
	msgUnauthorized       = "unauthorized"
)

// CredentialStore is the user persistence the auth pipeline depends on.
type CredentialStore interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type TokenIssuer interface {
	Issue(user types.User) (auth.AuthToken, error)
}

// EventPublisher receives account events. Delivery is best-effort.
type EventPublisher interface {
	PublishAccountEvent(ctx context.Context, event types.AccountEvent) error
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService implements registration, login and "who am I".
type AuthService struct {
	users  CredentialStore
	hasher PasswordHasher
	tokens TokenIssuer
	events EventPublisher
	log    logging.Logger
	now    func() time.Time
}

func NewAuthService(
	users CredentialStore,
	hasher PasswordHasher,
	tokens TokenIssuer,
	events EventPublisher,
	log logging.Logger,
) *AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		events: events,
		log:    log.With("component", "auth"),
		now:    time.Now,
	}
}

// NormalizeEmail is the canonical form used for storage and uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an active account with the given role and issues a token
// for it. No token is issued unless the account was persisted.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, role types.Role) Result[types.User] {
	if !role.Valid() {
		return failInfra[types.User](fmt.Errorf("register with role %d", role))
	}
	email := NormalizeEmail(in.Email)

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return fail[types.User](ErrorEmailAlreadyExists, msgEmailAlreadyExists)
	case !errors.Is(err, store.ErrNotFound):
		return s.infra(ctx, "lookup email", err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		if auth.IsInvalidPassword(err) {
			return fail[types.User](ErrorInvalidPassword, err.Error())
		}
		return s.infra(ctx, "hash password", err)
	}

	user, err := s.users.Create(ctx, types.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: digest,
		Role:         role,
		Active:       true,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		// A concurrent registration can win the race past the pre-check.
		if errors.Is(err, store.ErrDuplicate) {
			return fail[types.User](ErrorEmailAlreadyExists, msgEmailAlreadyExists)
		}
		return s.infra(ctx, "create user", err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return s.infra(ctx, "issue token", err)
	}

	s.publish(ctx, types.EventAccountRegistered, user)
	return succeed(user, &token)
}

// Login checks credentials and issues a token. The order of checks is
// existence, password, then active flag.
func (s *AuthService) Login(ctx context.Context, email, password string) Result[types.User] {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail[types.User](ErrorUserNotFound, msgUserNotFound)
		}
		return s.infra(ctx, "lookup email", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return fail[types.User](ErrorInvalidCredentials, msgInvalidCredentials)
	}

	if !user.Active {
		return fail[types.User](ErrorInactiveAccount, msgInactiveAccount)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return s.infra(ctx, "issue token", err)
	}

	s.publish(ctx, types.EventAccountLoggedIn, user)
	return succeed(user, &token)
}

// WhoAmI resolves the principal's stored account.
func (s *AuthService) WhoAmI(ctx context.Context, principal auth.Principal) Result[types.UserSummary] {
	id, err := principal.UserID()
	if err != nil {
		return fail[types.UserSummary](ErrorUnauthorized, msgUnauthorized)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail[types.UserSummary](ErrorUserNotFound, msgUserNotFound)
		}
		s.log.Error(ctx, "load current user failed", "user_id", id, "error", err)
		return failInfra[types.UserSummary](err)
	}

	return succeed(user.Summary(), nil)
}

func (s *AuthService) infra(ctx context.Context, op string, err error) Result[types.User] {
	s.log.Error(ctx, op+" failed", "error", err)
	return failInfra[types.User](fmt.Errorf("%s: %w", op, err))
}

func (s *AuthService) publish(ctx context.Context, eventType string, user types.User) {
	if s.events == nil {
		return
	}
	event := types.AccountEvent{
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role.String(),
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.PublishAccountEvent(ctx, event); err != nil {
		s.log.Warn(ctx, "publish account event failed", "type", eventType, "user_id", user.ID, "error", err)
	}
}
