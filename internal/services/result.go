package services

import "github.com/motorpool/apiserver/internal/auth"

// ErrorKind classifies a failed auth pipeline operation.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorEmailAlreadyExists
	ErrorUserNotFound
	ErrorInvalidCredentials
	ErrorInactiveAccount
	ErrorUnauthorized
	// ErrorInvalidPassword means the password was rejected before hashing.
	ErrorInvalidPassword
	// ErrorInfrastructure covers store and signing faults. It is never
	// conflated with ErrorUserNotFound.
	ErrorInfrastructure
)

// ErrorKinds lists every failure kind. Transport layers must map each of them.
var ErrorKinds = []ErrorKind{
	ErrorEmailAlreadyExists,
	ErrorUserNotFound,
	ErrorInvalidCredentials,
	ErrorInactiveAccount,
	ErrorUnauthorized,
	ErrorInvalidPassword,
	ErrorInfrastructure,
}

func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "None"
	case ErrorEmailAlreadyExists:
		return "EmailAlreadyExists"
	case ErrorUserNotFound:
		return "UserNotFound"
	case ErrorInvalidCredentials:
		return "InvalidCredentials"
	case ErrorInactiveAccount:
		return "InactiveAccount"
	case ErrorUnauthorized:
		return "Unauthorized"
	case ErrorInvalidPassword:
		return "InvalidPassword"
	case ErrorInfrastructure:
		return "Infrastructure"
	default:
		return "Unknown"
	}
}

// Result is the outcome of an auth pipeline operation. On success Data is
// set and Kind is ErrorNone; on failure Kind names the cause. Token is only
// set by successful login and registration.
type Result[T any] struct {
	Success bool
	Data    T
	Kind    ErrorKind
	Message string
	Token   *auth.AuthToken

	// Err holds the underlying cause of an ErrorInfrastructure failure.
	Err error
}

func succeed[T any](data T, token *auth.AuthToken) Result[T] {
	return Result[T]{Success: true, Data: data, Kind: ErrorNone, Token: token}
}

func fail[T any](kind ErrorKind, message string) Result[T] {
	return Result[T]{Kind: kind, Message: message}
}

func failInfra[T any](err error) Result[T] {
	return Result[T]{Kind: ErrorInfrastructure, Message: "internal error", Err: err}
}
