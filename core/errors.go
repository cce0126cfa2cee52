package core

import "errors"

// Authentication related errors
var (
	ErrDuplicateEmail     = errors.New("an account with this email already exists") // 409 Conflict
	ErrAccountNotFound    = errors.New("account not found")                         // 404 Not Found
	ErrInvalidCredentials = errors.New("invalid email or password")                 // 401 Unauthorized
	ErrAccountDisabled    = errors.New("account is deactivated")                    // 403 Forbidden
	ErrUnauthenticated    = errors.New("unauthenticated")                           // 401
)

// Billing errors
var (
	ErrInvalidSignature    = errors.New("invalid webhook signature") // 400
	ErrInvalidPlan         = errors.New("invalid plan")              // 400
	ErrProviderUnavailable = errors.New("billing provider unavailable")
)

// Validation errors (client input)
var (
	ErrEmailRequired    = errors.New("email is required")     // 400
	ErrInvalidEmail     = errors.New("invalid email format")  // 400
	ErrNameRequired     = errors.New("name is required")      // 400
	ErrPasswordRequired = errors.New("password is required")  // 400
	ErrPasswordTooShort = errors.New("password is too short") // 400
	ErrPasswordTooLong  = errors.New("password is too long")  // 400
)

// Cache errors
var (
	ErrCacheMiss = errors.New("key not found in cache")
)

// Config errors (server-side configuration)
var (
	ErrStorageRequired     = errors.New("account storage adapter is required") // 500
	ErrHTTPAdapterRequired = errors.New("http adapter is required")            // 500
	ErrSecretRequired      = errors.New("token signing secret is required")    // 500
	ErrSecretTooShort      = errors.New("token signing secret too short")      // 500
)
