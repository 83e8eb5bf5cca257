// Package repository persists repair requests and admin accounts in MongoDB.
// The sentinel errors below let handlers translate failures into stable HTTP
// responses without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when the target entity does not exist. Handlers
// translate this into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrUsernameExists is returned when an account creation collides with an
// existing username. Handlers translate this into HTTP 409.
var ErrUsernameExists = errors.New("username already exists")

// ErrSelfDelete is returned when an account tries to delete itself. The
// guard holds regardless of role.
var ErrSelfDelete = errors.New("cannot delete own account")

// ErrInvalidCredentials is returned for a failed login. Missing accounts,
// inactive accounts, and wrong passwords all produce this same error so the
// response leaks nothing about account existence.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrStoreUnavailable is returned when the backing store is not configured
// or unreachable. The intake path degrades to an acknowledged-but-not-
// persisted response; every other operation fails hard with it.
var ErrStoreUnavailable = errors.New("store unavailable")
