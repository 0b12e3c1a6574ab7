package domain

import "errors"

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("access forbidden")
	ErrProtectedUser      = errors.New("user cannot be modified")
	ErrConflict           = errors.New("concurrent modification")
	ErrThrottled          = errors.New("too many requests")

	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrSuperuserExists = errors.New("superuser already exists")

	ErrCommunityNotFound = errors.New("community not found")
	ErrCommunityExists   = errors.New("community already exists")
	ErrCommunityLimit    = errors.New("community limit reached")
	ErrAddressNotFound   = errors.New("address not found")
	ErrPersonNotFound    = errors.New("person not found")
	ErrCodeNotFound      = errors.New("code not found")
)
