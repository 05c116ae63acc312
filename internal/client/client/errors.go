package client

import "errors"

var (
	ErrUnavailable  = errors.New("gateway unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("object not found")
)
