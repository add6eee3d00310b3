package store

import "errors"

// ErrNotFound indicates no body is stored under the requested block hash.
var ErrNotFound = errors.New("block body not found")
