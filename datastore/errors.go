package datastore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates an unknown entity id.
	ErrNotFound = errors.New("entity not found")
	// ErrTypeMismatch indicates an operation against the wrong entity kind.
	ErrTypeMismatch = errors.New("entity type mismatch")
	// ErrInvalidHost indicates a host that cannot carry the requested kind.
	// It matches ErrTypeMismatch under errors.Is.
	ErrInvalidHost = fmt.Errorf("invalid host: %w", ErrTypeMismatch)
	// ErrTransactionClosed indicates a transaction used after Commit or Discard.
	ErrTransactionClosed = errors.New("transaction already closed")
)
