package storage

import "errors"

var (
	ErrCorruptIndex      = errors.New("corrupt index artifacts")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
