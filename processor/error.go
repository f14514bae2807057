package processor

import "errors"

var (
	ErrConfIsNil          = errors.New("processor conf is nil")
	ErrRegistryIsNil      = errors.New("processor registry is nil")
	ErrCacheIsNil         = errors.New("processor cache is nil")
	ErrAlreadyInitialized = errors.New("processor already initialized")
)
