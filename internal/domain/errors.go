package domain

import "errors"

// Categorías de error compartidas por servicios y handlers. Los errores
// concretos las envuelven para que errors.Is pueda clasificarlos.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrProvider     = errors.New("provider error")
	ErrNetwork      = errors.New("network error")
)
