package model

import "errors"

var (
	ErrIdentifierNotFound = errors.New("identifier not found")
	ErrInvalidStrength    = errors.New("equivalency strength must be in [-1, 1]")
)
