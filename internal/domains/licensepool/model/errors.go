package model

import "errors"

var ErrPoolNotFound = errors.New("license pool not found")
