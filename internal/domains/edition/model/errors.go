package model

import "errors"

var ErrEditionNotFound = errors.New("edition not found")
