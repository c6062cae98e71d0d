package model

import "errors"

var ErrSubjectNotFound = errors.New("subject not found")
