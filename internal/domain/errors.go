// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested run does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates caller-supplied input failed validation.
var ErrValidation = errors.New("validation")
