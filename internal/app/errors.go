package service

import "errors"

// Service errors.
var (
	ErrNoSource = errors.New("no frame source configured")
)
