package repository

import "errors"

// ErrClosed is returned by writes after the cell was closed.
var ErrClosed = errors.New("snapshot cell closed")
