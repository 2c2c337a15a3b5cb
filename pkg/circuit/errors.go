package circuit

import "errors"

var (
	ErrUnsolvableNetwork    = errors.New("unsolvable network")
	ErrMissingVoltage       = errors.New("missing voltage")
	ErrIndeterminateCurrent = errors.New("indeterminate current")
	ErrUnknownNode          = errors.New("unknown node")
	ErrUnknownDevice        = errors.New("unknown device")
	ErrAlreadyConnected     = errors.New("device already connected")
)
