package matching

import "errors"

// Error kinds surfaced to the operator. Input errors are recoverable at the
// prompt; ErrRemoteCall aborts the current operation.
var (
	ErrParse           = errors.New("parse error")
	ErrOutOfRange      = errors.New("out of range")
	ErrAddressChecksum = errors.New("address checksum (EIP-55) is invalid")
	ErrRemoteCall      = errors.New("remote call failed")
)

// IsInputError reports whether err is a local validation error that should
// keep the user at the same prompt.
func IsInputError(err error) bool {
	return errors.Is(err, ErrParse) ||
		errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrAddressChecksum)
}

// Kind returns a short label for the error kind, used in logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrAddressChecksum):
		return "checksum"
	case errors.Is(err, ErrRemoteCall):
		return "remote"
	default:
		return "other"
	}
}
