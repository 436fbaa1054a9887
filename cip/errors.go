package cip

import (
	"errors"
	"fmt"
)

var (
	ErrMessageTooShort   = errors.New("cip: message too short")
	ErrReplyDataSize     = errors.New("cip: application reply data must be an even number of bytes, at most 510")
	ErrUnexpectedService = errors.New("cip: unexpected reply service")
	ErrServiceFailed     = errors.New("cip: service failed")
)

// StatusError is returned when a reply carries a non-zero general status.
type StatusError struct {
	Service       byte
	GeneralStatus byte
	ExtStatus     uint16 // first additional status word, 0 if none
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cip: service 0x%02X failed - status=0x%02X, extStatus=0x%04X",
		e.Service, e.GeneralStatus, e.ExtStatus)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrServiceFailed
}
