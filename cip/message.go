package cip

import (
	"fmt"

	"eipcodec/serialization"
)

// routerResponseHeaderLen covers reply service, reserved, general status and
// additional status size.
const routerResponseHeaderLen = 4

// MessageRouterResponse is the CIP reply header followed by service-specific data.
type MessageRouterResponse struct {
	ReplyService     byte
	Reserved         byte
	GeneralStatus    byte
	AdditionalStatus []uint16
	ResponseData     serialization.Buffer
}

// Service returns the request service the reply answers.
func (m *MessageRouterResponse) Service() byte {
	return m.ReplyService &^ 0x80
}

func (m *MessageRouterResponse) EncodedLen() int {
	return routerResponseHeaderLen + 2*len(m.AdditionalStatus) + m.ResponseData.EncodedLen()
}

func (m *MessageRouterResponse) Encode(w *serialization.Writer) error {
	if len(m.AdditionalStatus) > 0xFF {
		return fmt.Errorf("MessageRouterResponse: %d additional status words, max 255", len(m.AdditionalStatus))
	}
	if err := w.WriteUint8(m.ReplyService); err != nil {
		return err
	}
	if err := w.WriteUint8(m.Reserved); err != nil {
		return err
	}
	if err := w.WriteUint8(m.GeneralStatus); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(len(m.AdditionalStatus))); err != nil {
		return err
	}
	for _, s := range m.AdditionalStatus {
		if err := w.WriteUint16(s); err != nil {
			return err
		}
	}
	return m.ResponseData.Encode(w)
}

// Decode reads a reply header and treats the rest of length as response data.
func (m *MessageRouterResponse) Decode(r *serialization.Reader, length int) error {
	if length < routerResponseHeaderLen {
		return fmt.Errorf("%w: router response needs %d bytes, got %d",
			ErrMessageTooShort, routerResponseHeaderLen, length)
	}

	var out MessageRouterResponse
	var err error
	if out.ReplyService, err = r.ReadUint8(); err != nil {
		return err
	}
	if out.Reserved, err = r.ReadUint8(); err != nil {
		return err
	}
	if out.GeneralStatus, err = r.ReadUint8(); err != nil {
		return err
	}
	statusWords, err := r.ReadUint8()
	if err != nil {
		return err
	}

	// Additional status size is in words.
	remaining := length - routerResponseHeaderLen
	if need := 2 * int(statusWords); need > remaining {
		return fmt.Errorf("%w: %d additional status words need %d bytes, %d declared",
			serialization.ErrBufferUnderrun, statusWords, need, remaining)
	}
	if statusWords > 0 {
		out.AdditionalStatus = make([]uint16, statusWords)
		for i := range out.AdditionalStatus {
			if out.AdditionalStatus[i], err = r.ReadUint16(); err != nil {
				return err
			}
		}
	}
	remaining -= 2 * int(statusWords)

	if err := out.ResponseData.Decode(r, remaining); err != nil {
		return fmt.Errorf("router response data: %w", err)
	}

	*m = out
	return nil
}

// StatusErr returns a *StatusError for a failed reply and nil otherwise.
func (m *MessageRouterResponse) StatusErr() error {
	if m.GeneralStatus == 0 {
		return nil
	}
	e := &StatusError{Service: m.Service(), GeneralStatus: m.GeneralStatus}
	if len(m.AdditionalStatus) > 0 {
		e.ExtStatus = m.AdditionalStatus[0]
	}
	return e
}
