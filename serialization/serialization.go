// Package serialization provides bounds-checked little-endian cursors over byte
// buffers and the Serializable contract implemented by every EIP/CIP message.
package serialization

import (
	"errors"
	"fmt"
)

var (
	ErrBufferUnderrun = errors.New("serialization: buffer underrun")
	ErrBufferOverrun  = errors.New("serialization: buffer overrun")
	ErrLengthMismatch = errors.New("serialization: length mismatch")
)

// Serializable is implemented by anything that can be put on the wire.
//
// Decode is handed the number of bytes the caller says belong to this object.
// That bound can be smaller than r.BytesRemaining() when the reader holds
// further frames, and Decode must never read past it.
type Serializable interface {
	EncodedLen() int
	Encode(w *Writer) error
	Decode(r *Reader, length int) error
}

// Marshal encodes s into a freshly allocated buffer of exactly EncodedLen() bytes.
func Marshal(s Serializable) ([]byte, error) {
	n := s.EncodedLen()
	w := NewWriter(make([]byte, n))
	if err := s.Encode(w); err != nil {
		return nil, err
	}
	if w.BytesConsumed() != n {
		return nil, fmt.Errorf("%w: encoded %d bytes, expected %d", ErrLengthMismatch, w.BytesConsumed(), n)
	}
	return w.Bytes(), nil
}

// Unmarshal decodes all of buf into s. Anything left over is an error.
func Unmarshal(buf []byte, s Serializable) error {
	return DecodeExact(NewReader(buf), s, len(buf))
}

// DecodeExact decodes s from r and checks that exactly length bytes were consumed.
func DecodeExact(r *Reader, s Serializable, length int) error {
	start := r.BytesConsumed()
	if err := s.Decode(r, length); err != nil {
		return err
	}
	if used := r.BytesConsumed() - start; used != length {
		return fmt.Errorf("%w: consumed %d bytes, expected %d", ErrLengthMismatch, used, length)
	}
	return nil
}
