package serialization

import (
	"encoding/binary"
	"fmt"
)

// Reader is a position-tracking view over a byte slice. It never copies.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// need checks that n more bytes are available. The position is left alone on failure.
func (r *Reader) need(n int) error {
	if n < 0 || n > len(r.buf)-r.pos {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBufferUnderrun, n, r.pos, len(r.buf)-r.pos)
	}
	return nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadBytes returns the next n bytes as a sub-slice of the underlying buffer.
// The capacity is clamped to n so an append by the caller reallocates instead
// of overwriting the bytes that follow.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// BytesConsumed is the number of bytes read since the reader was created.
func (r *Reader) BytesConsumed() int {
	return r.pos
}

// BytesRemaining is the number of bytes left in the underlying buffer.
func (r *Reader) BytesRemaining() int {
	return len(r.buf) - r.pos
}
