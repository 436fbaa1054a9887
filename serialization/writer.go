package serialization

import (
	"encoding/binary"
	"fmt"
)

// Writer appends little-endian values to a buffer. A fixed writer is bounded
// by the length of the slice it was created with; a growing writer is not.
type Writer struct {
	buf   []byte
	limit int // -1 for growing writers
}

// NewWriter writes into buf and fails with ErrBufferOverrun once len(buf) bytes are used.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf[:0], limit: len(buf)}
}

// NewGrowingWriter returns a writer that allocates as needed.
func NewGrowingWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint), limit: -1}
}

func (w *Writer) room(n int) error {
	if w.limit >= 0 && n > w.limit-len(w.buf) {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrBufferOverrun, n, len(w.buf), w.limit-len(w.buf))
	}
	return nil
}

func (w *Writer) WriteUint8(v uint8) error {
	if err := w.room(1); err != nil {
		return err
	}
	w.buf = append(w.buf, v)
	return nil
}

func (w *Writer) WriteUint16(v uint16) error {
	if err := w.room(2); err != nil {
		return err
	}
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
	return nil
}

func (w *Writer) WriteUint32(v uint32) error {
	if err := w.room(4); err != nil {
		return err
	}
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return nil
}

func (w *Writer) WriteBytes(p []byte) error {
	if err := w.room(len(p)); err != nil {
		return err
	}
	w.buf = append(w.buf, p...)
	return nil
}

// BytesConsumed is the number of bytes written so far.
func (w *Writer) BytesConsumed() int {
	return len(w.buf)
}

// BytesRemaining is the capacity left. For a growing writer this is only the
// space left before the next reallocation.
func (w *Writer) BytesRemaining() int {
	if w.limit < 0 {
		return cap(w.buf) - len(w.buf)
	}
	return w.limit - len(w.buf)
}

// Bytes returns the written prefix. For a fixed writer it shares storage with
// the slice passed to NewWriter.
func (w *Writer) Bytes() []byte {
	return w.buf
}
