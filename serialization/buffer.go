package serialization

// Buffer is an uninterpreted payload. After Decode it aliases the reader's
// buffer, so the source must stay untouched for as long as the Buffer is used.
// Call Clone to get a copy that owns its bytes.
type Buffer struct {
	data []byte
}

// NewBuffer wraps data for encoding. data is not copied.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	return b.data
}

func (b *Buffer) EncodedLen() int {
	return len(b.Bytes())
}

func (b *Buffer) Encode(w *Writer) error {
	return w.WriteBytes(b.Bytes())
}

// Decode takes exactly length bytes from r without copying.
func (b *Buffer) Decode(r *Reader, length int) error {
	data, err := r.ReadBytes(length)
	if err != nil {
		return err
	}
	b.data = data
	return nil
}

// Clone returns a Buffer holding its own copy of the bytes.
func (b *Buffer) Clone() *Buffer {
	if b == nil {
		return nil
	}
	out := &Buffer{}
	if b.data != nil {
		out.data = append([]byte(nil), b.data...)
	}
	return out
}
