package cip

import (
	"fmt"

	"eipcodec/logging"
	"eipcodec/serialization"
)

// ForwardOpenSuccessFixedLen is the size of the fixed part of a Forward Open
// success reply, up to and including the reserved byte.
const ForwardOpenSuccessFixedLen = 26

// maxReplyWords is the largest application reply size the one-byte field can carry.
const maxReplyWords = 0xFF

// ForwardOpenSuccess is the reply data of a successful Forward Open (0x54) or
// Large Forward Open (0x5B).
//
// After Decode, ResponseData is a *serialization.Buffer that aliases the
// decoded frame. Use Clone before reusing that frame's storage.
type ForwardOpenSuccess struct {
	OTConnectionID     uint32 // chosen by the target for O->T
	TOConnectionID     uint32 // chosen by the target for T->O
	ConnectionSerial   uint16
	OriginatorVendorID uint16
	OriginatorSerial   uint32
	OTAPI              uint32 // O->T actual packet interval, microseconds
	TOAPI              uint32 // T->O actual packet interval, microseconds
	ReplySize          uint8  // application reply size in 16-bit words
	Reserved           uint8

	// Application reply data, nil when ReplySize is 0.
	ResponseData serialization.Serializable
}

// EncodedLen returns the wire size of m in its current state.
func (m *ForwardOpenSuccess) EncodedLen() int {
	n := ForwardOpenSuccessFixedLen
	if m.ResponseData != nil {
		n += m.ResponseData.EncodedLen()
	}
	return n
}

// Decode reads a Forward Open success reply of at most length bytes.
// On error m is left unchanged.
func (m *ForwardOpenSuccess) Decode(r *serialization.Reader, length int) error {
	if length < ForwardOpenSuccessFixedLen {
		return fmt.Errorf("%w: Forward Open success needs %d bytes, got %d",
			ErrMessageTooShort, ForwardOpenSuccessFixedLen, length)
	}

	var out ForwardOpenSuccess
	var err error
	if out.OTConnectionID, err = r.ReadUint32(); err != nil {
		return err
	}
	if out.TOConnectionID, err = r.ReadUint32(); err != nil {
		return err
	}
	if out.ConnectionSerial, err = r.ReadUint16(); err != nil {
		return err
	}
	if out.OriginatorVendorID, err = r.ReadUint16(); err != nil {
		return err
	}
	if out.OriginatorSerial, err = r.ReadUint32(); err != nil {
		return err
	}
	if out.OTAPI, err = r.ReadUint32(); err != nil {
		return err
	}
	if out.TOAPI, err = r.ReadUint32(); err != nil {
		return err
	}
	if out.ReplySize, err = r.ReadUint8(); err != nil {
		return err
	}
	if out.Reserved, err = r.ReadUint8(); err != nil {
		return err
	}

	trailing := replyBytes(out.ReplySize)
	if trailing > 0 {
		if avail := length - ForwardOpenSuccessFixedLen; trailing > avail {
			return fmt.Errorf("%w: application reply of %d words needs %d bytes, %d declared",
				serialization.ErrBufferUnderrun, out.ReplySize, trailing, avail)
		}
		data := &serialization.Buffer{}
		if err := data.Decode(r, trailing); err != nil {
			return fmt.Errorf("application reply data: %w", err)
		}
		out.ResponseData = data
	}

	*m = out
	return nil
}

// Encode writes m. The reply size on the wire is taken from ResponseData, not
// from m.ReplySize, so a stale ReplySize cannot desynchronise the frame.
func (m *ForwardOpenSuccess) Encode(w *serialization.Writer) error {
	var replySize uint8
	if m.ResponseData != nil {
		n := m.ResponseData.EncodedLen()
		if n%2 != 0 || n > 2*maxReplyWords {
			return fmt.Errorf("%w: got %d", ErrReplyDataSize, n)
		}
		replySize = replyWords(n)
	}
	if err := w.WriteUint32(m.OTConnectionID); err != nil {
		return err
	}
	if err := w.WriteUint32(m.TOConnectionID); err != nil {
		return err
	}
	if err := w.WriteUint16(m.ConnectionSerial); err != nil {
		return err
	}
	if err := w.WriteUint16(m.OriginatorVendorID); err != nil {
		return err
	}
	if err := w.WriteUint32(m.OriginatorSerial); err != nil {
		return err
	}
	if err := w.WriteUint32(m.OTAPI); err != nil {
		return err
	}
	if err := w.WriteUint32(m.TOAPI); err != nil {
		return err
	}
	if err := w.WriteUint8(replySize); err != nil {
		return err
	}
	if err := w.WriteUint8(m.Reserved); err != nil {
		return err
	}

	if m.ResponseData != nil {
		return m.ResponseData.Encode(w)
	}
	return nil
}

// ResponseBytes returns the application reply bytes when ResponseData is an
// opaque buffer, and nil otherwise.
func (m *ForwardOpenSuccess) ResponseBytes() []byte {
	if b, ok := m.ResponseData.(*serialization.Buffer); ok && b != nil {
		return b.Bytes()
	}
	return nil
}

// Clone returns a copy of m whose reply data no longer aliases the decode buffer.
func (m *ForwardOpenSuccess) Clone() *ForwardOpenSuccess {
	out := *m
	if b, ok := m.ResponseData.(*serialization.Buffer); ok {
		out.ResponseData = b.Clone()
	}
	return &out
}

// replyBytes and replyWords are the only places the word count is converted.
func replyBytes(words uint8) int { return 2 * int(words) }

func replyWords(n int) uint8 { return uint8(n / 2) }

// DecodeForwardOpenSuccess decodes a Forward Open success reply occupying the
// first length bytes of buf. The returned message aliases buf.
func DecodeForwardOpenSuccess(buf []byte, length int) (*ForwardOpenSuccess, error) {
	logging.DebugRX(logging.ProtoCIP, buf)

	r := serialization.NewReader(buf)
	m := &ForwardOpenSuccess{}
	if err := m.Decode(r, length); err != nil {
		logging.DebugError(logging.ProtoCIP, "ForwardOpenSuccess decode", err)
		return nil, err
	}
	if r.BytesConsumed() != length {
		logging.DebugLog(logging.ProtoCIP, "ForwardOpenSuccess consumed %d of %d declared bytes",
			r.BytesConsumed(), length)
	}

	logging.DebugLog(logging.ProtoCIP, "ForwardOpenSuccess O->T=0x%08X T->O=0x%08X serial=0x%04X reply=%d words",
		m.OTConnectionID, m.TOConnectionID, m.ConnectionSerial, m.ReplySize)
	return m, nil
}

// EncodeForwardOpenSuccess returns the wire form of m.
func EncodeForwardOpenSuccess(m *ForwardOpenSuccess) ([]byte, error) {
	out, err := serialization.Marshal(m)
	if err != nil {
		logging.DebugError(logging.ProtoCIP, "ForwardOpenSuccess encode", err)
		return nil, err
	}
	logging.DebugTX(logging.ProtoCIP, out)
	return out, nil
}
