package eip

import (
	"errors"
	"fmt"

	"eipcodec/serialization"
)

// Encapsulation commands
const (
	NOP               uint16 = 0x00
	RegisterSession   uint16 = 0x65
	UnRegisterSession uint16 = 0x66
	SendRRData        uint16 = 0x6F
	SendUnitData      uint16 = 0x70
)

// EncapHeaderLen is the fixed size of the encapsulation header.
const EncapHeaderLen = 24

var ErrHeaderTooShort = errors.New("eip: encapsulation header too short")

// Encapsulation is a generic EtherNet/IP encapsulation frame. Length on the
// wire is always len(Data).
type Encapsulation struct {
	Command       uint16
	SessionHandle uint32
	Status        uint32
	SenderContext [8]byte
	Options       uint32
	Data          serialization.Buffer
}

func (m *Encapsulation) EncodedLen() int {
	return EncapHeaderLen + m.Data.EncodedLen()
}

func (m *Encapsulation) Encode(w *serialization.Writer) error {
	n := m.Data.EncodedLen()
	if n > 0xFFFF {
		return fmt.Errorf("Encapsulation: payload of %d bytes exceeds 65535", n)
	}
	if err := w.WriteUint16(m.Command); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(n)); err != nil {
		return err
	}
	if err := w.WriteUint32(m.SessionHandle); err != nil {
		return err
	}
	if err := w.WriteUint32(m.Status); err != nil {
		return err
	}
	if err := w.WriteBytes(m.SenderContext[:]); err != nil {
		return err
	}
	if err := w.WriteUint32(m.Options); err != nil {
		return err
	}
	return m.Data.Encode(w)
}

// Decode reads one frame. length bounds the header plus payload; the payload
// size itself comes from the header's length field.
func (m *Encapsulation) Decode(r *serialization.Reader, length int) error {
	if length < EncapHeaderLen {
		return fmt.Errorf("%w: need %d bytes, got %d", ErrHeaderTooShort, EncapHeaderLen, length)
	}

	var out Encapsulation
	var err error
	if out.Command, err = r.ReadUint16(); err != nil {
		return err
	}
	dataLen, err := r.ReadUint16()
	if err != nil {
		return err
	}
	if out.SessionHandle, err = r.ReadUint32(); err != nil {
		return err
	}
	if out.Status, err = r.ReadUint32(); err != nil {
		return err
	}
	ctx, err := r.ReadBytes(len(out.SenderContext))
	if err != nil {
		return err
	}
	copy(out.SenderContext[:], ctx)
	if out.Options, err = r.ReadUint32(); err != nil {
		return err
	}

	if avail := length - EncapHeaderLen; int(dataLen) > avail {
		return fmt.Errorf("%w: encapsulation length %d, %d declared",
			serialization.ErrBufferUnderrun, dataLen, avail)
	}
	if err := out.Data.Decode(r, int(dataLen)); err != nil {
		return fmt.Errorf("encapsulation data: %w", err)
	}

	*m = out
	return nil
}

// CommandData is the body of SendRRData and SendUnitData: interface handle,
// timeout and a common packet.
type CommandData struct {
	InterfaceHandle uint32
	Timeout         uint16
	Packet          CommonPacket
}

func (c *CommandData) EncodedLen() int {
	return 6 + c.Packet.EncodedLen()
}

func (c *CommandData) Encode(w *serialization.Writer) error {
	if err := w.WriteUint32(c.InterfaceHandle); err != nil {
		return err
	}
	if err := w.WriteUint16(c.Timeout); err != nil {
		return err
	}
	return c.Packet.Encode(w)
}

func (c *CommandData) Decode(r *serialization.Reader, length int) error {
	if length < 6 {
		return fmt.Errorf("%w: command data needs 6 bytes, got %d", serialization.ErrBufferUnderrun, length)
	}

	var out CommandData
	var err error
	if out.InterfaceHandle, err = r.ReadUint32(); err != nil {
		return err
	}
	if out.Timeout, err = r.ReadUint16(); err != nil {
		return err
	}
	if err := out.Packet.Decode(r, length-6); err != nil {
		return err
	}

	*c = out
	return nil
}
