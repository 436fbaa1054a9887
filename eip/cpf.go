package eip

// Code related to the CommonPacket Format for EIP per ODVA v1.4

import (
	"fmt"

	"eipcodec/logging"
	"eipcodec/serialization"
)

const (
	CpfAddressNullId              uint16 = 0x00
	CpfTypeListIdentityResponseId uint16 = 0x0C
	CpfAddressConnectionId        uint16 = 0xA1
	CpfConnectedTransportPacketId uint16 = 0xB1
	CpfUnconnectedMessageId       uint16 = 0xB2
	CpfListServicesResponseId     uint16 = 0x100
	CpfSockAddrInfoOtoTId         uint16 = 0x8000
	CpfSockAddrInfoTtoOId         uint16 = 0x8001
	CpfSequencedAddressId         uint16 = 0x8002
)

// cpfItemHeaderLen is type id plus length.
const cpfItemHeaderLen = 4

// CommonPacket consists of a wrapper for data items.
type CommonPacket struct {
	Items []CommonPacketItem
}

// CommonPacketItem is used for both address and data items. Its wire length
// is len(Data).
type CommonPacketItem struct {
	TypeId uint16
	Data   serialization.Buffer
}

func (p *CommonPacket) EncodedLen() int {
	n := 2
	for i := range p.Items {
		n += p.Items[i].EncodedLen()
	}
	return n
}

func (p *CommonPacket) Encode(w *serialization.Writer) error {
	if len(p.Items) > 0xFFFF {
		return fmt.Errorf("CommonPacket: too many items (%d)", len(p.Items))
	}
	if err := w.WriteUint16(uint16(len(p.Items))); err != nil {
		return err
	}
	for i := range p.Items {
		if err := p.Items[i].Encode(w); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads the item count and every item. Each item's data aliases the reader.
func (p *CommonPacket) Decode(r *serialization.Reader, length int) error {
	if length < 2 {
		return fmt.Errorf("%w: common packet needs 2 bytes, got %d", serialization.ErrBufferUnderrun, length)
	}

	count, err := r.ReadUint16()
	if err != nil {
		return err
	}
	remaining := length - 2
	if int(count)*cpfItemHeaderLen > remaining {
		return fmt.Errorf("%w: %d items cannot fit in %d bytes", serialization.ErrBufferUnderrun, count, remaining)
	}

	items := make([]CommonPacketItem, count)
	for i := range items {
		start := r.BytesConsumed()
		if err := items[i].Decode(r, remaining); err != nil {
			return fmt.Errorf("common packet item %d: %w", i, err)
		}
		remaining -= r.BytesConsumed() - start
	}

	p.Items = items
	return nil
}

func (item *CommonPacketItem) EncodedLen() int {
	return cpfItemHeaderLen + item.Data.EncodedLen()
}

func (item *CommonPacketItem) Encode(w *serialization.Writer) error {
	n := item.Data.EncodedLen()
	if n > 0xFFFF {
		return fmt.Errorf("CommonPacketItem 0x%04X: %d bytes exceeds 65535", item.TypeId, n)
	}
	if err := w.WriteUint16(item.TypeId); err != nil {
		return err
	}
	if err := w.WriteUint16(uint16(n)); err != nil {
		return err
	}
	return item.Data.Encode(w)
}

// Decode reads one item. length is the space left in the enclosing packet.
func (item *CommonPacketItem) Decode(r *serialization.Reader, length int) error {
	if length < cpfItemHeaderLen {
		return fmt.Errorf("%w: truncated item header, have %d bytes", serialization.ErrBufferUnderrun, length)
	}

	typeID, err := r.ReadUint16()
	if err != nil {
		return err
	}
	n, err := r.ReadUint16()
	if err != nil {
		return err
	}
	if int(n) > length-cpfItemHeaderLen {
		return fmt.Errorf("%w: item 0x%04X needs %d bytes, have %d",
			serialization.ErrBufferUnderrun, typeID, n, length-cpfItemHeaderLen)
	}

	var data serialization.Buffer
	if err := data.Decode(r, int(n)); err != nil {
		return err
	}

	item.TypeId = typeID
	item.Data = data
	return nil
}

// Item returns the first item with the given type id.
func (p *CommonPacket) Item(typeID uint16) (*CommonPacketItem, bool) {
	for i := range p.Items {
		if p.Items[i].TypeId == typeID {
			return &p.Items[i], true
		}
	}
	return nil, false
}

// ParseCommonPacket parses a CommonPacket occupying all of raw.
func ParseCommonPacket(raw []byte) (*CommonPacket, error) {
	p := &CommonPacket{}
	if err := serialization.Unmarshal(raw, p); err != nil {
		logging.DebugError(logging.ProtoEIP, "ParseCommonPacket", err)
		return nil, fmt.Errorf("ParseCommonPacket: %w", err)
	}
	return p, nil
}

// UnconnectedReply extracts the CIP reply carried by a SendRRData response
// frame. The returned slice aliases frame.
func UnconnectedReply(frame []byte) ([]byte, error) {
	logging.DebugRX(logging.ProtoEIP, frame)

	var encap Encapsulation
	r := serialization.NewReader(frame)
	if err := encap.Decode(r, len(frame)); err != nil {
		logging.DebugError(logging.ProtoEIP, "UnconnectedReply", err)
		return nil, fmt.Errorf("UnconnectedReply: %w", err)
	}
	if encap.Command != SendRRData {
		return nil, fmt.Errorf("UnconnectedReply: expected SendRRData, got command 0x%04X", encap.Command)
	}
	if encap.Status != 0 {
		return nil, fmt.Errorf("UnconnectedReply: encapsulation status 0x%08X", encap.Status)
	}

	var cmd CommandData
	if err := serialization.Unmarshal(encap.Data.Bytes(), &cmd); err != nil {
		logging.DebugError(logging.ProtoEIP, "UnconnectedReply", err)
		return nil, fmt.Errorf("UnconnectedReply: %w", err)
	}

	item, ok := cmd.Packet.Item(CpfUnconnectedMessageId)
	if !ok {
		return nil, fmt.Errorf("UnconnectedReply: no unconnected data item in %d items", len(cmd.Packet.Items))
	}
	return item.Data.Bytes(), nil
}
