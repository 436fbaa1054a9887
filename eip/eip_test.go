package eip

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"eipcodec/cip"
	"eipcodec/serialization"
)

// forwardOpenReply is a Forward Open success reply wrapped in a router
// response header, as a PLC returns it.
var forwardOpenReply = []byte{
	0xD4, 0x00, 0x00, 0x00,
	0xAD, 0xDE, 0xEF, 0xBE, 0xEF, 0xCD, 0xAB, 0xA9,
	0x55, 0xAA, 0xA9, 0xCB, 0x12, 0x34, 0x55, 0xAA,
	0x20, 0xA1, 0x07, 0x00, 0x40, 0x9C, 0x00, 0x00,
	0x01, 0x00,
	0xCA, 0xFE,
}

func sendRRDataFrame(t *testing.T, reply []byte) []byte {
	t.Helper()
	cmd := CommandData{
		Timeout: 5,
		Packet: CommonPacket{Items: []CommonPacketItem{
			{TypeId: CpfAddressNullId},
			{TypeId: CpfUnconnectedMessageId, Data: *serialization.NewBuffer(reply)},
		}},
	}
	body, err := serialization.Marshal(&cmd)
	require.NoError(t, err)

	encap := Encapsulation{
		Command:       SendRRData,
		SessionHandle: 0x12345678,
		SenderContext: [8]byte{1, 2, 3, 4, 5, 6, 7, 8},
		Data:          *serialization.NewBuffer(body),
	}
	frame, err := serialization.Marshal(&encap)
	require.NoError(t, err)
	return frame
}

func TestEncapsulation(t *testing.T) {
	t.Run("header layout", func(t *testing.T) {
		encap := Encapsulation{
			Command:       RegisterSession,
			SessionHandle: 0x01020304,
			Data:          *serialization.NewBuffer([]byte{1, 0, 0, 0}),
		}
		raw, err := serialization.Marshal(&encap)
		require.NoError(t, err)
		require.Equal(t, []byte{
			0x65, 0x00, 0x04, 0x00, 0x04, 0x03, 0x02, 0x01,
			0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
			1, 0, 0, 0,
		}, raw)
	})

	t.Run("two frames in one buffer", func(t *testing.T) {
		a, err := serialization.Marshal(&Encapsulation{Command: NOP, Data: *serialization.NewBuffer([]byte{0xAA})})
		require.NoError(t, err)
		b, err := serialization.Marshal(&Encapsulation{Command: NOP, Data: *serialization.NewBuffer([]byte{0xBB, 0xBB})})
		require.NoError(t, err)
		stream := append(append([]byte(nil), a...), b...)

		r := serialization.NewReader(stream)
		var first, second Encapsulation
		require.NoError(t, first.Decode(r, r.BytesRemaining()))
		require.Equal(t, len(a), r.BytesConsumed())
		require.NoError(t, second.Decode(r, r.BytesRemaining()))
		require.Equal(t, []byte{0xAA}, first.Data.Bytes())
		require.Equal(t, []byte{0xBB, 0xBB}, second.Data.Bytes())
		require.Equal(t, 0, r.BytesRemaining())
	})

	t.Run("short header", func(t *testing.T) {
		var encap Encapsulation
		err := encap.Decode(serialization.NewReader(make([]byte, 23)), 23)
		require.ErrorIs(t, err, ErrHeaderTooShort)
	})

	t.Run("short payload", func(t *testing.T) {
		raw, err := serialization.Marshal(&Encapsulation{Data: *serialization.NewBuffer([]byte{1, 2, 3})})
		require.NoError(t, err)

		var encap Encapsulation
		err = encap.Decode(serialization.NewReader(raw), len(raw)-1)
		require.ErrorIs(t, err, serialization.ErrBufferUnderrun)
	})
}

func TestCommonPacket(t *testing.T) {
	t.Run("parse", func(t *testing.T) {
		raw := []byte{
			0x02, 0x00,
			0x00, 0x00, 0x00, 0x00,
			0xB2, 0x00, 0x02, 0x00, 0xAB, 0xCD,
		}
		p, err := ParseCommonPacket(raw)
		require.NoError(t, err)
		require.Len(t, p.Items, 2)

		item, ok := p.Item(CpfUnconnectedMessageId)
		require.True(t, ok)
		require.Equal(t, []byte{0xAB, 0xCD}, item.Data.Bytes())
		require.Same(t, &raw[10], &item.Data.Bytes()[0])

		_, ok = p.Item(CpfConnectedTransportPacketId)
		require.False(t, ok)
	})

	tests := []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"count without items", []byte{0x01, 0x00}},
		{"truncated item header", []byte{0x01, 0x00, 0xB2, 0x00}},
		{"item data past end", []byte{0x01, 0x00, 0xB2, 0x00, 0x04, 0x00, 0x01}},
		{"huge count", []byte{0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCommonPacket(tc.raw)
			require.ErrorIs(t, err, serialization.ErrBufferUnderrun)
		})
	}

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := ParseCommonPacket([]byte{0x00, 0x00, 0xFF})
		require.ErrorIs(t, err, serialization.ErrLengthMismatch)
	})
}

func TestUnconnectedReplyToForwardOpen(t *testing.T) {
	frame := sendRRDataFrame(t, forwardOpenReply)

	reply, err := UnconnectedReply(frame)
	require.NoError(t, err)
	require.Equal(t, forwardOpenReply, reply)

	m, err := cip.DecodeForwardOpenReply(reply, cip.DecodeOptions{StrictLength: true})
	require.NoError(t, err)
	require.Equal(t, uint32(0xBEEFDEAD), m.OTConnectionID)
	require.Equal(t, uint32(40000), m.TOAPI)

	// The payload still points into the frame handed in by the transport.
	payload := m.ResponseBytes()
	require.Equal(t, []byte{0xCA, 0xFE}, payload)
	require.Same(t, &frame[len(frame)-2], &payload[0])
}

func TestUnconnectedReplyErrors(t *testing.T) {
	t.Run("wrong command", func(t *testing.T) {
		raw, err := serialization.Marshal(&Encapsulation{Command: SendUnitData})
		require.NoError(t, err)
		_, err = UnconnectedReply(raw)
		require.ErrorContains(t, err, "expected SendRRData")
	})

	t.Run("encapsulation status", func(t *testing.T) {
		raw, err := serialization.Marshal(&Encapsulation{Command: SendRRData, Status: 0x64})
		require.NoError(t, err)
		_, err = UnconnectedReply(raw)
		require.ErrorContains(t, err, "status 0x00000064")
	})

	t.Run("missing data item", func(t *testing.T) {
		body, err := serialization.Marshal(&CommandData{Packet: CommonPacket{Items: []CommonPacketItem{{TypeId: CpfAddressNullId}}}})
		require.NoError(t, err)
		raw, err := serialization.Marshal(&Encapsulation{Command: SendRRData, Data: *serialization.NewBuffer(body)})
		require.NoError(t, err)
		_, err = UnconnectedReply(raw)
		require.ErrorContains(t, err, "no unconnected data item")
	})

	t.Run("truncated frame", func(t *testing.T) {
		frame := sendRRDataFrame(t, forwardOpenReply)
		_, err := UnconnectedReply(frame[:len(frame)-1])
		require.ErrorIs(t, err, serialization.ErrBufferUnderrun)
	})
}

func TestCommonPacketRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 4).Draw(t, "items")
		in := CommonPacket{}
		for i := 0; i < n; i++ {
			in.Items = append(in.Items, CommonPacketItem{
				TypeId: rapid.Uint16().Draw(t, "typeId"),
				Data:   *serialization.NewBuffer(rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "data")),
			})
		}

		raw, err := serialization.Marshal(&in)
		require.NoError(t, err)

		out, err := ParseCommonPacket(raw)
		require.NoError(t, err)
		require.Len(t, out.Items, n)
		for i := range in.Items {
			require.Equal(t, in.Items[i].TypeId, out.Items[i].TypeId)
			require.Equal(t, in.Items[i].Data.Bytes(), out.Items[i].Data.Bytes())
		}
	})
}
