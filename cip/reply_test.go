package cip

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"eipcodec/serialization"
)

func forwardOpenReply(service byte, status byte, ext []byte, body []byte) []byte {
	out := []byte{service, 0x00, status, byte(len(ext) / 2)}
	out = append(out, ext...)
	return append(out, body...)
}

func TestMessageRouterResponse(t *testing.T) {
	t.Run("decode with additional status", func(t *testing.T) {
		raw := forwardOpenReply(0xD4, 0x01, []byte{0x00, 0x01, 0x34, 0x12}, []byte{0xAA})

		var resp MessageRouterResponse
		require.NoError(t, serialization.Unmarshal(raw, &resp))
		require.Equal(t, SvcForwardOpen, resp.Service())
		require.Equal(t, []uint16{0x0100, 0x1234}, resp.AdditionalStatus)
		require.Equal(t, []byte{0xAA}, resp.ResponseData.Bytes())
		require.Same(t, &raw[8], &resp.ResponseData.Bytes()[0])

		out, err := serialization.Marshal(&resp)
		require.NoError(t, err)
		require.Equal(t, raw, out)
	})

	t.Run("too short", func(t *testing.T) {
		var resp MessageRouterResponse
		err := resp.Decode(serialization.NewReader([]byte{0xD4, 0, 0}), 3)
		require.ErrorIs(t, err, ErrMessageTooShort)
	})

	t.Run("additional status past declared length", func(t *testing.T) {
		raw := []byte{0xD4, 0x00, 0x01, 0x02, 0x00, 0x01}
		var resp MessageRouterResponse
		err := resp.Decode(serialization.NewReader(raw), len(raw))
		require.ErrorIs(t, err, serialization.ErrBufferUnderrun)
	})

	t.Run("status error", func(t *testing.T) {
		resp := MessageRouterResponse{ReplyService: 0xDB, GeneralStatus: 0x01, AdditionalStatus: []uint16{0x0100}}
		err := resp.StatusErr()
		require.ErrorIs(t, err, ErrServiceFailed)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		require.Equal(t, SvcForwardOpenLarge, se.Service)
		require.Equal(t, uint16(0x0100), se.ExtStatus)
		require.Contains(t, se.Error(), "status=0x01, extStatus=0x0100")

		require.NoError(t, (&MessageRouterResponse{ReplyService: 0xD4}).StatusErr())
	})
}

func TestDecodeForwardOpenReply(t *testing.T) {
	body := append(fixedRegion(2), 0x01, 0x02, 0x03, 0x04)

	t.Run("standard and large replies", func(t *testing.T) {
		for _, svc := range []byte{0xD4, 0xDB} {
			raw := forwardOpenReply(svc, 0, nil, body)
			m, err := DecodeForwardOpenReply(raw, DecodeOptions{StrictLength: true})
			require.NoError(t, err)
			requireFixedFields(t, m)
			require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, m.ResponseBytes())
			require.Same(t, &raw[4+26], &m.ResponseBytes()[0])
		}
	})

	t.Run("unexpected service", func(t *testing.T) {
		_, err := DecodeForwardOpenReply(forwardOpenReply(0xCC, 0, nil, body), DecodeOptions{})
		require.ErrorIs(t, err, ErrUnexpectedService)
	})

	t.Run("failed forward open", func(t *testing.T) {
		// Connection in use / duplicate Forward Open.
		raw := forwardOpenReply(0xD4, 0x01, []byte{0x00, 0x01}, []byte{0x55, 0xAA, 0xA9, 0xCB, 0x12, 0x34, 0x55, 0xAA, 0x00, 0x00})
		_, err := DecodeForwardOpenReply(raw, DecodeOptions{})
		require.ErrorIs(t, err, ErrServiceFailed)
	})

	t.Run("truncated body", func(t *testing.T) {
		raw := forwardOpenReply(0xD4, 0, nil, body[:len(body)-1])
		_, err := DecodeForwardOpenReply(raw, DecodeOptions{})
		require.ErrorIs(t, err, serialization.ErrBufferUnderrun)

		_, err = DecodeForwardOpenReply(forwardOpenReply(0xD4, 0, nil, body[:10]), DecodeOptions{})
		require.ErrorIs(t, err, ErrMessageTooShort)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		raw := forwardOpenReply(0xD4, 0, nil, append(append([]byte(nil), body...), 0xEE, 0xEE))

		m, err := DecodeForwardOpenReply(raw, DecodeOptions{})
		require.NoError(t, err)
		require.Equal(t, uint8(2), m.ReplySize)

		_, err = DecodeForwardOpenReply(raw, DecodeOptions{StrictLength: true})
		require.ErrorIs(t, err, serialization.ErrLengthMismatch)
	})
}
