package cip

import (
	"fmt"

	"eipcodec/logging"
	"eipcodec/serialization"
)

// DecodeOptions controls how strictly reply data is checked.
type DecodeOptions struct {
	// StrictLength rejects reply data that is longer than the Forward Open
	// success reply it carries.
	StrictLength bool
}

// DecodeForwardOpenReply decodes a complete CIP reply to a Forward Open or
// Large Forward Open, as found in the unconnected data item of a SendRRData
// response. The returned message aliases data.
func DecodeForwardOpenReply(data []byte, opts DecodeOptions) (*ForwardOpenSuccess, error) {
	logging.DebugRX(logging.ProtoCIP, data)

	var resp MessageRouterResponse
	if err := resp.Decode(serialization.NewReader(data), len(data)); err != nil {
		logging.DebugError(logging.ProtoCIP, "ForwardOpenReply header", err)
		return nil, fmt.Errorf("ForwardOpenReply: %w", err)
	}

	if resp.ReplyService != SvcForwardOpen|replyFlag && resp.ReplyService != SvcForwardOpenLarge|replyFlag {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnexpectedService, resp.ReplyService)
	}
	if err := resp.StatusErr(); err != nil {
		logging.DebugError(logging.ProtoCIP, "ForwardOpenReply", err)
		return nil, err
	}

	body := resp.ResponseData.Bytes()
	r := serialization.NewReader(body)
	m := &ForwardOpenSuccess{}

	var err error
	if opts.StrictLength {
		err = serialization.DecodeExact(r, m, len(body))
	} else {
		err = m.Decode(r, len(body))
	}
	if err != nil {
		logging.DebugError(logging.ProtoCIP, "ForwardOpenReply body", err)
		return nil, fmt.Errorf("ForwardOpenReply: %w", err)
	}
	if extra := r.BytesRemaining(); extra > 0 {
		logging.DebugLog(logging.ProtoCIP, "ForwardOpenReply: ignoring %d trailing bytes", extra)
	}

	return m, nil
}
