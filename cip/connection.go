package cip

import (
	"sync/atomic"
	"time"
)

// CIP Connection Manager services
const (
	SvcForwardOpen      byte = 0x54 // Standard Forward Open (16-bit params, ≤511 bytes)
	SvcForwardOpenLarge byte = 0x5B // Large Forward Open (32-bit params, >511 bytes)

	replyFlag byte = 0x80
)

// Connection represents an established CIP connection.
type Connection struct {
	OTConnID     uint32        // Originator -> Target connection ID
	TOConnID     uint32        // Target -> Originator connection ID
	SerialNumber uint16        // Connection serial number (for Forward Close)
	VendorID     uint16        // Originator vendor ID
	OrigSerial   uint32        // Originator serial number
	OTRPI        time.Duration // negotiated O->T packet interval
	TORPI        time.Duration // negotiated T->O packet interval

	seq uint32 // Atomic sequence counter (low 16 bits used)
}

// NextSequence returns the next sequence number for connected messaging.
func (c *Connection) NextSequence() uint16 {
	return uint16(atomic.AddUint32(&c.seq, 1))
}

// Connection returns the connection established by this reply.
func (m *ForwardOpenSuccess) Connection() *Connection {
	return &Connection{
		OTConnID:     m.OTConnectionID,
		TOConnID:     m.TOConnectionID,
		SerialNumber: m.ConnectionSerial,
		VendorID:     m.OriginatorVendorID,
		OrigSerial:   m.OriginatorSerial,
		OTRPI:        time.Duration(m.OTAPI) * time.Microsecond,
		TORPI:        time.Duration(m.TOAPI) * time.Microsecond,
	}
}
