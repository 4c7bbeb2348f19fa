package link

import "time"

// Wire-level constants shared with the device firmware. These are a fixed,
// versionless contract: changing any of them requires a coordinated firmware
// update.
const (
	// Framing markers
	FrameStart byte = 0xFF // single pattern start
	FrameEnd   byte = 0xFE // single pattern end
	AnimStart  byte = 0xFA // animation start; next byte carries the frame count
	AnimEnd    byte = 0xFB // animation end

	// MaxFrames is the device-side animation buffer limit.
	MaxFrames = 10

	// Acknowledgment lines sent by the firmware after a payload.
	AckPattern      = "Pattern received."
	AckAnimation    = "Animation received."
	AckBadEndMarker = "Invalid end marker received."

	// DefaultAckTimeout bounds the wait for an acknowledgment line.
	DefaultAckTimeout = 5 * time.Second

	ackPollInterval = 50 * time.Millisecond
)
