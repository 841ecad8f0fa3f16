package blemidi

import "errors"

// Writer-level errors (C2). Internal to the writer; the orchestrator
// recovers from these locally (spec.md §7): PacketFull advances the
// ring, the Invalid* ones drop the chunk with a log line.
var (
	ErrPacketFull     = errors.New("blemidi: packet full")
	ErrAlreadyInSysex = errors.New("blemidi: already in sysex")
	ErrNotInSysex     = errors.New("blemidi: not in sysex")
	ErrInvalidStatus  = errors.New("blemidi: invalid status byte")
	ErrInvalidData    = errors.New("blemidi: invalid data byte")
)

// Parser-level errors (C3). Returned to the platform glue, which logs
// and discards the current inbound packet; the connection continues.
var (
	ErrUnexpectedEOF    = errors.New("blemidi: unexpected end of payload")
	ErrInvalidHeaderByte = errors.New("blemidi: invalid header byte")
	ErrInvalidStatusByte = errors.New("blemidi: invalid status byte")
	ErrUnexpectedDataByte = errors.New("blemidi: unexpected data byte")
)

// Ring-level errors (C4).
var ErrRingFull = errors.New("blemidi: tx ring full")

// FIFO-level errors (C5).
var ErrFIFOFull = errors.New("blemidi: tx fifo full")

// Facade-level errors (C7, spec.md §7).
var (
	ErrAlreadyInitialized = errors.New("blemidi: already initialized")
	ErrNotConnected       = errors.New("blemidi: not connected")
	ErrTxFIFOFull         = errors.New("blemidi: tx fifo full")
	ErrInvalidArgument    = errors.New("blemidi: invalid argument")
)
