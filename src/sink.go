package blemidi

import "errors"

// ErrSinkBufferFull is returned by Sink.Send when the platform's
// notification buffer is saturated. The orchestrator treats it
// specially: it sets the "waiting for notify buffer" flag and stops
// the send loop rather than logging it as an ordinary failure
// (spec.md §4.6, §5).
var ErrSinkBufferFull = errors.New("blemidi: sink buffer full")

// Sink is the opaque BLE GATT notification writer collaborator
// (spec.md §1, §4.6). Send delivers one finished packet; any error
// other than ErrSinkBufferFull is treated as a transient failure and
// logged, leaving the packet at the head of the ring to retry on the
// next tick.
type Sink interface {
	Send(payload []byte) error
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(payload []byte) error

func (f SinkFunc) Send(payload []byte) error { return f(payload) }
