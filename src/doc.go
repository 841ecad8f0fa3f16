// Package blemidi implements the codec and transmit queue described in
// Apple's "Specification for MIDI over Bluetooth Low Energy" (2015).
//
// It encodes a stream of MIDI 1.0 messages into BLE GATT notification
// payloads bounded by a negotiated MTU, decodes such payloads back into
// timestamped MIDI events, and provides a producer/consumer transmit
// pipeline that batches messages across connection-event boundaries.
//
// The GATT service itself, the platform timebase and the connection-event
// tick are external collaborators: this package only consumes the Sink
// and Clock capability interfaces, and is driven by Service.Tick.
package blemidi
