package blemidi

import (
	"errors"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// TxQueue drains the staging FIFO into the TX ring and drives the
// notify sink (component C6, spec.md §4.6). It is the single consumer
// of its FIFO: drainFIFOToRing and flushRingToSink must only ever run
// from one goroutine (the platform's work queue / connection-event
// tick), matching spec.md §5's scheduling model.
type TxQueue struct {
	fifo         *FIFO
	fifoCapacity int
	ring         *Ring
	sink         Sink
	clock        Clock
	logger       *log.Logger

	// hasTxData is set by a producer after a successful FIFO push and
	// cleared by the consumer once the ring empties back out.
	hasTxData atomic.Bool
	// waitingForNotifyBuf is set when the sink reports its notification
	// buffer saturated and cleared by NotifyComplete.
	waitingForNotifyBuf atomic.Bool

	// peekedChunk holds a chunk already popped off the FIFO that could
	// not be appended to the ring (ring full); it is retried, not
	// re-consumed from the FIFO, on the next drain (spec.md §4.6 step 2).
	peekedChunk *chunk

	// pendingSysexData is the unwritten remainder of an in-progress
	// sysex data chunk, carried across drain invocations when the ring
	// ran out of room mid-forward (spec.md §4.6 step 1).
	pendingSysexData []byte
}

// NewTxQueue constructs an orchestrator around a freshly made FIFO and
// the given Ring, wired to the given Sink and Clock.
func NewTxQueue(fifoCapacity int, ring *Ring, sink Sink, clock Clock, logger *log.Logger) *TxQueue {
	return &TxQueue{
		fifo:         NewFIFO(fifoCapacity),
		fifoCapacity: fifoCapacity,
		ring:         ring,
		sink:         sink,
		clock:        clock,
		logger:       loggerOrDefault(logger),
	}
}

// EnqueueMessage stages a non-sysex message or a sysex-start/end marker
// (status 0xF0/0xF7, spec.md §3) for later draining.
func (q *TxQueue) EnqueueMessage(status, d1, d2 byte) error {
	if err := q.fifo.PushMessage(status, d1, d2); err != nil {
		return err
	}
	q.hasTxData.Store(true)
	return nil
}

// EnqueueSetMaxSize stages a "set max packet size" control chunk.
func (q *TxQueue) EnqueueSetMaxSize(cap uint16) error {
	if err := q.fifo.PushSetMaxSize(cap); err != nil {
		return err
	}
	q.hasTxData.Store(true)
	return nil
}

// EnqueueSysexData stages up to 255 sysex data bytes, returning the
// number actually accepted (a short write is normal; the caller loops,
// spec.md §4.5).
func (q *TxQueue) EnqueueSysexData(data []byte) (int, error) {
	n, err := q.fifo.PushSysexData(data)
	if n > 0 {
		q.hasTxData.Store(true)
	}
	return n, err
}

// HasTxData reports whether there is data staged or in flight.
func (q *TxQueue) HasTxData() bool { return q.hasTxData.Load() }

// WaitingForNotifyBuf reports whether the send loop is stalled waiting
// for the platform's notification buffer to drain.
func (q *TxQueue) WaitingForNotifyBuf() bool { return q.waitingForNotifyBuf.Load() }

// NotifyComplete is called from the platform's on_send_complete
// callback (spec.md §4.6 "Sink contract"). It clears the saturated
// flag so the next tick can resume sending.
func (q *TxQueue) NotifyComplete() {
	q.waitingForNotifyBuf.Store(false)
}

// Reset clears the FIFO, the ring and both atomics, as done on
// disconnect (spec.md §5).
func (q *TxQueue) Reset() {
	q.fifo = NewFIFO(q.fifoCapacity)
	q.ring.Reset()
	q.peekedChunk = nil
	q.pendingSysexData = nil
	q.hasTxData.Store(false)
	q.waitingForNotifyBuf.Store(false)
}

// drainFIFOToRing drains as much of the FIFO as the ring currently has
// room for (spec.md §4.6, "Orchestration loop").
func (q *TxQueue) drainFIFOToRing() {
	if !q.forwardPendingSysexData() {
		return
	}

	for {
		if q.peekedChunk == nil {
			c, ok := q.fifo.popChunk()
			if !ok {
				return
			}
			q.peekedChunk = &c
		}

		c := q.peekedChunk
		switch c.kind {
		case chunkMessage:
			if !q.tryAppendMessage(c.status, c.data) {
				return
			}
			q.peekedChunk = nil
		case chunkSetMaxSize:
			q.ring.SetPacketCap(int(c.maxSize))
			q.peekedChunk = nil
		case chunkSysexData:
			q.pendingSysexData = c.sysexData
			q.peekedChunk = nil
			if !q.forwardPendingSysexData() {
				return
			}
		}
	}
}

// tryAppendMessage attempts a two-phase append of one message/marker
// chunk to the ring tail, advancing the ring once on PacketFull. A
// second PacketFull means the ring itself is full: the chunk is left
// un-consumed (spec.md §4.6). Invalid* writer errors are logged and the
// chunk is treated as consumed, per the writer-error recovery policy in
// spec.md §7.
func (q *TxQueue) tryAppendMessage(status byte, data [2]byte) bool {
	appendOnce := func() error {
		ts := q.clock.Now()
		switch status {
		case StatusSysexStart:
			return q.ring.CurrentTail().BeginSysex(ts)
		case StatusSysexEnd:
			return q.ring.CurrentTail().EndSysex(ts)
		default:
			return q.ring.CurrentTail().AppendMessage([3]byte{status, data[0], data[1]}, ts)
		}
	}

	err := appendOnce()
	if err == nil {
		return true
	}
	if errors.Is(err, ErrPacketFull) {
		if q.ring.Advance() != nil {
			return false
		}
		err = appendOnce()
		if err == nil {
			return true
		}
		if errors.Is(err, ErrPacketFull) {
			return false
		}
	}
	q.logger.Warn("dropping malformed tx chunk", "status", status, "err", err)
	return true
}

// forwardPendingSysexData appends as much of pendingSysexData to the
// ring as fits, advancing packets as needed. It returns false, leaving
// a residue in pendingSysexData, if the ring runs out of room.
func (q *TxQueue) forwardPendingSysexData() bool {
	for len(q.pendingSysexData) > 0 {
		ts := q.clock.Now()
		n, err := q.ring.CurrentTail().AppendSysexData(q.pendingSysexData, ts)
		if n > 0 {
			q.pendingSysexData = q.pendingSysexData[n:]
		}
		if len(q.pendingSysexData) == 0 {
			return true
		}
		if err != nil && !errors.Is(err, ErrPacketFull) {
			q.logger.Warn("dropping sysex data residue", "err", err)
			q.pendingSysexData = nil
			return true
		}
		if q.ring.Advance() != nil {
			return false
		}
	}
	return true
}

// flushRingToSink drains the FIFO, then sends sendable packets to the
// sink until the ring empties or the sink signals backpressure
// (spec.md §4.6, "Send loop").
func (q *TxQueue) flushRingToSink() {
	q.drainFIFOToRing()
	for {
		head := q.ring.PeekHead()
		if head == nil {
			break
		}
		if q.waitingForNotifyBuf.Load() {
			break
		}
		err := q.sink.Send(head.Bytes())
		if err == nil {
			q.ring.RetireHead()
			if !q.ring.HasData() {
				q.hasTxData.Store(false)
			}
			continue
		}
		if errors.Is(err, ErrSinkBufferFull) {
			q.waitingForNotifyBuf.Store(true)
			break
		}
		q.logger.Error("sink send failed", "err", err)
		break
	}
}
