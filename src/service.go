package blemidi

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// Mode selects one of the three mutually exclusive operating modes
// (spec.md §4.7, §9 "operating modes selected by compile-time flags" —
// here a single construction-time enum instead).
type Mode int

const (
	// SingleMessage: every Tx* call synchronously produces one BLE
	// notification payload; no FIFO, no ring.
	SingleMessage Mode = iota
	// BatchedOnTick: producers push into the FIFO; Tick drives the send
	// loop, intended to be called from the platform's connection-event
	// pre-trigger.
	BatchedOnTick
	// BatchedManual: producers push into the FIFO; the caller drives the
	// send loop explicitly via TxFlush.
	BatchedManual
)

// ReadyState is the facade's connection lifecycle state (spec.md §4.7).
type ReadyState int

const (
	Disconnected ReadyState = iota
	Connected
	Ready
)

func (s ReadyState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Options configures a Service at construction (spec.md §6 "compile-time
// knobs", reframed as idiomatic Go construction options rather than
// conditional compilation, per §9).
type Options struct {
	Mode                 Mode
	Sink                 Sink
	Clock                Clock
	PacketMaxSize        int
	RingDepth            int
	FIFOCapacity         int
	RunningStatusEnabled bool
	NoteOffAsNoteOn      bool
	Logger               *log.Logger
	OnReady              func(ReadyState)
}

// Service is the public facade (component C7, spec.md §4.7): the single
// entry point an application constructs and drives. It owns the writer
// (single-message mode) or the TX queue (batched modes), and dispatches
// received payloads through the parser.
type Service struct {
	mu sync.Mutex

	mode    Mode
	sink    Sink
	clock   Clock
	logger  *log.Logger
	onReady func(ReadyState)

	initialized bool
	state       ReadyState

	// single-message mode collaborator.
	solo *Writer

	// batched-mode collaborator.
	queue *TxQueue

	runningStatusEnabled bool
	noteOffAsNoteOn      bool
}

// New constructs a Service from the given Options. It does not call
// Init; the facade is inert until Init is called, matching spec.md
// §4.7's explicit init/already-initialized step.
func New(opts Options) *Service {
	if opts.PacketMaxSize <= 0 {
		opts.PacketMaxSize = DefaultPacketSize
	}
	if opts.RingDepth <= 0 {
		opts.RingDepth = RingDepth
	}
	if opts.FIFOCapacity <= 0 {
		opts.FIFOCapacity = 256
	}
	return &Service{
		mode:                 opts.Mode,
		sink:                 opts.Sink,
		clock:                opts.Clock,
		logger:               loggerOrDefault(opts.Logger),
		onReady:              opts.OnReady,
		runningStatusEnabled: opts.RunningStatusEnabled,
		noteOffAsNoteOn:      opts.NoteOffAsNoteOn,
		queue: func() *TxQueue {
			if opts.Mode == SingleMessage {
				return nil
			}
			ring := NewRing(opts.RunningStatusEnabled, opts.NoteOffAsNoteOn)
			ring.SetPacketCap(opts.PacketMaxSize)
			return NewTxQueue(opts.FIFOCapacity, ring, opts.Sink, opts.Clock, opts.Logger)
		}(),
		solo: func() *Writer {
			if opts.Mode != SingleMessage {
				return nil
			}
			w := NewWriter(opts.RunningStatusEnabled, opts.NoteOffAsNoteOn)
			w.SetMaxSize(opts.PacketMaxSize)
			return w
		}(),
	}
}

// Init marks the facade ready to accept Tx* calls. Calling it twice
// returns ErrAlreadyInitialized (spec.md §4.7).
func (s *Service) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return ErrAlreadyInitialized
	}
	s.initialized = true
	return nil
}

// SetReadyState transitions the connection lifecycle state. Moving to
// Disconnected resets the queue/writer and outstanding state (spec.md
// §5); moving through Connected to Ready is where a negotiated MTU is
// typically applied via SetMaxPacketSize.
func (s *Service) SetReadyState(state ReadyState) {
	s.mu.Lock()
	if state == Disconnected {
		if s.queue != nil {
			s.queue.Reset()
		}
		if s.solo != nil {
			s.solo.HardReset()
		}
	}
	s.state = state
	cb := s.onReady
	s.mu.Unlock()
	if cb != nil {
		cb(state)
	}
}

// State returns the current ReadyState.
func (s *Service) State() ReadyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetMaxPacketSize applies a new negotiated packet capacity, clamped to
// MaxPacketSize (spec.md §9 open question 1: only max_size shrinks, an
// in-flight packet is sent at its original size).
func (s *Service) SetMaxPacketSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.mode {
	case SingleMessage:
		s.solo.SetMaxSize(n)
	default:
		s.queue.ring.SetPacketCap(n)
	}
}

func (s *Service) checkReady() error {
	if !s.initialized {
		return fmt.Errorf("blemidi: %w", ErrNotConnected)
	}
	if s.state == Disconnected {
		return ErrNotConnected
	}
	return nil
}

// mapWriterErr surfaces internal writer errors as ErrInvalidArgument at
// the public API boundary, per spec.md §7's error-mapping table.
func mapWriterErr(err error) error {
	if err == nil {
		return nil
	}
	switch err {
	case ErrInvalidStatus, ErrInvalidData, ErrAlreadyInSysex, ErrNotInSysex:
		return fmt.Errorf("blemidi: %w: %v", ErrInvalidArgument, err)
	default:
		return err
	}
}

// TxMsg transmits one non-sysex MIDI message (or a sysex start/end
// marker, status 0xF0/0xF7): synchronously in SingleMessage mode,
// staged into the FIFO otherwise (spec.md §4.7).
func (s *Service) TxMsg(status, d1, d2 byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkReady(); err != nil {
		return err
	}

	if s.mode == SingleMessage {
		s.solo.Reset()
		ts := s.clock.Now()
		var err error
		switch status {
		case StatusSysexStart:
			err = s.solo.BeginSysex(ts)
		case StatusSysexEnd:
			err = s.solo.EndSysex(ts)
		default:
			err = s.solo.AppendMessage([3]byte{status, d1, d2}, ts)
		}
		if err != nil {
			return mapWriterErr(err)
		}
		payload := append([]byte(nil), s.solo.Bytes()...)
		if sendErr := s.sink.Send(payload); sendErr != nil {
			s.logger.Error("single-message send failed", "err", sendErr)
			return sendErr
		}
		return nil
	}

	if err := s.queue.EnqueueMessage(status, d1, d2); err != nil {
		return fmt.Errorf("blemidi: %w", ErrTxFIFOFull)
	}
	return nil
}

// TxSysexStart begins a sysex transfer.
func (s *Service) TxSysexStart() error {
	return s.TxMsg(StatusSysexStart, 0, 0)
}

// TxSysexEnd closes a sysex transfer.
func (s *Service) TxSysexEnd() error {
	return s.TxMsg(StatusSysexEnd, 0, 0)
}

// TxSysexData transmits sysex body bytes. In SingleMessage mode each
// call resets the writer and sends its own packet immediately, exactly
// as tx_msg/tx_sysex_* do in the original: the writer never accumulates
// sysex data across separate calls. It returns the number of bytes
// accepted; callers loop on a short return (spec.md §4.7).
func (s *Service) TxSysexData(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkReady(); err != nil {
		return 0, err
	}

	if s.mode == SingleMessage {
		s.solo.Reset()
		n, err := s.solo.AppendSysexData(data, s.clock.Now())
		if err != nil {
			return n, mapWriterErr(err)
		}
		payload := append([]byte(nil), s.solo.Bytes()...)
		if sendErr := s.sink.Send(payload); sendErr != nil {
			s.logger.Error("single-message send failed", "err", sendErr)
			return n, sendErr
		}
		return n, nil
	}

	chunk := data
	if len(chunk) > 255 {
		chunk = chunk[:255]
	}
	n, err := s.queue.EnqueueSysexData(chunk)
	if err != nil {
		return n, fmt.Errorf("blemidi: %w", ErrTxFIFOFull)
	}
	return n, nil
}

// TxFlush runs the orchestrator's send loop once. Only meaningful in
// BatchedManual mode (spec.md §4.7); a no-op otherwise.
func (s *Service) TxFlush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkReady(); err != nil {
		return err
	}
	if s.mode != BatchedManual {
		return nil
	}
	s.queue.flushRingToSink()
	return nil
}

// Tick drives the send loop from the platform's connection-event
// pre-trigger. Only meaningful in BatchedOnTick mode.
func (s *Service) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != BatchedOnTick || s.state == Disconnected {
		return
	}
	s.queue.flushRingToSink()
}

// NotifyComplete is called from the platform's "notification sent"
// callback; it clears queue backpressure so the next tick/flush can
// resume sending (spec.md §4.6, §9 supplemented feature 4).
func (s *Service) NotifyComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue != nil {
		s.queue.NotifyComplete()
	}
}

// HandleInboundPayload parses one received packet through the given
// callbacks (RX path, spec.md §2). A malformed payload is logged and
// discarded; the connection continues (spec.md §7).
func (s *Service) HandleInboundPayload(payload []byte, cb ParseCallbacks) {
	if err := Parse(payload, cb); err != nil {
		s.logger.Warn("dropping malformed inbound packet", "err", err)
	}
}
