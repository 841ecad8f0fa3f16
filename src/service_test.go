package blemidi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClock() (*Service, func(uint16), *[][]byte) {
	var now uint16
	var sent [][]byte
	sink := SinkFunc(func(payload []byte) error {
		sent = append(sent, append([]byte(nil), payload...))
		return nil
	})
	clock := ClockFunc(func() uint16 { return now })
	svc := New(Options{
		Mode:                 SingleMessage,
		Sink:                 sink,
		Clock:                clock,
		PacketMaxSize:        64,
		RunningStatusEnabled: true,
	})
	return svc, func(ts uint16) { now = ts }, &sent
}

func Test_Service_InitTwiceFails(t *testing.T) {
	svc, _, _ := newTestClock()
	require.NoError(t, svc.Init())
	assert.ErrorIs(t, svc.Init(), ErrAlreadyInitialized)
}

func Test_Service_TxMsgRequiresReady(t *testing.T) {
	svc, _, _ := newTestClock()
	require.NoError(t, svc.Init())
	err := svc.TxMsg(0x90, 0x10, 0x20)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func Test_Service_SingleMessageSendsImmediately(t *testing.T) {
	svc, setNow, sent := newTestClock()
	require.NoError(t, svc.Init())
	svc.SetReadyState(Ready)
	setNow(10)

	require.NoError(t, svc.TxMsg(0x90, 0x40, 0x7F))
	require.Len(t, *sent, 1)
	assert.Equal(t, byte(0x80), (*sent)[0][0])
}

func Test_Service_SingleMessageSysexSendsOnEveryCall(t *testing.T) {
	svc, setNow, sent := newTestClock()
	require.NoError(t, svc.Init())
	svc.SetReadyState(Ready)
	setNow(0)

	require.NoError(t, svc.TxSysexStart())
	require.Len(t, *sent, 1, "sysex start must send its own packet immediately")

	n, err := svc.TxSysexData([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, *sent, 2, "sysex data must send its own packet immediately")

	require.NoError(t, svc.TxSysexEnd())
	require.Len(t, *sent, 3, "sysex end must send its own packet immediately")
}

func Test_Service_DisconnectResetsState(t *testing.T) {
	svc, setNow, _ := newTestClock()
	require.NoError(t, svc.Init())
	svc.SetReadyState(Ready)
	setNow(0)
	require.NoError(t, svc.TxSysexStart())

	svc.SetReadyState(Disconnected)
	assert.False(t, svc.solo.InSysex())

	err := svc.TxMsg(0x90, 0x10, 0x20)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func Test_Service_BatchedOnTickRequiresTick(t *testing.T) {
	var now uint16
	var sent [][]byte
	sink := SinkFunc(func(payload []byte) error {
		sent = append(sent, payload)
		return nil
	})
	clock := ClockFunc(func() uint16 { return now })
	svc := New(Options{
		Mode:          BatchedOnTick,
		Sink:          sink,
		Clock:         clock,
		PacketMaxSize: 64,
	})
	require.NoError(t, svc.Init())
	svc.SetReadyState(Ready)

	require.NoError(t, svc.TxMsg(0x90, 0x10, 0x20))
	assert.Empty(t, sent, "batched-on-tick must not send before Tick")

	svc.Tick()
	assert.Len(t, sent, 1)
}

func Test_Service_BatchedManualRequiresFlush(t *testing.T) {
	var now uint16
	var sent [][]byte
	sink := SinkFunc(func(payload []byte) error {
		sent = append(sent, payload)
		return nil
	})
	clock := ClockFunc(func() uint16 { return now })
	svc := New(Options{
		Mode:          BatchedManual,
		Sink:          sink,
		Clock:         clock,
		PacketMaxSize: 64,
	})
	require.NoError(t, svc.Init())
	svc.SetReadyState(Ready)

	require.NoError(t, svc.TxMsg(0x90, 0x10, 0x20))
	assert.Empty(t, sent)

	require.NoError(t, svc.TxFlush())
	assert.Len(t, sent, 1)
}

func Test_Service_InvalidStatusMapsToInvalidArgument(t *testing.T) {
	svc, setNow, _ := newTestClock()
	require.NoError(t, svc.Init())
	svc.SetReadyState(Ready)
	setNow(0)

	require.NoError(t, svc.TxSysexStart())
	err := svc.TxMsg(0x90, 0x10, 0x20)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func Test_Service_OnReadyCallbackFires(t *testing.T) {
	var states []ReadyState
	svc := New(Options{
		Mode:          SingleMessage,
		Sink:          SinkFunc(func([]byte) error { return nil }),
		Clock:         ClockFunc(func() uint16 { return 0 }),
		PacketMaxSize: 64,
		OnReady:       func(s ReadyState) { states = append(states, s) },
	})
	svc.SetReadyState(Connected)
	svc.SetReadyState(Ready)
	require.Len(t, states, 2)
	assert.Equal(t, Connected, states[0])
	assert.Equal(t, Ready, states[1])
}
