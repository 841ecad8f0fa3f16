package blemidi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FIFO_PushMessageAndPopChunk(t *testing.T) {
	f := NewFIFO(64)
	require.NoError(t, f.PushMessage(0x90, 0x10, 0x20))

	c, ok := f.popChunk()
	require.True(t, ok)
	assert.Equal(t, chunkMessage, c.kind)
	assert.Equal(t, byte(0x90), c.status)
	assert.Equal(t, [2]byte{0x10, 0x20}, c.data)
	assert.True(t, f.Empty())
}

func Test_FIFO_PushSysexStartEndMarkers(t *testing.T) {
	f := NewFIFO(64)
	require.NoError(t, f.PushMessage(StatusSysexStart, 0, 0))
	require.NoError(t, f.PushMessage(StatusSysexEnd, 0, 0))

	c1, ok := f.popChunk()
	require.True(t, ok)
	assert.Equal(t, StatusSysexStart, c1.status)

	c2, ok := f.popChunk()
	require.True(t, ok)
	assert.Equal(t, StatusSysexEnd, c2.status)
}

func Test_FIFO_PushSetMaxSize(t *testing.T) {
	f := NewFIFO(64)
	require.NoError(t, f.PushSetMaxSize(247))
	c, ok := f.popChunk()
	require.True(t, ok)
	assert.Equal(t, chunkSetMaxSize, c.kind)
	assert.Equal(t, uint16(247), c.maxSize)
}

func Test_FIFO_PushSysexDataShortWrite(t *testing.T) {
	// capacity 10: room for a 3-byte header plus 7 data bytes.
	f := NewFIFO(10)
	n, err := f.PushSysexData([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	c, ok := f.popChunk()
	require.True(t, ok)
	assert.Equal(t, chunkSysexData, c.kind)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7}, c.sysexData)
}

func Test_FIFO_PushSysexDataCapsAt255(t *testing.T) {
	f := NewFIFO(1000)
	data := make([]byte, 300)
	n, err := f.PushSysexData(data)
	require.NoError(t, err)
	assert.Equal(t, 255, n)
}

func Test_FIFO_PushMessageFullReturnsErrFIFOFull(t *testing.T) {
	f := NewFIFO(3)
	require.NoError(t, f.PushMessage(0x90, 0x10, 0x20))
	assert.ErrorIs(t, f.PushMessage(0x91, 0x10, 0x20), ErrFIFOFull)
}

func Test_FIFO_PopChunkOnEmptyReturnsFalse(t *testing.T) {
	f := NewFIFO(16)
	_, ok := f.popChunk()
	assert.False(t, ok)
}

func Test_FIFO_PreservesProducerOrder(t *testing.T) {
	f := NewFIFO(64)
	require.NoError(t, f.PushMessage(0x90, 1, 1))
	require.NoError(t, f.PushMessage(0x90, 2, 2))
	require.NoError(t, f.PushMessage(0x90, 3, 3))

	for _, want := range []byte{1, 2, 3} {
		c, ok := f.popChunk()
		require.True(t, ok)
		assert.Equal(t, want, c.data[0])
	}
}
