package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryResize(t *testing.T) {
	m := NewMemory()
	assert.Equal(t, uint64(0), m.Size())

	require.NoError(t, m.Resize(1))
	assert.Equal(t, uint64(32), m.Size(), "growth is word aligned")

	require.NoError(t, m.Resize(33))
	assert.Equal(t, uint64(64), m.Size())

	// shrinking is a no-op
	require.NoError(t, m.Resize(10))
	assert.Equal(t, uint64(64), m.Size())

	require.NoError(t, m.Resize(MemoryLimit))
	assert.Equal(t, uint64(MemoryLimit), m.Size())

	assert.ErrorIs(t, m.Resize(MemoryLimit+1), ErrMemoryLimit)
	assert.Equal(t, uint64(MemoryLimit), m.Size(), "failed resize leaves size unchanged")
	m.Free()
}

func TestMemorySetGet(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Resize(128))

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	m.Set(60, 4, payload)
	assert.Equal(t, payload, m.Get(60, 4))

	// fresh memory reads as zeroes
	assert.Equal(t, make([]byte, 8), m.Get(0, 8))

	// out of bounds reads return nil
	assert.Nil(t, m.Get(126, 4))
	assert.Nil(t, m.Get(0, 0))
	m.Free()
}

func TestMemorySetGetAcrossPages(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Resize(2*4096+64))

	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte(i)
	}
	// straddles the first page boundary
	m.Set(4096-50, 100, payload)
	assert.Equal(t, payload, m.Get(4096-50, 100))

	// and the second
	m.Set(2*4096-1, 2, []byte{0x11, 0x22})
	assert.Equal(t, []byte{0x11, 0x22}, m.Get(2*4096-1, 2))
	m.Free()
}

func TestMemorySet32(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Resize(64))

	m.Set32(32, []byte{0x01, 0x02})
	got := m.Get(32, 32)
	want := make([]byte, 32)
	want[30], want[31] = 0x01, 0x02
	assert.True(t, bytes.Equal(got, want), "Set32 left-pads to a full word")

	// oversized values keep their least significant 32 bytes
	long := make([]byte, 40)
	for i := range long {
		long[i] = byte(i)
	}
	m.Set32(0, long)
	assert.Equal(t, long[8:], m.Get(0, 32))
	m.Free()
}

func TestMemoryClearAndFree(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Resize(64))
	m.Set(0, 3, []byte{1, 2, 3})

	m.Clear()
	assert.Equal(t, uint64(0), m.Size())

	// pages survive a clear and read back as zeroes after regrowth
	require.NoError(t, m.Resize(64))
	assert.Equal(t, make([]byte, 3), m.Get(0, 3))

	m.Free()
	assert.Equal(t, uint64(0), m.Size())
	assert.Nil(t, m.Data())

	// freed memory is still usable
	require.NoError(t, m.Resize(32))
	m.Set(0, 1, []byte{0xAA})
	assert.Equal(t, []byte{0xAA}, m.Get(0, 1))
	m.Free()
}
