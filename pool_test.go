package nexplock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRentBufferIsZeroed(t *testing.T) {
	buf := RentBuffer(128)
	require.Len(t, buf, 128)
	for _, b := range buf {
		require.Equal(t, byte(0), b)
	}
	ReturnBuffer(buf)
}

func TestReturnBufferZeroesBeforeReuse(t *testing.T) {
	buf := RentBuffer(64)
	for i := range buf {
		buf[i] = 0xFF
	}
	ReturnBuffer(buf)

	again := RentBuffer(64)
	for _, b := range again {
		require.Equal(t, byte(0), b)
	}
	ReturnBuffer(again)
}

func TestRentBufferOversizeNotPooled(t *testing.T) {
	buf := RentBuffer(poolBufCap * 4)
	require.Len(t, buf, poolBufCap*4)
	ReturnBuffer(buf) // must not panic on an unpooled buffer
}

func TestZeroize(t *testing.T) {
	b := []byte("secret material")
	Zeroize(b)
	for _, c := range b {
		require.Equal(t, byte(0), c)
	}

	// Zeroize on an empty slice must not panic.
	Zeroize(nil)
	Zeroize([]byte{})
}
