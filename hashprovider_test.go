package nexplock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewHashProviderReturnsSHA256Family(t *testing.T) {
	hp := NewHashProvider()
	require.Equal(t, HashSHA256, hp.HashName())
	require.Equal(t, 32, hp.HMACKeySize())
	require.Equal(t, 32, hp.SaltSize())
}

func TestHashProviderHMACIsKeyed(t *testing.T) {
	hp := NewHashProvider()
	macA := hp.NewHMAC([]byte("key-a"))
	macA.Write([]byte("message"))
	sumA := macA.Sum(nil)

	macB := hp.NewHMAC([]byte("key-b"))
	macB.Write([]byte("message"))
	sumB := macB.Sum(nil)

	require.NotEqual(t, sumA, sumB)
}

func TestHashNameString(t *testing.T) {
	require.Equal(t, "sha256", HashSHA256.String())
	require.Equal(t, "unknown", HashName(255).String())
}
