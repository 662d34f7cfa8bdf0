package nexplock

import (
	"crypto/hmac"
	"crypto/sha256"
	"hash"
	"runtime"
)

// HashName identifies the hash family a HashProvider uses.
type HashName uint8

const (
	// HashSHA256 identifies the SHA-256 family.
	HashSHA256 HashName = iota
)

func (h HashName) String() string {
	switch h {
	case HashSHA256:
		return "sha256"
	default:
		return "unknown"
	}
}

// HashProvider selects the HMAC/hash primitives VaultService and
// NonceDerivation build on, and reports the key/salt sizes that go with
// them. There is a variant per host platform so a future platform can
// swap in a hardware-accelerated primitive without touching call sites;
// all three report the same values today.
type HashProvider interface {
	// NewHMAC returns a new keyed HMAC using this provider's hash.
	NewHMAC(key []byte) hash.Hash

	// New returns a fresh, unkeyed hash.Hash constructor, the shape
	// golang.org/x/crypto/hkdf expects for HKDF-Expand.
	New() func() hash.Hash

	// HashName reports which hash family this provider uses.
	HashName() HashName

	// HMACKeySize is the recommended HMAC key size in bytes.
	HMACKeySize() int

	// SaltSize is the recommended salt size in bytes for key derivation.
	SaltSize() int
}

type sha256HashProvider struct{}

func (sha256HashProvider) NewHMAC(key []byte) hash.Hash { return hmac.New(sha256.New, key) }
func (sha256HashProvider) New() func() hash.Hash        { return sha256.New }
func (sha256HashProvider) HashName() HashName           { return HashSHA256 }
func (sha256HashProvider) HMACKeySize() int             { return 32 }
func (sha256HashProvider) SaltSize() int                { return 32 }

// linuxHashProvider, darwinHashProvider, and windowsHashProvider are
// distinct types so a platform can later diverge (e.g. a hardware-backed
// HMAC on one OS) without changing NewHashProvider's call sites.
type linuxHashProvider struct{ sha256HashProvider }
type darwinHashProvider struct{ sha256HashProvider }
type windowsHashProvider struct{ sha256HashProvider }

// NewHashProvider selects the HashProvider variant for the host platform
// nexplock is running on.
func NewHashProvider() HashProvider {
	switch runtime.GOOS {
	case "linux":
		return linuxHashProvider{}
	case "darwin":
		return darwinHashProvider{}
	case "windows":
		return windowsHashProvider{}
	default:
		return sha256HashProvider{}
	}
}
