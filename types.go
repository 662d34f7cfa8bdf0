package nexplock

const (
	// BufferSize is the maximum size in bytes of a single plaintext chunk.
	BufferSize = 81920

	// TagSize is the AES-GCM authentication tag size in bytes.
	TagSize = 16

	// NonceSize is the AES-GCM nonce size in bytes.
	NonceSize = 12

	// DefaultKeySize is the content key size in bytes (AES-256).
	DefaultKeySize = 32

	// FinalEncryptedKeySize is the size in bytes of a wrapped content key:
	// two AEAD layers, each contributing NonceSize+TagSize bytes of
	// overhead around the DefaultKeySize payload.
	FinalEncryptedKeySize = DefaultKeySize + 2*(NonceSize+TagSize)

	// NonceContext domain-separates the per-chunk nonce derivation from
	// any other use of HKDF-Expand over the same PRK.
	NonceContext = "NexpLock/chunk-nonce/v1"

	// SystemSecurityKeySize is the size in bits of the process-local
	// system security key.
	SystemSecurityKeySize = 256

	// SSKSaltSize is the size in bytes of the salt used to derive the SSK.
	SSKSaltSize = 32

	// SSKSeedSize is the size in bytes of the random seed PBKDF2 stretches
	// into the SSK.
	SSKSeedSize = 32

	// DefaultPBKDF2Iterations is the fixed iteration count used to derive
	// the SSK from its seed and salt.
	DefaultPBKDF2Iterations = 100_000

	// DefaultVaultSubdir is the directory under the process base
	// directory that holds the persisted SSK file.
	DefaultVaultSubdir = "vault"

	// DefaultSSKFilename is the name of the persisted SSK file.
	DefaultSSKFilename = "nexplock.spbin"

	// MaxPathLength is the maximum accepted length of a request path,
	// matching the common Windows MAX_PATH boundary.
	MaxPathLength = 260
)

// headerSize is the fixed size in bytes of the on-disk file header: the
// wrapped content key followed by the file nonce.
const headerSize = FinalEncryptedKeySize + NonceSize
