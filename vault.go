package nexplock

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"
)

// deriveSSKKey derives a keyLen-byte key from secret and salt using
// PBKDF2 over hp's hash, per spec.md §4.3.
func deriveSSKKey(hp HashProvider, secret, salt []byte, iterations, keyLen int) []byte {
	return pbkdf2.Key(secret, salt, iterations, keyLen, hp.New())
}

// VaultOptions configures where and how the system security key is
// derived and persisted.
type VaultOptions struct {
	// BaseDir is the process base directory the SSK file lives under. If
	// empty, os.UserConfigDir (falling back to os.TempDir) is used.
	BaseDir string

	// VaultSubdir is the directory under BaseDir holding the SSK file.
	// Defaults to DefaultVaultSubdir.
	VaultSubdir string

	// KeyFilename is the name of the persisted SSK file. Defaults to
	// DefaultSSKFilename.
	KeyFilename string

	// PBKDF2Iterations overrides DefaultPBKDF2Iterations.
	PBKDF2Iterations int

	// Logger receives advisory warnings. Defaults to a no-op logger.
	Logger Logger
}

func (o VaultOptions) withDefaults() VaultOptions {
	if o.VaultSubdir == "" {
		o.VaultSubdir = DefaultVaultSubdir
	}
	if o.KeyFilename == "" {
		o.KeyFilename = DefaultSSKFilename
	}
	if o.PBKDF2Iterations == 0 {
		o.PBKDF2Iterations = DefaultPBKDF2Iterations
	}
	if o.BaseDir == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			o.BaseDir = dir
		} else {
			o.BaseDir = os.TempDir()
		}
	}
	o.Logger = loggerOrNop(o.Logger)
	return o
}

// sskResult is the memoised outcome of loading or generating the SSK: a
// one-shot, exactly-once cell. A failed first attempt is sticky; later
// callers see the same error rather than racing a retry.
type sskResult struct {
	key []byte
	err error
}

// VaultService owns the process-local system security key and performs
// the two-layer content-key wrap/unwrap described in spec.md §4.3.
type VaultService struct {
	opts VaultOptions
	hp   HashProvider

	once   sync.Once
	result sskResult

	mu     sync.Mutex
	closed bool
}

// NewVaultService constructs a VaultService. The SSK itself is not
// touched until the first Wrap or Unwrap call.
func NewVaultService(opts VaultOptions) (*VaultService, error) {
	return &VaultService{opts: opts.withDefaults(), hp: NewHashProvider()}, nil
}

// keyFilePath is the full path to the persisted SSK file.
func (v *VaultService) keyFilePath() string {
	return filepath.Join(v.opts.BaseDir, v.opts.VaultSubdir, v.opts.KeyFilename)
}

// loadOrCreateSSK implements the one-shot SSK lifecycle from spec.md
// §4.3: load an existing key file, or generate and persist a new one.
func (v *VaultService) loadOrCreateSSK() ([]byte, error) {
	v.once.Do(func() {
		v.result.key, v.result.err = v.doLoadOrCreateSSK()
	})
	if v.result.err != nil {
		return nil, v.result.err
	}
	return v.result.key, nil
}

func (v *VaultService) doLoadOrCreateSSK() ([]byte, error) {
	path := v.keyFilePath()
	wantLen := SystemSecurityKeySize / 8

	raw, err := os.ReadFile(path)
	if err == nil {
		if len(raw) != wantLen {
			return nil, fmt.Errorf("%w: key file %s has length %d, want %d", ErrVaultCorrupt, path, len(raw), wantLen)
		}
		key := make([]byte, wantLen)
		copy(key, raw)
		Zeroize(raw)
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrVaultUnavailable, path, err)
	}

	seed := make([]byte, SSKSeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("%w: generating seed: %v", ErrVaultUnavailable, err)
	}
	defer Zeroize(seed)

	salt := make([]byte, SSKSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: generating salt: %v", ErrVaultUnavailable, err)
	}
	defer Zeroize(salt)

	return v.deriveAndPersist(seed, salt, path, wantLen)
}

// deriveAndPersist runs PBKDF2-HMAC-SHA256 over seed+salt and writes the
// resulting SSK to path through a DirectStream, so the bytes are durably
// flushed before the function returns.
func (v *VaultService) deriveAndPersist(seed, salt []byte, path string, keyLen int) ([]byte, error) {
	key := deriveSSKKey(v.hp, seed, salt, v.opts.PBKDF2Iterations, keyLen)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		Zeroize(key)
		return nil, fmt.Errorf("%w: creating vault dir %s: %v", ErrVaultUnavailable, dir, err)
	}
	if info, err := os.Stat(dir); err == nil {
		if info.Mode().Perm()&0o077 != 0 {
			v.opts.Logger.Warn("vault directory permissions broader than 0700", zap.String("dir", dir))
		}
	}

	ds, err := NewDirectStreamWithLogger(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600, v.opts.Logger)
	if err != nil {
		Zeroize(key)
		return nil, fmt.Errorf("%w: opening %s: %v", ErrVaultUnavailable, path, err)
	}
	defer ds.Close()

	if _, err := ds.Write(key); err != nil {
		Zeroize(key)
		return nil, fmt.Errorf("%w: writing %s: %v", ErrVaultUnavailable, path, err)
	}
	if err := ds.Flush(); err != nil {
		Zeroize(key)
		return nil, fmt.Errorf("%w: flushing %s: %v", ErrVaultUnavailable, path, err)
	}

	return key, nil
}

// Wrap produces WCK = AEAD(SSK, AEAD(MK, CK)) for the given content key
// and base64-encoded master key.
func (v *VaultService) Wrap(ck []byte, masterKeyB64 string) ([]byte, error) {
	if v.isClosed() {
		return nil, ErrAlreadyClosed
	}

	mk, err := decodeMasterKey(masterKeyB64)
	if err != nil {
		return nil, err
	}
	defer Zeroize(mk)

	ssk, err := v.loadOrCreateSSK()
	if err != nil {
		return nil, err
	}

	innerLayer, err := aeadWrap(mk, ck)
	if err != nil {
		return nil, err
	}
	defer Zeroize(innerLayer)

	outerLayer, err := aeadWrap(ssk, innerLayer)
	if err != nil {
		return nil, err
	}
	return outerLayer, nil
}

// Unwrap recovers CK from WCK and the base64-encoded master key,
// verifying both AEAD tags along the way.
func (v *VaultService) Unwrap(wck []byte, masterKeyB64 string) ([]byte, error) {
	if v.isClosed() {
		return nil, ErrAlreadyClosed
	}

	mk, err := decodeMasterKey(masterKeyB64)
	if err != nil {
		return nil, err
	}
	defer Zeroize(mk)

	ssk, err := v.loadOrCreateSSK()
	if err != nil {
		return nil, err
	}

	innerLayer, err := aeadUnwrap(ssk, wck)
	if err != nil {
		return nil, NewAuthenticationError("wrapped-content-key", -1)
	}
	defer Zeroize(innerLayer)

	ck, err := aeadUnwrap(mk, innerLayer)
	if err != nil {
		return nil, NewAuthenticationError("wrapped-content-key", -1)
	}
	return ck, nil
}

// Close zeroes the in-memory SSK copy. Safe to call multiple times.
func (v *VaultService) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	if v.result.key != nil {
		Zeroize(v.result.key)
	}
	return nil
}

func (v *VaultService) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// decodeMasterKey base64-decodes and length-checks a caller-supplied
// master key.
func decodeMasterKey(masterKeyB64 string) ([]byte, error) {
	mk, err := base64.StdEncoding.DecodeString(masterKeyB64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMasterKey, err)
	}
	switch len(mk) {
	case 16, 24, 32:
		return mk, nil
	default:
		Zeroize(mk)
		return nil, fmt.Errorf("%w: length %d not in {16,24,32}", ErrInvalidMasterKey, len(mk))
	}
}

// aeadWrap seals plaintext under key with a fresh random nonce, returning
// nonce||ciphertext||tag concatenated.
func aeadWrap(key, plaintext []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	return append(nonce, sealed...), nil
}

// aeadUnwrap reverses aeadWrap, verifying the tag.
func aeadUnwrap(key, blob []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < NonceSize {
		return nil, ErrAuthFailed
	}
	nonce := blob[:NonceSize]
	sealed := blob[NonceSize:]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
