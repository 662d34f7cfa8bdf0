package nexplock

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// opIDKey is the context key StorageService attaches a per-call operation
// id under, so a cancellation observed several suspension points into a
// call can still be correlated back to the call that started it.
type opIDKey struct{}

// withOperationID returns a context carrying a fresh correlation id for
// one Encrypt or Decrypt call.
func withOperationID(ctx context.Context) (context.Context, uuid.UUID) {
	id := uuid.New()
	return context.WithValue(ctx, opIDKey{}, id), id
}

// StorageService orchestrates the chunked AEAD pipeline described in
// spec.md §4.5: it owns neither the content key nor the system security
// key for longer than a single call, borrowing the latter from
// VaultService only for the wrap/unwrap step.
type StorageService struct {
	vault  *VaultService
	hp     HashProvider
	logger Logger
}

// NewStorageService constructs a StorageService bound to vault. logger
// may be nil.
func NewStorageService(vault *VaultService, logger Logger) *StorageService {
	return &StorageService{vault: vault, hp: NewHashProvider(), logger: loggerOrNop(logger)}
}

// Encrypt reads req.SourcePath, writes a self-contained ciphertext file
// to req.DestinationPath, and returns once the last chunk has been
// durably flushed.
func (s *StorageService) Encrypt(ctx context.Context, req FileProcessingRequest, masterKeyB64 string) error {
	if err := req.Validate(); err != nil {
		return err
	}
	ctx, _ = withOperationID(ctx)

	ck := make([]byte, DefaultKeySize)
	if _, err := rand.Read(ck); err != nil {
		return fmt.Errorf("generating content key: %w", err)
	}
	defer Zeroize(ck)

	wck, err := s.vault.Wrap(ck, masterKeyB64)
	if err != nil {
		return err
	}
	defer Zeroize(wck)

	var fn [NonceSize]byte
	if _, err := rand.Read(fn[:]); err != nil {
		return fmt.Errorf("generating file nonce: %w", err)
	}
	defer Zeroize(fn[:])

	src, err := NewDirectStreamWithLogger(req.SourcePath, os.O_RDONLY, 0, s.logger)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := NewDirectStreamWithLogger(req.DestinationPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600, s.logger)
	if err != nil {
		return err
	}
	defer dst.Close()

	if err := checkCancel(ctx); err != nil {
		return err
	}
	if _, err := dst.Write(wck); err != nil {
		return err
	}
	if _, err := dst.Write(fn[:]); err != nil {
		return err
	}
	if err := dst.Flush(); err != nil {
		return err
	}

	aead, err := newAEAD(ck)
	if err != nil {
		return err
	}
	nd := NewNonceDerivation(s.hp, fn)
	defer nd.Close()

	plaintext := RentBuffer(BufferSize)
	defer ReturnBuffer(plaintext)
	sealBuf := RentBuffer(BufferSize + TagSize)
	defer ReturnBuffer(sealBuf)

	for idx := int64(0); ; idx++ {
		if err := checkCancel(ctx); err != nil {
			return err
		}

		n, err := readChunk(src, plaintext)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}

		nonce, err := nd.Derive(idx)
		if err != nil {
			return err
		}

		sealed := aead.Seal(sealBuf[:0], nonce[:], plaintext[:n], nil)
		tag := sealed[len(sealed)-TagSize:]
		ciphertext := sealed[:len(sealed)-TagSize]

		if err := checkCancel(ctx); err != nil {
			return err
		}
		if _, err := dst.Write(tag); err != nil {
			return err
		}
		if _, err := dst.Write(ciphertext); err != nil {
			return err
		}
		if err := dst.Flush(); err != nil {
			return err
		}
	}

	return nil
}

// Decrypt reverses Encrypt: it expects req.SourcePath to hold a file
// written by Encrypt and writes the recovered plaintext to
// req.DestinationPath. A tag mismatch on any chunk (or on WCK itself)
// is fatal and stops before any further plaintext is written for that
// chunk.
func (s *StorageService) Decrypt(ctx context.Context, req FileProcessingRequest, masterKeyB64 string) error {
	if err := req.Validate(); err != nil {
		return err
	}
	ctx, _ = withOperationID(ctx)

	src, err := NewDirectStreamWithLogger(req.SourcePath, os.O_RDONLY, 0, s.logger)
	if err != nil {
		return err
	}
	defer src.Close()

	wck := make([]byte, FinalEncryptedKeySize)
	if err := readExact(src, wck, "header-wck"); err != nil {
		return err
	}
	defer Zeroize(wck)

	var fn [NonceSize]byte
	if err := readExact(src, fn[:], "header-fn"); err != nil {
		return err
	}
	defer Zeroize(fn[:])

	ck, err := s.vault.Unwrap(wck, masterKeyB64)
	if err != nil {
		return err
	}
	defer Zeroize(ck)

	aead, err := newAEAD(ck)
	if err != nil {
		return err
	}
	nd := NewNonceDerivation(s.hp, fn)
	defer nd.Close()

	dst, err := NewDirectStreamWithLogger(req.DestinationPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600, s.logger)
	if err != nil {
		return err
	}
	defer dst.Close()

	ciphertext := RentBuffer(BufferSize)
	defer ReturnBuffer(ciphertext)
	openBuf := RentBuffer(BufferSize + TagSize)
	defer ReturnBuffer(openBuf)
	var tag [TagSize]byte

	for idx := int64(0); ; idx++ {
		if err := checkCancel(ctx); err != nil {
			return err
		}

		tagN, err := readChunk(src, tag[:])
		if err != nil {
			return err
		}
		if tagN < TagSize {
			break // short read on the tag is a clean end of stream
		}

		n, err := readChunk(src, ciphertext)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}

		nonce, err := nd.Derive(idx)
		if err != nil {
			return err
		}

		combined := append(openBuf[:0], ciphertext[:n]...)
		combined = append(combined, tag[:]...)

		plaintext, err := aead.Open(combined[:0], nonce[:], combined, nil)
		if err != nil {
			return NewAuthenticationError(req.SourcePath, idx)
		}

		if err := checkCancel(ctx); err != nil {
			return err
		}
		if _, err := dst.Write(plaintext); err != nil {
			return err
		}
		if err := dst.Flush(); err != nil {
			return err
		}
	}

	return nil
}

// checkCancel reports ErrCancelled if ctx has been cancelled, and nil
// otherwise. Called before each chunk read and before each write (the
// flush that follows a write is covered by the same check). The SSK
// access in Wrap/Unwrap and Decrypt's header reads are not preceded by
// a check.
func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		if id, ok := ctx.Value(opIDKey{}).(uuid.UUID); ok {
			return fmt.Errorf("operation %s: %w", id, ErrCancelled)
		}
		return ErrCancelled
	default:
		return nil
	}
}

// readChunk fills buf from r up to len(buf), returning the number of
// bytes actually read and nil error on a clean EOF with zero bytes
// read. A short read that isn't a clean EOF (some bytes then an error
// other than io.EOF) is surfaced as an IOError.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		return n, nil
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return n, nil
	default:
		return n, err
	}
}

// readExact fills buf completely or fails with an IOError identifying
// phase.
func readExact(r io.Reader, buf []byte, phase string) error {
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return NewIOError(phase, "", fmt.Errorf("read %d of %d bytes: %w", n, len(buf), err))
	}
	return nil
}
