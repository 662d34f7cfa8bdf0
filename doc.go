// Package nexplock protects arbitrary files at rest behind a caller-supplied
// master key.
//
// # Overview
//
// nexplock encrypts a plaintext file into a self-contained ciphertext file
// that can later be decrypted by re-presenting the same master key. Content
// is protected chunk by chunk with AES-256-GCM; chunk nonces are derived
// deterministically from a per-file nonce so the stream never needs to hold
// more than one chunk in memory. Writes go through a durable, write-through
// stream so that bytes the caller has already flushed survive a crash.
//
// # Key hierarchy
//
//   - Content key (CK): fresh 256-bit AEAD key, one per file.
//   - File nonce (FN): fresh 12-byte value, one per file, used only to seed
//     per-chunk nonce derivation.
//   - Master key (MK): caller-supplied, base64-encoded, 128/192/256 bits.
//   - System security key (SSK): process-local key derived once via
//     PBKDF2-HMAC-SHA256 and persisted under the process base directory.
//
// CK is wrapped twice before it is written to disk:
//
//	WCK = AEAD(SSK, AEAD(MK, CK))
//
// Losing the SSK file (a fresh process base directory, a reinstall) makes
// every file encrypted under the old SSK unrecoverable even with the
// correct master key. This is intentional: ciphertexts are bound to the
// installation that created them.
//
// # Basic usage
//
//	vault, err := nexplock.NewVaultService(nexplock.VaultOptions{})
//	if err != nil {
//	    panic(err)
//	}
//	defer vault.Close()
//
//	storage := nexplock.NewStorageService(vault, nil)
//
//	req := nexplock.FileProcessingRequest{
//	    FileID:          "report-2026",
//	    SourcePath:      "/data/report.csv",
//	    DestinationPath: "/data/report.csv.nxl",
//	}
//
//	if err := storage.Encrypt(context.Background(), req, masterKeyB64); err != nil {
//	    panic(err)
//	}
//
// # On-disk format
//
//	[ WCK (88 B) | FN (12 B) | chunk_0 | chunk_1 | ... | chunk_N-1 ]
//	chunk_i = [ tag_i (16 B) | ciphertext_i (up to 81920 B) ]
//
// # Security considerations
//
// Protected against: unauthorized access to ciphertext at rest, tampering
// of any chunk, the WCK, or the FN (AES-GCM binds all of them via the
// tag), and replay of chunk 0 into a different file (nonces are derived
// from a per-file random FN).
//
// Not protected against: memory dumps while CK or SSK are live, malicious
// code running with the same privileges as the caller, key loss (there is
// no recovery path), or metadata leakage such as file size.
package nexplock
