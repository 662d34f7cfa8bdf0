// Command nexplock encrypts or decrypts a single file using the nexplock
// core. It exists to exercise VaultService and StorageService end to
// end; production callers are expected to embed the package directly
// rather than shell out to this binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/nexplock/nexplock"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "nexplock:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: nexplock <encrypt|decrypt> -src PATH -dst PATH -key BASE64KEY")
	}

	mode := args[0]
	fs := flag.NewFlagSet(mode, flag.ContinueOnError)
	src := fs.String("src", "", "source file path")
	dst := fs.String("dst", "", "destination file path")
	key := fs.String("key", "", "base64-encoded master key (16, 24, or 32 raw bytes)")
	id := fs.String("id", "nexplock-cli", "file id used in log correlation")
	baseDir := fs.String("vault-dir", "", "base directory for the system security key (defaults to the user config dir)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *src == "" || *dst == "" || *key == "" {
		return fmt.Errorf("-src, -dst, and -key are required")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("constructing logger: %w", err)
	}
	defer logger.Sync()
	sink := nexplock.NewZapLogger(logger)

	vault, err := nexplock.NewVaultService(nexplock.VaultOptions{BaseDir: *baseDir, Logger: sink})
	if err != nil {
		return fmt.Errorf("constructing vault: %w", err)
	}
	defer vault.Close()

	storage := nexplock.NewStorageService(vault, sink)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	req := nexplock.FileProcessingRequest{FileID: *id, SourcePath: *src, DestinationPath: *dst}

	switch mode {
	case "encrypt":
		return storage.Encrypt(ctx, req, *key)
	case "decrypt":
		return storage.Decrypt(ctx, req, *key)
	default:
		return fmt.Errorf("unknown mode %q: want encrypt or decrypt", mode)
	}
}
