package tokenstore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/devilmonastery/inkwell/internal/pkg/metrics"
)

const (
	saltLength  = 16
	nonceLength = 24
	keyLength   = 32
)

var ErrDecrypt = errors.New("tokenstore: cannot decrypt file")

// sealedFile is the on-disk layout when a passphrase is configured.
type sealedFile struct {
	Salt []byte `json:"salt"`
	Box  []byte `json:"box"`
}

// File persists items as a JSON object in a single owner-only file. With a
// passphrase the object is sealed with secretbox under an argon2id key.
type File struct {
	path       string
	passphrase string

	mu sync.Mutex
}

func NewFile(path, passphrase string) *File {
	return &File{path: path, passphrase: passphrase}
}

// DefaultFilePath returns ~/.config/inkwell/token-<name>.json.
func DefaultFilePath(name string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if name == "" {
		name = "default"
	}
	return filepath.Join(homeDir, ".config", "inkwell", fmt.Sprintf("token-%s.json", name)), nil
}

func (f *File) GetItem(_ context.Context, key string) (string, bool, error) {
	start := time.Now()
	f.mu.Lock()
	items, err := f.load()
	f.mu.Unlock()
	metrics.RecordStoreOperation("file", "get", time.Since(start), err)
	if err != nil {
		return "", false, err
	}
	v, ok := items[key]
	return v, ok, nil
}

func (f *File) SetItem(_ context.Context, key, value string) error {
	start := time.Now()
	err := f.update(func(items map[string]string) { items[key] = value })
	metrics.RecordStoreOperation("file", "set", time.Since(start), err)
	return err
}

func (f *File) RemoveItem(_ context.Context, key string) error {
	start := time.Now()
	err := f.update(func(items map[string]string) { delete(items, key) })
	metrics.RecordStoreOperation("file", "remove", time.Since(start), err)
	return err
}

func (f *File) Close() error { return nil }

func (f *File) update(fn func(map[string]string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	items, err := f.load()
	if err != nil {
		// An unreadable file is replaced rather than blocking logins forever.
		slog.Warn("discarding unreadable token file",
			slog.String("component", "tokenstore"),
			slog.String("path", f.path),
			slog.String("error", err.Error()))
		items = make(map[string]string)
	}
	fn(items)
	return f.save(items)
}

func (f *File) load() (map[string]string, error) {
	items := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return items, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	if f.passphrase != "" {
		if data, err = f.open(data); err != nil {
			return nil, err
		}
	}

	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return items, nil
}

func (f *File) save(items map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token file: %w", err)
	}

	if f.passphrase != "" {
		if data, err = f.seal(data); err != nil {
			return err
		}
	}

	// Write with restricted permissions (read/write for owner only)
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (f *File) deriveKey(salt []byte) *[keyLength]byte {
	var key [keyLength]byte
	copy(key[:], argon2.IDKey([]byte(f.passphrase), salt, 1, 64*1024, 4, keyLength))
	return &key
}

func (f *File) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	var nonce [nonceLength]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	box := secretbox.Seal(nonce[:], plain, &nonce, f.deriveKey(salt))
	return json.Marshal(sealedFile{Salt: salt, Box: box})
}

func (f *File) open(data []byte) ([]byte, error) {
	var sealed sealedFile
	if err := json.Unmarshal(data, &sealed); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	if len(sealed.Salt) != saltLength || len(sealed.Box) < nonceLength+secretbox.Overhead {
		return nil, ErrDecrypt
	}

	var nonce [nonceLength]byte
	copy(nonce[:], sealed.Box[:nonceLength])
	plain, ok := secretbox.Open(nil, sealed.Box[nonceLength:], &nonce, f.deriveKey(sealed.Salt))
	if !ok {
		return nil, ErrDecrypt
	}
	return plain, nil
}
