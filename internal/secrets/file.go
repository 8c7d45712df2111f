package secrets

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize = 16
	keySize  = chacha20poly1305.KeySize

	// scrypt cost parameters
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// ErrCorrupt is returned when the secrets file cannot be decrypted
var ErrCorrupt = errors.New("secrets file is corrupt or was written on another machine")

// File stores secrets as one JSON object sealed with XChaCha20-Poly1305.
// The file layout is salt | nonce | ciphertext; the key is derived from the
// passphrase and salt with scrypt.
type File struct {
	path       string
	passphrase []byte
	mu         sync.Mutex
}

// NewFile creates a file store at path
func NewFile(path string, passphrase []byte) *File {
	return &File{path: path, passphrase: passphrase}
}

// Path returns the location of the secrets file
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	secrets, err := f.load()
	if err != nil {
		return "", false, err
	}
	value, ok := secrets[key]
	return value, ok, nil
}

// Set stores value under key. A file that cannot be decrypted is replaced.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	secrets, err := f.load()
	switch {
	case errors.Is(err, ErrCorrupt):
		secrets = map[string]string{}
	case err != nil:
		return err
	}
	secrets[key] = value
	return f.save(secrets)
}

func (f *File) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	secrets, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := secrets[key]; !ok {
		return nil
	}
	delete(secrets, key)
	return f.save(secrets)
}

func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	plain, err := f.open(data)
	if err != nil {
		return nil, err
	}

	secrets := map[string]string{}
	if err := json.Unmarshal(plain, &secrets); err != nil {
		return nil, ErrCorrupt
	}
	return secrets, nil
}

func (f *File) save(secrets map[string]string) error {
	plain, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("failed to encode secrets: %w", err)
	}

	sealed, err := f.seal(plain)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create secrets directory: %w", err)
	}
	if err := os.WriteFile(f.path, sealed, 0600); err != nil {
		return fmt.Errorf("failed to write secrets file: %w", err)
	}
	return nil
}

func (f *File) seal(plain []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	aead, err := f.cipher(salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := append([]byte{}, salt...)
	return append(out, aead.Seal(nonce, nonce, plain, nil)...), nil
}

func (f *File) open(data []byte) ([]byte, error) {
	if len(data) < saltSize+chacha20poly1305.NonceSizeX {
		return nil, ErrCorrupt
	}
	salt, rest := data[:saltSize], data[saltSize:]

	aead, err := f.cipher(salt)
	if err != nil {
		return nil, err
	}

	nonce, ciphertext := rest[:aead.NonceSize()], rest[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrCorrupt
	}
	return plain, nil
}

func (f *File) cipher(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(f.passphrase, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return aead, nil
}
