// Package secrets stores credentials in the OS keychain, falling back to an
// encrypted file in the user's home directory when no keychain is available.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/zalando/go-keyring"
)

// ServiceName is the keychain service every secret is stored under
const ServiceName = "gidevo-api-tool"

// Store is a key/value secret store. Get reports a missing key as
// ("", false, nil).
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Keychain stores secrets in the OS credential store
type Keychain struct {
	Service string
}

func (k Keychain) Get(key string) (string, bool, error) {
	value, err := keyring.Get(k.Service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("keychain read failed: %w", err)
	}
	return value, true, nil
}

func (k Keychain) Set(key, value string) error {
	if err := keyring.Set(k.Service, key, value); err != nil {
		return fmt.Errorf("keychain write failed: %w", err)
	}
	return nil
}

func (k Keychain) Delete(key string) error {
	err := keyring.Delete(k.Service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keychain delete failed: %w", err)
	}
	return nil
}

// Chain reads from the primary store first and falls back to the secondary
// one when the primary fails or has no value. Writes go to the primary store
// unless it fails. Deletes always reach both.
type Chain struct {
	Primary   Store
	Secondary Store
	Logger    zerolog.Logger
}

func (c *Chain) Get(key string) (string, bool, error) {
	value, ok, err := c.Primary.Get(key)
	if err == nil && ok {
		return value, true, nil
	}
	if err != nil {
		c.Logger.Debug().Err(err).Str("key", key).Msg("primary secret store failed, trying fallback")
	}
	return c.Secondary.Get(key)
}

func (c *Chain) Set(key, value string) error {
	err := c.Primary.Set(key, value)
	if err == nil {
		return nil
	}
	c.Logger.Debug().Err(err).Str("key", key).Msg("primary secret store failed, using fallback")
	return c.Secondary.Set(key, value)
}

func (c *Chain) Delete(key string) error {
	if err := c.Primary.Delete(key); err != nil {
		c.Logger.Debug().Err(err).Str("key", key).Msg("primary secret store delete failed")
	}
	return c.Secondary.Delete(key)
}

// Dir returns the per-user state directory, ~/.gidevo-api-tool
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, "."+ServiceName), nil
}

// New returns the default store: the OS keychain backed by the encrypted file
// ~/.gidevo-api-tool/secrets.enc
func New(logger zerolog.Logger) (Store, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return &Chain{
		Primary:   Keychain{Service: ServiceName},
		Secondary: NewFile(filepath.Join(dir, "secrets.enc"), machinePassphrase()),
		Logger:    logger.With().Str("component", "secrets").Logger(),
	}, nil
}

// machinePassphrase ties the fallback file to this host and user so a copied
// file does not decrypt elsewhere
func machinePassphrase() []byte {
	host, _ := os.Hostname()
	name := ""
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	return []byte(host + name)
}
