// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain keeps pgpane's secrets in the OS credential store: the
// saved connection string written by `pgpane connect` and per-server
// passwords. Nothing secret is ever written to the config file.
package keychain

import (
	stderrors "errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
	log "github.com/sirupsen/logrus"

	"pgpane/cli/internal/errors"
)

// Global keychain manager instance
var (
	globalManager *Manager
	mu            sync.Mutex
)

// ErrNotFound is returned when no secret is stored under a key.
var ErrNotFound = errors.New(errors.SecretStore, "no secret stored")

// Manager provides thread-safe access to the OS keychain.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
}

// keychainBackend is a native store used instead of the keyring library when
// available.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "pgpane"

// KeyConnection stores the connection string saved by the connect command.
const KeyConnection = "connection_dsn"

// PasswordKey is the key of the password for user on server.
func PasswordKey(user, server string) string {
	return "password:" + user + "@" + server
}

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	if runtime.GOOS == "darwin" {
		backend, err := newSecurityBackend()
		if err == nil {
			return &Manager{backend: backend}, nil
		}
		log.WithError(err).Debug("native keychain unavailable, falling back to keyring")
	}

	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return &Manager{ring: ring}, nil
}

// NewManagerWithRing wraps an already opened keyring.
func NewManagerWithRing(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

// GetManager returns the global keychain manager instance.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}
	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return globalManager, nil
}

// openRing opens the OS keyring using native platform backends only; secrets
// are never written to a plain file.
func openRing() (keyring.Keyring, error) {
	var allowed []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		allowed = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowed = []keyring.BackendType{keyring.WinCredBackend}
	default:
		allowed = []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.PassBackend}
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowed,
		PassPrefix:      ServiceName,
		WinCredPrefix:   ServiceName,
		KeychainName:    "login",
	}
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.SecretStore, "secure storage is not available on this system", err)
	}
	return ring, nil
}

func (m *Manager) set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.backend != nil {
		err = m.backend.Set(key, value)
	} else {
		err = m.ring.Set(keyring.Item{Key: key, Data: []byte(value), Label: ServiceName + " " + key})
	}
	if err != nil {
		return errors.Wrap(errors.SecretStore, "failed to save secret", err)
	}
	return nil
}

func (m *Manager) get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		value string
		err   error
	)
	if m.backend != nil {
		value, err = m.backend.Get(key)
	} else {
		var it keyring.Item
		it, err = m.ring.Get(key)
		value = string(it.Data)
	}
	switch {
	case stderrors.Is(err, keyring.ErrKeyNotFound), stderrors.Is(err, errKeyNotFound):
		return "", ErrNotFound
	case err != nil:
		return "", errors.Wrap(errors.SecretStore, "failed to read secret", err)
	case value == "":
		return "", ErrNotFound
	}
	return value, nil
}

func (m *Manager) remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		var err error
		if m.backend != nil {
			err = m.backend.Delete(k)
		} else {
			err = m.ring.Remove(k)
		}
		if err != nil && !stderrors.Is(err, keyring.ErrKeyNotFound) {
			return errors.Wrap(errors.SecretStore, "failed to remove secret", err)
		}
	}
	return nil
}

// SaveConnection stores the connection string used when no server is given.
func (m *Manager) SaveConnection(dsn string) error { return m.set(KeyConnection, dsn) }

// LoadConnection returns the saved connection string or ErrNotFound.
func (m *Manager) LoadConnection() (string, error) { return m.get(KeyConnection) }

// SavePassword stores the password for user on server.
func (m *Manager) SavePassword(user, server, password string) error {
	return m.set(PasswordKey(user, server), password)
}

// LoadPassword returns the saved password for user on server or ErrNotFound.
func (m *Manager) LoadPassword(user, server string) (string, error) {
	return m.get(PasswordKey(user, server))
}

// Forget removes the saved connection and, when user and server are set, the
// matching password.
func (m *Manager) Forget(user, server string) error {
	keys := []string{KeyConnection}
	if user != "" && server != "" {
		keys = append(keys, PasswordKey(user, server))
	}
	return m.remove(keys...)
}

// ForgetAll removes every secret pgpane stored.
func (m *Manager) ForgetAll() error {
	if m.backend != nil {
		// the native backend cannot enumerate
		return m.remove(KeyConnection)
	}
	m.mu.RLock()
	keys, err := m.ring.Keys()
	m.mu.RUnlock()
	if err != nil {
		return errors.Wrap(errors.SecretStore, "failed to list secrets", err)
	}
	return m.remove(keys...)
}
