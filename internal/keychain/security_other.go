// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build !darwin

package keychain

import stderrors "errors"

var errKeyNotFound = stderrors.New("key not found")

// securityBackend is a stub for non-macOS platforms.
type securityBackend struct{}

func newSecurityBackend() (*securityBackend, error) {
	return nil, stderrors.New("security backend only available on macOS")
}

func (s *securityBackend) Set(key, value string) error    { return stderrors.ErrUnsupported }
func (s *securityBackend) Get(key string) (string, error) { return "", stderrors.ErrUnsupported }
func (s *securityBackend) Delete(key string) error        { return stderrors.ErrUnsupported }
