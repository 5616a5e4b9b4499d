/*************************************************************************
 * Copyright 2026 EdgeFirst AI. All rights reserved.
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package client

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/renameio"
)

// DefaultTokenPath returns the OS-conventional location EdgeFirst Studio
// persists a client's bearer token to, under the user's config directory.
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "EdgeFirst", "EdgeFirst Studio", "token"), nil
}

// isNotExist reports whether err indicates the token file is simply
// absent, which callers treat as "no token yet" rather than a failure.
func isNotExist(err error) bool {
	return os.IsNotExist(err)
}

// loadToken reads a previously saved token. If the file does not exist it
// returns "" and the unwrapped not-exist error, which isNotExist reports.
func loadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", err
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	return string(data), nil
}

// saveToken writes token to path atomically (temp file + rename) under an
// advisory file lock, creating parent directories as needed. A single
// client is expected per process, but the lock guards against two
// processes racing on the same token path, which happens in practice when
// a CLI and a long-running job share a home directory.
func saveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock token file: %w", err)
	}
	defer lock.Unlock()

	if err := renameio.WriteFile(path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// removeToken deletes a persisted token file. A missing file is not an
// error.
func removeToken(path string) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock token file: %w", err)
	}
	defer lock.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}
