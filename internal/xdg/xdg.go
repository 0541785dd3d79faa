// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg locates authd files under the XDG Base Directory layout.
package xdg

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	appName        = "authd"
	configFileName = "authd.yaml"
)

// ConfigDir returns the authd config directory.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the path of the default config file, authd.yaml in
// ConfigDir, whether or not it exists.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), configFileName)
}

// ResolveConfigFile returns explicit when set. Otherwise it returns the
// default config file if one exists, or "" so that only built-in defaults,
// environment and flags apply.
func ResolveConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path := ConfigFile()
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	// Other stat errors surface when the file is loaded.
	return path
}
