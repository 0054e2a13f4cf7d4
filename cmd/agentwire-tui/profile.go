// ABOUTME: Client-local profile loading for agentwire-tui
// ABOUTME: Loads TOML preferences from the XDG config path

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Profile holds client-local preferences that never belong in the shared
// session config: how this terminal renders, whether this machine rings the
// bell, where exports land.
type Profile struct {
	Display       DisplayProfile       `toml:"display"`
	Notifications NotificationsProfile `toml:"notifications"`
	Export        ExportProfile        `toml:"export"`
}

type DisplayProfile struct {
	Color bool `toml:"color"`
}

type NotificationsProfile struct {
	Enabled bool `toml:"enabled"`
}

type ExportProfile struct {
	// Path is the default transcript export target for /export without args.
	Path string `toml:"path"`
}

// defaultProfile is used when no profile file exists.
func defaultProfile() *Profile {
	return &Profile{
		Display:       DisplayProfile{Color: true},
		Notifications: NotificationsProfile{Enabled: true},
		Export:        ExportProfile{Path: "transcript.html"},
	}
}

// configDir resolves the XDG config directory, "" when the home directory
// is unknown.
func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// profilePath returns the XDG location of the profile file.
func profilePath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "agentwire", "profile.toml")
}

// loadProfile reads the profile from path. A missing file yields the
// defaults; a malformed file is an error.
func loadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return defaultProfile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	prof := defaultProfile()
	if _, err := toml.Decode(string(data), prof); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	return prof, nil
}
