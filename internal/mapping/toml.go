package mapping

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/soundbox/soundbox/internal/wire"
)

// tomlFile is the DB-less bring-up format: one active profile out of a set
// of named profiles, each mapping button numbers to files under a base
// directory.
type tomlFile struct {
	ActiveProfile string                 `toml:"active_profile"`
	AplayDevice   string                 `toml:"aplay_device"`
	Profiles      map[string]tomlProfile `toml:"profiles"`
}

type tomlProfile struct {
	BaseDir string            `toml:"base_dir"`
	Buttons map[string]string `toml:"buttons"`
}

// TOMLStore reads button mappings from a TOML file, for running without
// the web admin database.
type TOMLStore struct {
	table
	path string
}

// NewTOML creates a TOML-backed store. Nothing is read until Reload.
func NewTOML(path string) *TOMLStore {
	s := &TOMLStore{path: path}
	s.swap(make(map[int]string), "")
	return s
}

// Reload parses the file and swaps in the active profile's table.
func (s *TOMLStore) Reload(_ context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read mapping file: %w", err)
	}

	var file tomlFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse mapping file: %w", err)
	}

	profile, ok := file.Profiles[file.ActiveProfile]
	if !ok {
		return fmt.Errorf("active profile %q not defined", file.ActiveProfile)
	}

	buttons := make(map[int]string, len(profile.Buttons))
	for key, name := range profile.Buttons {
		id, convErr := strconv.Atoi(key)
		if convErr != nil || id < 1 || id > wire.NumButtons {
			continue // not a button number
		}
		if !filepath.IsAbs(name) {
			name = filepath.Join(profile.BaseDir, name)
		}
		buttons[id] = name
	}

	s.swap(buttons, file.AplayDevice)
	return nil
}

// Close is a no-op; the file is only held open during Reload.
func (s *TOMLStore) Close() error { return nil }
