// Package mode holds the process-wide choice between the local and the remote
// opponent.
package mode

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/lox/fivehands/internal/fileutil"
)

// PreferenceKey is the name under which the remote flag is persisted.
const PreferenceKey = "remote_mode"

// Preference persists the remote flag between process starts.
type Preference interface {
	Load() (bool, error)
	Store(remote bool) error
}

// Switch is the local/remote flag. It has no gating logic of its own; callers
// decide when switching is allowed.
type Switch struct {
	remote atomic.Bool
	pref   Preference
}

// NewSwitch creates a switch starting in the given mode. pref may be nil.
func NewSwitch(remote bool, pref Preference) *Switch {
	s := &Switch{pref: pref}
	s.remote.Store(remote)
	return s
}

// Load creates a switch initialised from pref. A nil pref starts in local mode.
func Load(pref Preference) (*Switch, error) {
	if pref == nil {
		return NewSwitch(false, nil), nil
	}
	remote, err := pref.Load()
	if err != nil {
		return NewSwitch(false, pref), fmt.Errorf("failed to load mode preference: %w", err)
	}
	return NewSwitch(remote, pref), nil
}

// IsRemote reports whether the remote opponent is selected
func (s *Switch) IsRemote() bool {
	return s.remote.Load()
}

// Set selects the opponent mode and persists it. The in-memory flag changes
// even when persisting fails.
func (s *Switch) Set(remote bool) error {
	s.remote.Store(remote)
	if s.pref == nil {
		return nil
	}
	if err := s.pref.Store(remote); err != nil {
		return fmt.Errorf("failed to persist mode preference: %w", err)
	}
	return nil
}

// Toggle flips the mode and returns the new value
func (s *Switch) Toggle() (bool, error) {
	for {
		old := s.remote.Load()
		if s.remote.CompareAndSwap(old, !old) {
			if s.pref == nil {
				return !old, nil
			}
			if err := s.pref.Store(!old); err != nil {
				return !old, fmt.Errorf("failed to persist mode preference: %w", err)
			}
			return !old, nil
		}
	}
}

// Name returns "remote" or "local"
func (s *Switch) Name() string {
	return Name(s.IsRemote())
}

// Name returns "remote" or "local" for the given flag
func Name(remote bool) string {
	if remote {
		return "remote"
	}
	return "local"
}

// Parse converts "local" or "remote" into the flag value
func Parse(name string) (bool, error) {
	switch name {
	case "local":
		return false, nil
	case "remote":
		return true, nil
	default:
		return false, fmt.Errorf("invalid mode %q: must be local or remote", name)
	}
}

// FilePreference stores the flag as a small JSON document.
type FilePreference struct {
	Path string
}

// Load reads the flag. A missing file means local mode.
func (p FilePreference) Load() (bool, error) {
	data, err := os.ReadFile(p.Path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var doc map[string]bool
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("invalid preference file %s: %w", p.Path, err)
	}
	return doc[PreferenceKey], nil
}

// Store writes the flag atomically
func (p FilePreference) Store(remote bool) error {
	return fileutil.WriteJSONAtomic(p.Path, map[string]bool{PreferenceKey: remote}, 0o644)
}
