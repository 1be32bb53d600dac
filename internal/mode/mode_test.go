package mode

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwitchDefaultsToLocal(t *testing.T) {
	s, err := Load(nil)
	require.NoError(t, err)
	assert.False(t, s.IsRemote())
	assert.Equal(t, "local", s.Name())
}

func TestSwitchSetAndToggle(t *testing.T) {
	s := NewSwitch(false, nil)

	require.NoError(t, s.Set(true))
	assert.True(t, s.IsRemote())

	remote, err := s.Toggle()
	require.NoError(t, err)
	assert.False(t, remote)
	assert.False(t, s.IsRemote())
}

func TestFilePreferenceRoundTrip(t *testing.T) {
	pref := FilePreference{Path: filepath.Join(t.TempDir(), "mode.json")}

	s, err := Load(pref)
	require.NoError(t, err)
	assert.False(t, s.IsRemote(), "missing file means local")

	_, err = s.Toggle()
	require.NoError(t, err)

	data, err := os.ReadFile(pref.Path)
	require.NoError(t, err)
	var doc map[string]bool
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, map[string]bool{PreferenceKey: true}, doc)

	restarted, err := Load(pref)
	require.NoError(t, err)
	assert.True(t, restarted.IsRemote())
}

func TestFilePreferenceReadsKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mode.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"remote_mode": true}`), 0o644))

	remote, err := FilePreference{Path: path}.Load()
	require.NoError(t, err)
	assert.True(t, remote)
}

func TestFilePreferenceCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mode.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	s, err := Load(FilePreference{Path: path})
	require.Error(t, err)
	require.NotNil(t, s)
	assert.False(t, s.IsRemote())
}

type failingPreference struct{}

func (failingPreference) Load() (bool, error) { return false, nil }
func (failingPreference) Store(bool) error    { return errors.New("disk full") }

func TestSetPersistFailureStillSwitches(t *testing.T) {
	s := NewSwitch(false, failingPreference{})

	err := s.Set(true)
	require.Error(t, err)
	assert.True(t, s.IsRemote())
}

func TestParse(t *testing.T) {
	remote, err := Parse("remote")
	require.NoError(t, err)
	assert.True(t, remote)

	remote, err = Parse("local")
	require.NoError(t, err)
	assert.False(t, remote)

	_, err = Parse("server")
	assert.Error(t, err)
}
