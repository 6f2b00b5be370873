// Package credentials keeps the API token and the last known user
// identifier between runs.
package credentials

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

type record struct {
	Token      string `toml:"token,omitempty"`
	LastUserID string `toml:"last_user_id,omitempty"`
}

// Memory is a credential store that is never persisted.
type Memory struct {
	mu  sync.RWMutex
	rec record
}

func NewMemory(token, lastUserID string) *Memory {
	return &Memory{rec: record{Token: token, LastUserID: lastUserID}}
}

func (m *Memory) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rec.Token
}

func (m *Memory) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec.Token = token
}

func (m *Memory) LastUserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rec.LastUserID
}

func (m *Memory) SetLastUserID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec.LastUserID = id
}

func (m *Memory) Save() error {
	return nil
}

func (m *Memory) snapshot() record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rec
}

// File is a credential store persisted as TOML.
type File struct {
	Memory
	path string
}

// Open loads the store at path. A missing file yields an empty store.
func Open(path string) (*File, error) {
	f := &File{path: path}
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading credentials from '%s'", path)
	}
	if err := toml.Unmarshal(data, &f.rec); err != nil {
		return nil, errors.Wrapf(err, "parsing credentials in '%s'", path)
	}
	return f, nil
}

func (f *File) Path() string {
	return f.path
}

// Save writes the store through a temporary file so a crash never
// leaves a half-written file behind.
func (f *File) Save() error {
	data, err := toml.Marshal(f.snapshot())
	if err != nil {
		return errors.Wrap(err, "encoding credentials")
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, "creating directory '%s'", dir)
	}
	tmp, err := ioutil.TempFile(dir, ".credentials-")
	if err != nil {
		return errors.Wrap(err, "creating temporary credentials file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "writing credentials")
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "restricting credentials file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "closing credentials file")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrapf(err, "replacing '%s'", f.path)
	}
	return nil
}

// DefaultPath is ~/.config/apicall/credentials.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locating user config directory")
	}
	return filepath.Join(dir, "apicall", "credentials.toml"), nil
}
