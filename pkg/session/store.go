package session

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// Store persists a session as JSON in a single file so a login survives
// between invocations.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path}
}

// DefaultPath is libris/session.json under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.WithStack(err)
	}
	return filepath.Join(dir, "libris", "session.json"), nil
}

// Path is the file the session is kept in.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored session, or nil when there is none.
func (s *Store) Load() (*Session, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}

	sess := &Session{}
	if err := json.Unmarshal(b, sess); err != nil {
		return nil, errors.Wrapf(err, "failed to parse session file %s", s.path)
	}
	if sess.Token == "" {
		return nil, nil
	}
	return sess, nil
}

// Save writes the session atomically with owner-only permissions.
func (s *Store) Save(sess *Session) error {
	if sess == nil {
		return s.Clear()
	}

	b, err := json.Marshal(sess)
	if err != nil {
		return errors.WithStack(err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.WithStack(err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.WithStack(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return errors.WithStack(err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(os.Rename(tmp.Name(), s.path))
}

// Clear removes the stored session. Clearing an empty store is not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}
