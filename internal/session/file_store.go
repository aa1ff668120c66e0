package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
)

// FileName is the name of the session record inside the state directory.
const FileName = "session.json"

// FileStore persists the session as a JSON file on the local filesystem.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
}

// NewFileStore creates a new file backed session store.
// If baseDir is empty, uses ~/.agrodash/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".agrodash")
	}

	// The session holds a bearer token, keep the directory private
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("session store initialized")

	return &FileStore{baseDir: baseDir}, nil
}

// Path returns the location of the session file.
func (s *FileStore) Path() string {
	return filepath.Join(s.baseDir, FileName)
}

// Save overwrites the session file.
func (s *FileStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(syscall.LOCK_EX, func() error {
		return s.write(stamp(sess))
	})
}

// Load reads the session file. Returns ErrNoSession if it doesn't exist.
func (s *FileStore) Load(ctx context.Context) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sess *Session
	err := s.withFileLock(syscall.LOCK_SH, func() error {
		var err error
		sess, err = s.read()
		return err
	})
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// Patch merges fields into the existing session file.
func (s *FileStore) Patch(ctx context.Context, p Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(syscall.LOCK_EX, func() error {
		sess, err := s.read()
		if err != nil {
			if errors.Is(err, ErrNoSession) {
				log.Debug().Msg("no session to patch")
				return nil
			}
			return err
		}

		sess.Apply(p)

		return s.write(stamp(sess))
	})
}

// Clear removes the session file.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(syscall.LOCK_EX, func() error {
		if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove session: %w", err)
		}

		log.Debug().Str("path", s.Path()).Msg("session cleared")

		return nil
	})
}

// withFileLock holds an advisory lock on a sibling lock file while fn runs.
func (s *FileStore) withFileLock(lockType int, fn func() error) error {
	f, err := os.OpenFile(s.Path()+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := syscall.Flock(int(f.Fd()), lockType); err != nil {
		return fmt.Errorf("failed to acquire file lock: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN) //nolint:errcheck

	return fn()
}

func (s *FileStore) read() (*Session, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}

	if sess.Permissions == nil {
		sess.Permissions = []string{}
	}

	return &sess, nil
}

// write replaces the session file atomically.
func (s *FileStore) write(sess *Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	path := s.Path()
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}
