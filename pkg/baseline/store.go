package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Snapshot is the persisted envelope around a metric record: the
// accepted baseline for one test name plus bookkeeping about when and
// from which commit it was recorded.
type Snapshot struct {
	TestName  string    `json:"test_name"`
	Timestamp time.Time `json:"timestamp"`
	GitCommit string    `json:"git_commit"`
	Metrics   Record    `json:"metrics"`
}

// Store persists one baseline snapshot per test name as a JSON file
// under a baseline directory.
//
// Saves are atomic per key (write to a temp file, then rename), so a
// concurrent reader never observes a partially written snapshot. There
// is no cross-process lock: concurrent writers for the same test name
// race and the last save wins. Baselines are refreshed rarely and
// manually, so callers are expected to serialize refreshes themselves.
type Store struct {
	dir string
}

// NewStore creates a baseline store rooted at dir, creating the
// directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating baseline dir: %v", ErrStorage, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the baseline directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file path a test name's baseline is stored at.
func (s *Store) Path(testName string) string {
	return filepath.Join(s.dir, sanitizeName(testName)+"_baseline.json")
}

// Load returns the stored snapshot for a test name, or nil if none
// exists. A missing baseline is the expected first-run condition, not
// an error.
func (s *Store) Load(testName string) (*Snapshot, error) {
	data, err := os.ReadFile(s.Path(testName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorage, s.Path(testName), err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrStorage, s.Path(testName), err)
	}
	return &snap, nil
}

// Save writes or overwrites the baseline for a test name. The record is
// copied before serialization so the stored snapshot never shares state
// with the caller.
func (s *Store) Save(testName string, rec Record) error {
	snap := Snapshot{
		TestName:  testName,
		Timestamp: time.Now().UTC(),
		GitCommit: gitCommit(),
		Metrics:   rec.Clone(),
	}

	data, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding baseline for %q: %v", ErrStorage, testName, err)
	}

	tmp, err := os.CreateTemp(s.dir, sanitizeName(testName)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrStorage, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %v", ErrStorage, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing %s: %v", ErrStorage, tmpName, err)
	}

	if err := os.Rename(tmpName, s.Path(testName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: renaming into place: %v", ErrStorage, err)
	}
	return nil
}

// sanitizeName maps a test name to a filesystem-safe identifier.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}

func gitCommit() string {
	if c := os.Getenv("GIT_COMMIT"); c != "" {
		return c
	}
	return "unknown"
}
