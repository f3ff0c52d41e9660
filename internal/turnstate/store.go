package turnstate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

const (
	stateFileName = "turn_state.yaml"
	lockSuffix    = ".lock"
)

// Store manages turn state files, one per project, each guarded by a
// sibling lock-sentinel file. All operations hold the exclusive lock
// for their whole duration; the lock acquisition blocks until granted,
// with no internal timeout, because silently bypassing it would
// corrupt state shared with concurrently running subagents.
type Store struct {
	baseDir string
}

// NewStore creates a store rooted at ~/.hookgate/turns.
func NewStore() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewStoreAt(filepath.Join(homeDir, ".hookgate", "turns")), nil
}

// NewStoreAt creates a store rooted at a specific directory.
func NewStoreAt(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Load reads the project's turn state, returning an empty state when
// none exists yet. A present but unparsable state file is an error,
// never a silent reset: masking data loss here would let a stop-time
// validator run against an incomplete change list.
func (s *Store) Load(project string) (*TurnState, error) {
	var state *TurnState
	err := s.withLock(project, func(statePath string) error {
		loaded, err := readState(statePath)
		if err != nil {
			return err
		}
		state = loaded
		return nil
	})
	return state, err
}

// Save writes the project's turn state.
func (s *Store) Save(project string, state *TurnState) error {
	return s.withLock(project, func(statePath string) error {
		return writeState(statePath, state)
	})
}

// Clear removes the project's turn state.
func (s *Store) Clear(project string) error {
	return s.withLock(project, func(statePath string) error {
		if err := os.Remove(statePath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove turn state: %w", err)
		}
		return nil
	})
}

// Update loads the state, applies fn, and saves the result, all under
// one lock acquisition. This is the only safe way to read-modify-write
// when subagents run concurrently.
func (s *Store) Update(project string, fn func(*TurnState) error) error {
	return s.withLock(project, func(statePath string) error {
		state, err := readState(statePath)
		if err != nil {
			return err
		}
		if err := fn(state); err != nil {
			return err
		}
		return writeState(statePath, state)
	})
}

// withLock acquires the project's exclusive cross-process lock, runs
// fn with the state file path, and releases the lock on every exit
// path.
func (s *Store) withLock(project string, fn func(statePath string) error) error {
	dir := filepath.Join(s.baseDir, projectKey(project))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create turn state directory: %w", err)
	}

	statePath := filepath.Join(dir, stateFileName)
	lock := flock.New(statePath + lockSuffix)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire turn state lock: %w", err)
	}
	defer lock.Unlock()

	return fn(statePath)
}

func readState(statePath string) (*TurnState, error) {
	data, err := os.ReadFile(statePath)
	if os.IsNotExist(err) {
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read turn state: %w", err)
	}

	var state TurnState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("corrupt turn state file %s: %w", statePath, err)
	}
	if state.Pending == nil {
		state.Pending = make(map[string]map[string]*string)
	}
	return &state, nil
}

// writeState writes then renames, so a crash mid-write leaves the
// previous state intact. The lock already serializes writers.
func writeState(statePath string, state *TurnState) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal turn state: %w", err)
	}

	tmpPath := statePath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write turn state: %w", err)
	}
	if err := os.Rename(tmpPath, statePath); err != nil {
		return fmt.Errorf("failed to replace turn state: %w", err)
	}
	return nil
}

// projectKey flattens a project path into a directory name, the same
// way session transcripts are keyed by project.
func projectKey(project string) string {
	key := strings.NewReplacer("/", "-", "\\", "-", ":", "-").Replace(project)
	return strings.Trim(key, "-")
}
