package turnstate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Tracker is the turn-state handler pair: BeginToolUse runs on
// PreToolUse and snapshots the files a tool call may touch,
// FinishToolUse runs on PostToolUse and promotes the paths whose
// content actually differed. Both mutate the store under a single lock
// acquisition.
type Tracker struct {
	Store   *Store
	Project string
}

// BeginToolUse records the pre-execution content hashes for the paths
// a tool call may touch. A nil hash marks a file that does not exist
// yet.
func (t *Tracker) BeginToolUse(toolUseID string, paths []string) error {
	if toolUseID == "" || len(paths) == 0 {
		return nil
	}

	hashes := make(map[string]*string, len(paths))
	for _, path := range paths {
		h, err := HashFile(path)
		if err != nil {
			return err
		}
		hashes[path] = h
	}

	return t.Store.Update(t.Project, func(state *TurnState) error {
		state.BeginTool(toolUseID, hashes)
		return nil
	})
}

// FinishToolUse rehashes the tool call's pending paths and promotes
// every path whose content changed.
func (t *Tracker) FinishToolUse(toolUseID string) error {
	if toolUseID == "" {
		return nil
	}

	return t.Store.Update(t.Project, func(state *TurnState) error {
		pre, ok := state.Pending[toolUseID]
		if !ok {
			return nil
		}

		after := make(map[string]*string, len(pre))
		for path := range pre {
			h, err := HashFile(path)
			if err != nil {
				return err
			}
			after[path] = h
		}

		state.FinishTool(toolUseID, after)
		return nil
	})
}

// ChangedFiles returns the paths changed so far this turn.
func (t *Tracker) ChangedFiles() ([]string, error) {
	state, err := t.Store.Load(t.Project)
	if err != nil {
		return nil, err
	}
	return state.Changed, nil
}

// Reset clears the turn state at a turn boundary.
func (t *Tracker) Reset() error {
	return t.Store.Clear(t.Project)
}

// HashFile returns the hex SHA-256 of a file's content, or nil when
// the file does not exist.
func HashFile(path string) (*string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	sum := hex.EncodeToString(h.Sum(nil))
	return &sum, nil
}
