// Package turnstate persists, per project, the set of files changed
// during the current turn (user prompt to agent stop). The state
// survives across tool invocations and subagents: every access goes
// through a cross-process file lock, because tool_use identifiers are
// globally unique and subagents must share one view.
package turnstate

// TurnState tracks file changes across one turn. Pending records, per
// in-flight tool call, the pre-execution hash of each file it may
// touch (nil hash = file did not exist yet). Changed accumulates the
// paths confirmed to have differed after a tool completed; entries are
// unique and only ever appended.
type TurnState struct {
	Pending map[string]map[string]*string `yaml:"pending,omitempty"`
	Changed []string                      `yaml:"changed,omitempty"`
}

// Empty returns a fresh turn state.
func Empty() *TurnState {
	return &TurnState{Pending: make(map[string]map[string]*string)}
}

// IsEmpty reports whether the state holds nothing worth persisting.
func (s *TurnState) IsEmpty() bool {
	return len(s.Pending) == 0 && len(s.Changed) == 0
}

// BeginTool records the pre-execution hashes for a tool call.
func (s *TurnState) BeginTool(toolUseID string, hashes map[string]*string) {
	if len(hashes) == 0 {
		return
	}
	if s.Pending == nil {
		s.Pending = make(map[string]map[string]*string)
	}
	s.Pending[toolUseID] = hashes
}

// FinishTool compares the post-execution hashes against the pending
// pre-execution ones, promotes every differing path to Changed, and
// removes the tool call from Pending. Unknown tool calls are a no-op.
func (s *TurnState) FinishTool(toolUseID string, after map[string]*string) {
	pre, ok := s.Pending[toolUseID]
	if !ok {
		return
	}
	delete(s.Pending, toolUseID)

	for path, preHash := range pre {
		if hashEqual(preHash, after[path]) {
			continue
		}
		s.appendChanged(path)
	}
}

// appendChanged adds a path to Changed, keeping entries unique.
func (s *TurnState) appendChanged(path string) {
	for _, p := range s.Changed {
		if p == path {
			return
		}
	}
	s.Changed = append(s.Changed, path)
}

func hashEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
