// Package hooks implements the hook decision pipeline: configured
// shell commands and evaluator prompts observe or gate agent lifecycle
// events, and their outcomes are merged into a single decision under a
// strict precedence policy.
package hooks

// EventKind identifies the lifecycle event a hook fires on.
type EventKind string

// Event kinds with their matcher value noted.
const (
	SessionStart       EventKind = "SessionStart"       // matcher: source (startup, resume, clear)
	UserPromptSubmit   EventKind = "UserPromptSubmit"   // no matcher
	PreToolUse         EventKind = "PreToolUse"         // matcher: tool name
	PermissionRequest  EventKind = "PermissionRequest"  // matcher: tool name
	PostToolUse        EventKind = "PostToolUse"        // matcher: tool name
	PostToolUseFailure EventKind = "PostToolUseFailure" // matcher: tool name
	Notification       EventKind = "Notification"       // no matcher
	SubagentStart      EventKind = "SubagentStart"      // no matcher
	SubagentStop       EventKind = "SubagentStop"       // no matcher
	Stop               EventKind = "Stop"               // no matcher
	PreCompact         EventKind = "PreCompact"         // no matcher
	SessionEnd         EventKind = "SessionEnd"         // no matcher
	Setup              EventKind = "Setup"              // no matcher
)

// knownKinds is the closed set of event kinds.
var knownKinds = map[EventKind]bool{
	SessionStart: true, UserPromptSubmit: true, PreToolUse: true,
	PermissionRequest: true, PostToolUse: true, PostToolUseFailure: true,
	Notification: true, SubagentStart: true, SubagentStop: true,
	Stop: true, PreCompact: true, SessionEnd: true, Setup: true,
}

// KnownKind reports whether s names a valid event kind.
func KnownKind(s string) bool {
	return knownKinds[EventKind(s)]
}

// toolKinds are the kinds whose matcher value is the tool name.
var toolKinds = map[EventKind]bool{
	PreToolUse: true, PostToolUse: true,
	PostToolUseFailure: true, PermissionRequest: true,
}

// HookEvent is one occurrence of a lifecycle event, built once and
// never mutated. RawPayload, when present, is the full serialized
// event and is sent verbatim to command hooks.
type HookEvent struct {
	Kind      EventKind
	SessionID string

	// Tool events
	ToolName  string
	ToolInput map[string]any
	ToolUseID string

	// FilePath is derived from ToolInput when the tool carries a
	// recognizable file-path field.
	FilePath string

	// Source is meaningful only for SessionStart ("startup", "resume").
	Source string

	// Prompt is meaningful only for UserPromptSubmit.
	Prompt string

	RawPayload map[string]any
}

// NewToolEvent builds a tool-bearing event, deriving FilePath from the
// tool input.
func NewToolEvent(kind EventKind, sessionID, toolName string, toolInput map[string]any, toolUseID string) HookEvent {
	return HookEvent{
		Kind:      kind,
		SessionID: sessionID,
		ToolName:  toolName,
		ToolInput: toolInput,
		ToolUseID: toolUseID,
		FilePath:  DeriveFilePath(toolInput),
	}
}

// filePathKeys are the tool input fields recognized as file paths.
var filePathKeys = []string{"file_path", "path", "notebook_path"}

// DeriveFilePath extracts a file path from tool input, or "" when the
// input has no recognizable path field.
func DeriveFilePath(toolInput map[string]any) string {
	for _, key := range filePathKeys {
		if v, ok := toolInput[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// OutcomeKind classifies the result of one hook execution. Values are
// ordered by merge precedence, lowest first.
type OutcomeKind int

const (
	Allow OutcomeKind = iota
	AllowWithContext
	AllowWithUpdatedInput
	ShouldContinue
	Block
)

// String returns the display name for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case AllowWithContext:
		return "allow_with_context"
	case AllowWithUpdatedInput:
		return "allow_with_updated_input"
	case ShouldContinue:
		return "should_continue"
	case Block:
		return "block"
	default:
		return "allow"
	}
}

// Outcome is the result of one hook execution.
type Outcome struct {
	Kind OutcomeKind

	// Reason carries the Block or ShouldContinue message.
	Reason string

	// Context carries the AllowWithContext text.
	Context string

	// UpdatedInput carries the AllowWithUpdatedInput replacement.
	UpdatedInput map[string]any
}

// Decision is the pipeline's merged result for one event: the single
// highest-precedence outcome plus every per-hook outcome in execution
// order. A decision always carries at least one outcome; when no hook
// matched, that outcome is Allow.
type Decision struct {
	Final    Outcome
	Outcomes []Outcome
}

// allowDecision is the default when no hook matched the event.
func allowDecision() Decision {
	return Decision{Final: Outcome{Kind: Allow}, Outcomes: []Outcome{{Kind: Allow}}}
}

// merge folds outcomes into a Decision under the precedence policy.
// Ties between equal-precedence outcomes resolve to the first one in
// execution order.
func merge(outcomes []Outcome) Decision {
	if len(outcomes) == 0 {
		return allowDecision()
	}
	final := outcomes[0]
	for _, o := range outcomes[1:] {
		if o.Kind > final.Kind {
			final = o
		}
	}
	return Decision{Final: final, Outcomes: outcomes}
}

// Blocked reports whether the merged decision is a Block, with its
// reason.
func (d Decision) Blocked() (string, bool) {
	if d.Final.Kind == Block {
		return d.Final.Reason, true
	}
	return "", false
}

// Continue reports whether the merged decision asks the agent to keep
// going (Stop hooks only), with its reason.
func (d Decision) Continue() (string, bool) {
	if d.Final.Kind == ShouldContinue {
		return d.Final.Reason, true
	}
	return "", false
}

// hookOutput is the JSON document a command hook may print on stdout.
type hookOutput struct {
	HookSpecificOutput *hookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// hookSpecificOutput carries the event-kind-specific output fields.
type hookSpecificOutput struct {
	HookEventName            string         `json:"hookEventName"`
	PermissionDecision       string         `json:"permissionDecision,omitempty"`
	PermissionDecisionReason string         `json:"permissionDecisionReason,omitempty"`
	UpdatedInput             map[string]any `json:"updatedInput,omitempty"`
	AdditionalContext        string         `json:"additionalContext,omitempty"`
	Reason                   string         `json:"reason,omitempty"`
}
