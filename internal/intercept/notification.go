// Package intercept transforms the live session notification stream:
// every tool-lifecycle notification is replayed through the hook
// pipeline, and the results fan out onto three derived streams.
package intercept

import "github.com/avelmore/hookgate/internal/hooks"

// NotificationKind identifies what a session notification reports.
type NotificationKind string

const (
	ToolCallStarted   NotificationKind = "tool_call_started"
	ToolCallCompleted NotificationKind = "tool_call_completed"
	ToolCallFailed    NotificationKind = "tool_call_failed"
	AgentMessage      NotificationKind = "agent_message"
)

// Notification is one entry on the inbound session stream.
type Notification struct {
	Kind      NotificationKind
	SessionID string

	// Tool notifications
	ToolName  string
	ToolInput map[string]any
	ToolUseID string
	Error     string

	// Agent messages
	Message string

	// Payload is the full serialized notification, passed through to
	// command hooks.
	Payload map[string]any
}

// hookEvent reconstructs the HookEvent for a notification, or false
// when the notification maps to no hookable event kind.
func hookEvent(n Notification) (hooks.HookEvent, bool) {
	var kind hooks.EventKind
	switch n.Kind {
	case ToolCallStarted:
		kind = hooks.PreToolUse
	case ToolCallCompleted:
		kind = hooks.PostToolUse
	case ToolCallFailed:
		kind = hooks.PostToolUseFailure
	case AgentMessage:
		kind = hooks.Notification
	default:
		return hooks.HookEvent{}, false
	}

	event := hooks.NewToolEvent(kind, n.SessionID, n.ToolName, n.ToolInput, n.ToolUseID)
	event.RawPayload = n.Payload
	return event, true
}
