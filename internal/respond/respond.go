// Package respond carries the turn's final response and the hook
// metadata written into it.
package respond

import "github.com/avelmore/hookgate/internal/hooks"

// Metadata keys read by the caller to decide whether to keep the agent
// looping after a Stop hook.
const (
	MetaShouldContinue = "hook_should_continue"
	MetaReason         = "hook_reason"
)

// Response is the turn's final response: the agent's text plus
// structured metadata.
type Response struct {
	Content string         `json:"content"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// InjectHookMeta writes the Stop decision into the response metadata.
// Only a ShouldContinue outcome leaves a trace; every other decision
// leaves the metadata untouched.
func InjectHookMeta(resp *Response, decision hooks.Decision) {
	reason, ok := decision.Continue()
	if !ok {
		return
	}
	if resp.Meta == nil {
		resp.Meta = make(map[string]any)
	}
	resp.Meta[MetaShouldContinue] = true
	resp.Meta[MetaReason] = reason
}
