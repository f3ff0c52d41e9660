// Package config provides multi-level settings management for hookgate.
// Settings are loaded from multiple sources with the following priority
// (lowest to highest):
//  1. ~/.hookgate/settings.json (user level)
//  2. .hookgate/settings.json (project level)
//  3. .hookgate/settings.local.json (local level, not checked in)
package config

// Settings represents the complete hookgate configuration.
type Settings struct {
	// Hooks maps an event kind name (e.g. "PreToolUse") to its
	// configured hook groups, evaluated in order.
	Hooks map[string][]Hook `json:"hooks,omitempty"`

	// Env defines environment variables exported to command hooks.
	Env map[string]string `json:"env,omitempty"`

	// Validators lists rule sets consulted by the validator runner.
	Validators []ValidatorRuleSet `json:"validators,omitempty"`

	// ExitOnBlock lists event kinds for which a Block decision is
	// surfaced as a non-zero process exit code. These are the kinds
	// whose action already occurred, so the exit code is the only
	// side channel left.
	ExitOnBlock []string `json:"exitOnBlock,omitempty"`
}

// Hook pairs an optional matcher pattern with an ordered list of hook
// definitions that run when the matcher accepts an event.
type Hook struct {
	// Matcher is a regular expression tested against the event's
	// match value (tool name, or source for SessionStart). Empty
	// matches every event of the configured kind.
	Matcher string `json:"matcher,omitempty"`

	// Hooks are executed in order when the matcher accepts.
	Hooks []HookCmd `json:"hooks,omitempty"`
}

// HookCmd defines a single hook. Type selects the variant: "command"
// runs a shell command, "prompt" and "agent" delegate to the evaluator.
type HookCmd struct {
	// Type is "command" (default when empty), "prompt", or "agent".
	Type string `json:"type"`

	// Command is the shell command to execute (type=command).
	Command string `json:"command,omitempty"`

	// Prompt is the evaluator template (type=prompt or type=agent).
	// The placeholder $ARGUMENTS is substituted with the event text.
	Prompt string `json:"prompt,omitempty"`

	// Timeout overrides the per-hook timeout, in seconds.
	Timeout int `json:"timeout,omitempty"`
}

// ValidatorRuleSet names a rule set and scopes it to file paths.
type ValidatorRuleSet struct {
	// Name identifies the rule set to the validator engine.
	Name string `json:"name"`

	// Paths are doublestar globs; the rule set applies when the
	// event's file path matches any of them. Empty applies always.
	Paths []string `json:"paths,omitempty"`

	// Events restricts the rule set to specific event kinds.
	// Empty applies to every kind the validator runner handles.
	Events []string `json:"events,omitempty"`
}

// NewSettings creates a Settings instance with default values.
func NewSettings() *Settings {
	return &Settings{
		Hooks: make(map[string][]Hook),
		Env:   make(map[string]string),
		ExitOnBlock: []string{
			"SessionStart",
			"Setup",
		},
	}
}
