package hooks

import (
	"testing"

	"github.com/avelmore/hookgate/internal/config"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		name    string
		matcher string
		event   HookEvent
		want    bool
	}{
		{"empty matcher matches everything", "", HookEvent{Kind: PreToolUse, ToolName: "Bash"}, true},
		{"wildcard matches everything", "*", HookEvent{Kind: PreToolUse, ToolName: "Bash"}, true},
		{"exact tool match", "Bash", HookEvent{Kind: PreToolUse, ToolName: "Bash"}, true},
		{"exact tool mismatch", "Bash", HookEvent{Kind: PreToolUse, ToolName: "Edit"}, false},
		{"regex alternation", "Write|Edit", HookEvent{Kind: PostToolUse, ToolName: "Edit"}, true},
		{"regex alternation mismatch", "Write|Edit", HookEvent{Kind: PostToolUse, ToolName: "Bash"}, false},
		{"regex prefix", "Bash.*", HookEvent{Kind: PreToolUse, ToolName: "BashTool"}, true},
		{"anchored regex", "Bash.*", HookEvent{Kind: PreToolUse, ToolName: "XBash"}, false},
		{"session start source match", "^startup$", HookEvent{Kind: SessionStart, Source: "startup"}, true},
		{"session start source mismatch", "^startup$", HookEvent{Kind: SessionStart, Source: "resume"}, false},
		{"session start alternation", "startup|clear", HookEvent{Kind: SessionStart, Source: "clear"}, true},
		{"invalid regex never matches", "[invalid", HookEvent{Kind: PreToolUse, ToolName: "[invalid"}, false},
		{"no matcher value for stop", "anything", HookEvent{Kind: Stop}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group := config.Hook{Matcher: tt.matcher}
			if got := Matches(group, tt.event); got != tt.want {
				t.Errorf("Matches(%q, %v) = %v, want %v", tt.matcher, tt.event.Kind, got, tt.want)
			}
		})
	}
}

func TestDeriveFilePath(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  string
	}{
		{"file_path field", map[string]any{"file_path": "/a/b.go"}, "/a/b.go"},
		{"path field", map[string]any{"path": "/a"}, "/a"},
		{"notebook_path field", map[string]any{"notebook_path": "/n.ipynb"}, "/n.ipynb"},
		{"file_path wins over path", map[string]any{"file_path": "/f", "path": "/p"}, "/f"},
		{"non-string ignored", map[string]any{"file_path": 1}, ""},
		{"no path field", map[string]any{"command": "ls"}, ""},
		{"nil input", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveFilePath(tt.input); got != tt.want {
				t.Errorf("DeriveFilePath(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
