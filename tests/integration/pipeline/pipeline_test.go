package pipeline_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/avelmore/hookgate/internal/config"
	"github.com/avelmore/hookgate/internal/hooks"
	"github.com/avelmore/hookgate/internal/turnstate"
)

func skipWithoutSh(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping on windows (no sh)")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
}

func writeSettings(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestPipeline_BlockFromProjectSettings(t *testing.T) {
	skipWithoutSh(t)

	userDir := t.TempDir()
	projectDir := t.TempDir()

	// The user level allows everything; the project level blocks Bash.
	// Project settings replace the user's PreToolUse groups entirely.
	writeSettings(t, userDir, "settings.json", `{
		"hooks": {
			"PreToolUse": [
				{"hooks": [{"type": "command", "command": "exit 0"}]}
			]
		}
	}`)
	writeSettings(t, projectDir, "settings.json", `{
		"hooks": {
			"PreToolUse": [
				{"matcher": "Bash", "hooks": [
					{"type": "command", "command": "echo 'shell disabled here' >&2; exit 2"}
				]}
			]
		}
	}`)

	settings, err := config.NewLoaderWithOptions(userDir, projectDir).Load()
	if err != nil {
		t.Fatal(err)
	}

	p := &hooks.Pipeline{SessionID: "sess-1", Cwd: t.TempDir()}
	event := hooks.NewToolEvent(hooks.PreToolUse, "sess-1", "Bash", map[string]any{"command": "ls"}, "tc1")

	decision, err := p.Process(context.Background(), settings, event)
	if err != nil {
		t.Fatal(err)
	}

	reason, blocked := decision.Blocked()
	if !blocked {
		t.Fatalf("expected Block, got %s", decision.Final.Kind)
	}
	if reason != "shell disabled here" {
		t.Errorf("reason = %q", reason)
	}

	// A different tool never reaches the Bash matcher.
	other := hooks.NewToolEvent(hooks.PreToolUse, "sess-1", "Read", map[string]any{"file_path": "a.go"}, "tc2")
	decision, err = p.Process(context.Background(), settings, other)
	if err != nil {
		t.Fatal(err)
	}
	if _, blocked := decision.Blocked(); blocked {
		t.Error("matcher must scope the block to Bash")
	}
}

func TestPipeline_LocalSettingsWinOverProject(t *testing.T) {
	skipWithoutSh(t)

	projectDir := t.TempDir()
	writeSettings(t, projectDir, "settings.json", `{
		"hooks": {
			"UserPromptSubmit": [
				{"hooks": [{"type": "command", "command": "echo 'no' >&2; exit 2"}]}
			]
		}
	}`)
	writeSettings(t, projectDir, "settings.local.json", `{
		"hooks": {
			"UserPromptSubmit": [
				{"hooks": [{"type": "command", "command": "exit 0"}]}
			]
		}
	}`)

	settings, err := config.NewLoaderWithOptions(t.TempDir(), projectDir).Load()
	if err != nil {
		t.Fatal(err)
	}

	p := &hooks.Pipeline{SessionID: "sess-1", Cwd: t.TempDir()}
	event := hooks.HookEvent{Kind: hooks.UserPromptSubmit, SessionID: "sess-1", Prompt: "hello"}

	decision, err := p.Process(context.Background(), settings, event)
	if err != nil {
		t.Fatal(err)
	}
	if _, blocked := decision.Blocked(); blocked {
		t.Error("local settings must override the project block")
	}
}

func TestPipeline_UpdatedInputEndToEnd(t *testing.T) {
	skipWithoutSh(t)

	projectDir := t.TempDir()
	writeSettings(t, projectDir, "settings.json", `{
		"hooks": {
			"PreToolUse": [
				{"matcher": "Read", "hooks": [
					{"type": "command", "command": "echo '{\"hookSpecificOutput\":{\"hookEventName\":\"PreToolUse\",\"updatedInput\":{\"file_path\":\"/redirected\"}}}'"}
				]}
			]
		}
	}`)

	settings, err := config.NewLoaderWithOptions(t.TempDir(), projectDir).Load()
	if err != nil {
		t.Fatal(err)
	}

	p := &hooks.Pipeline{SessionID: "sess-1", Cwd: t.TempDir()}
	event := hooks.NewToolEvent(hooks.PreToolUse, "sess-1", "Read", map[string]any{"file_path": "/original"}, "tc1")

	decision, err := p.Process(context.Background(), settings, event)
	if err != nil {
		t.Fatal(err)
	}

	if decision.Final.Kind != hooks.AllowWithUpdatedInput {
		t.Fatalf("expected AllowWithUpdatedInput, got %s", decision.Final.Kind)
	}
	if decision.Final.UpdatedInput["file_path"] != "/redirected" {
		t.Errorf("updated input = %v", decision.Final.UpdatedInput)
	}
}

func TestPipeline_StopHookSeesChangedFiles(t *testing.T) {
	skipWithoutSh(t)

	workDir := t.TempDir()
	target := filepath.Join(workDir, "main.go")
	if err := os.WriteFile(target, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	tracker := &turnstate.Tracker{
		Store:   turnstate.NewStoreAt(t.TempDir()),
		Project: workDir,
	}
	if err := tracker.BeginToolUse("tc1", []string{target}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := tracker.FinishToolUse("tc1"); err != nil {
		t.Fatal(err)
	}

	validator := &recordingValidator{}
	settings := config.NewSettings()
	settings.Validators = []config.ValidatorRuleSet{
		{Name: "turn-complete", Events: []string{"Stop"}},
	}

	p := &hooks.Pipeline{
		SessionID: "sess-1",
		Cwd:       workDir,
		Validator: validator,
		ChangedFiles: func(ctx context.Context) ([]string, error) {
			return tracker.ChangedFiles()
		},
	}

	decision, err := p.Process(context.Background(), settings, hooks.HookEvent{Kind: hooks.Stop, SessionID: "sess-1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, blocked := decision.Blocked(); blocked {
		t.Errorf("validator returned no blocking results, got %s", decision.Final.Kind)
	}

	if len(validator.inputs) != 1 {
		t.Fatalf("expected 1 validator call, got %d", len(validator.inputs))
	}
	got := validator.inputs[0].ChangedFiles
	if len(got) != 1 || got[0] != target {
		t.Errorf("validator changed files = %v, want [%s]", got, target)
	}
}

type recordingValidator struct {
	inputs  []hooks.ValidatorInput
	results []hooks.ValidatorResult
}

func (v *recordingValidator) Check(ctx context.Context, ruleSets []string, input hooks.ValidatorInput) ([]hooks.ValidatorResult, error) {
	v.inputs = append(v.inputs, input)
	return v.results, nil
}
