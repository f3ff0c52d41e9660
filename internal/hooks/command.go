package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avelmore/hookgate/internal/config"
	"github.com/avelmore/hookgate/internal/log"
)

// DefaultTimeout is the default timeout for a single command hook.
const DefaultTimeout = 600 * time.Second

// runCommand executes one command hook and classifies its result into
// an Outcome. It is a total function: every subprocess result,
// including spawn failure, timeout, and garbage output, maps to a
// defined Outcome. A broken hook script must never take down the
// agent, so every infrastructure failure resolves to Allow.
func (p *Pipeline) runCommand(ctx context.Context, hookCmd config.HookCmd, event HookEvent, env map[string]string) Outcome {
	if hookCmd.Command == "" {
		return Outcome{Kind: Allow}
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if hookCmd.Timeout > 0 {
		timeout = time.Duration(hookCmd.Timeout) * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	inputJSON, err := json.Marshal(p.payload(event))
	if err != nil {
		log.Logger().Warn("failed to marshal hook input",
			zap.String("command", hookCmd.Command),
			zap.Error(err))
		return Outcome{Kind: Allow}
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", hookCmd.Command)
	cmd.Dir = p.Cwd
	cmd.Stdin = bytes.NewReader(inputJSON)
	cmd.Env = p.buildEnv(event, env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if ctx.Err() != nil {
		log.Logger().Warn("hook timed out",
			zap.String("command", hookCmd.Command),
			zap.Duration("timeout", timeout))
		return Outcome{Kind: Allow}
	}

	switch code := exitCode(runErr); {
	case code < 0:
		// Spawn failure: binary not found, not executable.
		log.Logger().Warn("hook failed to run",
			zap.String("command", hookCmd.Command),
			zap.Error(runErr))
		return Outcome{Kind: Allow}

	case code == 2:
		return blockingExit(&stderr, &stdout)

	case code != 0:
		log.Logger().Warn("hook exited with unexpected code",
			zap.String("command", hookCmd.Command),
			zap.Int("exitCode", code),
			zap.String("stderr", stderr.String()))
		return Outcome{Kind: Allow}
	}

	return classifyOutput(event.Kind, strings.TrimSpace(stdout.String()))
}

// blockingExit builds the Block outcome for exit code 2. The reason is
// stderr when non-empty, else stdout.
func blockingExit(stderr, stdout *bytes.Buffer) Outcome {
	reason := strings.TrimSpace(stderr.String())
	if reason == "" {
		reason = strings.TrimSpace(stdout.String())
	}
	return Outcome{Kind: Block, Reason: reason}
}

// classifyOutput decodes a hook's stdout into an Outcome. All parsing
// of untrusted hook output happens here so the fail-open policy is
// enforced in one place: empty output, non-JSON output, and documents
// without a recognized hookSpecificOutput all resolve to Allow.
func classifyOutput(kind EventKind, output string) Outcome {
	if output == "" {
		return Outcome{Kind: Allow}
	}

	var parsed hookOutput
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		log.Logger().Debug("hook output not valid JSON", zap.String("output", output))
		return Outcome{Kind: Allow}
	}

	hso := parsed.HookSpecificOutput
	if hso == nil {
		return Outcome{Kind: Allow}
	}
	if !KnownKind(hso.HookEventName) {
		log.Logger().Debug("unrecognized hookEventName in hook output",
			zap.String("hookEventName", hso.HookEventName))
		return Outcome{Kind: Allow}
	}

	return decodeSpecific(kind, hso)
}

// decodeSpecific maps hookSpecificOutput fields to an Outcome per the
// event kind's schema. When several fields are present the highest
// precedence one wins; a hook execution produces exactly one outcome.
func decodeSpecific(kind EventKind, hso *hookSpecificOutput) Outcome {
	if kind == PreToolUse || kind == PermissionRequest {
		if hso.PermissionDecision == "deny" {
			return Outcome{Kind: Block, Reason: hso.PermissionDecisionReason}
		}
		if hso.UpdatedInput != nil {
			return Outcome{Kind: AllowWithUpdatedInput, UpdatedInput: hso.UpdatedInput}
		}
	}

	if kind == Stop && hso.Reason != "" {
		return Outcome{Kind: ShouldContinue, Reason: hso.Reason}
	}

	if hso.AdditionalContext != "" {
		return Outcome{Kind: AllowWithContext, Context: hso.AdditionalContext}
	}

	return Outcome{Kind: Allow}
}

// payload builds the JSON document written to the hook's stdin: the
// event's raw payload plus the standard fields every hook receives.
func (p *Pipeline) payload(event HookEvent) map[string]any {
	doc := make(map[string]any, len(event.RawPayload)+8)
	for k, v := range event.RawPayload {
		doc[k] = v
	}

	doc["hook_event_name"] = string(event.Kind)
	doc["session_id"] = event.SessionID
	doc["cwd"] = p.Cwd
	doc["transcript_path"] = p.TranscriptPath

	if event.ToolName != "" {
		doc["tool_name"] = event.ToolName
	}
	if event.ToolInput != nil {
		doc["tool_input"] = event.ToolInput
	}
	if event.ToolUseID != "" {
		doc["tool_use_id"] = event.ToolUseID
	}
	if event.FilePath != "" {
		doc["file_path"] = event.FilePath
	}
	if event.Source != "" {
		doc["source"] = event.Source
	}
	if event.Prompt != "" {
		doc["prompt"] = event.Prompt
	}

	return doc
}

// buildEnv creates the environment for the hook command: the parent
// environment, configured extras, and the hookgate variables.
func (p *Pipeline) buildEnv(event HookEvent, extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	env = append(env,
		"HOOKGATE_PROJECT_DIR="+p.Cwd,
		"HOOKGATE_SESSION_ID="+event.SessionID,
		"HOOKGATE_EVENT="+string(event.Kind),
	)
	if event.ToolName != "" {
		env = append(env, "HOOKGATE_TOOL_NAME="+event.ToolName)
	}
	return env
}

// exitCode extracts the exit code from cmd.Run's error. Returns -1 for
// non-exit errors (the process never ran).
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
