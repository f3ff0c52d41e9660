package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"

	"github.com/avelmore/hookgate/internal/config"
	"github.com/avelmore/hookgate/internal/evaluator"
	"github.com/avelmore/hookgate/internal/hooks"
	"github.com/avelmore/hookgate/internal/respond"
	"github.com/avelmore/hookgate/internal/turnstate"
)

var eventCmd = &cobra.Command{
	Use:   "event <kind>",
	Short: "Run the hook pipeline for one event read from stdin",
	Long: `Reads the event payload as JSON on stdin, runs every configured
hook for the given event kind, and prints the merged decision.

Exit codes: 2 when a synchronous event is blocked (the reason is
printed to stderr), or when a kind listed in exitOnBlock blocks.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvent,
}

func init() {
	eventCmd.SilenceUsage = true
}

// eventResult is the decision document printed on stdout.
type eventResult struct {
	Decision string         `json:"decision"`
	Reason   string         `json:"reason,omitempty"`
	Context  string         `json:"context,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

func runEvent(cmd *cobra.Command, args []string) error {
	kind := args[0]
	if !hooks.KnownKind(kind) {
		return fmt.Errorf("unknown event kind %q", kind)
	}

	payload, err := readPayload(cmd.InOrStdin())
	if err != nil {
		return err
	}

	settings, err := config.NewLoader().Load()
	if err != nil {
		return err
	}

	cwd, _ := os.Getwd()
	if v, ok := payload["cwd"].(string); ok && v != "" {
		cwd = v
	}

	event := buildEvent(hooks.EventKind(kind), payload)

	store, err := turnstate.NewStore()
	if err != nil {
		return err
	}
	tracker := &turnstate.Tracker{Store: store, Project: cwd}

	pipeline := &hooks.Pipeline{
		SessionID:      event.SessionID,
		Cwd:            cwd,
		TranscriptPath: stringField(payload, "transcript_path"),
		Evaluator:      buildEvaluator(settings),
		ChangedFiles: func(context.Context) ([]string, error) {
			return tracker.ChangedFiles()
		},
	}

	decision, err := pipeline.Process(cmd.Context(), settings, event)
	if err != nil {
		return err
	}

	return report(cmd, settings, event, decision)
}

// report prints the decision and applies the per-kind side effects:
// a blocked synchronous event exits 2 with the reason on stderr, a
// Stop ShouldContinue carries the response metadata, and kinds listed
// in exitOnBlock surface Block through the exit code.
func report(cmd *cobra.Command, settings *config.Settings, event hooks.HookEvent, decision hooks.Decision) error {
	result := eventResult{Decision: decision.Final.Kind.String()}

	switch decision.Final.Kind {
	case hooks.Block:
		result.Reason = decision.Final.Reason
	case hooks.AllowWithContext:
		result.Context = decision.Final.Context
	case hooks.ShouldContinue:
		resp := respond.Response{}
		respond.InjectHookMeta(&resp, decision)
		result.Reason = decision.Final.Reason
		result.Meta = resp.Meta
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if reason, blocked := decision.Blocked(); blocked && exitOnBlock(settings, event.Kind) {
		fmt.Fprintln(cmd.ErrOrStderr(), reason)
		os.Exit(2)
	}
	return nil
}

// exitOnBlock reports whether a Block on this kind is surfaced through
// the process exit code. Synchronous kinds always are; for the
// logged-only kinds the set is configurable.
func exitOnBlock(settings *config.Settings, kind hooks.EventKind) bool {
	if kind == hooks.UserPromptSubmit {
		return true
	}
	for _, k := range settings.ExitOnBlock {
		if hooks.EventKind(k) == kind {
			return true
		}
	}
	return false
}

// readPayload decodes the stdin JSON document; empty stdin is an
// empty payload.
func readPayload(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}
	if len(data) == 0 {
		return map[string]any{}, nil
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}
	return payload, nil
}

// buildEvent reconstructs the HookEvent from the raw payload.
func buildEvent(kind hooks.EventKind, payload map[string]any) hooks.HookEvent {
	toolInput, _ := payload["tool_input"].(map[string]any)

	event := hooks.NewToolEvent(
		kind,
		stringField(payload, "session_id"),
		stringField(payload, "tool_name"),
		toolInput,
		stringField(payload, "tool_use_id"),
	)
	event.Source = stringField(payload, "source")
	event.Prompt = stringField(payload, "prompt")
	event.RawPayload = payload
	return event
}

func stringField(payload map[string]any, key string) string {
	v, _ := payload[key].(string)
	return v
}

// buildEvaluator wires the Anthropic evaluator when an API key is
// available; prompt/agent hooks are skipped otherwise.
func buildEvaluator(settings *config.Settings) hooks.Evaluator {
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return nil
	}
	model := settings.Env["HOOKGATE_EVAL_MODEL"]
	return evaluator.NewAnthropic(anthropic.NewClient(), model)
}
