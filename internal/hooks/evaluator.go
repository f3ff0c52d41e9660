package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/avelmore/hookgate/internal/config"
	"github.com/avelmore/hookgate/internal/evaluator"
)

// Evaluator judges an event against a prompt template. Implementations
// report an evaluation failure as *evaluator.Failure; any other error
// is a transport failure and is fatal to the pipeline call.
type Evaluator interface {
	Evaluate(ctx context.Context, prompt string, agent bool, input map[string]any) error
}

// runEvaluator executes one prompt or agent hook. The template's
// $ARGUMENTS placeholder is substituted with the event text before the
// evaluator sees it. Evaluation failure translates to Block with the
// evaluator's reason; transport failure propagates as an error.
func (p *Pipeline) runEvaluator(ctx context.Context, hookCmd config.HookCmd, event HookEvent, agent bool) (Outcome, error) {
	if p.Evaluator == nil {
		return Outcome{Kind: Allow}, nil
	}

	prompt := strings.ReplaceAll(hookCmd.Prompt, "$ARGUMENTS", eventText(event))

	err := p.Evaluator.Evaluate(ctx, prompt, agent, event.ToolInput)
	if err == nil {
		return Outcome{Kind: Allow}, nil
	}

	var failure *evaluator.Failure
	if errors.As(err, &failure) {
		return Outcome{Kind: Block, Reason: failure.Reason}, nil
	}

	return Outcome{}, fmt.Errorf("evaluator unreachable: %w", err)
}

// eventText renders the part of the event an evaluator prompt is
// interested in.
func eventText(event HookEvent) string {
	switch {
	case event.Kind == UserPromptSubmit:
		return event.Prompt
	case event.Kind == SessionStart:
		return event.Source
	case event.ToolName != "":
		if event.ToolInput != nil {
			if data, err := json.Marshal(event.ToolInput); err == nil {
				return event.ToolName + " " + string(data)
			}
		}
		return event.ToolName
	default:
		return string(event.Kind)
	}
}
