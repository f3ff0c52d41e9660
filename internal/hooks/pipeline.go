package hooks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/avelmore/hookgate/internal/config"
	"github.com/avelmore/hookgate/internal/log"
)

// Pipeline orchestrates hook execution for one event: it selects the
// matching hook groups, runs each hook sequentially in configuration
// order, consults the validator engine, and merges every outcome into
// one Decision. Configuration is passed into Process on every call so
// multiple configs can run side by side.
type Pipeline struct {
	SessionID      string
	Cwd            string
	TranscriptPath string

	// Timeout is the default per-hook timeout; zero means
	// DefaultTimeout. A per-hook config timeout overrides it.
	Timeout time.Duration

	// Evaluator handles prompt and agent hooks. Nil disables them.
	Evaluator Evaluator

	// Validator is the external rule engine. Nil disables it.
	Validator ValidatorEngine

	// ChangedFiles supplies the turn's changed paths to the
	// validator on Stop events. Nil means no turn tracking.
	ChangedFiles func(ctx context.Context) ([]string, error)
}

// Process runs every configured hook matching the event and merges
// their outcomes by precedence: Block > ShouldContinue >
// AllowWithUpdatedInput > AllowWithContext > Allow, ties resolving to
// the first outcome in execution order. Hook infrastructure failures
// never surface here; the only errors are fatal ones, from the
// evaluator or validator transport and from turn state I/O.
func (p *Pipeline) Process(ctx context.Context, settings *config.Settings, event HookEvent) (Decision, error) {
	var outcomes []Outcome

	for _, group := range p.matchingGroups(settings, event) {
		for _, hookCmd := range group.Hooks {
			outcome, err := p.runHook(ctx, hookCmd, event, settings.Env)
			if err != nil {
				return Decision{}, err
			}
			outcomes = append(outcomes, outcome)
		}
	}

	if p.Validator != nil && len(settings.Validators) > 0 {
		changed, err := p.changedForEvent(ctx, event)
		if err != nil {
			return Decision{}, err
		}
		outcome, err := p.runValidator(ctx, settings, event, changed)
		if err != nil {
			return Decision{}, err
		}
		outcomes = append(outcomes, outcome)
	}

	decision := merge(outcomes)
	log.Logger().Debug("hook decision",
		zap.String("event", string(event.Kind)),
		zap.String("outcome", decision.Final.Kind.String()),
		zap.Int("hooks", len(outcomes)))
	return decision, nil
}

// HasHooks reports whether any hooks are configured for the kind.
func HasHooks(settings *config.Settings, kind EventKind) bool {
	if settings == nil {
		return false
	}
	return len(settings.Hooks[string(kind)]) > 0 || len(settings.Validators) > 0
}

// matchingGroups selects the hook groups configured for the event's
// kind whose matcher accepts the event, in configuration order.
func (p *Pipeline) matchingGroups(settings *config.Settings, event HookEvent) []config.Hook {
	if settings == nil {
		return nil
	}

	var groups []config.Hook
	for _, group := range settings.Hooks[string(event.Kind)] {
		if Matches(group, event) {
			groups = append(groups, group)
		}
	}
	return groups
}

// runHook dispatches one hook definition to its runner. The hook type
// is a closed set; an unknown type is ignored with a warning, falling
// back to Allow.
func (p *Pipeline) runHook(ctx context.Context, hookCmd config.HookCmd, event HookEvent, env map[string]string) (Outcome, error) {
	switch hookCmd.Type {
	case "", "command":
		return p.runCommand(ctx, hookCmd, event, env), nil
	case "prompt":
		return p.runEvaluator(ctx, hookCmd, event, false)
	case "agent":
		return p.runEvaluator(ctx, hookCmd, event, true)
	default:
		log.Logger().Warn("unknown hook type",
			zap.String("type", hookCmd.Type),
			zap.String("event", string(event.Kind)))
		return Outcome{Kind: Allow}, nil
	}
}

// changedForEvent loads the turn's changed files for Stop events.
func (p *Pipeline) changedForEvent(ctx context.Context, event HookEvent) ([]string, error) {
	if event.Kind != Stop || p.ChangedFiles == nil {
		return nil, nil
	}
	return p.ChangedFiles(ctx)
}
