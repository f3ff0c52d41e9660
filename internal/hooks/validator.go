package hooks

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/avelmore/hookgate/internal/config"
)

// ValidatorInput is what the validator engine receives for one event.
type ValidatorInput struct {
	Kind     EventKind
	ToolName string
	FilePath string

	// ChangedFiles is populated for Stop events with the paths
	// changed during the turn.
	ChangedFiles []string
}

// ValidatorResult is one rule check result from the engine.
type ValidatorResult struct {
	Blocking bool
	Message  string
}

// ValidatorEngine checks an event against named rule sets. The engine
// reports rule failures through results; an error from Check is a
// transport failure and is fatal to the pipeline call.
type ValidatorEngine interface {
	Check(ctx context.Context, ruleSets []string, input ValidatorInput) ([]ValidatorResult, error)
}

// runValidator delegates to the validator engine for the rule sets
// matching this event, and surfaces the first blocking result as a
// Block outcome. No matching rule set, or no blocking result, is Allow.
func (p *Pipeline) runValidator(ctx context.Context, settings *config.Settings, event HookEvent, changed []string) (Outcome, error) {
	names := matchRuleSets(settings.Validators, event)
	if len(names) == 0 {
		return Outcome{Kind: Allow}, nil
	}

	input := ValidatorInput{
		Kind:         event.Kind,
		ToolName:     event.ToolName,
		FilePath:     event.FilePath,
		ChangedFiles: changed,
	}

	results, err := p.Validator.Check(ctx, names, input)
	if err != nil {
		return Outcome{}, fmt.Errorf("validator engine unreachable: %w", err)
	}

	for _, r := range results {
		if r.Blocking {
			return Outcome{Kind: Block, Reason: r.Message}, nil
		}
	}
	return Outcome{Kind: Allow}, nil
}

// matchRuleSets selects the configured rule sets applicable to the
// event, by event kind and by file path glob.
func matchRuleSets(ruleSets []config.ValidatorRuleSet, event HookEvent) []string {
	var names []string
	for _, rs := range ruleSets {
		if len(rs.Events) > 0 && !containsKind(rs.Events, event.Kind) {
			continue
		}
		if len(rs.Paths) > 0 && !matchesAnyPath(rs.Paths, event.FilePath) {
			continue
		}
		names = append(names, rs.Name)
	}
	return names
}

func containsKind(events []string, kind EventKind) bool {
	for _, e := range events {
		if EventKind(e) == kind {
			return true
		}
	}
	return false
}

// matchesAnyPath tests the file path against doublestar globs. An
// event without a file path never matches a path-scoped rule set.
func matchesAnyPath(globs []string, path string) bool {
	if path == "" {
		return false
	}
	for _, g := range globs {
		if matched, err := doublestar.Match(g, path); err == nil && matched {
			return true
		}
	}
	return false
}
