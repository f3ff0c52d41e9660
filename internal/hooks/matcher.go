package hooks

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/avelmore/hookgate/internal/config"
	"github.com/avelmore/hookgate/internal/log"
)

// Matches reports whether a hook group applies to the event. A group
// with no pattern matches every event of its configured kind. The
// pattern is a regular expression, anchored at both ends, tested
// against the event's match value. A pattern that fails to compile is
// a non-match: hook misconfiguration must not abort the pipeline.
func Matches(group config.Hook, event HookEvent) bool {
	if group.Matcher == "" || group.Matcher == "*" {
		return true
	}

	re, err := regexp.Compile("^(" + group.Matcher + ")$")
	if err != nil {
		log.Logger().Warn("invalid hook matcher",
			zap.String("matcher", group.Matcher),
			zap.String("event", string(event.Kind)),
			zap.Error(err))
		return false
	}

	return re.MatchString(matchValue(event))
}

// matchValue extracts the value the matcher is tested against.
func matchValue(event HookEvent) string {
	switch {
	case event.Kind == SessionStart:
		return event.Source
	case toolKinds[event.Kind]:
		return event.ToolName
	default:
		return ""
	}
}
