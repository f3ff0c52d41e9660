package intercept

import (
	"context"

	"go.uber.org/zap"

	"github.com/avelmore/hookgate/internal/config"
	"github.com/avelmore/hookgate/internal/hooks"
	"github.com/avelmore/hookgate/internal/log"
	"github.com/avelmore/hookgate/internal/turnstate"
)

// defaultBuffer bounds each derived stream. Publishes never block the
// consumption loop: when a subscriber falls this far behind, further
// messages for it are dropped and logged.
const defaultBuffer = 256

// Streams are the three derived output channels. All close when the
// inbound stream closes or the context is cancelled.
type Streams struct {
	// Forwarded re-publishes every inbound notification unmodified,
	// regardless of the hook decision.
	Forwarded <-chan Notification

	// Cancel exists for a future synchronous interception point; the
	// notification path never emits on it. A tool call observed here
	// has already been dispatched and cannot be cancelled
	// retroactively.
	Cancel <-chan string

	// Context carries the text of AllowWithContext decisions.
	Context <-chan string
}

// Interceptor subscribes to the inbound notification stream,
// reconstructs a HookEvent for each relevant notification, runs the
// hook pipeline, and fans the results out. Once intercepted, no other
// component may subscribe to the raw inbound stream.
type Interceptor struct {
	Pipeline *hooks.Pipeline
	Settings *config.Settings

	// Tracker maintains the turn's changed-file state from the
	// tool-lifecycle notifications. Nil disables turn tracking.
	Tracker *turnstate.Tracker

	// Buffer overrides the per-stream buffer size. Zero means
	// defaultBuffer.
	Buffer int
}

// Start begins consuming inbound notifications and returns the derived
// streams. It spawns a single consumption loop; hooks for one event
// run sequentially inside it, so decisions stay deterministic.
func (i *Interceptor) Start(ctx context.Context, inbound <-chan Notification) Streams {
	size := i.Buffer
	if size <= 0 {
		size = defaultBuffer
	}

	forwarded := make(chan Notification, size)
	cancel := make(chan string, size)
	contextOut := make(chan string, size)

	go func() {
		defer close(forwarded)
		defer close(cancel)
		defer close(contextOut)

		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-inbound:
				if !ok {
					return
				}
				i.handle(ctx, n, forwarded, contextOut)
			}
		}
	}()

	return Streams{Forwarded: forwarded, Cancel: cancel, Context: contextOut}
}

// handle processes one inbound notification: forward it, update turn
// state, run the pipeline, and publish any context injection.
func (i *Interceptor) handle(ctx context.Context, n Notification, forwarded chan<- Notification, contextOut chan<- string) {
	publishNotification(forwarded, n)

	i.trackTurn(n)

	event, ok := hookEvent(n)
	if !ok {
		return
	}

	decision, err := i.Pipeline.Process(ctx, i.Settings, event)
	if err != nil {
		// The action already happened; a pipeline failure here can
		// only be logged, never interrupt the session.
		log.Logger().Error("hook pipeline failed on notification",
			zap.String("notification", string(n.Kind)),
			zap.Error(err))
		return
	}

	switch decision.Final.Kind {
	case hooks.AllowWithContext:
		publishString(contextOut, decision.Final.Context, "context")
	case hooks.Block:
		log.Logger().Warn("hook blocked an already-dispatched action",
			zap.String("event", string(event.Kind)),
			zap.String("tool", event.ToolName),
			zap.String("reason", decision.Final.Reason))
	case hooks.AllowWithUpdatedInput:
		// The tool input cannot be rewritten after dispatch.
		log.Logger().Debug("updated input ignored on notification path",
			zap.String("tool", event.ToolName))
	}
}

// trackTurn maintains the changed-file state for tool notifications.
func (i *Interceptor) trackTurn(n Notification) {
	if i.Tracker == nil || n.ToolUseID == "" {
		return
	}

	var err error
	switch n.Kind {
	case ToolCallStarted:
		if path := hooks.DeriveFilePath(n.ToolInput); path != "" {
			err = i.Tracker.BeginToolUse(n.ToolUseID, []string{path})
		}
	case ToolCallCompleted, ToolCallFailed:
		err = i.Tracker.FinishToolUse(n.ToolUseID)
	}

	if err != nil {
		log.Logger().Error("turn state update failed",
			zap.String("tool_use_id", n.ToolUseID),
			zap.Error(err))
	}
}

// publishNotification delivers without blocking; a slow consumer of
// one stream must not stall evaluation of subsequent events.
func publishNotification(ch chan<- Notification, n Notification) {
	select {
	case ch <- n:
	default:
		log.Logger().Warn("dropping notification for slow consumer",
			zap.String("kind", string(n.Kind)))
	}
}

func publishString(ch chan<- string, s, stream string) {
	select {
	case ch <- s:
	default:
		log.Logger().Warn("dropping message for slow consumer",
			zap.String("stream", stream))
	}
}
