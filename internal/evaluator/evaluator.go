// Package evaluator provides the prompt/agent hook evaluator: an LLM
// judges an event against a configured prompt and either passes it or
// fails it with a reason.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/avelmore/hookgate/internal/log"
)

// Failure is an evaluation failure: the evaluator reached a verdict
// and the verdict is fail. It is distinct from a transport error
// (evaluator unreachable), which callers treat as fatal.
type Failure struct {
	Reason string
}

func (f *Failure) Error() string {
	return "evaluation failed: " + f.Reason
}

const (
	defaultModel = "claude-sonnet-4-20250514"

	promptMaxTokens = 512
	agentMaxTokens  = 2048

	systemPrompt = `You are a hook evaluator for an AI coding agent.
Judge the event below against the instruction. Reply with exactly one line:
"pass" if the event satisfies the instruction, or
"fail: <reason>" if it does not.`
)

// Anthropic evaluates prompts with the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates an evaluator over an SDK client. An empty model
// selects the default.
func NewAnthropic(client anthropic.Client, model string) *Anthropic {
	if model == "" {
		model = defaultModel
	}
	return &Anthropic{client: client, model: model}
}

// Evaluate judges the event input against the prompt. Agent hooks get
// a larger token budget and may reason before answering; prompt hooks
// answer directly. The verdict line must start with "pass" or "fail".
func (a *Anthropic) Evaluate(ctx context.Context, prompt string, agent bool, input map[string]any) error {
	maxTokens := promptMaxTokens
	if agent {
		maxTokens = agentMaxTokens
	}

	user := prompt
	if input != nil {
		if data, err := json.Marshal(input); err == nil {
			user += "\n\nEvent input:\n" + string(data)
		}
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return fmt.Errorf("anthropic request failed: %w", err)
	}

	return parseVerdict(messageText(msg))
}

// messageText joins the text blocks of a response.
func messageText(msg *anthropic.Message) string {
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// parseVerdict reads the verdict from the last non-empty line, so an
// agent-mode evaluator may reason on earlier lines. An answer that is
// neither pass nor fail counts as a failure with the raw answer as the
// reason; an evaluator that cannot follow the output contract should
// not silently pass events.
func parseVerdict(text string) error {
	verdict := lastNonEmptyLine(text)
	lower := strings.ToLower(verdict)

	switch {
	case strings.HasPrefix(lower, "pass"):
		return nil
	case strings.HasPrefix(lower, "fail"):
		reason := strings.TrimSpace(strings.TrimPrefix(verdict[4:], ":"))
		if reason == "" {
			reason = "evaluator rejected the event"
		}
		return &Failure{Reason: reason}
	default:
		log.Logger().Warn("evaluator returned malformed verdict")
		return &Failure{Reason: verdict}
	}
}

func lastNonEmptyLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
