package evaluator

import "context"

// FakeCall records one Evaluate invocation.
type FakeCall struct {
	Prompt string
	Agent  bool
	Input  map[string]any
}

// Fake is a test double that returns a predefined result.
//
// Usage:
//
//	fake := &evaluator.Fake{Err: &evaluator.Failure{Reason: "nope"}}
//	// every Evaluate call fails with "nope" and is recorded in Calls.
type Fake struct {
	// Err is returned by every Evaluate call. Nil passes.
	Err error

	// Calls records every invocation, in order.
	Calls []FakeCall
}

// Evaluate records the call and returns the configured result.
func (f *Fake) Evaluate(_ context.Context, prompt string, agent bool, input map[string]any) error {
	f.Calls = append(f.Calls, FakeCall{Prompt: prompt, Agent: agent, Input: input})
	return f.Err
}
