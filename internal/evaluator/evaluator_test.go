package evaluator

import (
	"context"
	"errors"
	"testing"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantReason string
		wantPass   bool
	}{
		{name: "plain pass", text: "pass", wantPass: true},
		{name: "pass with trailing period", text: "Pass.", wantPass: true},
		{name: "pass after reasoning", text: "The edit only touches tests.\n\npass", wantPass: true},
		{name: "plain fail", text: "fail: command deletes files", wantReason: "command deletes files"},
		{name: "fail case insensitive", text: "FAIL: bad", wantReason: "bad"},
		{name: "fail after reasoning", text: "Looking at the diff...\nfail: secrets in diff", wantReason: "secrets in diff"},
		{name: "fail without reason", text: "fail", wantReason: "evaluator rejected the event"},
		{name: "fail with bare colon", text: "fail:", wantReason: "evaluator rejected the event"},
		{name: "malformed verdict fails closed", text: "maybe?", wantReason: "maybe?"},
		{name: "empty answer fails closed", text: "", wantReason: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := parseVerdict(tc.text)
			if tc.wantPass {
				if err != nil {
					t.Fatalf("expected pass, got %v", err)
				}
				return
			}

			var failure *Failure
			if !errors.As(err, &failure) {
				t.Fatalf("expected *Failure, got %v", err)
			}
			if failure.Reason != tc.wantReason {
				t.Errorf("reason = %q, want %q", failure.Reason, tc.wantReason)
			}
		})
	}
}

func TestLastNonEmptyLine(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"pass", "pass"},
		{"a\nb\n", "b"},
		{"a\n\n  \n", "a"},
		{"  padded  ", "padded"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := lastNonEmptyLine(tc.text); got != tc.want {
			t.Errorf("lastNonEmptyLine(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestFakeRecordsCalls(t *testing.T) {
	fake := &Fake{}
	input := map[string]any{"file_path": "main.go"}

	if err := fake.Evaluate(context.Background(), "check the edit", true, input); err != nil {
		t.Fatal(err)
	}

	if len(fake.Calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(fake.Calls))
	}
	call := fake.Calls[0]
	if call.Prompt != "check the edit" || !call.Agent || call.Input["file_path"] != "main.go" {
		t.Errorf("call = %+v", call)
	}
}

func TestFakeReturnsConfiguredError(t *testing.T) {
	want := &Failure{Reason: "nope"}
	fake := &Fake{Err: want}

	err := fake.Evaluate(context.Background(), "p", false, nil)
	var failure *Failure
	if !errors.As(err, &failure) || failure.Reason != "nope" {
		t.Errorf("err = %v, want %v", err, want)
	}
}
