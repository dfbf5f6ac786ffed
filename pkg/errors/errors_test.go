package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	err := New(CategoryParse, CodeInvalidDate, "cannot parse date")
	if got := err.Error(); !strings.Contains(got, "cannot parse date") {
		t.Errorf("Error() = %q", got)
	}

	cause := stderrors.New("boom")
	wrapped := Wrap(cause, CategoryStorage, CodeWriteFailed, "insert failed")
	if !strings.Contains(wrapped.Error(), "boom") {
		t.Errorf("wrapped Error() = %q, want cause included", wrapped.Error())
	}
	if !stderrors.Is(wrapped, cause) {
		t.Error("wrapped error must unwrap to its cause")
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		category Category
		want     int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryStorage, 4},
		{CategoryReconciliation, 5},
		{CategoryInternal, 5},
	}

	for _, tt := range tests {
		err := New(tt.category, CodeUnexpected, "x")
		if got := err.ExitCode(); got != tt.want {
			t.Errorf("ExitCode(%s) = %d, want %d", tt.category, got, tt.want)
		}
	}

	if got := ExitCodeFor(stderrors.New("plain")); got != 1 {
		t.Errorf("ExitCodeFor(plain) = %d, want 1", got)
	}
	if got := ExitCodeFor(nil); got != 0 {
		t.Errorf("ExitCodeFor(nil) = %d, want 0", got)
	}
	if got := ExitCodeFor(New(CategoryFile, CodeFileNotFound, "x")); got != 2 {
		t.Errorf("ExitCodeFor(file error) = %d, want 2", got)
	}
}

func TestContextAndSuggestion(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "no such file").
		WithContext("path", "/tmp/x.csv").
		WithSuggestion("check the path")

	if err.Context["path"] != "/tmp/x.csv" {
		t.Error("context not attached")
	}
	if err.Suggestion != "check the path" {
		t.Error("suggestion not attached")
	}
}

func TestAsError(t *testing.T) {
	appErr := New(CategoryValidation, CodeMissingField, "missing")

	got, ok := AsError(appErr)
	if !ok || got.Code != CodeMissingField {
		t.Error("AsError failed on a direct error")
	}

	wrapped := Wrap(appErr, CategoryInternal, CodeUnexpected, "outer")
	if _, ok := AsError(wrapped); !ok {
		t.Error("AsError failed on a wrapped error")
	}

	if _, ok := AsError(stderrors.New("plain")); ok {
		t.Error("AsError matched a plain error")
	}
	if _, ok := AsError(nil); ok {
		t.Error("AsError matched nil")
	}
}

func TestStateError(t *testing.T) {
	err := StateError("statement line", "recorded", "reject")
	if err.Category != CategoryValidation || err.Code != CodeInvalidState {
		t.Errorf("StateError = %+v", err)
	}
	for _, part := range []string{"statement line", "recorded", "reject"} {
		if !strings.Contains(err.Message, part) {
			t.Errorf("StateError message %q missing %q", err.Message, part)
		}
	}
}

func TestSummarize(t *testing.T) {
	errs := []error{
		New(CategoryParse, CodeInvalidDate, "bad date on row 3"),
		New(CategoryParse, CodeInvalidAmount, "bad amount on row 7"),
		New(CategoryParse, CodeInvalidDate, "bad date on row 9"),
	}

	summary := Summarize(errs, 2)
	if !strings.Contains(summary, "and 1 more") {
		t.Errorf("summary %q should note the elided errors", summary)
	}
	if strings.Contains(summary, "row 9") {
		t.Errorf("summary %q should cap samples at 2", summary)
	}

	if got := Summarize(nil, 5); got != "no errors" {
		t.Errorf("Summarize(nil) = %q", got)
	}
}
