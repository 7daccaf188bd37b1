package databind_test

import (
	"fmt"
	"strings"
	"testing"

	databind "github.com/reoring/databind"
)

func TestFieldErrorsApplyAndClear(t *testing.T) {
	fe := databind.FieldErrors{}
	fe.Apply("age", databind.CodeRequired, "required")
	if fe.Valid() {
		t.Fatalf("expected invalid after Apply")
	}
	if got := fe.Messages("age"); len(got) != 1 || got[0] != "required" {
		t.Fatalf("unexpected messages: %#v", got)
	}

	// an empty message clears just that code
	fe.Apply("age", databind.CodeRequired, "")
	if !fe.Valid() {
		t.Fatalf("expected valid after clearing the only code, got %v", fe)
	}
	if got := fe.Messages("age"); got != nil {
		t.Fatalf("expected no messages, got %#v", got)
	}
}

func TestFieldErrorsClearKeepsSiblingCodes(t *testing.T) {
	fe := databind.FieldErrors{}
	fe.Apply("name", databind.CodeTooShort, "too short")
	fe.Apply("name", databind.CodePattern, "bad pattern")
	fe.Apply("name", databind.CodeTooShort, "")
	if fe.Valid() {
		t.Fatalf("sibling code should survive the clear")
	}
	if got := fe.Messages("name"); len(got) != 1 || got[0] != "bad pattern" {
		t.Fatalf("unexpected messages: %#v", got)
	}
}

func TestFieldErrorsMerge(t *testing.T) {
	fe := databind.FieldErrors{}
	fe.Merge("n", map[string]string{
		databind.CodeTooSmall: "too small",
		databind.CodeTooBig:   "",
	})
	if len(fe["n"]) != 1 {
		t.Fatalf("expected exactly the failing code, got %#v", fe["n"])
	}
}

func TestFieldErrorsErrorSummary(t *testing.T) {
	fe := databind.FieldErrors{}
	fe.Apply("a", databind.CodeRequired, "x")
	fe.Apply("b", databind.CodeRequired, "x")
	fe.Apply("c", databind.CodeRequired, "x")
	fe.Apply("d", databind.CodeRequired, "x")
	msg := fe.Error()
	if !strings.Contains(msg, "required at a") {
		t.Fatalf("summary should name the first field: %q", msg)
	}
	if !strings.Contains(msg, "total 4") {
		t.Fatalf("summary should count all entries: %q", msg)
	}
}

func TestAsFieldErrors(t *testing.T) {
	fe := databind.FieldErrors{}
	fe.Apply("x", databind.CodeRequired, "m")
	wrapped := fmt.Errorf("validate: %w", fe)
	got, ok := databind.AsFieldErrors(wrapped)
	if !ok || len(got) != 1 {
		t.Fatalf("expected to recover FieldErrors from wrapped error")
	}
	if _, ok := databind.AsFieldErrors(nil); ok {
		t.Fatalf("nil error should not match")
	}
}

func TestModelErrorMessage(t *testing.T) {
	err := databind.NewModelError("user", "build", "field %q redefined", "age")
	want := `user: build: field "age" redefined`
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
}

func TestSourceErrorMessage(t *testing.T) {
	err := databind.NewSourceError("form", "bind", "addr.city", "type conflict")
	if !strings.Contains(err.Error(), `element "addr.city"`) {
		t.Fatalf("element path missing from message: %q", err.Error())
	}
}
