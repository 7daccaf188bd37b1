package i18n

import "testing"

func TestTranslator_DefaultAndFrench(t *testing.T) {
	// default is en
	if msg := T("invalid_type", nil); msg == "invalid_type" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("fr")
	if msg := T("invalid_type", nil); msg == "invalid type" {
		t.Fatalf("expected french message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_ParamsEmbedded(t *testing.T) {
	msg := T("too_small", map[string]string{"min": "3"})
	if msg != "too small (minimum 3)" {
		t.Fatalf("expected min embedded, got %q", msg)
	}
	if msg := T("too_small", nil); msg != "too small" {
		t.Fatalf("expected bare message without params, got %q", msg)
	}
}

func TestTranslator_UnknownCodeFallsBack(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("unknown codes fall back to the code itself, got %q", msg)
	}
}

func TestSetTranslator_NilRestoresDefault(t *testing.T) {
	SetTranslator(nil)
	if msg := T("required", nil); msg != "required" {
		t.Fatalf("default translator should answer, got %q", msg)
	}
}
