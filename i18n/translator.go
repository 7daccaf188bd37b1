package i18n

// Translator retrieves localized messages for validation codes.
// data provides optional metadata to embed in the message (for example,
// "min" or "expected").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

// NewDict returns the built-in dictionary Translator for lang ("en"/"fr").
func NewDict(lang string) Translator {
	if lang != "fr" {
		lang = "en"
	}
	return dictTranslator{lang: lang}
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "fr":
		switch code {
		case "invalid_type":
			return "type invalide" + suffix(data, "expected", " (attendu: %s)")
		case "required":
			return "champ obligatoire"
		case "not_null":
			return "valeur nulle interdite"
		case "too_small":
			return "valeur trop petite" + suffix(data, "min", " (minimum: %s)")
		case "too_big":
			return "valeur trop grande" + suffix(data, "max", " (maximum: %s)")
		case "too_short":
			return "texte trop court" + suffix(data, "min", " (minimum: %s)")
		case "too_long":
			return "texte trop long" + suffix(data, "max", " (maximum: %s)")
		case "pattern":
			return "format invalide"
		case "invalid_enum":
			return "valeur hors liste"
		case "invalid_format":
			return "format invalide" + suffix(data, "format", " (%s)")
		case "mismatch":
			return "les champs ne correspondent pas"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			return "invalid type" + suffix(data, "expected", " (expected %s)")
		case "required":
			return "required"
		case "not_null":
			return "must not be null"
		case "too_small":
			return "too small" + suffix(data, "min", " (minimum %s)")
		case "too_big":
			return "too big" + suffix(data, "max", " (maximum %s)")
		case "too_short":
			return "too short" + suffix(data, "min", " (minimum %s)")
		case "too_long":
			return "too long" + suffix(data, "max", " (maximum %s)")
		case "pattern":
			return "invalid format"
		case "invalid_enum":
			return "value not allowed"
		case "invalid_format":
			return "invalid format" + suffix(data, "format", " (%s)")
		case "mismatch":
			return "fields do not match"
		}
	}
	return code
}

func suffix(data map[string]string, key, format string) string {
	if data == nil {
		return ""
	}
	v, ok := data[key]
	if !ok || v == "" {
		return ""
	}
	// format holds exactly one %s
	out := make([]byte, 0, len(format)+len(v))
	for i := 0; i < len(format); i++ {
		if format[i] == '%' && i+1 < len(format) && format[i+1] == 's' {
			out = append(out, v...)
			i++
			continue
		}
		out = append(out, format[i])
	}
	return string(out)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"fr").
func SetLanguage(lang string) {
	currentTranslator = NewDict(lang)
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
