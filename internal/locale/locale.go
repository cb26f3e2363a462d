// Package locale holds the tr/en language model: the per-request language
// session, bilingual text values and the mapping between the two URL schemes.
package locale

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Language is a supported site language code.
type Language string

const (
	Turkish Language = "tr"
	English Language = "en"
)

// Default is the language served when nothing else is known about the visitor.
const Default = Turkish

// ErrUnsupportedLanguage is returned when a language code is not tr or en.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// Parse returns the Language for code, ignoring case and region suffixes ("en-US").
func Parse(code string) (Language, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	switch Language(code) {
	case Turkish, English:
		return Language(code), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
}

// Valid reports whether l is tr or en.
func (l Language) Valid() bool {
	return l == Turkish || l == English
}

// Other returns the opposite language.
func (l Language) Other() Language {
	if l == English {
		return Turkish
	}
	return English
}

// Text is a value stored in both site languages. It is persisted as the JSON
// object {"tr": "...", "en": "..."}.
type Text struct {
	TR string `json:"tr"`
	EN string `json:"en"`
}

// Get returns the value in lang, falling back to the other language when empty.
func (t Text) Get(lang Language) string {
	v := t.raw(lang)
	if v == "" {
		v = t.raw(lang.Other())
	}
	return v
}

func (t Text) raw(lang Language) string {
	if lang == English {
		return t.EN
	}
	return t.TR
}

// IsZero reports whether both languages are empty.
func (t Text) IsZero() bool {
	return strings.TrimSpace(t.TR) == "" && strings.TrimSpace(t.EN) == ""
}

// Validate requires both translations to be present.
func (t Text) Validate() error {
	var missing []string
	if strings.TrimSpace(t.TR) == "" {
		missing = append(missing, string(Turkish))
	}
	if strings.TrimSpace(t.EN) == "" {
		missing = append(missing, string(English))
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing translation: %s", strings.Join(missing, ", "))
	}
	return nil
}

// UnmarshalJSON accepts only an object whose keys are supported language codes.
func (t *Text) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Text{}
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("bilingual text must be an object of strings: %w", err)
	}
	var out Text
	for k, v := range m {
		lang, err := Parse(k)
		if err != nil {
			return err
		}
		if lang == English {
			out.EN = v
		} else {
			out.TR = v
		}
	}
	*t = out
	return nil
}
