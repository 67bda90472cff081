package model

import (
	"errors"
	"slices"
	"unicode/utf8"
)

// Language codes supported by the prompt pipeline.
const (
	LangEnglish = "en"
	LangIrish   = "ga"
	LangSpanish = "es"
	LangHindi   = "hi"
	LangChinese = "zh-Hans"
	LangPolish  = "pl"
)

// SupportedLanguages lists every language a stored prompt carries a variant for.
var SupportedLanguages = []string{LangEnglish, LangIrish, LangSpanish, LangHindi, LangChinese, LangPolish}

// IsSupportedLanguage reports whether code is one of SupportedLanguages.
func IsSupportedLanguage(code string) bool {
	return slices.Contains(SupportedLanguages, code)
}

// Prompt text bounds, counted in characters.
const (
	MinPromptLength = 20
	MaxPromptLength = 100
)

// ErrPromptLength is returned for prompt texts outside the length bounds.
var ErrPromptLength = errors.New("Prompt less than 20 characters or more than 100 characters") //nolint:staticcheck // client-facing message

// ValidatePromptText checks the prompt length bounds.
func ValidatePromptText(text string) error {
	if n := utf8.RuneCountInString(text); n < MinPromptLength || n > MaxPromptLength {
		return ErrPromptLength
	}
	return nil
}

// Text is one language variant of a prompt.
type Text struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// Prompt is a player-authored prompt with one variant per supported language.
type Prompt struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Texts    []Text `json:"texts"`
}

// TextIn returns the variant for language, if present.
func (p Prompt) TextIn(language string) (string, bool) {
	for _, t := range p.Texts {
		if t.Language == language {
			return t.Text, true
		}
	}
	return "", false
}
