// Package translate detects the language of prompt texts and translates
// them into the supported languages.
package translate

//go:generate mockgen -package=mocks -destination=mocks/mock_translator.go github.com/okian/quipodium/internal/adapters/translate Translator

import (
	"context"
	"errors"
)

// Sentinel kinds for translator errors.
var (
	ErrRequest            = errors.New("translator request failed")
	ErrUnexpectedResponse = errors.New("unexpected translator response")
)

// Detection is the detected language of a text with the service's confidence.
type Detection struct {
	Language string
	Score    float64
}

// Translator is the language service consumed by the prompt pipeline.
type Translator interface {
	// Detect returns the most likely language of text.
	Detect(ctx context.Context, text string) (Detection, error)

	// Translate translates text from one language into each of to, keyed by
	// target language code.
	Translate(ctx context.Context, text, from string, to []string) (map[string]string, error)
}

// Identity is a Translator for local runs without a language service. It
// reports every text as Language with full confidence and "translates" by
// copying the text.
type Identity struct {
	Language string
}

var _ Translator = Identity{}

// Detect implements Translator.
func (t Identity) Detect(_ context.Context, _ string) (Detection, error) {
	return Detection{Language: t.Language, Score: 1}, nil
}

// Translate implements Translator.
func (t Identity) Translate(_ context.Context, text, _ string, to []string) (map[string]string, error) {
	out := make(map[string]string, len(to))
	for _, lang := range to {
		out[lang] = text
	}
	return out, nil
}
