// Package suggest generates prompt suggestions around a keyword.
package suggest

//go:generate mockgen -package=mocks -destination=mocks/mock_suggester.go github.com/okian/quipodium/internal/adapters/suggest Suggester

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel kinds for suggester errors.
var (
	ErrRequest            = errors.New("suggestion request failed")
	ErrUnexpectedResponse = errors.New("unexpected suggestion response")
)

// Suggester produces a candidate prompt that mentions keyword. Callers
// validate the result; a Suggester may return text that does not qualify.
type Suggester interface {
	Suggest(ctx context.Context, keyword string) (string, error)
}

// Template is an offline Suggester that fills a fixed question.
type Template struct {
	// Format must contain exactly one %s verb.
	Format string
}

// DefaultTemplate is used when no text-generation endpoint is configured.
var DefaultTemplate = Template{Format: "What is the most surprising thing about %s?"}

var _ Suggester = Template{}

// Suggest implements Suggester.
func (t Template) Suggest(_ context.Context, keyword string) (string, error) {
	return fmt.Sprintf(t.Format, keyword), nil
}
