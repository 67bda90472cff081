package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/quipodium/internal/adapters/repository"
	"github.com/okian/quipodium/internal/domain/account"
	"github.com/okian/quipodium/internal/domain/model"
	"github.com/okian/quipodium/internal/domain/types"
	"github.com/okian/quipodium/pkg/logger"
	"github.com/okian/quipodium/pkg/metrics"
)

// CreatePrompt stores text for an existing player together with its
// translation into every other supported language.
func (s *Service) CreatePrompt(ctx context.Context, username, text string) (model.Prompt, error) {
	if err := s.ready(); err != nil {
		return model.Prompt{}, err
	}

	if _, err := s.players.GetPlayer(ctx, username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Prompt{}, clientError(ErrValidation, account.MsgPlayerNotFound, err)
		}
		return model.Prompt{}, fmt.Errorf("create prompt: %w", err)
	}

	if err := model.ValidatePromptText(text); err != nil {
		return model.Prompt{}, clientError(ErrValidation, err.Error(), err)
	}

	detected, err := s.translator.Detect(ctx, text)
	if err != nil {
		return model.Prompt{}, fmt.Errorf("create prompt: detect language: %w", err)
	}
	if !model.IsSupportedLanguage(detected.Language) || detected.Score < s.minDetectionScore {
		s.logger.Debug(ctx, "prompt language rejected",
			logger.String("language", detected.Language),
			logger.Float64("score", detected.Score),
		)
		return model.Prompt{}, clientError(ErrValidation, MsgUnsupportedLanguage, nil)
	}

	targets := slices.DeleteFunc(slices.Clone(model.SupportedLanguages), func(l string) bool {
		return l == detected.Language
	})
	translated, err := s.translator.Translate(ctx, text, detected.Language, targets)
	if err != nil {
		return model.Prompt{}, fmt.Errorf("create prompt: translate: %w", err)
	}

	p := model.Prompt{
		ID:       uuid.NewString(),
		Username: username,
		Texts:    make([]model.Text, 0, len(model.SupportedLanguages)),
	}
	for _, lang := range model.SupportedLanguages {
		variant := text
		if lang != detected.Language {
			variant = translated[lang]
		}
		p.Texts = append(p.Texts, model.Text{Language: lang, Text: variant})
	}

	if err := s.prompts.CreatePrompt(ctx, p); err != nil {
		return model.Prompt{}, fmt.Errorf("create prompt: %w", err)
	}

	metrics.RecordPromptsCreated(1)
	s.logger.Info(ctx, "prompt created",
		logger.String("id", p.ID),
		logger.String("username", username),
		logger.String("language", detected.Language),
	)
	return p, nil
}

// DeletePrompts removes every prompt authored by username and returns the
// number removed. Unknown authors simply have nothing to delete.
func (s *Service) DeletePrompts(ctx context.Context, username string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}

	n, err := s.prompts.DeletePromptsByAuthor(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("delete prompts of %q: %w", username, err)
	}

	metrics.RecordPromptsDeleted(n)
	s.logger.Info(ctx, "prompts deleted", logger.String("username", username), logger.Int("count", n))
	return n, nil
}

// GetPrompts returns the prompts of the listed authors rendered in language.
// Authors are visited in the given order; repeats are ignored.
func (s *Service) GetPrompts(ctx context.Context, players []string, language string) ([]types.PromptView, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	if !model.IsSupportedLanguage(language) {
		return nil, clientError(ErrValidation, MsgUnsupportedLanguage, nil)
	}

	out := []types.PromptView{}
	seen := make(map[string]bool, len(players))
	for _, author := range players {
		if seen[author] {
			continue
		}
		seen[author] = true

		prompts, err := s.prompts.ListPromptsByAuthor(ctx, author)
		if err != nil {
			return nil, fmt.Errorf("get prompts of %q: %w", author, err)
		}
		for _, p := range prompts {
			text, ok := p.TextIn(language)
			if !ok {
				s.logger.Warn(ctx, "prompt has no variant for language",
					logger.String("id", p.ID),
					logger.String("language", language),
				)
				continue
			}
			out = append(out, types.PromptView{ID: p.ID, Text: text, Username: p.Username})
		}
	}
	return out, nil
}

// Suggest returns a generated prompt that mentions keyword, or
// MsgCannotSuggest when no acceptable prompt could be produced.
func (s *Service) Suggest(ctx context.Context, keyword string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		metrics.RecordSuggestionRejected()
		return MsgCannotSuggest, nil
	}

	text, err := s.suggester.Suggest(ctx, keyword)
	if err != nil {
		metrics.RecordSuggestionRejected()
		s.logger.Warn(ctx, "suggestion failed", logger.String("keyword", keyword), logger.Error(err))
		return MsgCannotSuggest, nil
	}

	text = strings.TrimSpace(text)
	if !strings.Contains(strings.ToLower(text), strings.ToLower(keyword)) || model.ValidatePromptText(text) != nil {
		metrics.RecordSuggestionRejected()
		s.logger.Debug(ctx, "suggestion rejected", logger.String("keyword", keyword), logger.String("text", text))
		return MsgCannotSuggest, nil
	}
	return text, nil
}
