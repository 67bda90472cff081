// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/okian/quipodium/internal/adapters/repository"
	"github.com/okian/quipodium/internal/adapters/suggest"
	"github.com/okian/quipodium/internal/adapters/translate"
	"github.com/okian/quipodium/internal/domain/model"
	"github.com/okian/quipodium/pkg/logger"
	"github.com/okian/quipodium/pkg/metrics"
	"golang.org/x/crypto/bcrypt"
)

const defaultMinDetectionScore = 0.3

// Service implements the API dependencies for the game backend.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	players    repository.PlayerStore
	prompts    repository.PromptStore
	translator translate.Translator
	suggester  suggest.Suggester

	// Configuration
	bcryptCost        int
	minDetectionScore float64

	// State
	started   bool
	startedAt time.Time
	ownsStore bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore uses store for both players and prompts. The service closes it
// on Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.players = store
			s.prompts = store
		}
	}
}

// WithPlayerStore sets the player store.
func WithPlayerStore(store repository.PlayerStore) Option {
	return func(s *Service) {
		if store != nil {
			s.players = store
		}
	}
}

// WithPromptStore sets the prompt store.
func WithPromptStore(store repository.PromptStore) Option {
	return func(s *Service) {
		if store != nil {
			s.prompts = store
		}
	}
}

// WithTranslator sets the language detection and translation service.
func WithTranslator(t translate.Translator) Option {
	return func(s *Service) {
		if t != nil {
			s.translator = t
		}
	}
}

// WithSuggester sets the prompt suggestion generator.
func WithSuggester(sg suggest.Suggester) Option {
	return func(s *Service) {
		if sg != nil {
			s.suggester = sg
		}
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// WithMinDetectionScore sets the confidence a language detection needs
// before a prompt is accepted.
func WithMinDetectionScore(score float64) Option {
	return func(s *Service) {
		if score >= 0 && score <= 1 {
			s.minDetectionScore = score
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		translator:        translate.Identity{Language: model.LangEnglish},
		suggester:         suggest.DefaultTemplate,
		bcryptCost:        bcrypt.DefaultCost,
		minDetectionScore: defaultMinDetectionScore,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start prepares the service. Without configured stores an in-memory store
// is created and owned by the service.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting game service...")

	if s.players == nil || s.prompts == nil {
		store := repository.NewMemoryStore(ctx)
		if s.players == nil {
			s.players = store
		}
		if s.prompts == nil {
			s.prompts = store
		}
		s.ownsStore = true
		s.logger.Info(ctx, "using in-memory store")
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "game service started",
		logger.Int("bcryptCost", s.bcryptCost),
		logger.Float64("minDetectionScore", s.minDetectionScore),
	)
	return nil
}

// Stop gracefully shuts down the service and closes its stores.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping game service...")

	closed := map[any]bool{}
	for _, store := range []any{s.players, s.prompts} {
		if closed[store] {
			continue
		}
		closed[store] = true
		if closer, ok := store.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				s.logger.Warn(ctx, "failed to close store", logger.Error(err))
			}
		}
	}

	s.started = false
	s.logger.Info(ctx, "game service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"bcryptCost":        s.bcryptCost,
		"minDetectionScore": s.minDetectionScore,
		"inMemoryStore":     s.ownsStore,
	}

	if s.started {
		stats["uptimeSeconds"] = int(time.Since(s.startedAt).Seconds())
		if n, err := s.players.Count(context.Background()); err == nil {
			stats["totalPlayers"] = n
			metrics.UpdatePlayersTotal(n)
		} else {
			stats["totalPlayersError"] = err.Error()
		}
	}

	return stats
}
