package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/okian/quipodium/internal/domain/model"
	"github.com/okian/quipodium/pkg/metrics"
)

// MemoryStore keeps players and prompts in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	players  map[string]model.Player
	prompts  map[string]model.Prompt
	byAuthor map[string][]string // author -> prompt ids in insertion order

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store and starts its metrics updater.
// The updater stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		players:               make(map[string]model.Player),
		prompts:               make(map[string]model.Prompt),
		byAuthor:              make(map[string][]string),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
		// already closed
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.mu.RLock()
				n := len(s.players)
				s.mu.RUnlock()
				metrics.UpdatePlayersTotal(n)
			}
		}
	}()
}

// GetPlayer implements PlayerStore.GetPlayer.
func (s *MemoryStore) GetPlayer(_ context.Context, username string) (model.Player, error) {
	defer observe(backendMemory, "get_player", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[username]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Player{}, fmt.Errorf("player %q: %w", username, ErrNotFound)
	}
	return p, nil
}

// CreatePlayer implements PlayerStore.CreatePlayer.
func (s *MemoryStore) CreatePlayer(_ context.Context, p model.Player) error {
	defer observe(backendMemory, "create_player", time.Now())

	if p.Username == "" {
		return fmt.Errorf("empty username: %w", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[p.Username]; ok {
		return fmt.Errorf("player %q: %w", p.Username, ErrAlreadyExists)
	}
	s.players[p.Username] = p
	return nil
}

// PutPlayer implements PlayerStore.PutPlayer.
func (s *MemoryStore) PutPlayer(_ context.Context, p model.Player) error {
	defer observe(backendMemory, "put_player", time.Now())

	if p.Username == "" {
		return fmt.Errorf("empty username: %w", ErrInvalidArgument)
	}

	s.mu.Lock()
	s.players[p.Username] = p
	s.mu.Unlock()
	return nil
}

// AddStats implements PlayerStore.AddStats.
func (s *MemoryStore) AddStats(_ context.Context, username string, gamesDelta, scoreDelta int) (model.Player, error) {
	defer observe(backendMemory, "add_stats", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[username]
	if !ok {
		return model.Player{}, fmt.Errorf("player %q: %w", username, ErrNotFound)
	}
	p.GamesPlayed += gamesDelta
	p.TotalScore += scoreDelta
	s.players[username] = p
	return p, nil
}

// ListPlayers implements PlayerStore.ListPlayers. Players are returned
// ordered by username.
func (s *MemoryStore) ListPlayers(_ context.Context) ([]model.Player, error) {
	defer observe(backendMemory, "list_players", time.Now())

	s.mu.RLock()
	out := make([]model.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Player) int { return strings.Compare(a.Username, b.Username) })
	return out, nil
}

// Count implements PlayerStore.Count.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players), nil
}

// CreatePrompt implements PromptStore.CreatePrompt.
func (s *MemoryStore) CreatePrompt(_ context.Context, p model.Prompt) error {
	defer observe(backendMemory, "create_prompt", time.Now())

	if p.ID == "" || p.Username == "" {
		return fmt.Errorf("prompt needs an id and an author: %w", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.prompts[p.ID]; ok {
		return fmt.Errorf("prompt %q: %w", p.ID, ErrAlreadyExists)
	}
	s.prompts[p.ID] = clonePrompt(p)
	s.byAuthor[p.Username] = append(s.byAuthor[p.Username], p.ID)
	return nil
}

// ListPromptsByAuthor implements PromptStore.ListPromptsByAuthor.
// Prompts come back in creation order.
func (s *MemoryStore) ListPromptsByAuthor(_ context.Context, username string) ([]model.Prompt, error) {
	defer observe(backendMemory, "list_prompts", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byAuthor[username]
	out := make([]model.Prompt, 0, len(ids))
	for _, id := range ids {
		out = append(out, clonePrompt(s.prompts[id]))
	}
	return out, nil
}

// DeletePromptsByAuthor implements PromptStore.DeletePromptsByAuthor.
func (s *MemoryStore) DeletePromptsByAuthor(_ context.Context, username string) (int, error) {
	defer observe(backendMemory, "delete_prompts", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byAuthor[username]
	for _, id := range ids {
		delete(s.prompts, id)
	}
	delete(s.byAuthor, username)
	return len(ids), nil
}
