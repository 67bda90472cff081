// Package repository stores players and prompts.
//
// Two backends implement Store: an in-memory map guarded by a RWMutex and a
// Redis store that keeps every record as a JSON value.
package repository

import (
	"context"
	"time"

	"github.com/okian/quipodium/internal/domain/model"
	"github.com/okian/quipodium/pkg/metrics"
)

const (
	backendMemory = "memory"
	backendRedis  = "redis"
)

// PlayerStore provides read/write access to player accounts.
type PlayerStore interface {
	// GetPlayer returns ErrNotFound if the username is unknown.
	GetPlayer(ctx context.Context, username string) (model.Player, error)

	// CreatePlayer stores a new player.
	// Returns ErrAlreadyExists if the username is taken.
	CreatePlayer(ctx context.Context, p model.Player) error

	// PutPlayer inserts or replaces a player record.
	PutPlayer(ctx context.Context, p model.Player) error

	// AddStats atomically adds the deltas to the player's counters and
	// returns the updated record.
	AddStats(ctx context.Context, username string, gamesDelta, scoreDelta int) (model.Player, error)

	// ListPlayers returns a consistent snapshot of every player.
	ListPlayers(ctx context.Context) ([]model.Player, error)

	// Count returns the number of registered players.
	Count(ctx context.Context) (int, error)
}

// PromptStore provides access to prompts and their per-language texts.
type PromptStore interface {
	CreatePrompt(ctx context.Context, p model.Prompt) error
	ListPromptsByAuthor(ctx context.Context, username string) ([]model.Prompt, error)

	// DeletePromptsByAuthor removes every prompt of the author and returns how
	// many were removed.
	DeletePromptsByAuthor(ctx context.Context, username string) (int, error)
}

// Store is the full storage surface used by the service.
type Store interface {
	PlayerStore
	PromptStore
	Close() error
}

func observe(backend, operation string, start time.Time) {
	metrics.RecordStoreLatency(backend, operation, float64(time.Since(start).Microseconds())/1000)
}

func clonePrompt(p model.Prompt) model.Prompt {
	texts := make([]model.Text, len(p.Texts))
	copy(texts, p.Texts)
	p.Texts = texts
	return p
}
