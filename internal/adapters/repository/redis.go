package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/quipodium/internal/domain/model"
	"github.com/okian/quipodium/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// Key layout, relative to the configured prefix.
const (
	playerKeyPrefix       = "player:"
	playersSetKey         = "players"
	promptKeyPrefix       = "prompt:"
	authorPromptKeyPrefix = "prompts_by_author:"
)

const defaultMaxTxRetries = 5

// RedisStore keeps each player and prompt as a JSON string value.
// Usernames are indexed in a set; prompt ids in one set per author.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	maxRetries int
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps client and checks the connection. The store owns the
// client from then on and closes it on Close.
func NewRedisStore(ctx context.Context, client *redis.Client, opts ...RedisOption) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil: %w", ErrInvalidArgument)
	}

	s := &RedisStore{
		client:     client,
		maxRetries: defaultMaxTxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return s, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) playerKey(username string) string { return s.prefix + playerKeyPrefix + username }
func (s *RedisStore) playersKey() string               { return s.prefix + playersSetKey }
func (s *RedisStore) promptKey(id string) string       { return s.prefix + promptKeyPrefix + id }
func (s *RedisStore) authorKey(username string) string {
	return s.prefix + authorPromptKeyPrefix + username
}

// GetPlayer implements PlayerStore.GetPlayer.
func (s *RedisStore) GetPlayer(ctx context.Context, username string) (model.Player, error) {
	defer observe(backendRedis, "get_player", time.Now())

	key := s.playerKey(username)
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecordErrorByComponent("repository", "not_found")
			return model.Player{}, fmt.Errorf("player %q: %w", username, ErrNotFound)
		}
		return model.Player{}, fmt.Errorf("failed to get player: %w", err)
	}
	return decodePlayer(key, raw)
}

// CreatePlayer implements PlayerStore.CreatePlayer.
func (s *RedisStore) CreatePlayer(ctx context.Context, p model.Player) error {
	defer observe(backendRedis, "create_player", time.Now())

	if p.Username == "" {
		return fmt.Errorf("empty username: %w", ErrInvalidArgument)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	var created *redis.BoolCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.SetNX(ctx, s.playerKey(p.Username), data, 0)
		pipe.SAdd(ctx, s.playersKey(), p.Username)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	if !created.Val() {
		return fmt.Errorf("player %q: %w", p.Username, ErrAlreadyExists)
	}
	return nil
}

// PutPlayer implements PlayerStore.PutPlayer.
func (s *RedisStore) PutPlayer(ctx context.Context, p model.Player) error {
	defer observe(backendRedis, "put_player", time.Now())

	if p.Username == "" {
		return fmt.Errorf("empty username: %w", ErrInvalidArgument)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.playerKey(p.Username), data, 0)
		pipe.SAdd(ctx, s.playersKey(), p.Username)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

// AddStats implements PlayerStore.AddStats with an optimistic WATCH/MULTI
// transaction on the player key.
func (s *RedisStore) AddStats(ctx context.Context, username string, gamesDelta, scoreDelta int) (model.Player, error) {
	defer observe(backendRedis, "add_stats", time.Now())

	key := s.playerKey(username)
	var updated model.Player
	err := s.watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("player %q: %w", username, ErrNotFound)
			}
			return err
		}
		p, err := decodePlayer(key, raw)
		if err != nil {
			return err
		}
		p.GamesPlayed += gamesDelta
		p.TotalScore += scoreDelta

		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal player: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		if err == nil {
			updated = p
		}
		return err
	}, key)
	if err != nil {
		return model.Player{}, err
	}
	return updated, nil
}

// ListPlayers implements PlayerStore.ListPlayers. Records are read with a
// single MGET, so every returned record reflects the same instant. Players
// are returned ordered by username.
func (s *RedisStore) ListPlayers(ctx context.Context) ([]model.Player, error) {
	defer observe(backendRedis, "list_players", time.Now())

	usernames, err := s.client.SMembers(ctx, s.playersKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list usernames: %w", err)
	}
	if len(usernames) == 0 {
		return []model.Player{}, nil
	}
	slices.Sort(usernames)

	keys := make([]string, len(usernames))
	for i, u := range usernames {
		keys[i] = s.playerKey(u)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}

	players := make([]model.Player, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// indexed in the set but the record is gone
			return nil, fmt.Errorf("%s: %w: record missing", keys[i], ErrMalformedRecord)
		}
		p, err := decodePlayer(keys[i], []byte(raw))
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}

// Count implements PlayerStore.Count.
func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, s.playersKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return int(n), nil
}

// CreatePrompt implements PromptStore.CreatePrompt.
func (s *RedisStore) CreatePrompt(ctx context.Context, p model.Prompt) error {
	defer observe(backendRedis, "create_prompt", time.Now())

	if p.ID == "" || p.Username == "" {
		return fmt.Errorf("prompt needs an id and an author: %w", ErrInvalidArgument)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal prompt: %w", err)
	}

	var created *redis.BoolCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		created = pipe.SetNX(ctx, s.promptKey(p.ID), data, 0)
		pipe.SAdd(ctx, s.authorKey(p.Username), p.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create prompt: %w", err)
	}
	if !created.Val() {
		return fmt.Errorf("prompt %q: %w", p.ID, ErrAlreadyExists)
	}
	return nil
}

// ListPromptsByAuthor implements PromptStore.ListPromptsByAuthor.
// Prompts are returned ordered by id.
func (s *RedisStore) ListPromptsByAuthor(ctx context.Context, username string) ([]model.Prompt, error) {
	defer observe(backendRedis, "list_prompts", time.Now())

	ids, err := s.client.SMembers(ctx, s.authorKey(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt ids: %w", err)
	}
	if len(ids) == 0 {
		return []model.Prompt{}, nil
	}
	slices.Sort(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.promptKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get prompts: %w", err)
	}

	prompts := make([]model.Prompt, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// deleted between SMEMBERS and MGET
			continue
		}
		p, err := decodePrompt(keys[i], []byte(raw))
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, nil
}

// DeletePromptsByAuthor implements PromptStore.DeletePromptsByAuthor.
func (s *RedisStore) DeletePromptsByAuthor(ctx context.Context, username string) (int, error) {
	defer observe(backendRedis, "delete_prompts", time.Now())

	setKey := s.authorKey(username)
	var deleted int
	err := s.watch(ctx, func(tx *redis.Tx) error {
		ids, err := tx.SMembers(ctx, setKey).Result()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			deleted = 0
			return nil
		}
		keys := make([]string, 0, len(ids)+1)
		for _, id := range ids {
			keys = append(keys, s.promptKey(id))
		}
		keys = append(keys, setKey)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keys...)
			return nil
		})
		if err == nil {
			deleted = len(ids)
		}
		return err
	}, setKey)
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// watch runs fn in a WATCH transaction, retrying when a watched key changed.
func (s *RedisStore) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < s.maxRetries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%s: %w", strings.Join(keys, ","), ErrConflict)
}

// storedPlayer mirrors model.Player with pointers so that absent fields can
// be told apart from zero values.
type storedPlayer struct {
	ID           string  `json:"id"`
	Username     *string `json:"username"`
	PasswordHash string  `json:"password_hash"`
	GamesPlayed  *int    `json:"games_played"`
	TotalScore   *int    `json:"total_score"`
}

func decodePlayer(key string, raw []byte) (model.Player, error) {
	var sp storedPlayer
	if err := json.Unmarshal(raw, &sp); err != nil {
		return model.Player{}, fmt.Errorf("%s: %w: %v", key, ErrMalformedRecord, err)
	}

	var missing []string
	if sp.Username == nil {
		missing = append(missing, "username")
	}
	if sp.GamesPlayed == nil {
		missing = append(missing, "games_played")
	}
	if sp.TotalScore == nil {
		missing = append(missing, "total_score")
	}
	if len(missing) > 0 {
		return model.Player{}, fmt.Errorf("%s: %w: missing %s", key, ErrMalformedRecord, strings.Join(missing, ", "))
	}

	return model.Player{
		ID:           sp.ID,
		Username:     *sp.Username,
		PasswordHash: sp.PasswordHash,
		GamesPlayed:  *sp.GamesPlayed,
		TotalScore:   *sp.TotalScore,
	}, nil
}

func decodePrompt(key string, raw []byte) (model.Prompt, error) {
	var p model.Prompt
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Prompt{}, fmt.Errorf("%s: %w: %v", key, ErrMalformedRecord, err)
	}
	if p.ID == "" || p.Username == "" {
		return model.Prompt{}, fmt.Errorf("%s: %w: missing id or username", key, ErrMalformedRecord)
	}
	return p, nil
}
