package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/okian/quipodium/internal/domain/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisStoreTestSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	store *RedisStore
	ctx   context.Context
}

func (s *RedisStoreTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.ctx = context.Background()

	client := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	store, err := NewRedisStore(s.ctx, client, WithKeyPrefix("test:"))
	s.Require().NoError(err)
	s.store = store
}

func (s *RedisStoreTestSuite) TearDownTest() {
	_ = s.store.Close()
	s.mr.Close()
}

func TestRedisStoreTestSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreTestSuite))
}

func (s *RedisStoreTestSuite) TestNewRedisStore_NilClient() {
	_, err := NewRedisStore(s.ctx, nil)
	s.Require().Error(err)
	s.True(errors.Is(err, ErrInvalidArgument))
}

func (s *RedisStoreTestSuite) TestCreateAndGetPlayer() {
	err := s.store.CreatePlayer(s.ctx, model.Player{ID: "id-1", Username: "alice", PasswordHash: "hash"})
	s.Require().NoError(err)

	p, err := s.store.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("id-1", p.ID)
	s.Equal("alice", p.Username)
	s.Equal("hash", p.PasswordHash)
	s.Equal(0, p.GamesPlayed)

	s.True(s.mr.Exists("test:player:alice"))
	members, err := s.mr.Members("test:players")
	s.Require().NoError(err)
	s.Equal([]string{"alice"}, members)
}

func (s *RedisStoreTestSuite) TestCreatePlayer_Duplicate() {
	s.Require().NoError(s.store.CreatePlayer(s.ctx, model.Player{Username: "alice", TotalScore: 7}))

	err := s.store.CreatePlayer(s.ctx, model.Player{Username: "alice"})
	s.True(errors.Is(err, ErrAlreadyExists))

	p, err := s.store.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(7, p.TotalScore, "the first record must survive")
}

func (s *RedisStoreTestSuite) TestGetPlayer_NotFound() {
	_, err := s.store.GetPlayer(s.ctx, "ghost")
	s.True(errors.Is(err, ErrNotFound))
}

func (s *RedisStoreTestSuite) TestAddStats() {
	s.Require().NoError(s.store.CreatePlayer(s.ctx, model.Player{Username: "alice"}))

	_, err := s.store.AddStats(s.ctx, "alice", 2, 10)
	s.Require().NoError(err)
	p, err := s.store.AddStats(s.ctx, "alice", 3, 5)
	s.Require().NoError(err)
	s.Equal(5, p.GamesPlayed)
	s.Equal(15, p.TotalScore)

	stored, err := s.store.GetPlayer(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(p, stored)
}

func (s *RedisStoreTestSuite) TestAddStats_NotFound() {
	_, err := s.store.AddStats(s.ctx, "ghost", 1, 1)
	s.True(errors.Is(err, ErrNotFound))
}

func (s *RedisStoreTestSuite) TestAddStats_Concurrent() {
	s.Require().NoError(s.store.CreatePlayer(s.ctx, model.Player{Username: "racer"}))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		okRuns int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.AddStats(s.ctx, "racer", 1, 3); err == nil {
				mu.Lock()
				okRuns++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	p, err := s.store.GetPlayer(s.ctx, "racer")
	s.Require().NoError(err)
	s.Equal(okRuns, p.GamesPlayed, "every successful update is applied exactly once")
	s.Equal(3*okRuns, p.TotalScore)
}

func (s *RedisStoreTestSuite) TestListPlayers() {
	players, err := s.store.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Empty(players)

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		s.Require().NoError(s.store.PutPlayer(s.ctx, model.Player{Username: name, GamesPlayed: 1}))
	}

	players, err = s.store.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	s.Equal("alpha", players[0].Username)
	s.Equal("bravo", players[1].Username)
	s.Equal("charlie", players[2].Username)

	n, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, n)
}

func (s *RedisStoreTestSuite) TestListPlayers_MissingField() {
	s.Require().NoError(s.store.PutPlayer(s.ctx, model.Player{Username: "alpha"}))
	s.Require().NoError(s.mr.Set("test:player:broken", `{"username":"broken","total_score":3}`))
	s.mr.SetAdd("test:players", "broken")

	_, err := s.store.ListPlayers(s.ctx)
	s.Require().Error(err)
	s.True(errors.Is(err, ErrMalformedRecord))
	s.Contains(err.Error(), "games_played")
}

func (s *RedisStoreTestSuite) TestListPlayers_IndexedButMissing() {
	s.mr.SetAdd("test:players", "phantom")

	_, err := s.store.ListPlayers(s.ctx)
	s.True(errors.Is(err, ErrMalformedRecord))
}

func (s *RedisStoreTestSuite) TestGetPlayer_NotJSON() {
	s.Require().NoError(s.mr.Set("test:player:garbled", "not json"))

	_, err := s.store.GetPlayer(s.ctx, "garbled")
	s.True(errors.Is(err, ErrMalformedRecord))
}

func (s *RedisStoreTestSuite) TestPrompts() {
	s.Require().NoError(s.store.CreatePrompt(s.ctx, samplePrompt("p-2", "alice")))
	s.Require().NoError(s.store.CreatePrompt(s.ctx, samplePrompt("p-1", "alice")))
	s.Require().NoError(s.store.CreatePrompt(s.ctx, samplePrompt("p-3", "bobby")))

	err := s.store.CreatePrompt(s.ctx, samplePrompt("p-1", "alice"))
	s.True(errors.Is(err, ErrAlreadyExists))

	prompts, err := s.store.ListPromptsByAuthor(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(prompts, 2)
	s.Equal("p-1", prompts[0].ID)
	s.Equal("p-2", prompts[1].ID)
	text, ok := prompts[0].TextIn(model.LangSpanish)
	s.True(ok)
	s.Contains(text, "boda")

	n, err := s.store.DeletePromptsByAuthor(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(2, n)
	s.False(s.mr.Exists("test:prompt:p-1"))
	s.False(s.mr.Exists("test:prompts_by_author:alice"))

	left, err := s.store.ListPromptsByAuthor(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(left)

	other, err := s.store.ListPromptsByAuthor(s.ctx, "bobby")
	s.Require().NoError(err)
	s.Len(other, 1)

	n, err = s.store.DeletePromptsByAuthor(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Equal(0, n)
}

func (s *RedisStoreTestSuite) TestCreatePrompt_InvalidArgument() {
	err := s.store.CreatePrompt(s.ctx, model.Prompt{ID: "x"})
	s.True(errors.Is(err, ErrInvalidArgument))
}
