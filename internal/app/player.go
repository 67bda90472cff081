package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/quipodium/internal/adapters/repository"
	"github.com/okian/quipodium/internal/domain/account"
	"github.com/okian/quipodium/internal/domain/model"
	"github.com/okian/quipodium/internal/domain/ranking"
	"github.com/okian/quipodium/internal/domain/types"
	"github.com/okian/quipodium/pkg/logger"
	"github.com/okian/quipodium/pkg/metrics"
)

// Register creates a player with zeroed counters.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if err := s.ready(); err != nil {
		return err
	}

	if err := account.ValidateCredentials(username, password); err != nil {
		metrics.RecordPlayerOperation("register", "rejected")
		return clientError(ErrValidation, err.Error(), err)
	}

	hash, err := account.HashPassword(password, s.bcryptCost)
	if err != nil {
		metrics.RecordPlayerOperation("register", "error")
		return fmt.Errorf("register %q: %w", username, err)
	}

	p := model.Player{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.players.CreatePlayer(ctx, p); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			metrics.RecordPlayerOperation("register", "rejected")
			return clientError(ErrConflict, account.MsgUsernameExists, err)
		}
		metrics.RecordPlayerOperation("register", "error")
		return fmt.Errorf("register %q: %w", username, err)
	}

	metrics.RecordPlayerOperation("register", "ok")
	s.logger.Info(ctx, "player registered", logger.String("username", username), logger.String("id", p.ID))
	return nil
}

// Login checks a username and password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) error {
	if err := s.ready(); err != nil {
		return err
	}

	p, err := s.players.GetPlayer(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordPlayerOperation("login", "rejected")
			return clientError(ErrUnauthorized, account.MsgCredentialsInvalid, nil)
		}
		metrics.RecordPlayerOperation("login", "error")
		return fmt.Errorf("login %q: %w", username, err)
	}

	if !account.CheckPassword(p.PasswordHash, password) {
		metrics.RecordPlayerOperation("login", "rejected")
		return clientError(ErrUnauthorized, account.MsgCredentialsInvalid, nil)
	}

	metrics.RecordPlayerOperation("login", "ok")
	s.logger.Debug(ctx, "player logged in", logger.String("username", username))
	return nil
}

// Update adds to a player's games played and total score.
func (s *Service) Update(ctx context.Context, username string, addGames, addScore int) (model.Player, error) {
	if err := s.ready(); err != nil {
		return model.Player{}, err
	}

	if addGames < 0 {
		metrics.RecordPlayerOperation("update", "rejected")
		return model.Player{}, clientError(ErrValidation, MsgNegativeGames, nil)
	}

	p, err := s.players.AddStats(ctx, username, addGames, addScore)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordPlayerOperation("update", "rejected")
			return model.Player{}, clientError(ErrNotFound, account.MsgPlayerNotFound, err)
		}
		metrics.RecordPlayerOperation("update", "error")
		return model.Player{}, fmt.Errorf("update %q: %w", username, err)
	}

	metrics.RecordPlayerOperation("update", "ok")
	s.logger.Debug(ctx, "player updated",
		logger.String("username", username),
		logger.Int("gamesPlayed", p.GamesPlayed),
		logger.Int("totalScore", p.TotalScore),
	)
	return p, nil
}

// Podium ranks a snapshot of every player into gold, silver and bronze.
// A malformed snapshot yields an error matching ranking.ErrInvalidSnapshot.
func (s *Service) Podium(ctx context.Context) (types.Podium, error) {
	if err := s.ready(); err != nil {
		return types.Podium{}, err
	}

	start := time.Now()
	players, err := s.players.ListPlayers(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrMalformedRecord) {
			metrics.RecordPodiumValidationError()
			s.logger.Error(ctx, "player snapshot is malformed", logger.Error(err))
			return types.Podium{}, fmt.Errorf("%w: %w", ranking.ErrInvalidSnapshot, err)
		}
		return types.Podium{}, fmt.Errorf("podium: %w", err)
	}

	podium, err := ranking.ComputePodium(players)
	if err != nil {
		metrics.RecordPodiumValidationError()
		s.logger.Error(ctx, "podium rejected the player snapshot",
			logger.Int("players", len(players)),
			logger.Error(err),
		)
		return types.Podium{}, err
	}

	metrics.RecordPodiumComputed(
		float64(time.Since(start).Microseconds())/1000,
		len(players), len(podium.Gold), len(podium.Silver), len(podium.Bronze),
	)
	s.logger.Debug(ctx, "podium computed",
		logger.Int("players", len(players)),
		logger.Int("gold", len(podium.Gold)),
		logger.Int("silver", len(podium.Silver)),
		logger.Int("bronze", len(podium.Bronze)),
	)
	return podium, nil
}
