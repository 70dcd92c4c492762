package service

import (
	"context"
	"errors"
	"time"

	"github.com/scrimhub/scrim-lineup/internal/domain/lineup"
	"github.com/scrimhub/scrim-lineup/internal/domain/shared"
	"github.com/scrimhub/scrim-lineup/pkg/circuitbreaker"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
	"github.com/scrimhub/scrim-lineup/pkg/retry"
)

// ResilientStoreConfig configures retries and the breaker around a store.
// Zero values use the retry and breaker presets.
type ResilientStoreConfig struct {
	MaxAttempts      int
	InitialDelay     time.Duration
	MaxDelay         time.Duration
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

// ResilientStore decorates a lineup.MatchRecordStore with retries on
// retryable errors and a circuit breaker. Only unavailability and timeouts
// count toward tripping the breaker; not-found and duplicate errors are
// ordinary answers.
type ResilientStore struct {
	next    lineup.MatchRecordStore
	retrier *retry.Retrier
	breaker *circuitbreaker.CircuitBreaker
	log     *logger.Logger
}

// NewResilientStore wraps next.
func NewResilientStore(next lineup.MatchRecordStore, cfg ResilientStoreConfig, log *logger.Logger) *ResilientStore {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("match-store"))

	s := &ResilientStore{next: next, log: log}
	s.retrier = retry.StoreRetrier(cfg.MaxAttempts, cfg.InitialDelay, cfg.MaxDelay, shared.IsRetryable,
		func(attempt int, err error, delay time.Duration) {
			log.Warn("retrying store call", logger.Int("attempt", attempt), logger.Err(err), logger.Duration("delay", delay))
		})
	s.breaker = circuitbreaker.StoreBreaker(cfg.BreakerThreshold, cfg.BreakerTimeout, shared.IsRetryable,
		func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed", logger.String("breaker", name),
				logger.String("from", from.String()), logger.String("to", to.String()))
		})
	return s
}

var _ lineup.MatchRecordStore = (*ResilientStore)(nil)

// BreakerState exposes the breaker state for readiness reporting.
func (s *ResilientStore) BreakerState() circuitbreaker.State {
	return s.breaker.State()
}

func (s *ResilientStore) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.retrier.Do(ctx, fn)
	})
	if circuitbreaker.Rejected(err) {
		return shared.WrapError("store", op, shared.ErrStoreUnavailable, "match store circuit open", err)
	}
	return err
}

// CreatePlayer implements lineup.MatchRecordStore.
func (s *ResilientStore) CreatePlayer(ctx context.Context, p lineup.Player) error {
	return s.call(ctx, "CreatePlayer", func(ctx context.Context) error {
		return s.next.CreatePlayer(ctx, p)
	})
}

// GetPlayer implements lineup.MatchRecordStore.
func (s *ResilientStore) GetPlayer(ctx context.Context, id shared.PlayerID) (lineup.Player, error) {
	var p lineup.Player
	err := s.call(ctx, "GetPlayer", func(ctx context.Context) error {
		var err error
		p, err = s.next.GetPlayer(ctx, id)
		return err
	})
	return p, err
}

// GetPlayers implements lineup.MatchRecordStore.
func (s *ResilientStore) GetPlayers(ctx context.Context, ids []shared.PlayerID) ([]lineup.Player, error) {
	var players []lineup.Player
	err := s.call(ctx, "GetPlayers", func(ctx context.Context) error {
		var err error
		players, err = s.next.GetPlayers(ctx, ids)
		return err
	})
	return players, err
}

// AppendMatch implements lineup.MatchRecordStore. An insert can land even
// though its acknowledgement is lost, so ErrDuplicateMatch on a retry counts
// as success. On the first attempt it is still returned.
func (s *ResilientStore) AppendMatch(ctx context.Context, m lineup.MatchParticipation) error {
	attempt := 0
	return s.call(ctx, "AppendMatch", func(ctx context.Context) error {
		attempt++
		err := s.next.AppendMatch(ctx, m)
		if attempt > 1 && errors.Is(err, shared.ErrDuplicateMatch) {
			s.log.Debug("retried match append already stored",
				logger.PlayerID(string(m.PlayerID)), logger.MatchID(m.MatchID))
			return nil
		}
		return err
	})
}

// HasMatch implements lineup.MatchRecordStore.
func (s *ResilientStore) HasMatch(ctx context.Context, playerID shared.PlayerID, matchID string) (bool, error) {
	var ok bool
	err := s.call(ctx, "HasMatch", func(ctx context.Context) error {
		var err error
		ok, err = s.next.HasMatch(ctx, playerID, matchID)
		return err
	})
	return ok, err
}

// Ping bypasses retries so readiness reflects the current state.
func (s *ResilientStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
