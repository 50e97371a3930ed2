package service

import (
	"context"
	"strconv"
	"time"

	"github.com/mandawilson/smile-dashboard/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ActiveSessionsKey is the sorted set of user ids scored by last activity.
const ActiveSessionsKey = "smile:active_sessions"

// SessionStore is the subset of go-redis the session tracker needs.
type SessionStore interface {
	ZAdd(ctx context.Context, key string, members ...redis.Z) *redis.IntCmd
	ZRemRangeByScore(ctx context.Context, key, min, max string) *redis.IntCmd
	ZCount(ctx context.Context, key, min, max string) *redis.IntCmd
}

// SessionService counts users active within the idle timeout. A nil store
// turns every call into a no-op.
type SessionService struct {
	store       SessionStore
	idleTimeout time.Duration
	logger      *zerolog.Logger
	now         func() time.Time
}

func NewSessionService(store SessionStore, idleTimeout time.Duration, logger *zerolog.Logger) *SessionService {
	return &SessionService{
		store:       store,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
	}
}

// Touch records activity for userID, drops idle users and publishes the
// active count. Redis failures are logged and never fail the request.
func (s *SessionService) Touch(ctx context.Context, userID string) {
	if s == nil || s.store == nil || userID == "" {
		return
	}

	now := s.now()
	cutoff := strconv.FormatInt(now.Add(-s.idleTimeout).UnixMilli(), 10)

	if err := s.store.ZAdd(ctx, ActiveSessionsKey, redis.Z{Score: float64(now.UnixMilli()), Member: userID}).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to record session activity")
		return
	}
	if err := s.store.ZRemRangeByScore(ctx, ActiveSessionsKey, "-inf", "("+cutoff).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to expire idle sessions")
	}

	active, err := s.store.ZCount(ctx, ActiveSessionsKey, cutoff, "+inf").Result()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to count active sessions")
		return
	}
	metrics.ActiveSessions.Set(float64(active))
}
