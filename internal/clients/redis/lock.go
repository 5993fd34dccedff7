package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/clauselens/clauselens-backend/internal/pkg/logger"
	"github.com/clauselens/clauselens-backend/internal/utils"
)

// DocLockService serializes processing per document. Concurrent invocations
// for the same (userId, docId) would otherwise race on the status row with
// last-writer-wins; an advisory lease makes the second invocation fail fast
// instead.
type DocLockService interface {
	// Acquire takes the lease for a document. Returns false when another
	// invocation already holds it.
	Acquire(ctx context.Context, userID, docID string) (bool, error)
	Release(ctx context.Context, userID, docID string)
}

type docLockService struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewDocLockService(log *logger.Logger) (DocLockService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttlSec := utils.GetEnvAsInt("DOC_LOCK_TTL_SECONDS", 600, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &docLockService{
		log: log.With("service", "DocLockService"),
		rdb: rdb,
		ttl: time.Duration(ttlSec) * time.Second,
	}, nil
}

func lockKey(userID, docID string) string {
	return fmt.Sprintf("doclock:%s:%s", userID, docID)
}

func (s *docLockService) Acquire(ctx context.Context, userID, docID string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, lockKey(userID, docID), "1", s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire doc lock: %w", err)
	}
	return ok, nil
}

func (s *docLockService) Release(ctx context.Context, userID, docID string) {
	if err := s.rdb.Del(ctx, lockKey(userID, docID)).Err(); err != nil {
		// The TTL will reap a leaked lease; log and move on.
		s.log.Warn("Failed to release doc lock", "user_id", userID, "doc_id", docID, "error", err)
	}
}
