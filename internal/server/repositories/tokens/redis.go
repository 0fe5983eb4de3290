package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tokens:"

// RedisRepository keeps a user's ledger in a sorted set "tokens:<user id>"
// scored by issue time in microseconds (exact in a float64), which gives
// the ledger its order.
type RedisRepository struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewRedisRepository(rdb redis.Cmdable) *RedisRepository {
	return &RedisRepository{rdb: rdb, now: time.Now}
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

func (r *RedisRepository) Add(ctx context.Context, userID, token string) error {
	err := r.rdb.ZAdd(ctx, redisKey(userID), redis.Z{
		Score:  float64(r.now().UnixMicro()),
		Member: token,
	}).Err()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Contains(ctx context.Context, userID, token string) (bool, error) {
	err := r.rdb.ZScore(ctx, redisKey(userID), token).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return true, nil
}

func (r *RedisRepository) Remove(ctx context.Context, userID, token string) error {
	if err := r.rdb.ZRem(ctx, redisKey(userID), token).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) RemoveAll(ctx context.Context, userID string) error {
	if err := r.rdb.Del(ctx, redisKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) List(ctx context.Context, userID string) ([]models.SessionToken, error) {
	zs, err := r.rdb.ZRangeWithScores(ctx, redisKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	result := make([]models.SessionToken, 0, len(zs))
	for _, z := range zs {
		token, _ := z.Member.(string)
		result = append(result, models.SessionToken{
			UserID:    userID,
			Token:     token,
			CreatedAt: time.UnixMicro(int64(z.Score)),
		})
	}
	return result, nil
}
