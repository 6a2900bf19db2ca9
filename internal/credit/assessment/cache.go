package assessment

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"
	"time"

	"credit-default-risk/internal/common/database"
	"credit-default-risk/internal/common/errors"
	"credit-default-risk/internal/credit/features"
	"credit-default-risk/internal/models"
)

const cacheKeyPrefix = "credit:prediction:"

// PredictionCache stores classifier results. Identical vectors and thresholds
// always classify the same way, so a hit can stand in for a model call.
type PredictionCache interface {
	Get(ctx context.Context, key string) (models.PredictionResult, bool, error)
	Set(ctx context.Context, key string, result models.PredictionResult) error
}

// CacheKey hashes the schema, the vector values and the threshold.
func CacheKey(vector features.FeatureVector, threshold float64) string {
	h := sha256.New()
	for _, name := range vector.Schema().Names() {
		h.Write([]byte(name))
		h.Write([]byte{0})
	}
	var buf [8]byte
	for _, v := range vector.Values() {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(threshold))
	h.Write(buf[:])
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// RedisCache keeps predictions in Redis with a fixed TTL.
type RedisCache struct {
	client *database.RedisClient
	ttl    time.Duration
}

func NewRedisCache(client *database.RedisClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.PredictionResult, bool, error) {
	raw, err := c.client.Get(ctx, key)
	if database.IsMiss(err) {
		return models.PredictionResult{}, false, nil
	}
	if err != nil {
		return models.PredictionResult{}, false, errors.NewCacheUnavailableError(err)
	}

	var result models.PredictionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		// treat a corrupt entry as a miss; Set will overwrite it
		return models.PredictionResult{}, false, nil
	}
	return result, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, result models.PredictionResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		return errors.NewCacheUnavailableError(err)
	}
	return nil
}
