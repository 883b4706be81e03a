package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/renderwatch/internal/monitoring/export"
)

var ErrNoExport = errors.New("no export stored")

const keyPrefix = "renderwatch"

// ExportStore keeps exported diagnostics in Redis. Every export is stored
// under its own key with a TTL equal to the retention window and indexed in a
// sorted set scored by export time.
type ExportStore struct {
	rdb       *redis.Client
	retention time.Duration
}

// NewExportStore creates a store on an existing client.
func NewExportStore(client *Client, retention time.Duration) *ExportStore {
	return &ExportStore{rdb: client.rdb, retention: retention}
}

// Key helpers
func indexKey() string {
	return keyPrefix + ":exports"
}

func exportKey(at time.Time, format export.Format) string {
	return fmt.Sprintf("%s:export:%d:%s", keyPrefix, at.UnixMilli(), format)
}

func latestKey(format export.Format) string {
	return fmt.Sprintf("%s:export:latest:%s", keyPrefix, format)
}

func (s *ExportStore) Name() string { return "redis" }

// Write stores the document, refreshes the latest pointer for its format and
// trims index entries older than the retention window.
func (s *ExportStore) Write(ctx context.Context, doc export.Document) error {
	key := exportKey(doc.ExportedAt, doc.Format)
	cutoff := doc.ExportedAt.Add(-s.retention).UnixMilli()

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key, doc.Body, s.retention)
	pipe.Set(ctx, latestKey(doc.Format), doc.Body, s.retention)
	pipe.ZAdd(ctx, indexKey(), redis.Z{Score: float64(doc.ExportedAt.UnixMilli()), Member: key})
	pipe.ZRemRangeByScore(ctx, indexKey(), "-inf", "("+strconv.FormatInt(cutoff, 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store export: %w", err)
	}
	return nil
}

// Latest returns the most recent export in the given format.
func (s *ExportStore) Latest(ctx context.Context, format export.Format) (string, error) {
	body, err := s.rdb.Get(ctx, latestKey(format)).Result()
	if err == redis.Nil {
		return "", ErrNoExport
	}
	if err != nil {
		return "", fmt.Errorf("get failed: %w", err)
	}
	return body, nil
}

// Keys lists stored export keys exported at or after since, oldest first.
func (s *ExportStore) Keys(ctx context.Context, since time.Time) ([]string, error) {
	keys, err := s.rdb.ZRangeByScore(ctx, indexKey(), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMilli(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("zrangebyscore failed: %w", err)
	}
	return keys, nil
}
