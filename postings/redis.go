package postings

import (
	"context"
	"crypto/tls"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cobrun/geoprefix/errors"
	"github.com/cobrun/geoprefix/telemetry"
)

// termBatch bounds the number of SMEMBERS calls sent in one pipeline.
const termBatch = 256

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addrs        []string
	Password     string
	DB           int
	TLSEnabled   bool
	PoolSize     int
	MinIdleConns int
}

// DefaultRedisConfig returns local defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addrs:        []string{"localhost:6379"},
		PoolSize:     50,
		MinIdleConns: 5,
	}
}

// NewRedisClient connects to Redis, retrying the initial ping.
func NewRedisClient(ctx context.Context, config RedisConfig) (redis.UniversalClient, error) {
	opts := &redis.UniversalOptions{
		Addrs:        config.Addrs,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
	}
	if config.TLSEnabled {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	client := redis.NewUniversalClient(opts)
	err := Retry(ctx, DefaultRetryConfig(), func() error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RedisStore keeps the postings of one field in Redis sets:
//
//	{prefix}{field}:t:{term}  docs posted under term
//	{prefix}{field}:terms     term dictionary
//	{prefix}{field}:d:{doc}   terms of doc
//	{prefix}{field}:gen       write generation
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	metrics *telemetry.IndexMetrics
}

// NewRedisStore creates a store for field under keyPrefix. metrics may be nil.
func NewRedisStore(client redis.UniversalClient, keyPrefix, field string, metrics *telemetry.IndexMetrics) *RedisStore {
	return &RedisStore{
		client:  client,
		prefix:  keyPrefix + field,
		metrics: metrics,
	}
}

func (s *RedisStore) termKey(term string) string {
	return s.prefix + ":t:" + term
}

func (s *RedisStore) termsKey() string {
	return s.prefix + ":terms"
}

func (s *RedisStore) docKey(docID string) string {
	return s.prefix + ":d:" + docID
}

func (s *RedisStore) genKey() string {
	return s.prefix + ":gen"
}

func (s *RedisStore) record(ctx context.Context, op string, start time.Time, err error) {
	s.metrics.RecordStoreOperation(ctx, "redis", op, time.Since(start), err)
}

// maxTxAttempts bounds optimistic retries of a document rewrite.
const maxTxAttempts = 16

// Add implements Store.
func (s *RedisStore) Add(ctx context.Context, docID string, terms []string) (err error) {
	start := time.Now()
	defer func() { s.record(ctx, "add", start, err) }()

	if docID == "" {
		return errors.BadRequest("document id is required")
	}
	return s.rewrite(ctx, docID, uniqueTerms(terms), false)
}

// Delete implements Store. Emptied terms stay in the dictionary and are
// skipped by ForEachTerm.
func (s *RedisStore) Delete(ctx context.Context, docID string) (err error) {
	start := time.Now()
	defer func() { s.record(ctx, "delete", start, err) }()

	return s.rewrite(ctx, docID, nil, true)
}

// rewrite replaces the postings of docID with terms. The document key is
// watched so the read of the old terms and the write commit atomically;
// a concurrent rewrite of the same document restarts the transaction.
func (s *RedisStore) rewrite(ctx context.Context, docID string, terms []string, mustExist bool) error {
	docKey := s.docKey(docID)
	txf := func(tx *redis.Tx) error {
		old, err := tx.SMembers(ctx, docKey).Result()
		if err != nil {
			return errors.UnavailableWrap(err, "failed to read document terms")
		}
		if mustExist && len(old) == 0 {
			return errors.NotFound("document")
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, term := range old {
				pipe.SRem(ctx, s.termKey(term), docID)
			}
			pipe.Del(ctx, docKey)
			if len(terms) > 0 {
				members := make([]any, len(terms))
				for i, term := range terms {
					pipe.SAdd(ctx, s.termKey(term), docID)
					members[i] = term
				}
				pipe.SAdd(ctx, s.termsKey(), members...)
				pipe.SAdd(ctx, docKey, members...)
			}
			pipe.Incr(ctx, s.genKey())
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, docKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			var appErr *errors.AppError
			if errors.As(err, &appErr) {
				return err
			}
			return errors.UnavailableWrap(err, "failed to write postings")
		}
		return nil
	}
	return errors.Unavailable("document " + docID + " is being rewritten concurrently")
}

// Docs implements Store.
func (s *RedisStore) Docs(ctx context.Context, terms []string) (docs []string, err error) {
	start := time.Now()
	defer func() { s.record(ctx, "docs", start, err) }()

	if len(terms) == 0 {
		return []string{}, nil
	}
	keys := make([]string, len(terms))
	for i, term := range terms {
		keys[i] = s.termKey(term)
	}
	docs, err = s.client.SUnion(ctx, keys...).Result()
	if err != nil {
		return nil, errors.UnavailableWrap(err, "failed to read postings")
	}
	sort.Strings(docs)
	return docs, nil
}

// SegmentID implements Store.
func (s *RedisStore) SegmentID(ctx context.Context) (string, error) {
	gen, err := s.client.Get(ctx, s.genKey()).Result()
	if err == redis.Nil {
		return "0", nil
	}
	if err != nil {
		return "", errors.UnavailableWrap(err, "failed to read generation")
	}
	return gen, nil
}

// ForEachTerm implements Store.
func (s *RedisStore) ForEachTerm(ctx context.Context, fn func(term []byte, docIDs []string) error) (err error) {
	start := time.Now()
	defer func() { s.record(ctx, "terms", start, err) }()

	terms, err := s.client.SMembers(ctx, s.termsKey()).Result()
	if err != nil {
		return errors.UnavailableWrap(err, "failed to read term dictionary")
	}
	sort.Strings(terms)

	for lo := 0; lo < len(terms); lo += termBatch {
		batch := terms[lo:min(lo+termBatch, len(terms))]
		cmds := make([]*redis.StringSliceCmd, len(batch))
		_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i, term := range batch {
				cmds[i] = pipe.SMembers(ctx, s.termKey(term))
			}
			return nil
		})
		if err != nil {
			return errors.UnavailableWrap(err, "failed to read postings")
		}
		for i, term := range batch {
			docs := cmds[i].Val()
			if len(docs) == 0 {
				continue
			}
			sort.Strings(docs)
			if err = fn([]byte(term), docs); err != nil {
				return err
			}
		}
	}
	return nil
}

// Ping implements Store.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
