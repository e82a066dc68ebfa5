package kvstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store over a single *redis.Client. RediSearch isn't
// modeled as a distinct client in go-redis/v9 — the FT.* commands are sent
// as raw commands via Do, exactly as original_source/redis_utils.py calls
// r.execute_command("FT._LIST") alongside the typed redis-py calls.
type RedisStore struct {
	rdb *redis.Client
}

// RedisConfig holds connection parameters, mirroring redis_utils.py's
// HOST/PORT/DB/PASSWORD environment-derived defaults.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisStore dials host:port and returns a Store backed by it.
func NewRedisStore(cfg RedisConfig) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("kvstore: get %s: %w", key, err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("kvstore: set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("kvstore: delete %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("kvstore: exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (s *RedisStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	if err := s.rdb.HSet(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("kvstore: hset %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("kvstore: hgetall %s: %w", key, err)
	}
	return m, nil
}

// ScanKeys iterates with SCAN rather than KEYS, matching redis_utils.py's
// scan_iter usage — KEYS blocks the server on a large keyspace.
func (s *RedisStore) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("kvstore: scan %s: %w", pattern, err)
	}
	return keys, nil
}

func (s *RedisStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	keys, err := s.ScanKeys(ctx, pattern)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("kvstore: delete matching %s: %w", pattern, err)
	}
	return len(keys), nil
}

// IndexExists asks FT._LIST for every known index id and checks membership,
// the same approach as redis_utils.py's index_exists.
func (s *RedisStore) IndexExists(ctx context.Context, id string) (bool, error) {
	res, err := s.rdb.Do(ctx, "FT._LIST").StringSlice()
	if err != nil {
		return false, fmt.Errorf("kvstore: FT._LIST: %w", err)
	}
	for _, name := range res {
		if name == id {
			return true, nil
		}
	}
	return false, nil
}

// CreateIndexIfNotExists issues FT.CREATE with a SCHEMA built from def.Fields
// and a PREFIX clause from def.Prefixes, matching redis_utils.py's
// create_index(id, schema, prefixes).
func (s *RedisStore) CreateIndexIfNotExists(ctx context.Context, def IndexDefinition) error {
	exists, err := s.IndexExists(ctx, def.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	args := []any{"FT.CREATE", def.ID, "ON", "HASH"}
	if len(def.Prefixes) > 0 {
		args = append(args, "PREFIX", len(def.Prefixes))
		for _, p := range def.Prefixes {
			args = append(args, p)
		}
	}
	args = append(args, "SCHEMA")
	for _, f := range def.Fields {
		args = append(args, f.Name)
		switch f.Type {
		case FieldTag:
			args = append(args, "TAG")
		case FieldNumeric:
			args = append(args, "NUMERIC")
		case FieldText:
			args = append(args, "TEXT")
		}
		if f.Sortable {
			args = append(args, "SORTABLE")
		}
	}

	if err := s.rdb.Do(ctx, args...).Err(); err != nil {
		return fmt.Errorf("kvstore: FT.CREATE %s: %w", def.ID, err)
	}
	return nil
}

// DropIndex issues FT.DROPINDEX without deleting the indexed documents,
// mirroring redis_utils.py's delete_index(delete_documents=False).
func (s *RedisStore) DropIndex(ctx context.Context, id string) error {
	exists, err := s.IndexExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if err := s.rdb.Do(ctx, "FT.DROPINDEX", id).Err(); err != nil {
		return fmt.Errorf("kvstore: FT.DROPINDEX %s: %w", id, err)
	}
	return nil
}

// Search runs FT.SEARCH and extracts just the matching document keys,
// discarding the field/value pairs RediSearch also returns.
func (s *RedisStore) Search(ctx context.Context, id, query string) ([]string, error) {
	res, err := s.rdb.Do(ctx, "FT.SEARCH", id, query, "NOCONTENT").Slice()
	if err != nil {
		return nil, fmt.Errorf("kvstore: FT.SEARCH %s %q: %w", id, query, err)
	}
	if len(res) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(res)-1)
	for _, item := range res[1:] {
		if s, ok := item.(string); ok {
			keys = append(keys, s)
		}
	}
	return keys, nil
}

// Ping checks connectivity, following the teacher's Store.Ping health-check method.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("kvstore: ping: %w", err)
	}
	return nil
}
