// ABOUTME: ThreadStore persists conversation threads in Redis with a sliding TTL
// ABOUTME: Appends are a single Lua script so sequence numbers stay gap-free
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/harper/modelbridge/internal/models"
	"github.com/redis/go-redis/v9"
)

// ThreadStore is the durability boundary for conversation threads. All
// cross-process coordination happens through the store's atomic
// operations; callers never hold thread state between invocations.
type ThreadStore interface {
	// NewThreadID allocates an opaque identifier. The thread only
	// materializes in the store once its first turn is appended.
	NewThreadID() string

	// AppendTurn atomically assigns the next sequence number, appends
	// the turn, and resets the sliding TTL. With createIfMissing false
	// a missing thread yields ErrThreadExpired. On success the turn's
	// SequenceNumber is set and returned.
	AppendTurn(ctx context.Context, threadID string, turn *models.Turn, createIfMissing bool) (int64, error)

	// LoadThread returns the full thread, ErrThreadNotFound when the
	// record is absent or expired. Loading does not refresh the TTL.
	LoadThread(ctx context.Context, threadID string) (*models.ConversationThread, error)

	// TurnCount reports the number of persisted turns so callers can
	// enforce their own length caps.
	TurnCount(ctx context.Context, threadID string) (int64, error)

	// EvictThread deletes a thread immediately.
	EvictThread(ctx context.Context, threadID string) error
}

// appendScript performs the whole read-modify-write on the server so two
// racing appenders can never interleave. Returns -1 when the thread is
// missing and creation was not requested.
//
// KEYS: meta hash, turns hash, sequence counter
// ARGV: turn JSON, timestamp, TTL millis, create flag
var appendScript = redis.NewScript(`
local exists = redis.call('EXISTS', KEYS[1])
if exists == 0 then
  if ARGV[4] ~= '1' then
    return -1
  end
  redis.call('HSET', KEYS[1], 'created_at', ARGV[2])
end
local seq = redis.call('INCR', KEYS[3])
redis.call('HSET', KEYS[2], seq, ARGV[1])
redis.call('HSET', KEYS[1], 'last_active_at', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
redis.call('PEXPIRE', KEYS[2], ARGV[3])
redis.call('PEXPIRE', KEYS[3], ARGV[3])
return seq
`)

// RedisStore implements ThreadStore against a Redis-compatible server.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to the store at a redis:// URL and validates the
// connection with a ping before returning.
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

// NewRedisStoreWithClient wraps an existing client. Used by tests.
func NewRedisStoreWithClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// NewThreadID returns a fresh 128-bit random identifier.
func (s *RedisStore) NewThreadID() string {
	return uuid.NewString()
}

func metaKey(threadID string) string  { return "thread:" + threadID + ":meta" }
func turnsKey(threadID string) string { return "thread:" + threadID + ":turns" }
func seqKey(threadID string) string   { return "thread:" + threadID + ":seq" }

// AppendTurn runs the append script. The turn is serialized without a
// sequence number; the number is authoritative in the hash field assigned
// by the server-side INCR.
func (s *RedisStore) AppendTurn(ctx context.Context, threadID string, turn *models.Turn, createIfMissing bool) (int64, error) {
	payload, err := json.Marshal(turn)
	if err != nil {
		return 0, fmt.Errorf("marshal turn: %w", err)
	}

	create := "0"
	if createIfMissing {
		create = "1"
	}

	keys := []string{metaKey(threadID), turnsKey(threadID), seqKey(threadID)}
	args := []interface{}{string(payload), time.Now().UTC().Format(time.RFC3339Nano), s.ttl.Milliseconds(), create}

	seq, err := appendScript.Run(ctx, s.rdb, keys, args...).Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: append turn to %s: %v", ErrStoreUnavailable, threadID, err)
	}
	if seq < 0 {
		return 0, fmt.Errorf("%w: %s", ErrThreadExpired, threadID)
	}

	turn.SequenceNumber = seq
	return seq, nil
}

// LoadThread reads the meta and turns hashes and reassembles the thread
// in sequence order.
func (s *RedisStore) LoadThread(ctx context.Context, threadID string) (*models.ConversationThread, error) {
	meta, err := s.rdb.HGetAll(ctx, metaKey(threadID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrStoreUnavailable, threadID, err)
	}
	if len(meta) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}

	raw, err := s.rdb.HGetAll(ctx, turnsKey(threadID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: load turns for %s: %v", ErrStoreUnavailable, threadID, err)
	}

	turns := make([]models.Turn, 0, len(raw))
	for field, payload := range raw {
		seq, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt turn field %q in thread %s", field, threadID)
		}
		var turn models.Turn
		if err := json.Unmarshal([]byte(payload), &turn); err != nil {
			return nil, fmt.Errorf("corrupt turn %d in thread %s: %w", seq, threadID, err)
		}
		turn.SequenceNumber = seq
		turns = append(turns, turn)
	}
	sort.Slice(turns, func(i, j int) bool {
		return turns[i].SequenceNumber < turns[j].SequenceNumber
	})

	thread := &models.ConversationThread{
		ThreadID:     threadID,
		CreatedAt:    parseTime(meta["created_at"]),
		LastActiveAt: parseTime(meta["last_active_at"]),
		Turns:        turns,
	}
	if err := thread.Validate(); err != nil {
		return nil, err
	}
	return thread, nil
}

// TurnCount reports the persisted turn count without loading payloads.
func (s *RedisStore) TurnCount(ctx context.Context, threadID string) (int64, error) {
	exists, err := s.rdb.Exists(ctx, metaKey(threadID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: count turns for %s: %v", ErrStoreUnavailable, threadID, err)
	}
	if exists == 0 {
		return 0, fmt.Errorf("%w: %s", ErrThreadNotFound, threadID)
	}
	n, err := s.rdb.HLen(ctx, turnsKey(threadID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: count turns for %s: %v", ErrStoreUnavailable, threadID, err)
	}
	return n, nil
}

// EvictThread removes all keys for a thread.
func (s *RedisStore) EvictThread(ctx context.Context, threadID string) error {
	err := s.rdb.Del(ctx, metaKey(threadID), turnsKey(threadID), seqKey(threadID)).Err()
	if err != nil {
		return fmt.Errorf("%w: evict %s: %v", ErrStoreUnavailable, threadID, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
