package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/recserve/core"
	"github.com/rushteam/recserve/model"
)

// RedisInteractionStore 是 Redis 实现的交互日志：
// 每用户一个 list，LPUSH 追加（最新在表头），LRANGE 倒序读取。
// 生产环境常用，list 按 MaxLen 截断防止无界增长。
type RedisInteractionStore struct {
	client    *redis.Client
	keyPrefix string
	maxLen    int64
}

// NewRedisInteractionStore 创建交互日志存储。
// keyPrefix 为空取 "interactions"；maxLen <= 0 取 1000。
func NewRedisInteractionStore(client *redis.Client, keyPrefix string, maxLen int64) *RedisInteractionStore {
	if keyPrefix == "" {
		keyPrefix = "interactions"
	}
	if maxLen <= 0 {
		maxLen = 1000
	}
	return &RedisInteractionStore{client: client, keyPrefix: keyPrefix, maxLen: maxLen}
}

func (s *RedisInteractionStore) key(userID int64) string {
	return fmt.Sprintf("%s:%d", s.keyPrefix, userID)
}

func (s *RedisInteractionStore) Append(ctx context.Context, rec core.InteractionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := s.key(rec.UserID)
	pipe := s.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, s.maxLen-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisInteractionStore) Recent(ctx context.Context, userID int64, limit int) ([]core.InteractionRecord, error) {
	if limit <= 0 {
		limit = int(s.maxLen)
	}
	raw, err := s.client.LRange(ctx, s.key(userID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]core.InteractionRecord, 0, len(raw))
	for _, v := range raw {
		var rec core.InteractionRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

var _ core.InteractionStore = (*RedisInteractionStore)(nil)

// RedisModelStore 持久化训练产物：模型以 gob 编码整体写入单个 key。
// 整体写入保证读者要么拿到旧模型、要么拿到新模型，不会读到半成品。
type RedisModelStore struct {
	client *redis.Client
	key    string
}

// NewRedisModelStore 创建模型存储。key 为空取 "factor_model:latest"。
func NewRedisModelStore(client *redis.Client, key string) *RedisModelStore {
	if key == "" {
		key = "factor_model:latest"
	}
	return &RedisModelStore{client: client, key: key}
}

func (s *RedisModelStore) Save(ctx context.Context, m *model.FactorModel) error {
	data, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key, data, 0).Err()
}

func (s *RedisModelStore) LoadLatest(ctx context.Context) (*model.FactorModel, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrModelUnavailable
	}
	if err != nil {
		return nil, err
	}
	var m model.FactorModel
	if err := m.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &m, nil
}

var _ model.Store = (*RedisModelStore)(nil)
