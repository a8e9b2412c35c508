package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix  = "room:"
	matchKeyPrefix = "match:"
	historyKey     = "history:matches"
	winsKey        = "stats:wins"

	// 房间数据过期时间
	roomExpiration = 2 * time.Hour
	// 对局结束标记过期时间
	matchExpiration = 24 * time.Hour
)

// RoomData 房间数据（用于 Redis 序列化）
type RoomData struct {
	Code      string     `json:"code"`
	Peers     []PeerData `json:"peers"` // 按加入顺序
	MatchID   string     `json:"match_id,omitempty"`
	CreatedAt int64      `json:"created_at"`
}

// PeerData 房间内的玩家
type PeerData struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MatchRecord 一局结束后的记录
type MatchRecord struct {
	MatchID string   `json:"match_id"`
	Room    string   `json:"room"`
	Winner  string   `json:"winner"`
	Reason  string   `json:"reason"`
	Players []string `json:"players"`
	EndedAt int64    `json:"ended_at"`
}

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// --- 房间存储 ---

// SaveRoom 保存房间到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, data *RoomData) error {
	if data == nil {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	return rs.client.Set(ctx, roomKeyPrefix+data.Code, jsonData, roomExpiration).Err()
}

// LoadRoom 从 Redis 加载房间，不存在时返回 nil
func (rs *RedisStore) LoadRoom(ctx context.Context, code string) (*RoomData, error) {
	data, err := rs.client.Get(ctx, roomKeyPrefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}
	return &roomData, nil
}

// DeleteRoom 从 Redis 删除房间
func (rs *RedisStore) DeleteRoom(ctx context.Context, code string) error {
	return rs.client.Del(ctx, roomKeyPrefix+code).Err()
}

// GetAllRoomCodes 获取所有房间号
func (rs *RedisStore) GetAllRoomCodes(ctx context.Context) ([]string, error) {
	var codes []string
	iter := rs.client.Scan(ctx, 0, roomKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		codes = append(codes, iter.Val()[len(roomKeyPrefix):])
	}
	return codes, iter.Err()
}

// --- 对局记录 ---

// RecordMatch 记录对局结果。每个 MatchID 只记录第一次，返回是否写入。
// 历史列表只保留最近 limit 条，同时累加阵营胜场。
func (rs *RedisStore) RecordMatch(ctx context.Context, rec *MatchRecord, limit int) (bool, error) {
	first, err := rs.client.SetNX(ctx, matchKeyPrefix+rec.MatchID+":over", rec.Winner, matchExpiration).Result()
	if err != nil {
		return false, err
	}
	if !first {
		return false, nil
	}

	jsonData, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("序列化对局记录失败: %w", err)
	}

	pipe := rs.client.TxPipeline()
	pipe.LPush(ctx, historyKey, jsonData)
	if limit > 0 {
		pipe.LTrim(ctx, historyKey, 0, int64(limit-1))
	}
	pipe.HIncrBy(ctx, winsKey, rec.Winner, 1)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// RecentMatches 最近 n 场对局，最新的在前
func (rs *RedisStore) RecentMatches(ctx context.Context, n int) ([]MatchRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	items, err := rs.client.LRange(ctx, historyKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}

	records := make([]MatchRecord, 0, len(items))
	for _, item := range items {
		var rec MatchRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// WinCounts 各阵营累计胜场
func (rs *RedisStore) WinCounts(ctx context.Context) (map[string]int64, error) {
	raw, err := rs.client.HGetAll(ctx, winsKey).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(raw))
	for winner, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		counts[winner] = n
	}
	return counts, nil
}

// --- 辅助方法 ---

// SetRoomExpiration 设置房间过期时间
func (rs *RedisStore) SetRoomExpiration(ctx context.Context, code string, expiration time.Duration) error {
	return rs.client.Expire(ctx, roomKeyPrefix+code, expiration).Err()
}

// Ping 检查连接
func (rs *RedisStore) Ping(ctx context.Context) error {
	return rs.client.Ping(ctx).Err()
}

// Close 关闭连接
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
