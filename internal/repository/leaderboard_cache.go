package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/pkg/logger"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const leaderboardKey = "learnhub:leaderboard:xp"

// LeaderboardEntry 排行榜条目，XP 来自缓存或数据库
type LeaderboardEntry struct {
	UserID uint
	XP     int
}

// LeaderboardCache Redis 有序集合缓存，Redis 为 nil 时所有操作都是空操作
type LeaderboardCache struct {
	Redis *redis.Client
}

func NewLeaderboardCache(rdb *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{Redis: rdb}
}

func (c *LeaderboardCache) Enabled() bool {
	return c != nil && c.Redis != nil
}

// SetXP 写入用户最新经验值，失败只记录日志
func (c *LeaderboardCache) SetXP(ctx context.Context, userID uint, xp int) {
	if !c.Enabled() {
		return
	}
	err := c.Redis.ZAdd(ctx, leaderboardKey, &redis.Z{
		Score:  float64(xp),
		Member: strconv.FormatUint(uint64(userID), 10),
	}).Err()
	if err != nil {
		logger.Log.Warn("leaderboard cache write failed", zap.Uint("userId", userID), zap.Error(err))
	}
}

// Top 返回缓存中的前 limit 名；缓存为空时返回 nil, nil
func (c *LeaderboardCache) Top(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if !c.Enabled() {
		return nil, nil
	}
	items, err := c.Redis.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]LeaderboardEntry, 0, len(items))
	for _, item := range items {
		member, ok := item.Member.(string)
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(member, 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, LeaderboardEntry{UserID: uint(id), XP: int(item.Score)})
	}
	return entries, nil
}

// Reset 清空排行榜缓存
func (c *LeaderboardCache) Reset(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.Redis.Del(ctx, leaderboardKey).Err()
}

// Warm 用数据库结果重建缓存
func (c *LeaderboardCache) Warm(ctx context.Context, users []model.User) {
	if !c.Enabled() || len(users) == 0 {
		return
	}
	members := make([]*redis.Z, 0, len(users))
	for _, u := range users {
		members = append(members, &redis.Z{
			Score:  float64(u.XP),
			Member: strconv.FormatUint(uint64(u.ID), 10),
		})
	}
	if err := c.Redis.ZAdd(ctx, leaderboardKey, members...).Err(); err != nil {
		logger.Log.Warn("leaderboard cache warm failed", zap.Error(err))
	}
}
