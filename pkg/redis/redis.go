package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"seatboard/backend/config"
)

// Client Redis 客户端封装
// 当前用于候课区名单与签到限流
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// NewFromClient 包装已有的 go-redis 客户端（测试使用）
func NewFromClient(rdb *goredis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── 候课区 ──

const waitingPrefix = "academy:waiting:"

// WaitingMember 候课区哈希中的一项
type WaitingMember struct {
	StudentID string
	EnteredAt time.Time
}

func waitingKey(academyNumber int) string {
	return waitingPrefix + strconv.Itoa(academyNumber)
}

// EnterWaiting 学生进入候课区，重复进入只刷新时间
func (c *Client) EnterWaiting(ctx context.Context, academyNumber int, studentID string, at time.Time) error {
	return c.rdb.HSet(ctx, waitingKey(academyNumber), studentID, at.UTC().Format(time.RFC3339)).Err()
}

// LeaveWaiting 学生离开候课区（入座或离校）
func (c *Client) LeaveWaiting(ctx context.Context, academyNumber int, studentID string) error {
	return c.rdb.HDel(ctx, waitingKey(academyNumber), studentID).Err()
}

// ListWaiting 按进入时间升序返回候课区名单
func (c *Client) ListWaiting(ctx context.Context, academyNumber int) ([]WaitingMember, error) {
	m, err := c.rdb.HGetAll(ctx, waitingKey(academyNumber)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]WaitingMember, 0, len(m))
	for studentID, raw := range m {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.logger.Warn("候课区时间格式无效", zap.String("student_id", studentID), zap.String("value", raw))
			continue
		}
		entries = append(entries, WaitingMember{StudentID: studentID, EnteredAt: at})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].EnteredAt.Equal(entries[j].EnteredAt) {
			return entries[i].StudentID < entries[j].StudentID
		}
		return entries[i].EnteredAt.Before(entries[j].EnteredAt)
	})
	return entries, nil
}

// ── 限流 ──

// CheckRateLimit 基于有序集合的滑动窗口计数，返回本次请求是否放行
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	member := fmt.Sprintf("%d-%s", now.UnixNano(), uuid.NewString()[:8])

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(now.Add(-window).UnixNano(), 10))
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: member})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return card.Val() <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
