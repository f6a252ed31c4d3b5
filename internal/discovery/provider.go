// Package discovery 实现发现页的读优化聚合：按分类、按地区统计当前公开可见的
// 项目数量。索引是尽力而为的缓存，允许陈旧，底层不可用时降级到兜底数据而不是
// 向上抛错。
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/boring-ventures/minka-sub002/internal/config"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// LabelCount 单个标签的项目计数
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// Counts 按计数降序排列的统计结果
type Counts []LabelCount

// Dimension 统计维度
type Dimension string

const (
	DimensionCategory Dimension = "category"
	DimensionLocation Dimension = "location"
)

// CountsProvider 计数提供者。索引按顺序尝试多个提供者，
// 排在最后的必须是永不失败的静态兜底。
type CountsProvider interface {
	Name() string
	Counts(ctx context.Context, dim Dimension) (Counts, error)
}

// sortCounts 按计数降序、同计数按标签升序排序
func sortCounts(counts Counts) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Label < counts[j].Label
	})
}

// DBProvider 基于数据库的实时聚合，统计满足可见性规则的项目
type DBProvider struct {
	db *gorm.DB
}

// NewDBProvider 创建数据库计数提供者
func NewDBProvider(db *gorm.DB) *DBProvider {
	return &DBProvider{db: db}
}

func (p *DBProvider) Name() string { return "database" }

func (p *DBProvider) Counts(ctx context.Context, dim Dimension) (Counts, error) {
	column, err := dimensionColumn(dim)
	if err != nil {
		return nil, err
	}

	var counts Counts
	err = p.db.WithContext(ctx).Model(&model.Campaign{}).
		Select(column+" AS label, COUNT(*) AS count").
		Where("status IN ? AND verified = ?", []model.CampaignStatus{
			model.CampaignStatusActive,
			model.CampaignStatusPaused,
			model.CampaignStatusCompleted,
		}, true).
		Where(column + " <> ''").
		Group(column).
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate campaign counts: %w", err)
	}
	sortCounts(counts)
	return counts, nil
}

// RedisProvider 基于 Redis 快照的计数提供者，快照由定时任务刷新
type RedisProvider struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisProvider 创建 Redis 计数提供者
func NewRedisProvider(client *redis.Client, cfg config.DiscoveryConfig) *RedisProvider {
	ttl := time.Duration(cfg.CacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisProvider{client: client, keyPrefix: "discovery:counts:", ttl: ttl}
}

func (p *RedisProvider) Name() string { return "redis" }

func (p *RedisProvider) Counts(ctx context.Context, dim Dimension) (Counts, error) {
	raw, err := p.client.Get(ctx, p.keyPrefix+string(dim)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read counts snapshot: %w", err)
	}
	var counts Counts
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		return nil, fmt.Errorf("failed to decode counts snapshot: %w", err)
	}
	sortCounts(counts)
	return counts, nil
}

// Store 写入计数快照，供刷新任务调用
func (p *RedisProvider) Store(ctx context.Context, dim Dimension, counts Counts) error {
	raw, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("failed to encode counts snapshot: %w", err)
	}
	return p.client.Set(ctx, p.keyPrefix+string(dim), raw, p.ttl).Err()
}

// StaticProvider 配置提供的静态兜底数据，启动时加载一次后不可变，永不失败
type StaticProvider struct {
	category Counts
	location Counts
}

// NewStaticProvider 从配置构建静态兜底提供者
func NewStaticProvider(cfg config.FallbackConfig) *StaticProvider {
	return &StaticProvider{
		category: countsFromMap(cfg.Categories),
		location: countsFromMap(cfg.Locations),
	}
}

func (p *StaticProvider) Name() string { return "static" }

func (p *StaticProvider) Counts(_ context.Context, dim Dimension) (Counts, error) {
	switch dim {
	case DimensionCategory:
		return p.category, nil
	case DimensionLocation:
		return p.location, nil
	default:
		return nil, fmt.Errorf("unknown dimension: %s", dim)
	}
}

func countsFromMap(m map[string]int64) Counts {
	counts := make(Counts, 0, len(m))
	for label, count := range m {
		counts = append(counts, LabelCount{Label: label, Count: count})
	}
	sortCounts(counts)
	return counts
}

func dimensionColumn(dim Dimension) (string, error) {
	switch dim {
	case DimensionCategory:
		return "category", nil
	case DimensionLocation:
		return "location", nil
	default:
		return "", fmt.Errorf("unknown dimension: %s", dim)
	}
}
