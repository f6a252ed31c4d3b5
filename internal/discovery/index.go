package discovery

import (
	"context"
	"sync"

	"github.com/boring-ventures/minka-sub002/internal/logger"
)

// Index 发现页索引：按顺序尝试各提供者，首个成功的结果生效。
// 任何提供者成功的结果都会留作内存兜底，全部失败时返回最近一次
// 成功的结果并置降级标记。
type Index struct {
	providers []CountsProvider

	mu       sync.RWMutex
	lastGood map[Dimension]Counts
}

// NewIndex 创建发现页索引。providers 按优先级排列，
// 最后一个应为永不失败的静态兜底提供者。
func NewIndex(providers ...CountsProvider) *Index {
	return &Index{
		providers: providers,
		lastGood:  make(map[Dimension]Counts),
	}
}

// CountsByCategory 按分类统计可见项目数量，degraded 为真表示结果来自降级路径
func (i *Index) CountsByCategory(ctx context.Context) (Counts, bool) {
	return i.counts(ctx, DimensionCategory)
}

// CountsByLocation 按地区统计可见项目数量
func (i *Index) CountsByLocation(ctx context.Context) (Counts, bool) {
	return i.counts(ctx, DimensionLocation)
}

func (i *Index) counts(ctx context.Context, dim Dimension) (Counts, bool) {
	for rank, provider := range i.providers {
		counts, err := provider.Counts(ctx, dim)
		if err != nil {
			logger.Warn("Discovery provider %s failed for %s: %v", provider.Name(), dim, err)
			continue
		}

		// 主提供者（首位）成功才算非降级结果
		degraded := rank > 0
		if !degraded {
			i.mu.Lock()
			i.lastGood[dim] = counts
			i.mu.Unlock()
		}
		return counts, degraded
	}

	// 所有提供者都失败，回退到最近一次成功的结果
	i.mu.RLock()
	counts := i.lastGood[dim]
	i.mu.RUnlock()
	logger.Error("All discovery providers failed for %s, serving last-known counts", dim)
	return counts, true
}
