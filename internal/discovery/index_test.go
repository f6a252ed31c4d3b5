package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/boring-ventures/minka-sub002/internal/config"
	"github.com/boring-ventures/minka-sub002/internal/database"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq int
var testDBMu sync.Mutex

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testDBMu.Lock()
	testDBSeq++
	name := fmt.Sprintf("file:discovery_test_%d?mode=memory&cache=shared", testDBSeq)
	testDBMu.Unlock()

	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// stubProvider 可注入结果或失败的提供者桩
type stubProvider struct {
	name   string
	counts Counts
	err    error
	calls  int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Counts(_ context.Context, _ Dimension) (Counts, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.counts, nil
}

func seedCampaign(t *testing.T, db *gorm.DB, category, location string, status model.CampaignStatus, verified bool) {
	t.Helper()
	organizer := model.Profile{Name: "发起人", Role: model.RoleOrganizer}
	require.NoError(t, db.Create(&organizer).Error)
	campaign := model.Campaign{
		Title:       "测试项目",
		Category:    category,
		Location:    location,
		MediaURL:    "https://cdn.example.com/cover.jpg",
		GoalAmount:  decimal.NewFromInt(1000),
		Status:      status,
		Verified:    verified,
		OrganizerID: organizer.ID,
	}
	require.NoError(t, db.Create(&campaign).Error)
}

func TestDBProviderCountsVisibleOnly(t *testing.T) {
	db := newTestDB(t)
	provider := NewDBProvider(db)

	seedCampaign(t, db, "医疗", "上海", model.CampaignStatusActive, true)
	seedCampaign(t, db, "医疗", "北京", model.CampaignStatusPaused, true)
	seedCampaign(t, db, "教育", "上海", model.CampaignStatusCompleted, true)
	// 以下均不计入：草稿、待审核、被驳回、已上线但未过审、空标签
	seedCampaign(t, db, "医疗", "上海", model.CampaignStatusDraft, false)
	seedCampaign(t, db, "医疗", "上海", model.CampaignStatusPending, false)
	seedCampaign(t, db, "医疗", "上海", model.CampaignStatusRejected, false)
	seedCampaign(t, db, "医疗", "上海", model.CampaignStatusActive, false)
	seedCampaign(t, db, "", "上海", model.CampaignStatusActive, true)

	counts, err := provider.Counts(context.Background(), DimensionCategory)
	require.NoError(t, err)
	assert.Equal(t, Counts{
		{Label: "医疗", Count: 2},
		{Label: "教育", Count: 1},
	}, counts)

	counts, err = provider.Counts(context.Background(), DimensionLocation)
	require.NoError(t, err)
	assert.Equal(t, Counts{
		{Label: "上海", Count: 3},
		{Label: "北京", Count: 1},
	}, counts)
}

func TestStaticProviderSorted(t *testing.T) {
	provider := NewStaticProvider(config.FallbackConfig{
		Categories: map[string]int64{"教育": 5, "医疗": 12, "救灾": 5},
	})

	counts, err := provider.Counts(context.Background(), DimensionCategory)
	require.NoError(t, err)
	// 计数降序，同计数按标签升序
	assert.Equal(t, Counts{
		{Label: "医疗", Count: 12},
		{Label: "救灾", Count: 5},
		{Label: "教育", Count: 5},
	}, counts)
}

func TestIndexPrimarySuccess(t *testing.T) {
	primary := &stubProvider{name: "database", counts: Counts{{Label: "医疗", Count: 3}}}
	secondary := &stubProvider{name: "static", counts: Counts{{Label: "兜底", Count: 1}}}
	index := NewIndex(primary, secondary)

	counts, degraded := index.CountsByCategory(context.Background())
	assert.False(t, degraded)
	assert.Equal(t, Counts{{Label: "医疗", Count: 3}}, counts)
	assert.Equal(t, 0, secondary.calls, "主提供者成功时不应触达后备")
}

func TestIndexFallbackChain(t *testing.T) {
	primary := &stubProvider{name: "database", err: errors.New("connection refused")}
	secondary := &stubProvider{name: "redis", err: errors.New("timeout")}
	static := &stubProvider{name: "static", counts: Counts{{Label: "兜底", Count: 1}}}
	index := NewIndex(primary, secondary, static)

	counts, degraded := index.CountsByCategory(context.Background())
	assert.True(t, degraded, "非主提供者的结果必须置降级标记")
	assert.Equal(t, Counts{{Label: "兜底", Count: 1}}, counts)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestIndexLastKnownGood(t *testing.T) {
	primary := &stubProvider{name: "database", counts: Counts{{Label: "医疗", Count: 3}}}
	index := NewIndex(primary)

	// 第一次成功，结果留作内存兜底
	counts, degraded := index.CountsByCategory(context.Background())
	assert.False(t, degraded)
	require.Equal(t, Counts{{Label: "医疗", Count: 3}}, counts)

	// 之后提供者全挂，返回最近一次成功的结果并降级
	primary.err = errors.New("connection refused")
	counts, degraded = index.CountsByCategory(context.Background())
	assert.True(t, degraded)
	assert.Equal(t, Counts{{Label: "医疗", Count: 3}}, counts)
}

func TestIndexAllFailNoHistory(t *testing.T) {
	primary := &stubProvider{name: "database", err: errors.New("connection refused")}
	index := NewIndex(primary)

	counts, degraded := index.CountsByCategory(context.Background())
	assert.True(t, degraded)
	assert.Empty(t, counts)
}
