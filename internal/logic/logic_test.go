package logic

import (
	"fmt"
	"sync"
	"testing"

	"github.com/boring-ventures/minka-sub002/internal/database"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBSeq int
var testDBMu sync.Mutex

// newTestDB 创建内存数据库，单连接避免 SQLite 并发写锁
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testDBMu.Lock()
	testDBSeq++
	name := fmt.Sprintf("file:logic_test_%d?mode=memory&cache=shared", testDBSeq)
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

// fakeNotifier 记录派发调用的测试替身
type fakeNotifier struct {
	mu               sync.Mutex
	settledDonations []model.Donation
	comments         []model.Comment
	statusChanges    []model.CampaignStatus
}

func (f *fakeNotifier) OnDonationSettled(donation *model.Donation, campaign *model.Campaign) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settledDonations = append(f.settledDonations, *donation)
}

func (f *fakeNotifier) OnCommentCreated(comment *model.Comment, campaign *model.Campaign) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments = append(f.comments, *comment)
}

func (f *fakeNotifier) OnCampaignStatusChanged(campaign *model.Campaign, from, to model.CampaignStatus, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusChanges = append(f.statusChanges, to)
}

func (f *fakeNotifier) settledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.settledDonations)
}

// createProfile 创建测试档案
func createProfile(t *testing.T, db *gorm.DB, name string, role model.Role) *model.Profile {
	t.Helper()
	profile := model.Profile{Name: name, Role: role}
	require.NoError(t, db.Create(&profile).Error)
	return &profile
}

// createCampaign 创建指定状态的测试项目
func createCampaign(t *testing.T, db *gorm.DB, organizerID uint, goal string, status model.CampaignStatus, verified bool) *model.Campaign {
	t.Helper()
	campaign := model.Campaign{
		Title:       "测试项目",
		Description: "为测试而生",
		Category:    "医疗",
		Location:    "上海",
		MediaURL:    "https://cdn.example.com/cover.jpg",
		GoalAmount:  decimal.RequireFromString(goal),
		Status:      status,
		Verified:    verified,
		OrganizerID: organizerID,
	}
	require.NoError(t, db.Create(&campaign).Error)
	return &campaign
}

// recordDonation 登记一笔待结算捐赠
func recordDonation(t *testing.T, l *DonationLogic, campaignID, donorID uint, amount string) *model.Donation {
	t.Helper()
	donation := model.Donation{
		CampaignID: campaignID,
		DonorID:    donorID,
		Amount:     decimal.RequireFromString(amount),
	}
	require.NoError(t, l.Record(&donation))
	return &donation
}
