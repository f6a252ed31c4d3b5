package dispatch

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

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
	name := fmt.Sprintf("file:dispatch_test_%d?mode=memory&cache=shared", testDBSeq)
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

func newTestDispatcher(t *testing.T, db *gorm.DB) *Dispatcher {
	t.Helper()
	d, err := NewDispatcher(db, config.DispatchConfig{
		Workers:      2,
		QueueSize:    16,
		MaxRetries:   2,
		RetryBackoff: 10,
	})
	require.NoError(t, err)
	d.Start()
	t.Cleanup(d.Stop)
	return d
}

func seedCampaign(t *testing.T, db *gorm.DB) (*model.Profile, *model.Campaign) {
	t.Helper()
	organizer := model.Profile{Name: "发起人", Role: model.RoleOrganizer}
	require.NoError(t, db.Create(&organizer).Error)
	campaign := model.Campaign{
		Title:       "测试项目",
		Category:    "医疗",
		Location:    "上海",
		MediaURL:    "https://cdn.example.com/cover.jpg",
		GoalAmount:  decimal.NewFromInt(1000),
		Status:      model.CampaignStatusActive,
		Verified:    true,
		OrganizerID: organizer.ID,
	}
	require.NoError(t, db.Create(&campaign).Error)
	return &organizer, &campaign
}

func TestBuildDonationNotification(t *testing.T) {
	db := newTestDB(t)
	d, err := NewDispatcher(db, config.DispatchConfig{})
	require.NoError(t, err)

	donor := model.Profile{Name: "张三", Role: model.RoleDonor}
	require.NoError(t, db.Create(&donor).Error)
	organizer, campaign := seedCampaign(t, db)

	donation := model.Donation{
		CampaignID: campaign.ID,
		DonorID:    donor.ID,
		Amount:     decimal.RequireFromString("99.5"),
	}
	require.NoError(t, db.Create(&donation).Error)

	notification := d.build(&event{
		notifType: model.NotificationTypeDonationReceived,
		campaign:  *campaign,
		donation:  &donation,
	})
	assert.Equal(t, organizer.ID, notification.RecipientID)
	assert.Contains(t, notification.Message, "张三")
	assert.Contains(t, notification.Message, "99.50")

	// 匿名捐赠用固定标签，不暴露捐赠人
	donation.Anonymous = true
	notification = d.build(&event{
		notifType: model.NotificationTypeDonationReceived,
		campaign:  *campaign,
		donation:  &donation,
	})
	assert.Contains(t, notification.Message, model.AnonymousProfileName)
	assert.NotContains(t, notification.Message, "张三")
}

func TestBuildCommentNotificationTruncates(t *testing.T) {
	db := newTestDB(t)
	d, err := NewDispatcher(db, config.DispatchConfig{})
	require.NoError(t, err)

	author := model.Profile{Name: "李四", Role: model.RoleDonor}
	require.NoError(t, db.Create(&author).Error)
	_, campaign := seedCampaign(t, db)

	body := strings.Repeat("爱", commentPreviewLimit+20)
	comment := model.Comment{CampaignID: campaign.ID, AuthorID: author.ID, Body: body}
	require.NoError(t, db.Create(&comment).Error)

	notification := d.build(&event{
		notifType: model.NotificationTypeCommentReceived,
		campaign:  *campaign,
		comment:   &comment,
	})
	preview := strings.Repeat("爱", commentPreviewLimit) + "..."
	assert.Contains(t, notification.Message, preview)
	assert.NotContains(t, notification.Message, body)

	// 留言原文不受截断影响
	var stored model.Comment
	require.NoError(t, db.First(&stored, comment.ID).Error)
	assert.Equal(t, body, stored.Body)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcde", truncate("abcde", 5))
	assert.Equal(t, "abcde...", truncate("abcdef", 5))
	// 按字符截断，多字节字符不会被切碎
	assert.Equal(t, "你好...", truncate("你好世界", 2))
}

func TestDispatchDonationSettled(t *testing.T) {
	db := newTestDB(t)
	d := newTestDispatcher(t, db)

	donor := model.Profile{Name: "张三", Role: model.RoleDonor}
	require.NoError(t, db.Create(&donor).Error)
	organizer, campaign := seedCampaign(t, db)

	donation := model.Donation{
		CampaignID: campaign.ID,
		DonorID:    donor.ID,
		Amount:     decimal.NewFromInt(300),
	}
	require.NoError(t, db.Create(&donation).Error)

	d.OnDonationSettled(&donation, campaign)

	require.Eventually(t, func() bool {
		var count int64
		db.Model(&model.Notification{}).Where("recipient_id = ?", organizer.ID).Count(&count)
		return count == 1
	}, 3*time.Second, 20*time.Millisecond)

	var notification model.Notification
	require.NoError(t, db.Where("recipient_id = ?", organizer.ID).First(&notification).Error)
	assert.Equal(t, model.NotificationTypeDonationReceived, notification.Type)
	require.NotNil(t, notification.CampaignID)
	assert.Equal(t, campaign.ID, *notification.CampaignID)
	require.NotNil(t, notification.DonationID)
	assert.Equal(t, donation.ID, *notification.DonationID)
	assert.False(t, notification.Read)
}

func TestDispatchStatusChanged(t *testing.T) {
	db := newTestDB(t)
	d := newTestDispatcher(t, db)
	organizer, campaign := seedCampaign(t, db)

	d.OnCampaignStatusChanged(campaign, model.CampaignStatusPending, model.CampaignStatusRejected, "材料不全")

	require.Eventually(t, func() bool {
		var count int64
		db.Model(&model.Notification{}).Where("recipient_id = ?", organizer.ID).Count(&count)
		return count == 1
	}, 3*time.Second, 20*time.Millisecond)

	var notification model.Notification
	require.NoError(t, db.Where("recipient_id = ?", organizer.ID).First(&notification).Error)
	assert.Equal(t, model.NotificationTypeCampaignUpdate, notification.Type)
	assert.Contains(t, notification.Message, "材料不全")
}
